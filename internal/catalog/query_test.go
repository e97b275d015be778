package catalog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleProducts() []Product {
	return []Product{
		{ID: 1, Name: "Hoa Hồng Đỏ", FinalPrice: 300000, AverageRating: 4.5, FlowerNames: []string{"Hoa hồng"}, OccasionNames: []string{"Sinh nhật"}},
		{ID: 2, Name: "Cúc Họa Mi", FinalPrice: 150000, AverageRating: 4.9, FlowerNames: []string{"Hoa cúc"}, OccasionNames: []string{"Khai trương"}},
		{ID: 3, Name: "Lan Hồ Điệp", FinalPrice: 900000, AverageRating: 3.2, FlowerNames: []string{"Hoa lan"}, OccasionNames: []string{"Khai trương", "Sinh nhật"}},
		{ID: 4, Name: "Hướng Dương", FinalPrice: 200000, AverageRating: 4.0, FlowerNames: []string{"Hướng dương"}},
	}
}

func TestParseQuery(t *testing.T) {
	v := url.Values{
		"flowerType": {"Hoa hồng,Hoa lan", " Hoa cúc "},
		"occasion":   {"Sinh nhật"},
		"priceMin":   {"100000"},
		"priceMax":   {"abc"},
		"page":       {"2"},
	}
	q := ParseQuery(v)
	assert.Equal(t, []string{"Hoa hồng", "Hoa lan", "Hoa cúc"}, q.Flowers)
	assert.Equal(t, []string{"Sinh nhật"}, q.Occasions)
	if assert.NotNil(t, q.PriceMin) {
		assert.Equal(t, 100000.0, *q.PriceMin)
	}
	assert.Nil(t, q.PriceMax)
	assert.Equal(t, SortDefault, q.Sort)
	assert.Equal(t, 2, q.Page)

	assert.Equal(t, 1, ParseQuery(url.Values{"page": {"-3"}}).Page)
}

func TestApply_FiltersAnyOf(t *testing.T) {
	q := Query{Flowers: []string{"Hoa hồng", "Hoa lan"}, Page: 1}
	page := Apply(sampleProducts(), q)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Items[0].ID)
	assert.Equal(t, 3, page.Items[1].ID)

	q = Query{Occasions: []string{"Khai trương"}, Flowers: []string{"Hoa lan"}, Page: 1}
	page = Apply(sampleProducts(), q)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "lan-ho-diep", page.Items[0].Slug)
}

func TestApply_PriceRangeInclusive(t *testing.T) {
	lo, hi := 150000.0, 300000.0
	page := Apply(sampleProducts(), Query{PriceMin: &lo, PriceMax: &hi, Page: 1})
	assert.Equal(t, 3, page.Total)
}

func TestApply_Sorts(t *testing.T) {
	ids := func(p Page) []int {
		var out []int
		for _, c := range p.Items {
			out = append(out, c.ID)
		}
		return out
	}
	assert.Equal(t, []int{2, 4, 1, 3}, ids(Apply(sampleProducts(), Query{Sort: SortPriceLowHigh, Page: 1})))
	assert.Equal(t, []int{3, 1, 4, 2}, ids(Apply(sampleProducts(), Query{Sort: SortPriceHighLow, Page: 1})))
	assert.Equal(t, []int{2, 1, 4, 3}, ids(Apply(sampleProducts(), Query{Sort: SortRatingHighLow, Page: 1})))
	assert.Equal(t, []int{1, 2, 3, 4}, ids(Apply(sampleProducts(), Query{Sort: "bogus", Page: 1})))
}

func TestApply_Pagination(t *testing.T) {
	var products []Product
	for i := 1; i <= 19; i++ {
		products = append(products, Product{ID: i, Name: "p"})
	}
	page := Apply(products, Query{Page: 3})
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 17, page.Items[0].ID)

	past := Apply(products, Query{Page: 9})
	assert.Empty(t, past.Items)
	assert.NotNil(t, past.Items)

	empty := Apply(nil, Query{Page: 1})
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 0, empty.Total)
}
