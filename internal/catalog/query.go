package catalog

import (
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// PageSize is the number of products per listing page.
const PageSize = 8

const (
	SortDefault       = "default"
	SortPriceLowHigh  = "price-low-high"
	SortPriceHighLow  = "price-high-low"
	SortRatingHighLow = "rating-high-low"
)

// Query is a parsed product-listing request.
type Query struct {
	Flowers   []string `json:"flowerType"`
	Occasions []string `json:"occasion"`
	PriceMin  *float64 `json:"priceMin,omitempty"`
	PriceMax  *float64 `json:"priceMax,omitempty"`
	Sort      string   `json:"sort"`
	Page      int      `json:"page"`
}

// ParseQuery reads flowerType and occasion (repeated or comma separated),
// priceMin, priceMax, sort and page.
func ParseQuery(v url.Values) Query {
	q := Query{
		Flowers:   parseMulti(v["flowerType"]),
		Occasions: parseMulti(v["occasion"]),
		PriceMin:  parseFloat(v.Get("priceMin")),
		PriceMax:  parseFloat(v.Get("priceMax")),
		Sort:      v.Get("sort"),
		Page:      1,
	}
	if q.Sort == "" {
		q.Sort = SortDefault
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	return q
}

func parseMulti(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, s := range strings.Split(r, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Matches reports whether p passes every filter of q. Multi-valued filters match any value.
func (q Query) Matches(p Product) bool {
	if len(q.Flowers) > 0 && !anyIn(q.Flowers, p.FlowerNames) {
		return false
	}
	if len(q.Occasions) > 0 && !anyIn(q.Occasions, p.OccasionNames) {
		return false
	}
	if q.PriceMin != nil && p.FinalPrice < *q.PriceMin {
		return false
	}
	if q.PriceMax != nil && p.FinalPrice > *q.PriceMax {
		return false
	}
	return true
}

func anyIn(wanted, have []string) bool {
	for _, w := range wanted {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

type Page struct {
	Items      []Card `json:"items"`
	Query      Query  `json:"query"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}

// Apply filters, sorts and paginates products. Unknown sort values keep backend order.
func Apply(products []Product, q Query) Page {
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if q.Matches(p) {
			filtered = append(filtered, p)
		}
	}

	switch q.Sort {
	case SortPriceLowHigh:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].FinalPrice < filtered[j].FinalPrice })
	case SortPriceHighLow:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].FinalPrice > filtered[j].FinalPrice })
	case SortRatingHighLow:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].AverageRating > filtered[j].AverageRating })
	}

	page := max(q.Page, 1)
	start := min((page-1)*PageSize, len(filtered))
	end := min(start+PageSize, len(filtered))

	items := make([]Card, 0, end-start)
	for _, p := range filtered[start:end] {
		items = append(items, p.Card())
	}
	return Page{
		Items:      items,
		Query:      q,
		Total:      len(filtered),
		Page:       page,
		PageSize:   PageSize,
		TotalPages: max(1, (len(filtered)+PageSize-1)/PageSize),
	}
}
