package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleOrders() []Order {
	return []Order{
		{ID: 1, Status: StatusDelivered, Items: []Item{{ProductID: 10, Quantity: 2, PriceAfterDiscount: 100000}, {ProductID: 11, Quantity: 3, PriceAfterDiscount: 50000}}},
		{ID: 2, Status: StatusPending, Items: []Item{{ProductID: 12, Quantity: 1, PriceAfterDiscount: 1}}},
		{ID: 3, Status: "DELIVERED", Items: []Item{{ProductID: 13, Quantity: 1}}},
	}
}

func TestFilterByStatus(t *testing.T) {
	orders := sampleOrders()
	assert.Len(t, FilterByStatus(orders, FilterAll), 3)
	assert.Len(t, FilterByStatus(orders, ""), 3)
	assert.Len(t, FilterByStatus(orders, StatusDelivered), 2)
	assert.Len(t, FilterByStatus(orders, "Delivered"), 2)
	assert.Empty(t, FilterByStatus(orders, StatusCancelled))
}

func TestDeliveredItems(t *testing.T) {
	items := DeliveredItems(sampleOrders())
	var ids []int
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	assert.Equal(t, []int{10, 11, 13}, ids)
	assert.Equal(t, 3, items[2].OrderID)
}

func TestOrderTotal(t *testing.T) {
	assert.Equal(t, 350000.0, sampleOrders()[0].Total())
}
