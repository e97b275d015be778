package order

import (
	"strings"

	"github.com/wichananm65/flower-shop-storefront/internal/pricing"
)

// Status values the backend uses. The set is informal; unknown values pass through.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"

	// FilterAll selects every order regardless of status.
	FilterAll = "all"
)

// Order is a purchase as returned by the backend.
type Order struct {
	ID                int     `json:"id"`
	CustomerID        int     `json:"customerId"`
	CustomerName      string  `json:"customerName"`
	OrderDate         string  `json:"orderDate"`
	DeliveryDate      string  `json:"deliveryDate"`
	DeliveryAddress   string  `json:"deliveryAddress"`
	TotalAmount       float64 `json:"totalAmount"`
	Status            string  `json:"status"`
	PaymentID         int     `json:"paymentId"`
	PaymentMethodName string  `json:"paymentMethodName"`
	Note              string  `json:"note"`
	Items             []Item  `json:"items"`
}

type Item struct {
	ProductID          int     `json:"productId"`
	ProductName        string  `json:"productName"`
	Quantity           int     `json:"quantity"`
	Price              float64 `json:"price"`
	DiscountApplied    float64 `json:"discountApplied"`
	PriceAfterDiscount float64 `json:"priceAfterDiscount"`
	ImageURL           string  `json:"imageUrl,omitempty"`
}

func (i Item) LineQuantity() int { return i.Quantity }
func (i Item) LineUnitPrice() float64 { return i.PriceAfterDiscount }
func (i Item) LineListPrice() float64 { return i.Price }

// Total is the order total computed from its items.
func (o Order) Total() float64 {
	return pricing.ComputeOrderTotal(o.Items)
}

// FilterByStatus returns the orders with the given status, ignoring case. FilterAll or
// "" returns all of them.
func FilterByStatus(orders []Order, status string) []Order {
	if status == "" || status == FilterAll {
		return append([]Order(nil), orders...)
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if strings.EqualFold(o.Status, status) {
			out = append(out, o)
		}
	}
	return out
}

// DeliveredItem is an item eligible for review.
type DeliveredItem struct {
	OrderID int `json:"orderId"`
	Item
}

// DeliveredItems flattens the items of every delivered order.
func DeliveredItems(orders []Order) []DeliveredItem {
	var out []DeliveredItem
	for _, o := range orders {
		if !strings.EqualFold(o.Status, StatusDelivered) {
			continue
		}
		for _, it := range o.Items {
			out = append(out, DeliveredItem{OrderID: o.ID, Item: it})
		}
	}
	return out
}
