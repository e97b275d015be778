package cart

import (
	"context"

	"github.com/wichananm65/flower-shop-storefront/internal/order"
)

// Item is one cart line. Quantity is always at least 1; the backend assigns ids.
type Item struct {
	ID                 int     `json:"id"`
	ProductID          int     `json:"productId,omitempty"`
	ProductName        string  `json:"productName"`
	Price              float64 `json:"price"`
	PriceAfterDiscount float64 `json:"priceAfterDiscount"`
	DiscountApplied    float64 `json:"discountApplied"`
	Quantity           int     `json:"quantity"`
	ImageURL           string  `json:"imageUrl"`
}

func (i Item) LineQuantity() int { return i.Quantity }
func (i Item) LineUnitPrice() float64 { return i.PriceAfterDiscount }
func (i Item) LineListPrice() float64 { return i.Price }

// Cart is the single cart the backend keeps per customer.
type Cart struct {
	ID         int    `json:"id"`
	CustomerID int    `json:"customerId"`
	Items      []Item `json:"items"`
}

type AddItemRequest struct {
	CartID    int `json:"cartId"`
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Backend is the part of the remote API the cart needs.
type Backend interface {
	GetCart(ctx context.Context, token, customerID string) (Cart, error)
	UpdateCartItemQuantity(ctx context.Context, token string, itemID, quantity int) error
	DeleteCartItem(ctx context.Context, token string, itemID int) error
	AddCartItem(ctx context.Context, token string, req AddItemRequest) error
	CreateOrderFromCart(ctx context.Context, token, customerID string) (order.Order, error)
}
