package wishlist

import (
	"context"

	"github.com/wichananm65/flower-shop-storefront/internal/cart"
)

// Item is a saved product. FinalPrice and DiscountValue are nil until the product
// detail has been merged in.
type Item struct {
	ID            int      `json:"id"`
	ProductID     int      `json:"productId"`
	ProductName   string   `json:"productName"`
	Price         float64  `json:"price"`
	FinalPrice    *float64 `json:"finalPrice"`
	DiscountValue *float64 `json:"discountValue"`
	ImageURL      string   `json:"imageUrl"`
	AddedDate     string   `json:"addedDate"`
}

// DisplayPrice is the final price when known, the list price otherwise.
func (i Item) DisplayPrice() float64 {
	if i.FinalPrice != nil && *i.FinalPrice > 0 {
		return *i.FinalPrice
	}
	return i.Price
}

func (i Item) Discounted() bool {
	return i.DiscountValue != nil && *i.DiscountValue > 0
}

func (i Item) needsDetail() bool {
	return i.FinalPrice == nil || i.DiscountValue == nil
}

type Wishlist struct {
	ID         int    `json:"id"`
	CustomerID int    `json:"customerId"`
	Items      []Item `json:"items"`
}

type Backend interface {
	GetWishlist(ctx context.Context, token, customerID string) (Wishlist, error)
	AddWishlistItem(ctx context.Context, token, customerID string, productID int) error
	DeleteWishlistItem(ctx context.Context, token string, itemID int) error
}

// Carts is the slice of the cart API a move-to-cart needs.
type Carts interface {
	GetCart(ctx context.Context, token, customerID string) (cart.Cart, error)
	AddCartItem(ctx context.Context, token string, req cart.AddItemRequest) error
}
