package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wichananm65/flower-shop-storefront/internal/cart"
	"github.com/wichananm65/flower-shop-storefront/internal/checkout"
	"github.com/wichananm65/flower-shop-storefront/internal/order"
	"github.com/wichananm65/flower-shop-storefront/internal/wishlist"
)

func (c *Client) GetCart(ctx context.Context, token, customerID string) (cart.Cart, error) {
	var out cart.Cart
	err := c.do(ctx, c.api(http.MethodGet, "/api/carts/"+url.PathEscape(customerID), token), &out)
	for i := range out.Items {
		out.Items[i].ImageURL = c.absolute(out.Items[i].ImageURL)
	}
	return out, err
}

func (c *Client) UpdateCartItemQuantity(ctx context.Context, token string, itemID, quantity int) error {
	path := fmt.Sprintf("/api/carts/items/%d/quantity?quantity=%d", itemID, quantity)
	return c.do(ctx, c.api(http.MethodPut, path, token), nil)
}

func (c *Client) DeleteCartItem(ctx context.Context, token string, itemID int) error {
	return c.do(ctx, c.api(http.MethodDelete, fmt.Sprintf("/api/carts/items/%d", itemID), token), nil)
}

func (c *Client) AddCartItem(ctx context.Context, token string, req cart.AddItemRequest) error {
	cl, err := c.api(http.MethodPost, "/api/carts/items", token).withJSON(req)
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}

// createdOrder accepts both shapes the order endpoints answer with.
type createdOrder struct {
	order.Order
	OrderID int `json:"orderId"`
}

func (o createdOrder) resolve() order.Order {
	if o.ID == 0 {
		o.ID = o.OrderID
	}
	return o.Order
}

func (c *Client) CreateOrderFromCart(ctx context.Context, token, customerID string) (order.Order, error) {
	var out createdOrder
	err := c.do(ctx, c.api(http.MethodPost, "/api/orders/create-from-cart/"+url.PathEscape(customerID), token), &out)
	return out.resolve(), err
}

func (c *Client) CreateDirectOrder(ctx context.Context, token, customerID string, productID, quantity int) (order.Order, error) {
	q := url.Values{}
	q.Set("customerId", customerID)
	q.Set("productId", fmt.Sprint(productID))
	q.Set("quantity", fmt.Sprint(quantity))
	var out createdOrder
	err := c.do(ctx, c.api(http.MethodPost, "/api/orders/create-direct?"+q.Encode(), token), &out)
	return out.resolve(), err
}

func (c *Client) GetOrder(ctx context.Context, token string, orderID int) (order.Order, error) {
	var out order.Order
	err := c.do(ctx, c.api(http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), token), &out)
	return out, err
}

func (c *Client) CustomerOrders(ctx context.Context, token, customerID string) ([]order.Order, error) {
	var out []order.Order
	err := c.do(ctx, c.api(http.MethodGet, "/api/orders/customer/"+url.PathEscape(customerID), token), &out)
	return out, err
}

func (c *Client) UpdateDeliveryAddress(ctx context.Context, token string, orderID int, address string) error {
	path := fmt.Sprintf("/api/orders/%d/delivery-address?address=%s", orderID, url.QueryEscape(address))
	return c.do(ctx, c.api(http.MethodPut, path, token), nil)
}

func (c *Client) UpdatePaymentMethod(ctx context.Context, token string, orderID, paymentID int) error {
	path := fmt.Sprintf("/api/orders/%d/payment-method?paymentId=%d", orderID, paymentID)
	return c.do(ctx, c.api(http.MethodPut, path, token), nil)
}

func (c *Client) ConfirmOrder(ctx context.Context, token string, orderID int) error {
	return c.do(ctx, c.api(http.MethodPut, fmt.Sprintf("/api/orders/%d/confirm", orderID), token), nil)
}

func (c *Client) CreateMoMoPayment(ctx context.Context, token string, req checkout.MoMoRequest) (checkout.MoMoResponse, error) {
	var out checkout.MoMoResponse
	cl, err := c.api(http.MethodPost, "/api/payment-momo", token).withJSON(req)
	if err != nil {
		return out, err
	}
	err = c.do(ctx, cl, &out)
	return out, err
}

func (c *Client) GetWishlist(ctx context.Context, token, customerID string) (wishlist.Wishlist, error) {
	var out wishlist.Wishlist
	err := c.do(ctx, c.api(http.MethodGet, "/api/wishlists/"+url.PathEscape(customerID), token), &out)
	for i := range out.Items {
		out.Items[i].ImageURL = c.absolute(out.Items[i].ImageURL)
	}
	return out, err
}

func (c *Client) AddWishlistItem(ctx context.Context, token, customerID string, productID int) error {
	cl, err := c.api(http.MethodPost, "/api/wishlists/items", token).withJSON(map[string]interface{}{
		"customerId": customerID,
		"productId":  productID,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}

func (c *Client) DeleteWishlistItem(ctx context.Context, token string, itemID int) error {
	return c.do(ctx, c.api(http.MethodDelete, fmt.Sprintf("/api/wishlists/items/%d", itemID), token), nil)
}
