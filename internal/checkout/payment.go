package checkout

import (
	"context"

	"github.com/wichananm65/flower-shop-storefront/internal/order"
)

// Backend is the order and payment part of the remote API.
type Backend interface {
	GetOrder(ctx context.Context, token string, orderID int) (order.Order, error)
	UpdateDeliveryAddress(ctx context.Context, token string, orderID int, address string) error
	UpdatePaymentMethod(ctx context.Context, token string, orderID, paymentID int) error
	ConfirmOrder(ctx context.Context, token string, orderID int) error
	CreateDirectOrder(ctx context.Context, token, customerID string, productID, quantity int) (order.Order, error)
	CreateMoMoPayment(ctx context.Context, token string, req MoMoRequest) (MoMoResponse, error)
}

type MoMoLine struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"order_detail_quantity"`
}

// MoMoRequest is the payment-initiation payload.
type MoMoRequest struct {
	OrderID         int        `json:"order_id"`
	OrderTotal      float64    `json:"order_total"`
	OrderDetails    []MoMoLine `json:"order_details"`
	CustomerID      int        `json:"customer_id"`
	OrderName       string     `json:"order_name"`
	OrderPhone      string     `json:"order_phone"`
	DeliveryAddress string     `json:"order_delivery_address"`
}

type MoMoResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

func newMoMoRequest(o order.Order, phone, address string) MoMoRequest {
	lines := make([]MoMoLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, MoMoLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return MoMoRequest{
		OrderID:         o.ID,
		OrderTotal:      o.Total(),
		OrderDetails:    lines,
		CustomerID:      o.CustomerID,
		OrderName:       o.CustomerName,
		OrderPhone:      phone,
		DeliveryAddress: address,
	}
}
