package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
)

// CallbackParams are the query parameters MoMo appends to the return URL.
type CallbackParams struct {
	ResultCode string `query:"resultCode"`
	Message    string `query:"message"`
	ExtraData  string `query:"extraData"`
}

// CallbackResult tells the shopper where to go after the payment page.
type CallbackResult struct {
	Redirect string `json:"redirect"`
	Paid     bool   `json:"paid"`
	OrderID  int    `json:"orderId,omitempty"`
}

// HandleCallback completes a MoMo payment started by Confirm. A resultCode of "0"
// confirms the remembered order; anything else is a failed payment. The parameters
// are not signature-checked.
func (f *Flow) HandleCallback(ctx context.Context, p CallbackParams) (CallbackResult, error) {
	home := CallbackResult{Redirect: HomePath}
	if err := f.sess.Require("checkout.HandleCallback"); err != nil {
		return home, err
	}

	snap, err := f.snapshots.Load(ctx, f.sess.ID)
	if errors.Is(err, ErrNoSnapshot) {
		notify.Error(f.notes(ctx), "Order information was not found")
		return home, apperr.New("checkout.HandleCallback", apperr.KindNotFound, "no payment in progress")
	}
	if err != nil {
		notify.Error(f.notes(ctx), "Order information was not found")
		return home, fmt.Errorf("load payment snapshot: %w", err)
	}

	if p.ExtraData != "" && !validExtraData(p.ExtraData) {
		notify.Error(f.notes(ctx), "Invalid payment data")
		return home, apperr.Validation("checkout.HandleCallback", "invalid extraData")
	}

	if p.ResultCode != "0" {
		f.log.WithFields(logrus.Fields{"order_id": snap.OrderID, "result_code": p.ResultCode, "message": p.Message}).Warn("payment failed")
		notify.Error(f.notes(ctx), "Payment failed")
		return home, nil
	}

	if err := f.backend.ConfirmOrder(ctx, f.sess.Token, snap.OrderID); err != nil {
		f.log.WithError(err).WithField("order_id", snap.OrderID).Warn("confirming paid order failed")
		notify.Error(f.notes(ctx), "Could not confirm the order")
		return home, err
	}
	if err := f.snapshots.Delete(ctx, f.sess.ID); err != nil {
		f.log.WithError(err).Warn("failed to clear payment snapshot")
	}

	o, _ := f.current("checkout.HandleCallback")
	if o.ID != snap.OrderID {
		o.ID, o.CustomerID, o.CustomerName, o.Items = snap.OrderID, snap.CustomerID, snap.CustomerName, snap.Items
	}
	f.markConfirmed(ctx, o, PaymentMoMo)
	notify.Success(f.notes(ctx), "Payment successful")
	return CallbackResult{Redirect: fmt.Sprintf(ConfirmationPath, snap.OrderID), Paid: true, OrderID: snap.OrderID}, nil
}

func validExtraData(raw string) bool {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return false
	}
	return json.Valid([]byte(decoded))
}
