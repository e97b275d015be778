package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/cart"
	"github.com/wichananm65/flower-shop-storefront/internal/catalog"
	"github.com/wichananm65/flower-shop-storefront/internal/events"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/order"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

const (
	ConfirmationPath = "/order-confirmation?orderId=%d"
	HomePath         = "/"
)

type DetailFetcher interface {
	Details(ctx context.Context, ids []int) map[int]catalog.Product
}

// Flow is one shopper's checkout. It follows a single order at a time; opening
// another order starts over.
type Flow struct {
	sess      session.Context
	backend   Backend
	details   DetailFetcher
	snapshots SnapshotRepository
	publisher events.Publisher
	notifier  notify.Notifier
	log       *logrus.Entry

	mu         sync.Mutex
	order      order.Order
	loaded     bool
	address    string
	phone      string
	selected   string
	paymentSet bool
	confirmed  bool

	busy atomic.Bool
}

func NewFlow(sess session.Context, backend Backend, details DetailFetcher, snapshots SnapshotRepository,
	publisher events.Publisher, notifier notify.Notifier, logger *logrus.Logger) *Flow {
	return &Flow{
		sess:      sess,
		backend:   backend,
		details:   details,
		snapshots: snapshots,
		publisher: publisher,
		notifier:  notifier,
		log:       logger.WithFields(logrus.Fields{"component": "checkout", "session_id": sess.ID}),
	}
}

// View is the checkout page as the shopper sees it.
type View struct {
	State         State       `json:"state"`
	Order         order.Order `json:"order"`
	Total         float64     `json:"total"`
	Address       string      `json:"address"`
	Phone         string      `json:"phone"`
	PaymentMethod string      `json:"paymentMethod"`
	CanConfirm    bool        `json:"canConfirm"`
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Flow) stateLocked() State {
	switch {
	case f.confirmed:
		return Confirmed
	case !f.loaded:
		return NoOrder
	case f.paymentSet:
		return PaymentSet
	case f.selected != "":
		return PaymentPending
	case f.address != "":
		return AddressSet
	}
	return AddressPending
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.order
	o.Items = append([]order.Item(nil), f.order.Items...)
	return View{
		State:         f.stateLocked(),
		Order:         o,
		Total:         o.Total(),
		Address:       f.address,
		Phone:         f.phone,
		PaymentMethod: f.selected,
		CanConfirm:    CanConfirm(f.address, f.selected),
	}
}

func (f *Flow) OrderID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return 0
	}
	return f.order.ID
}

func (f *Flow) begin(op string) error {
	if err := f.sess.Require(op); err != nil {
		return err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return apperr.New(op, apperr.KindBusy, "please wait for the previous step to finish")
	}
	return nil
}

// editable rejects changes to an order that has already been confirmed.
func (f *Flow) editable(ctx context.Context, op string) error {
	if f.State() != Confirmed {
		return nil
	}
	notify.Error(f.notes(ctx), "This order has already been confirmed")
	return apperr.Validation(op, "the order has already been confirmed")
}

// notes reaches the current request's recorder and the shopper's open sockets.
func (f *Flow) notes(ctx context.Context) notify.Notifier {
	return notify.To(ctx, f.notifier)
}

func (f *Flow) current(op string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return order.Order{}, apperr.New(op, apperr.KindNotFound, "no order is being checked out")
	}
	return f.order, nil
}

// Open loads orderID and fills in item names and images the order omits.
func (f *Flow) Open(ctx context.Context, orderID int) (View, error) {
	if err := f.sess.Require("checkout.Open"); err != nil {
		notify.Info(f.notes(ctx), "Please log in to continue to checkout")
		return View{}, err
	}
	if orderID <= 0 {
		notify.Error(f.notes(ctx), "Order not found")
		return f.View(), apperr.New("checkout.Open", apperr.KindNotFound, "order not found")
	}

	o, err := f.backend.GetOrder(ctx, f.sess.Token, orderID)
	if err != nil {
		f.log.WithError(err).WithField("order_id", orderID).Warn("failed to load order")
		notify.Error(f.notes(ctx), "Could not load the order")
		return f.View(), fmt.Errorf("open order %d: %w", orderID, err)
	}
	f.fillItemDetails(ctx, &o)

	f.mu.Lock()
	if !f.loaded || f.order.ID != o.ID {
		f.address, f.phone, f.selected = "", "", ""
		f.paymentSet, f.confirmed = false, false
	}
	f.order, f.loaded = o, true
	f.mu.Unlock()
	return f.View(), nil
}

func (f *Flow) fillItemDetails(ctx context.Context, o *order.Order) {
	if f.details == nil {
		return
	}
	var missing []int
	for _, it := range o.Items {
		if it.ImageURL == "" || it.ProductName == "" {
			missing = append(missing, it.ProductID)
		}
	}
	if len(missing) == 0 {
		return
	}
	found := f.details.Details(ctx, missing)
	for i, it := range o.Items {
		p, ok := found[it.ProductID]
		if !ok {
			continue
		}
		if it.ImageURL == "" {
			o.Items[i].ImageURL = p.ImageURL
		}
		if it.ProductName == "" {
			o.Items[i].ProductName = p.Name
		}
	}
}

// SetAddress saves the delivery address on the order. phone is optional and only
// passed on in the MoMo payment request.
func (f *Flow) SetAddress(ctx context.Context, address, phone string) (View, error) {
	if err := f.begin("checkout.SetAddress"); err != nil {
		return f.View(), err
	}
	defer f.busy.Store(false)
	if err := f.editable(ctx, "checkout.SetAddress"); err != nil {
		return f.View(), err
	}

	address = strings.TrimSpace(address)
	if address == "" {
		notify.Error(f.notes(ctx), "Please enter a delivery address")
		return f.View(), apperr.Validation("checkout.SetAddress", "please enter a delivery address")
	}
	o, err := f.current("checkout.SetAddress")
	if err != nil {
		return f.View(), err
	}

	if err := f.backend.UpdateDeliveryAddress(ctx, f.sess.Token, o.ID, address); err != nil {
		f.log.WithError(err).WithField("order_id", o.ID).Warn("delivery address update failed")
		notify.Error(f.notes(ctx), "Could not save the delivery address")
		return f.View(), err
	}

	f.mu.Lock()
	f.address = address
	if p := strings.TrimSpace(phone); p != "" {
		f.phone = p
	}
	f.mu.Unlock()
	notify.Success(f.notes(ctx), "Delivery address confirmed")
	return f.View(), nil
}

// SelectPaymentMethod records the shopper's pick locally. Changing the pick means the
// backend has to be told again.
func (f *Flow) SelectPaymentMethod(ctx context.Context, method string) (View, error) {
	if err := f.editable(ctx, "checkout.SelectPaymentMethod"); err != nil {
		return f.View(), err
	}
	pm, err := ParsePaymentMethod(method)
	if err != nil {
		return f.View(), err
	}
	value := strconv.Itoa(int(pm))
	f.mu.Lock()
	if f.selected != value {
		f.paymentSet = false
	}
	f.selected = value
	f.mu.Unlock()
	return f.View(), nil
}

func (f *Flow) SetPaymentMethod(ctx context.Context, method string) (View, error) {
	if err := f.begin("checkout.SetPaymentMethod"); err != nil {
		return f.View(), err
	}
	defer f.busy.Store(false)
	if err := f.editable(ctx, "checkout.SetPaymentMethod"); err != nil {
		return f.View(), err
	}

	pm, err := ParsePaymentMethod(method)
	if err != nil {
		notify.Error(f.notes(ctx), "Please choose a payment method")
		return f.View(), err
	}
	o, err := f.current("checkout.SetPaymentMethod")
	if err != nil {
		return f.View(), err
	}

	if err := f.backend.UpdatePaymentMethod(ctx, f.sess.Token, o.ID, int(pm)); err != nil {
		f.log.WithError(err).WithField("order_id", o.ID).Warn("payment method update failed")
		notify.Error(f.notes(ctx), "Could not save the payment method")
		return f.View(), err
	}

	f.mu.Lock()
	f.selected = strconv.Itoa(int(pm))
	f.paymentSet = true
	f.mu.Unlock()
	notify.Success(f.notes(ctx), "Payment method confirmed")
	return f.View(), nil
}

// Confirm finishes the order and returns where the shopper goes next: the
// confirmation page, or the MoMo pay URL. On failure the state does not move. A
// confirmed order is final: confirming it again only returns the confirmation page.
func (f *Flow) Confirm(ctx context.Context) (string, error) {
	if err := f.begin("checkout.Confirm"); err != nil {
		return "", err
	}
	defer f.busy.Store(false)

	f.mu.Lock()
	address, phone, selected := f.address, f.phone, f.selected
	done, orderID := f.confirmed, f.order.ID
	f.mu.Unlock()
	if done {
		return fmt.Sprintf(ConfirmationPath, orderID), nil
	}
	if !CanConfirm(address, selected) {
		notify.Error(f.notes(ctx), "Please complete the delivery address and payment method")
		return "", apperr.Validation("checkout.Confirm", "delivery address and payment method are required")
	}
	o, err := f.current("checkout.Confirm")
	if err != nil {
		return "", err
	}
	pm, err := ParsePaymentMethod(selected)
	if err != nil {
		return "", err
	}

	if pm == PaymentMoMo {
		return f.startMoMo(ctx, o, phone, address)
	}

	if err := f.backend.ConfirmOrder(ctx, f.sess.Token, o.ID); err != nil {
		f.log.WithError(err).WithField("order_id", o.ID).Warn("order confirmation failed")
		notify.Error(f.notes(ctx), "Could not confirm the order")
		return "", err
	}
	f.markConfirmed(ctx, o, pm)
	notify.Success(f.notes(ctx), "Your order has been placed")
	return fmt.Sprintf(ConfirmationPath, o.ID), nil
}

// startMoMo sends the phone given with the address as is; the gateway accepts an
// empty one.
func (f *Flow) startMoMo(ctx context.Context, o order.Order, phone, address string) (string, error) {
	req := newMoMoRequest(o, phone, address)
	resp, err := f.backend.CreateMoMoPayment(ctx, f.sess.Token, req)
	if err == nil && resp.PayURL == "" {
		err = apperr.New("checkout.Confirm", apperr.KindNonOK, "the payment gateway returned no payment URL")
	}
	if err != nil {
		f.log.WithError(err).WithField("order_id", o.ID).Warn("MoMo payment initiation failed")
		notify.Error(f.notes(ctx), "Could not start the MoMo payment")
		return "", err
	}

	snap := Snapshot{
		SessionID:    f.sess.ID,
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		Phone:        phone,
		Address:      address,
		Total:        req.OrderTotal,
		Items:        o.Items,
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.snapshots.Save(ctx, snap); err != nil {
		f.log.WithError(err).WithField("order_id", o.ID).Error("failed to save payment snapshot")
		notify.Error(f.notes(ctx), "Could not start the MoMo payment")
		return "", fmt.Errorf("save payment snapshot: %w", err)
	}
	return resp.PayURL, nil
}

func (f *Flow) markConfirmed(ctx context.Context, o order.Order, pm PaymentMethod) {
	f.mu.Lock()
	if f.loaded && f.order.ID == o.ID {
		f.confirmed = true
	}
	f.mu.Unlock()

	if f.publisher == nil {
		return
	}
	e := events.New(events.OrderConfirmedTopic, strconv.Itoa(o.ID), events.OrderConfirmed{
		OrderID:       o.ID,
		CustomerID:    f.sess.UserID,
		TotalAmount:   o.Total(),
		PaymentMethod: pm.Name(),
	})
	if err := f.publisher.Publish(ctx, e); err != nil {
		f.log.WithError(err).WithField("order_id", o.ID).Warn("failed to publish order confirmation")
	}
}

// BuyNow creates an order for a single product and returns the address step.
func (f *Flow) BuyNow(ctx context.Context, productID, quantity int) (string, error) {
	if err := f.sess.Require("checkout.BuyNow"); err != nil {
		notify.Info(f.notes(ctx), "Please log in to buy this product")
		return "", err
	}
	if productID <= 0 || quantity < 1 {
		return "", apperr.Validation("checkout.BuyNow", "invalid product or quantity")
	}
	o, err := f.backend.CreateDirectOrder(ctx, f.sess.Token, f.sess.UserID, productID, quantity)
	if err == nil && o.ID == 0 {
		err = apperr.New("checkout.BuyNow", apperr.KindNonOK, "the backend returned no order id")
	}
	if err != nil {
		f.log.WithError(err).WithField("product_id", productID).Warn("direct order failed")
		notify.Error(f.notes(ctx), "Could not create the order")
		return "", err
	}
	notify.Success(f.notes(ctx), "Order created, please enter the delivery address")
	return fmt.Sprintf(cart.AddressStep, o.ID), nil
}

// Confirmation is the order-confirmation page.
type Confirmation struct {
	Order order.Order `json:"order"`
	Total float64     `json:"total"`
}

func (f *Flow) Confirmation(ctx context.Context, orderID int) (Confirmation, error) {
	if err := f.sess.Require("checkout.Confirmation"); err != nil {
		return Confirmation{}, err
	}
	if orderID <= 0 {
		notify.Error(f.notes(ctx), "Order id not found")
		return Confirmation{}, apperr.New("checkout.Confirmation", apperr.KindNotFound, "order not found")
	}
	o, err := f.backend.GetOrder(ctx, f.sess.Token, orderID)
	if err != nil {
		notify.Error(f.notes(ctx), "Could not load the order")
		return Confirmation{}, err
	}
	return Confirmation{Order: o, Total: o.Total()}, nil
}
