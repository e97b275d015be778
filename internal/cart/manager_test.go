package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/order"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

type fakeBackend struct {
	calls int

	GetCartFn             func(token, customerID string) (Cart, error)
	UpdateQuantityFn      func(itemID, quantity int) error
	DeleteItemFn          func(itemID int) error
	AddItemFn             func(req AddItemRequest) error
	CreateOrderFromCartFn func(customerID string) (order.Order, error)
}

func (f *fakeBackend) GetCart(_ context.Context, token, customerID string) (Cart, error) {
	f.calls++
	return f.GetCartFn(token, customerID)
}

func (f *fakeBackend) UpdateCartItemQuantity(_ context.Context, _ string, itemID, quantity int) error {
	f.calls++
	return f.UpdateQuantityFn(itemID, quantity)
}

func (f *fakeBackend) DeleteCartItem(_ context.Context, _ string, itemID int) error {
	f.calls++
	return f.DeleteItemFn(itemID)
}

func (f *fakeBackend) AddCartItem(_ context.Context, _ string, req AddItemRequest) error {
	f.calls++
	return f.AddItemFn(req)
}

func (f *fakeBackend) CreateOrderFromCart(_ context.Context, _ string, customerID string) (order.Order, error) {
	f.calls++
	return f.CreateOrderFromCartFn(customerID)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var loggedIn = session.Context{ID: "sid-1", Session: session.Session{UserID: "7", Token: "tok", Role: "CUSTOMER"}}

func twoItemCart() Cart {
	return Cart{ID: 3, CustomerID: 7, Items: []Item{
		{ID: 1, ProductName: "Hoa hồng đỏ", Price: 120000, PriceAfterDiscount: 100000, Quantity: 2},
		{ID: 2, ProductName: "Hoa cúc", Price: 50000, PriceAfterDiscount: 50000, Quantity: 3},
	}}
}

func newLoadedManager(t *testing.T, b *fakeBackend) (*Manager, *notify.Recorder) {
	t.Helper()
	rec := notify.NewRecorder()
	if b.GetCartFn == nil {
		b.GetCartFn = func(string, string) (Cart, error) { return twoItemCart(), nil }
	}
	m := NewManager(loggedIn, b, rec, quietLogger())
	_, err := m.Load(context.Background())
	require.NoError(t, err)
	b.calls = 0
	return m, rec
}

func TestTotal(t *testing.T) {
	m, _ := newLoadedManager(t, &fakeBackend{})
	assert.Equal(t, 350000.0, m.Total())
	assert.Equal(t, 390000.0, m.Subtotal())
}

func TestLoadRequiresSession(t *testing.T) {
	b := &fakeBackend{}
	rec := notify.NewRecorder()
	m := NewManager(session.Context{}, b, rec, quietLogger())

	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Zero(t, b.calls)
	assert.Len(t, rec.Drain(), 1)
}

func TestLoadFailureKeepsPreviousCart(t *testing.T) {
	b := &fakeBackend{}
	m, rec := newLoadedManager(t, b)
	b.GetCartFn = func(string, string) (Cart, error) { return Cart{}, apperr.ErrNetwork }

	got, err := m.Load(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, notify.LevelError, rec.Drain()[0].Level)
}

func TestSetQuantityClampsAtOne(t *testing.T) {
	var sent []int
	b := &fakeBackend{UpdateQuantityFn: func(_ int, q int) error { sent = append(sent, q); return nil }}
	m, _ := newLoadedManager(t, b)

	// item 2 starts at 3
	c, err := m.SetQuantity(context.Background(), 2, -100)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[1].Quantity)

	c, err = m.SetQuantity(context.Background(), 2, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[1].Quantity)
	assert.Equal(t, []int{1, 1}, sent)

	c, err = m.SetQuantity(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestSetQuantityRollsBackOnFailure(t *testing.T) {
	b := &fakeBackend{UpdateQuantityFn: func(int, int) error { return apperr.ErrNonOK }}
	m, rec := newLoadedManager(t, b)
	before := m.Snapshot()

	after, err := m.SetQuantity(context.Background(), 1, 5)
	assert.ErrorIs(t, err, apperr.ErrNonOK)
	assert.Equal(t, before, after)
	assert.Equal(t, before, m.Snapshot())

	notes := rec.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelError, notes[0].Level)
	assert.False(t, m.Updating())
}

func TestSetQuantityUnknownItem(t *testing.T) {
	b := &fakeBackend{UpdateQuantityFn: func(int, int) error { t.Fatal("no call expected"); return nil }}
	m, _ := newLoadedManager(t, b)

	_, err := m.SetQuantity(context.Background(), 99, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetQuantityFirstWriterWins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	b := &fakeBackend{UpdateQuantityFn: func(int, int) error {
		close(started)
		<-release
		return nil
	}}
	m, _ := newLoadedManager(t, b)

	done := make(chan error)
	go func() {
		_, err := m.SetQuantity(context.Background(), 1, 1)
		done <- err
	}()
	<-started

	_, err := m.SetQuantity(context.Background(), 1, 1)
	assert.ErrorIs(t, err, apperr.ErrBusy)
	assert.True(t, m.Updating())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 3, m.Items()[0].Quantity)
	assert.False(t, m.Updating())
}

func TestRemoveItem(t *testing.T) {
	var deleted []int
	b := &fakeBackend{DeleteItemFn: func(id int) error { deleted = append(deleted, id); return nil }}
	m, rec := newLoadedManager(t, b)

	c, err := m.RemoveItem(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].ID)
	assert.Equal(t, []int{1}, deleted)
	assert.Equal(t, notify.LevelSuccess, rec.Drain()[0].Level)
}

func TestRemoveItemRollsBack(t *testing.T) {
	b := &fakeBackend{DeleteItemFn: func(int) error { return errors.New("503") }}
	m, _ := newLoadedManager(t, b)
	before := m.Snapshot()

	c, err := m.RemoveItem(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, before, c)
}

func TestCheckoutEmptyCartMakesNoCall(t *testing.T) {
	b := &fakeBackend{
		GetCartFn: func(string, string) (Cart, error) { return Cart{ID: 3}, nil },
		CreateOrderFromCartFn: func(string) (order.Order, error) {
			t.Fatal("order must not be created for an empty cart")
			return order.Order{}, nil
		},
	}
	m, rec := newLoadedManager(t, b)

	next, err := m.Checkout(context.Background())
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, next)
	assert.Zero(t, b.calls)

	notes := rec.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, "Your cart is empty", notes[0].Message)
}

func TestCheckoutRedirectsToAddressStep(t *testing.T) {
	b := &fakeBackend{CreateOrderFromCartFn: func(customerID string) (order.Order, error) {
		assert.Equal(t, "7", customerID)
		return order.Order{ID: 55, Status: order.StatusPending}, nil
	}}
	m, _ := newLoadedManager(t, b)

	next, err := m.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/checkout/address?orderId=55", next)
}

func TestCheckoutLoadsCartFirst(t *testing.T) {
	b := &fakeBackend{
		GetCartFn:             func(string, string) (Cart, error) { return twoItemCart(), nil },
		CreateOrderFromCartFn: func(string) (order.Order, error) { return order.Order{ID: 9}, nil },
	}
	m := NewManager(loggedIn, b, nil, quietLogger())

	next, err := m.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/checkout/address?orderId=9", next)
	assert.Equal(t, 2, b.calls)
}

func TestAddItem(t *testing.T) {
	var got AddItemRequest
	b := &fakeBackend{AddItemFn: func(req AddItemRequest) error { got = req; return nil }}
	m, rec := newLoadedManager(t, b)

	_, err := m.AddItem(context.Background(), 42, 2)
	require.NoError(t, err)
	assert.Equal(t, AddItemRequest{CartID: 3, ProductID: 42, Quantity: 2}, got)
	assert.Equal(t, notify.LevelSuccess, rec.Drain()[0].Level)

	b.AddItemFn = func(AddItemRequest) error {
		return apperr.New("backend.AddCartItem", apperr.KindConflict, "Item already exists")
	}
	_, err = m.AddItem(context.Background(), 42, 1)
	require.NoError(t, err)
	notes := rec.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.LevelInfo, notes[0].Level)
	assert.Equal(t, AlreadyInCart, notes[0].Message)

	_, err = m.AddItem(context.Background(), 0, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
