package cart

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/optimistic"
	"github.com/wichananm65/flower-shop-storefront/internal/pricing"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

// AddressStep is where checkout continues once an order exists.
const AddressStep = "/checkout/address?orderId=%d"

// Manager holds one shopper's cart as the storefront displays it.
type Manager struct {
	sess     session.Context
	backend  Backend
	notifier notify.Notifier
	log      *logrus.Entry

	mu     sync.Mutex
	cart   Cart
	loaded bool

	// updating is the quantity buttons' busy flag; the first click wins.
	updating atomic.Bool
}

func NewManager(sess session.Context, backend Backend, notifier notify.Notifier, logger *logrus.Logger) *Manager {
	return &Manager{
		sess:     sess,
		backend:  backend,
		notifier: notifier,
		log:      logger.WithFields(logrus.Fields{"component": "cart", "session_id": sess.ID}),
	}
}

// Snapshot returns a copy of the displayed cart.
func (m *Manager) notes(ctx context.Context) notify.Notifier {
	return notify.To(ctx, m.notifier)
}

func (m *Manager) Snapshot() Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCart(m.cart)
}

func (m *Manager) Restore(c Cart) {
	m.mu.Lock()
	m.cart = c
	m.mu.Unlock()
}

func copyCart(c Cart) Cart {
	c.Items = append([]Item(nil), c.Items...)
	return c
}

func (m *Manager) Items() []Item {
	return m.Snapshot().Items
}

func (m *Manager) Total() float64 {
	return pricing.ComputeOrderTotal(m.Items())
}

func (m *Manager) Subtotal() float64 {
	return pricing.Subtotal(m.Items())
}

func (m *Manager) Updating() bool {
	return m.updating.Load()
}

func (m *Manager) Load(ctx context.Context) (Cart, error) {
	if err := m.sess.Require("cart.Load"); err != nil {
		notify.Info(m.notes(ctx), "Please log in to view your cart")
		return Cart{}, err
	}
	c, err := m.backend.GetCart(ctx, m.sess.Token, m.sess.UserID)
	if err != nil {
		m.log.WithError(err).Warn("failed to load cart")
		notify.Error(m.notes(ctx), "Could not load your cart")
		return m.Snapshot(), fmt.Errorf("load cart: %w", err)
	}
	m.mu.Lock()
	m.cart = copyCart(c)
	m.loaded = true
	m.mu.Unlock()
	return c, nil
}

func (m *Manager) isLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// SetQuantity changes an item's quantity by delta, never below 1. The change shows
// immediately and is reverted if the backend rejects it.
func (m *Manager) SetQuantity(ctx context.Context, itemID, delta int) (Cart, error) {
	if err := m.sess.Require("cart.SetQuantity"); err != nil {
		return Cart{}, err
	}
	if !m.updating.CompareAndSwap(false, true) {
		return m.Snapshot(), apperr.New("cart.SetQuantity", apperr.KindBusy, "a quantity update is already in progress")
	}
	defer m.updating.Store(false)

	var next int
	err := optimistic.Do[Cart](ctx, m,
		func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i := range m.cart.Items {
				if m.cart.Items[i].ID == itemID {
					next = max(1, m.cart.Items[i].Quantity+delta)
					m.cart.Items[i].Quantity = next
				}
			}
		},
		func(ctx context.Context) error {
			if next == 0 {
				return apperr.New("cart.SetQuantity", apperr.KindNotFound, "item is not in the cart")
			}
			return m.backend.UpdateCartItemQuantity(ctx, m.sess.Token, itemID, next)
		})
	if err != nil {
		m.log.WithError(err).WithField("item_id", itemID).Warn("quantity update failed, reverted")
		notify.Error(m.notes(ctx), "Could not update the quantity")
		return m.Snapshot(), err
	}
	return m.Snapshot(), nil
}

// RemoveItem drops an item right away and puts it back if the delete fails.
func (m *Manager) RemoveItem(ctx context.Context, itemID int) (Cart, error) {
	if err := m.sess.Require("cart.RemoveItem"); err != nil {
		return Cart{}, err
	}
	err := optimistic.Do[Cart](ctx, m,
		func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			kept := m.cart.Items[:0:0]
			for _, it := range m.cart.Items {
				if it.ID != itemID {
					kept = append(kept, it)
				}
			}
			m.cart.Items = kept
		},
		func(ctx context.Context) error {
			return m.backend.DeleteCartItem(ctx, m.sess.Token, itemID)
		})
	if err != nil {
		m.log.WithError(err).WithField("item_id", itemID).Warn("remove failed, reverted")
		notify.Error(m.notes(ctx), "Could not remove the item")
		return m.Snapshot(), err
	}
	notify.Success(m.notes(ctx), "Item removed from cart")
	return m.Snapshot(), nil
}

// AlreadyInCart is shown when the backend refuses a product the cart already holds.
const AlreadyInCart = "This product is already in your cart"

// AddItem puts quantity units of productID into the cart, then reloads it.
func (m *Manager) AddItem(ctx context.Context, productID, quantity int) (Cart, error) {
	if err := m.sess.Require("cart.AddItem"); err != nil {
		notify.Info(m.notes(ctx), "Please log in to add items to your cart")
		return Cart{}, err
	}
	if productID <= 0 || quantity < 1 {
		return m.Snapshot(), apperr.Validation("cart.AddItem", "invalid product or quantity")
	}
	current, err := m.backend.GetCart(ctx, m.sess.Token, m.sess.UserID)
	if err != nil {
		notify.Error(m.notes(ctx), "Could not add the item to your cart")
		return m.Snapshot(), fmt.Errorf("add item: %w", err)
	}
	err = m.backend.AddCartItem(ctx, m.sess.Token, AddItemRequest{CartID: current.ID, ProductID: productID, Quantity: quantity})
	switch {
	case apperr.KindOf(err) == apperr.KindConflict:
		notify.Info(m.notes(ctx), AlreadyInCart)
	case err != nil:
		m.log.WithError(err).WithField("product_id", productID).Warn("add to cart failed")
		notify.Error(m.notes(ctx), "Could not add the item to your cart")
		return m.Snapshot(), err
	default:
		notify.Success(m.notes(ctx), fmt.Sprintf("Added %d item(s) to your cart", quantity))
	}
	return m.Load(ctx)
}

// Checkout turns the cart into a pending order and returns the address step URL.
// An empty cart never reaches the backend.
func (m *Manager) Checkout(ctx context.Context) (string, error) {
	if err := m.sess.Require("cart.Checkout"); err != nil {
		return "", err
	}
	if !m.isLoaded() {
		if _, err := m.Load(ctx); err != nil {
			return "", err
		}
	}
	if len(m.Items()) == 0 {
		notify.Error(m.notes(ctx), "Your cart is empty")
		return "", apperr.Validation("cart.Checkout", "cart is empty")
	}
	o, err := m.backend.CreateOrderFromCart(ctx, m.sess.Token, m.sess.UserID)
	if err != nil {
		m.log.WithError(err).Error("failed to create order from cart")
		notify.Error(m.notes(ctx), "Could not create your order")
		return "", fmt.Errorf("checkout: %w", err)
	}
	m.log.WithField("order_id", o.ID).Info("order created from cart")
	return fmt.Sprintf(AddressStep, o.ID), nil
}
