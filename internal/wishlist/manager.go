package wishlist

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/cart"
	"github.com/wichananm65/flower-shop-storefront/internal/catalog"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/optimistic"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

// DetailFetcher resolves product details for a set of ids in one batch.
type DetailFetcher interface {
	Details(ctx context.Context, ids []int) map[int]catalog.Product
}

type Manager struct {
	sess     session.Context
	backend  Backend
	carts    Carts
	details  DetailFetcher
	notifier notify.Notifier
	log      *logrus.Entry

	mu     sync.Mutex
	list   Wishlist
	cartID int

	updating atomic.Bool
}

func NewManager(sess session.Context, backend Backend, carts Carts, details DetailFetcher, notifier notify.Notifier, logger *logrus.Logger) *Manager {
	return &Manager{
		sess:     sess,
		backend:  backend,
		carts:    carts,
		details:  details,
		notifier: notifier,
		log:      logger.WithFields(logrus.Fields{"component": "wishlist", "session_id": sess.ID}),
	}
}

func (m *Manager) notes(ctx context.Context) notify.Notifier {
	return notify.To(ctx, m.notifier)
}

func (m *Manager) Snapshot() Wishlist {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.list
	w.Items = append([]Item(nil), m.list.Items...)
	return w
}

func (m *Manager) Restore(w Wishlist) {
	m.mu.Lock()
	m.list = w
	m.mu.Unlock()
}

// Load fetches the wishlist and fills in prices the listing leaves out. Items whose
// detail lookup fails are shown as they came.
func (m *Manager) Load(ctx context.Context) (Wishlist, error) {
	if err := m.sess.Require("wishlist.Load"); err != nil {
		notify.Info(m.notes(ctx), "Please log in to view your wishlist")
		return Wishlist{}, err
	}
	w, err := m.backend.GetWishlist(ctx, m.sess.Token, m.sess.UserID)
	if err != nil {
		m.log.WithError(err).Warn("failed to load wishlist")
		notify.Error(m.notes(ctx), "Could not load your wishlist")
		return m.Snapshot(), fmt.Errorf("load wishlist: %w", err)
	}

	var missing []int
	for _, it := range w.Items {
		if it.needsDetail() {
			missing = append(missing, it.ProductID)
		}
	}
	if len(missing) > 0 && m.details != nil {
		found := m.details.Details(ctx, missing)
		for i, it := range w.Items {
			p, ok := found[it.ProductID]
			if !ok || !it.needsDetail() {
				continue
			}
			final, discount := p.FinalPrice, p.DiscountValue
			w.Items[i].FinalPrice = &final
			w.Items[i].DiscountValue = &discount
		}
	}

	m.Restore(w)
	return m.Snapshot(), nil
}

func (m *Manager) begin(op string) error {
	if err := m.sess.Require(op); err != nil {
		return err
	}
	if !m.updating.CompareAndSwap(false, true) {
		return apperr.New(op, apperr.KindBusy, "another wishlist update is in progress")
	}
	return nil
}

// Remove drops the entry immediately and restores it if the delete fails.
func (m *Manager) Remove(ctx context.Context, itemID int) (Wishlist, error) {
	if err := m.begin("wishlist.Remove"); err != nil {
		return m.Snapshot(), err
	}
	defer m.updating.Store(false)

	err := optimistic.Do[Wishlist](ctx, m,
		func() { m.dropWhere(func(it Item) bool { return it.ID == itemID }) },
		func(ctx context.Context) error {
			return m.backend.DeleteWishlistItem(ctx, m.sess.Token, itemID)
		})
	if err != nil {
		m.log.WithError(err).WithField("item_id", itemID).Warn("wishlist remove failed, reverted")
		notify.Error(m.notes(ctx), "Could not remove the product")
		return m.Snapshot(), err
	}
	notify.Success(m.notes(ctx), "Removed from your wishlist")
	return m.Snapshot(), nil
}

func (m *Manager) dropWhere(match func(Item) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.list.Items[:0:0]
	for _, it := range m.list.Items {
		if !match(it) {
			kept = append(kept, it)
		}
	}
	m.list.Items = kept
}

// Add saves productID for later.
func (m *Manager) Add(ctx context.Context, productID int) error {
	if err := m.sess.Require("wishlist.Add"); err != nil {
		notify.Info(m.notes(ctx), "Please log in to use your wishlist")
		return err
	}
	if productID <= 0 {
		return apperr.Validation("wishlist.Add", "invalid product")
	}
	err := m.backend.AddWishlistItem(ctx, m.sess.Token, m.sess.UserID, productID)
	switch {
	case apperr.KindOf(err) == apperr.KindConflict:
		notify.Error(m.notes(ctx), "This product is already in your wishlist")
		return err
	case err != nil:
		m.log.WithError(err).WithField("product_id", productID).Warn("wishlist add failed")
		notify.Error(m.notes(ctx), "Could not add the product to your wishlist")
		return err
	}
	notify.Success(m.notes(ctx), "Added to your wishlist")
	return nil
}

// MoveToCart adds the product to the cart and, once that succeeds, hides its wishlist
// entry. The server-side wishlist entry is left alone.
func (m *Manager) MoveToCart(ctx context.Context, productID, quantity int) (Wishlist, error) {
	if err := m.begin("wishlist.MoveToCart"); err != nil {
		return m.Snapshot(), err
	}
	defer m.updating.Store(false)
	quantity = max(quantity, 1)

	cartID, err := m.ensureCartID(ctx)
	if err != nil {
		notify.Error(m.notes(ctx), "Could not load your cart information")
		return m.Snapshot(), err
	}

	err = m.carts.AddCartItem(ctx, m.sess.Token, cart.AddItemRequest{CartID: cartID, ProductID: productID, Quantity: quantity})
	switch {
	case apperr.KindOf(err) == apperr.KindConflict:
		notify.Info(m.notes(ctx), cart.AlreadyInCart)
	case err != nil:
		m.log.WithError(err).WithField("product_id", productID).Warn("move to cart failed")
		notify.Error(m.notes(ctx), "Could not add the product to your cart")
		return m.Snapshot(), err
	default:
		notify.Success(m.notes(ctx), "Added to your cart")
	}
	m.dropWhere(func(it Item) bool { return it.ProductID == productID })
	return m.Snapshot(), nil
}

func (m *Manager) ensureCartID(ctx context.Context) (int, error) {
	m.mu.Lock()
	id := m.cartID
	m.mu.Unlock()
	if id != 0 {
		return id, nil
	}
	c, err := m.carts.GetCart(ctx, m.sess.Token, m.sess.UserID)
	if err != nil {
		return 0, fmt.Errorf("resolve cart id: %w", err)
	}
	m.mu.Lock()
	m.cartID = c.ID
	m.mu.Unlock()
	return c.ID, nil
}
