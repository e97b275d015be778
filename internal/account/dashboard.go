package account

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/events"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/order"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

const (
	ReviewSubmittedMessage = "reviewSubmitted"

	maxReviewChecks = 6
)

// Dashboard holds one shopper's account page.
type Dashboard struct {
	sess      session.Context
	backend   Backend
	publisher events.Publisher
	pusher    Pusher
	notifier  notify.Notifier
	log       *logrus.Entry

	mu        sync.Mutex
	profile   Profile
	orders    []order.Order
	loaded    bool
	reviewed  map[int]bool
	listeners []func(events.ReviewSubmitted)
}

func NewDashboard(sess session.Context, backend Backend, publisher events.Publisher, pusher Pusher,
	notifier notify.Notifier, logger *logrus.Logger) *Dashboard {
	return &Dashboard{
		sess:      sess,
		backend:   backend,
		publisher: publisher,
		pusher:    pusher,
		notifier:  notifier,
		log:       logger.WithFields(logrus.Fields{"component": "account", "session_id": sess.ID}),
		reviewed:  map[int]bool{},
	}
}

func (d *Dashboard) notes(ctx context.Context) notify.Notifier {
	return notify.To(ctx, d.notifier)
}

// OnReviewSubmitted registers fn to run after every successful review.
func (d *Dashboard) OnReviewSubmitted(fn func(events.ReviewSubmitted)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

type Overview struct {
	Profile Profile       `json:"profile"`
	Orders  []order.Order `json:"orders"`
}

func (d *Dashboard) Overview() Overview {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Overview{Profile: d.profile, Orders: append([]order.Order{}, d.orders...)}
}

// Load fetches the profile and the order history together. On failure the previous
// data is kept.
func (d *Dashboard) Load(ctx context.Context) (Overview, error) {
	if err := d.sess.Require("account.Load"); err != nil {
		notify.Info(d.notes(ctx), "Please log in to view your account")
		return Overview{}, err
	}

	var (
		profile Profile
		orders  []order.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = d.backend.GetProfile(gctx, d.sess.Token, d.sess.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = d.backend.CustomerOrders(gctx, d.sess.Token, d.sess.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		d.log.WithError(err).Warn("failed to load account")
		notify.Error(d.notes(ctx), "Could not load your account")
		return d.Overview(), fmt.Errorf("load account: %w", err)
	}

	d.mu.Lock()
	d.profile, d.orders, d.loaded = profile, orders, true
	d.mu.Unlock()
	return d.Overview(), nil
}

func (d *Dashboard) UpdateProfile(ctx context.Context, upd ProfileUpdate) (Profile, error) {
	return d.saveProfile(ctx, "account.UpdateProfile", upd, "Your details have been updated", "Could not update your details")
}

// UpdateAddress changes only the address, resending the rest of the profile as loaded.
func (d *Dashboard) UpdateAddress(ctx context.Context, address string) (Profile, error) {
	d.mu.Lock()
	p := d.profile
	d.mu.Unlock()
	upd := ProfileUpdate{Name: p.Name, Email: p.Email, Phone: p.Phone, Address: strings.TrimSpace(address)}
	return d.saveProfile(ctx, "account.UpdateAddress", upd, "Your address has been updated", "Could not update your address")
}

func (d *Dashboard) saveProfile(ctx context.Context, op string, upd ProfileUpdate, okMsg, failMsg string) (Profile, error) {
	if err := d.sess.Require(op); err != nil {
		return Profile{}, err
	}
	upd.IsActive = true
	if err := validate.Struct(upd); err != nil {
		notify.Error(d.notes(ctx), "Please enter a valid email address")
		return d.Overview().Profile, apperr.Validation(op, "invalid email address")
	}
	if err := d.backend.UpdateProfile(ctx, d.sess.Token, d.sess.UserID, upd); err != nil {
		d.log.WithError(err).Warn("profile update failed")
		notify.Error(d.notes(ctx), failMsg)
		return d.Overview().Profile, err
	}

	d.mu.Lock()
	d.profile.Name, d.profile.Email, d.profile.Phone, d.profile.Address = upd.Name, upd.Email, upd.Phone, upd.Address
	d.profile.IsActive = true
	p := d.profile
	d.mu.Unlock()
	notify.Success(d.notes(ctx), okMsg)
	return p, nil
}

// Orders returns the loaded orders with the given status, or all of them for "all".
func (d *Dashboard) Orders(status string) []order.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return order.FilterByStatus(d.orders, status)
}

func (d *Dashboard) DeliveredItems() []order.DeliveredItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return order.DeliveredItems(d.orders)
}

// RefreshReviewed asks the backend which delivered products the shopper has already
// reviewed. A failed check counts as not reviewed.
func (d *Dashboard) RefreshReviewed(ctx context.Context) map[int]bool {
	var ids []int
	seen := map[int]bool{}
	for _, it := range d.DeliveredItems() {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	results := make([]bool, len(ids))
	var g errgroup.Group
	g.SetLimit(maxReviewChecks)
	for i, id := range ids {
		g.Go(func() error {
			ok, err := d.backend.HasReviewed(ctx, d.sess.Token, id, d.sess.UserID)
			if err != nil {
				d.log.WithError(err).WithField("product_id", id).Warn("review check failed")
				return nil
			}
			results[i] = ok
			return nil
		})
	}
	g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	for i, id := range ids {
		if results[i] {
			d.reviewed[id] = true
		}
	}
	out := make(map[int]bool, len(d.reviewed))
	for id := range d.reviewed {
		out[id] = true
	}
	return out
}

func (d *Dashboard) IsReviewed(productID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reviewed[productID]
}

// wasDelivered reports whether productID is in one of the shopper's delivered orders,
// loading the order history first when it has not been fetched yet.
func (d *Dashboard) wasDelivered(ctx context.Context, productID int) (bool, error) {
	d.mu.Lock()
	loaded := d.loaded
	d.mu.Unlock()
	if !loaded {
		if _, err := d.Load(ctx); err != nil {
			return false, err
		}
	}
	for _, it := range d.DeliveredItems() {
		if it.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

// SubmitReview posts a verified review. Invalid forms, products outside delivered
// orders and products already reviewed never reach the backend.
func (d *Dashboard) SubmitReview(ctx context.Context, form ReviewForm) error {
	const op = "account.SubmitReview"
	if err := d.sess.Require(op); err != nil {
		return err
	}
	customerID, _ := strconv.Atoi(d.sess.UserID)
	form.CustomerID = customerID
	form.IsVerified = true

	if msg := validationMessage(form); msg != "" {
		notify.Error(d.notes(ctx), "Please choose a rating and write at least 10 characters")
		return apperr.Validation(op, msg)
	}

	delivered, err := d.wasDelivered(ctx, form.ProductID)
	if err != nil {
		return err
	}
	if !delivered {
		notify.Error(d.notes(ctx), "Only products from delivered orders can be reviewed")
		return apperr.Validation(op, "product is not in a delivered order")
	}

	already := d.IsReviewed(form.ProductID)
	if !already {
		ok, err := d.backend.HasReviewed(ctx, d.sess.Token, form.ProductID, d.sess.UserID)
		if err != nil {
			d.log.WithError(err).WithField("product_id", form.ProductID).Warn("review check failed")
		}
		already = ok
	}
	if already {
		d.markReviewed(form.ProductID)
		notify.Info(d.notes(ctx), "You have already reviewed this product")
		return apperr.New(op, apperr.KindConflict, "product already reviewed")
	}

	if err := d.backend.SubmitReview(ctx, d.sess.Token, form); err != nil {
		d.log.WithError(err).WithField("product_id", form.ProductID).Warn("review submission failed")
		notify.Error(d.notes(ctx), apperr.Message(err, "Could not submit your review"))
		return err
	}
	d.markReviewed(form.ProductID)
	notify.Success(d.notes(ctx), "Thank you for your review")
	d.emitReviewSubmitted(ctx, events.ReviewSubmitted{ProductID: form.ProductID, CustomerID: d.sess.UserID, Rating: form.Rating})
	return nil
}

func (d *Dashboard) markReviewed(productID int) {
	d.mu.Lock()
	d.reviewed[productID] = true
	d.mu.Unlock()
}

func (d *Dashboard) emitReviewSubmitted(ctx context.Context, ev events.ReviewSubmitted) {
	d.mu.Lock()
	listeners := append([]func(events.ReviewSubmitted){}, d.listeners...)
	d.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
	if d.pusher != nil {
		d.pusher.Publish(d.sess.ID, ReviewSubmittedMessage, ev)
	}
	if d.publisher != nil {
		e := events.New(events.ReviewSubmittedTopic, strconv.Itoa(ev.ProductID), ev)
		if err := d.publisher.Publish(ctx, e); err != nil {
			d.log.WithError(err).Warn("failed to publish review event")
		}
	}
}
