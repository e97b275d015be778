package account

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/order"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

type Handler struct {
	sessions   web.SessionResolver
	dashboards *session.Registry[*Dashboard]
}

func NewHandler(sessions web.SessionResolver, dashboards *session.Registry[*Dashboard]) *Handler {
	return &Handler{sessions: sessions, dashboards: dashboards}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/account", h.getAccount)
	app.Put("/api/v1/account/profile", h.updateProfile)
	app.Put("/api/v1/account/address", h.updateAddress)
	app.Get("/api/v1/account/orders", h.getOrders)
	app.Get("/api/v1/account/delivered-items", h.getDeliveredItems)
	app.Post("/api/v1/account/reviews", h.submitReview)
}

func (h *Handler) dashboard(c *fiber.Ctx) (session.Bound[*Dashboard], error) {
	sess, err := h.sessions.Resolve(c)
	if err != nil {
		return session.Bound[*Dashboard]{}, err
	}
	b := h.dashboards.Get(sess)
	c.SetUserContext(b.Context(c.UserContext()))
	return b, nil
}

func (h *Handler) getAccount(c *fiber.Ctx) error {
	b, err := h.dashboard(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	overview, err := b.Value.Load(c.UserContext())
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"account": overview})
	}
	return web.OK(c, b.Recorder, fiber.Map{"account": overview})
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	payload := new(ProfileUpdate)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.dashboard(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	p, err := b.Value.UpdateProfile(c.UserContext(), *payload)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"profile": p})
	}
	return web.OK(c, b.Recorder, fiber.Map{"profile": p})
}

type addressRequest struct {
	Address string `json:"address"`
}

func (h *Handler) updateAddress(c *fiber.Ctx) error {
	payload := new(addressRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.dashboard(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	p, err := b.Value.UpdateAddress(c.UserContext(), payload.Address)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"profile": p})
	}
	return web.OK(c, b.Recorder, fiber.Map{"profile": p})
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	b, err := h.dashboard(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	status := c.Query("status", order.FilterAll)
	if _, err := b.Value.Load(c.UserContext()); err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"orders": b.Value.Orders(status)})
	}
	return web.OK(c, b.Recorder, fiber.Map{"orders": b.Value.Orders(status), "status": status})
}

type deliveredItem struct {
	order.DeliveredItem
	Reviewed bool `json:"reviewed"`
}

func (h *Handler) getDeliveredItems(c *fiber.Ctx) error {
	b, err := h.dashboard(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	if _, err := b.Value.Load(c.UserContext()); err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	reviewed := b.Value.RefreshReviewed(c.UserContext())
	items := make([]deliveredItem, 0)
	for _, it := range b.Value.DeliveredItems() {
		items = append(items, deliveredItem{DeliveredItem: it, Reviewed: reviewed[it.ProductID]})
	}
	return web.OK(c, b.Recorder, fiber.Map{"items": items})
}

func (h *Handler) submitReview(c *fiber.Ctx) error {
	payload := new(ReviewForm)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.dashboard(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	if err := b.Value.SubmitReview(c.UserContext(), *payload); err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	return web.OK(c, b.Recorder, fiber.Map{"productId": payload.ProductID, "reviewed": true})
}
