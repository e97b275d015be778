package cart

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/session"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

// Handler exposes the cart manager of the calling session.
type Handler struct {
	sessions web.SessionResolver
	managers *session.Registry[*Manager]
}

func NewHandler(sessions web.SessionResolver, managers *session.Registry[*Manager]) *Handler {
	return &Handler{sessions: sessions, managers: managers}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Patch("/api/v1/cart/items/:id<int>", h.setQuantity)
	app.Delete("/api/v1/cart/items/:id<int>", h.removeItem)
	app.Post("/api/v1/cart/checkout", h.checkout)
}

func (h *Handler) manager(c *fiber.Ctx) (session.Bound[*Manager], error) {
	sess, err := h.sessions.Resolve(c)
	if err != nil {
		return session.Bound[*Manager]{}, err
	}
	b := h.managers.Get(sess)
	c.SetUserContext(b.Context(c.UserContext()))
	return b, nil
}

func cartBody(m *Manager, c Cart) fiber.Map {
	return fiber.Map{"cart": c, "total": m.Total(), "subtotal": m.Subtotal()}
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	cart, err := b.Value.Load(c.UserContext())
	if err != nil {
		return web.Error(c, err, b.Recorder, cartBody(b.Value, cart))
	}
	return web.OK(c, b.Recorder, cartBody(b.Value, cart))
}

type addItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	cart, err := b.Value.AddItem(c.UserContext(), payload.ProductID, payload.Quantity)
	if err != nil {
		return web.Error(c, err, b.Recorder, cartBody(b.Value, cart))
	}
	return web.OK(c, b.Recorder, cartBody(b.Value, cart))
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	cart, err := b.Value.SetQuantity(c.UserContext(), id, payload.Delta)
	if err != nil {
		return web.Error(c, err, b.Recorder, cartBody(b.Value, cart))
	}
	return web.OK(c, b.Recorder, cartBody(b.Value, cart))
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	cart, err := b.Value.RemoveItem(c.UserContext(), id)
	if err != nil {
		return web.Error(c, err, b.Recorder, cartBody(b.Value, cart))
	}
	return web.OK(c, b.Recorder, cartBody(b.Value, cart))
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	next, err := b.Value.Checkout(c.UserContext())
	if err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	return web.OK(c, b.Recorder, fiber.Map{"redirect": next})
}
