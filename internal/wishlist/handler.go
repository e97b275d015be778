package wishlist

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/session"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

type Handler struct {
	sessions web.SessionResolver
	managers *session.Registry[*Manager]
}

func NewHandler(sessions web.SessionResolver, managers *session.Registry[*Manager]) *Handler {
	return &Handler{sessions: sessions, managers: managers}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/wishlist", h.getWishlist)
	app.Post("/api/v1/wishlist/items", h.addItem)
	app.Delete("/api/v1/wishlist/items/:id<int>", h.removeItem)
	app.Post("/api/v1/wishlist/move-to-cart", h.moveToCart)
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

func (h *Handler) getWishlist(c *fiber.Ctx) error {
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	w, err := b.Value.Load(c.UserContext())
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"wishlist": w})
	}
	return web.OK(c, b.Recorder, fiber.Map{"wishlist": w})
}

type productRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(productRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	if err := b.Value.Add(c.UserContext(), payload.ProductID); err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	return web.OK(c, b.Recorder, nil)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	w, err := b.Value.Remove(c.UserContext(), id)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"wishlist": w})
	}
	return web.OK(c, b.Recorder, fiber.Map{"wishlist": w})
}

func (h *Handler) moveToCart(c *fiber.Ctx) error {
	payload := new(productRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.manager(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	w, err := b.Value.MoveToCart(c.UserContext(), payload.ProductID, payload.Quantity)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"wishlist": w})
	}
	return web.OK(c, b.Recorder, fiber.Map{"wishlist": w})
}
