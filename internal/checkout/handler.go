package checkout

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/session"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

type Handler struct {
	sessions web.SessionResolver
	flows    *session.Registry[*Flow]
}

func NewHandler(sessions web.SessionResolver, flows *session.Registry[*Flow]) *Handler {
	return &Handler{sessions: sessions, flows: flows}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/orders/buy-now", h.buyNow)
	app.Get("/api/v1/orders/:id<int>/confirmation", h.confirmation)

	app.Get("/api/v1/checkout/callback", h.callback)
	app.Get("/api/v1/checkout/:orderId<int>", h.open)
	app.Put("/api/v1/checkout/:orderId<int>/address", h.setAddress)
	app.Post("/api/v1/checkout/:orderId<int>/payment-method/select", h.selectPaymentMethod)
	app.Put("/api/v1/checkout/:orderId<int>/payment-method", h.setPaymentMethod)
	app.Post("/api/v1/checkout/:orderId<int>/confirm", h.confirm)
}

func (h *Handler) flow(c *fiber.Ctx) (session.Bound[*Flow], error) {
	sess, err := h.sessions.Resolve(c)
	if err != nil {
		return session.Bound[*Flow]{}, err
	}
	b := h.flows.Get(sess)
	c.SetUserContext(b.Context(c.UserContext()))
	return b, nil
}

// openFlow returns the session's flow positioned on the :orderId of the request.
func (h *Handler) openFlow(c *fiber.Ctx) (session.Bound[*Flow], error) {
	b, err := h.flow(c)
	if err != nil {
		return b, err
	}
	id, _ := strconv.Atoi(c.Params("orderId"))
	if b.Value.OrderID() != id {
		if _, err := b.Value.Open(c.UserContext(), id); err != nil {
			return b, err
		}
	}
	return b, nil
}

func (h *Handler) open(c *fiber.Ctx) error {
	b, err := h.flow(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	id, _ := strconv.Atoi(c.Params("orderId"))
	view, err := b.Value.Open(c.UserContext(), id)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"redirect": HomePath})
	}
	return web.OK(c, b.Recorder, fiber.Map{"checkout": view})
}

type addressRequest struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (h *Handler) setAddress(c *fiber.Ctx) error {
	payload := new(addressRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.openFlow(c)
	if err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	view, err := b.Value.SetAddress(c.UserContext(), payload.Address, payload.Phone)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"checkout": view})
	}
	return web.OK(c, b.Recorder, fiber.Map{"checkout": view})
}

type paymentRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (h *Handler) selectPaymentMethod(c *fiber.Ctx) error {
	payload := new(paymentRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.openFlow(c)
	if err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	view, err := b.Value.SelectPaymentMethod(c.UserContext(), payload.PaymentMethod)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"checkout": view})
	}
	return web.OK(c, b.Recorder, fiber.Map{"checkout": view})
}

func (h *Handler) setPaymentMethod(c *fiber.Ctx) error {
	payload := new(paymentRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.openFlow(c)
	if err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	view, err := b.Value.SetPaymentMethod(c.UserContext(), payload.PaymentMethod)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"checkout": view})
	}
	return web.OK(c, b.Recorder, fiber.Map{"checkout": view})
}

func (h *Handler) confirm(c *fiber.Ctx) error {
	b, err := h.openFlow(c)
	if err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	next, err := b.Value.Confirm(c.UserContext())
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"checkout": b.Value.View()})
	}
	return web.OK(c, b.Recorder, fiber.Map{"redirect": next, "checkout": b.Value.View()})
}

func (h *Handler) callback(c *fiber.Ctx) error {
	params := new(CallbackParams)
	if err := c.QueryParser(params); err != nil {
		return web.BadRequest(c, err.Error())
	}
	b, err := h.flow(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	res, err := b.Value.HandleCallback(c.UserContext(), *params)
	if err != nil {
		return web.Error(c, err, b.Recorder, fiber.Map{"redirect": res.Redirect, "paid": false})
	}
	return web.OK(c, b.Recorder, fiber.Map{"redirect": res.Redirect, "paid": res.Paid, "orderId": res.OrderID})
}

type buyNowRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) buyNow(c *fiber.Ctx) error {
	payload := new(buyNowRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	b, err := h.flow(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	next, err := b.Value.BuyNow(c.UserContext(), payload.ProductID, payload.Quantity)
	if err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	return web.OK(c, b.Recorder, fiber.Map{"redirect": next})
}

func (h *Handler) confirmation(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	b, err := h.flow(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	conf, err := b.Value.Confirmation(c.UserContext(), id)
	if err != nil {
		return web.Error(c, err, b.Recorder, nil)
	}
	return web.OK(c, b.Recorder, fiber.Map{"confirmation": conf})
}
