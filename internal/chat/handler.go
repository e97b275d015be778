package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

type Handler struct {
	widgets *session.Pool[*Widget]
	create  func(id string) *Widget
}

func NewHandler(widgets *session.Pool[*Widget], create func(id string) *Widget) *Handler {
	return &Handler{widgets: widgets, create: create}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/chat/sessions", h.open)
	app.Get("/api/v1/chat/:chatID/messages", h.getMessages)
	app.Post("/api/v1/chat/:chatID/messages", h.send)
	app.Delete("/api/v1/chat/:chatID", h.close)
}

func (h *Handler) open(c *fiber.Ctx) error {
	id := uuid.NewString()
	w := h.widgets.Get(id, func() *Widget { return h.create(id) })
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"chatId": id, "messages": w.Transcript()})
}

func (h *Handler) widget(c *fiber.Ctx) (*Widget, error) {
	w, ok := h.widgets.Lookup(c.Params("chatID"))
	if !ok {
		return nil, apperr.New("chat", apperr.KindNotFound, "chat not found")
	}
	return w, nil
}

func (h *Handler) getMessages(c *fiber.Ctx) error {
	w, err := h.widget(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	return web.OK(c, nil, fiber.Map{"messages": w.Transcript()})
}

type questionRequest struct {
	Question string `json:"question"`
}

func (h *Handler) send(c *fiber.Ctx) error {
	payload := new(questionRequest)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	w, err := h.widget(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	added, err := w.Send(c.UserContext(), payload.Question)
	switch {
	case errors.Is(err, ErrStale):
		return web.OK(c, nil, fiber.Map{"messages": []Segment{}, "stale": true})
	case err != nil && added == nil:
		return web.Error(c, err, nil, nil)
	}
	// a failed suggestion still answers with the fallback line
	return web.OK(c, nil, fiber.Map{"messages": added})
}

func (h *Handler) close(c *fiber.Ctx) error {
	h.widgets.Evict(c.Params("chatID"))
	return c.SendStatus(fiber.StatusNoContent)
}
