package blog

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/blog", h.list)
	app.Get("/api/v1/blog/:slug", h.getBySlug)
}

func (h *Handler) list(c *fiber.Ctx) error {
	// a failed listing still renders, as an empty first page
	page, _ := h.service.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", DefaultLimit))
	return web.OK(c, nil, fiber.Map{"blog": page})
}

func (h *Handler) getBySlug(c *fiber.Ctx) error {
	post, err := h.service.BySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	return web.OK(c, nil, fiber.Map{"post": post})
}
