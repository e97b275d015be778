package catalog

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.getProducts)
	app.Get("/api/v1/products/slug/:slug", h.getProductBySlug)
	app.Get("/api/v1/products/:id<int>", h.getProduct)
	app.Get("/api/v1/products/:id<int>/related", h.getRelated)
	app.Get("/api/v1/products/:id<int>/reviews", h.getReviews)
	app.Get("/api/v1/facets", h.getFacets)
	app.Post("/api/v1/search/image", h.searchByImage)
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	q := ParseQuery(queryValues(c))
	page, err := h.service.List(c.UserContext(), q)
	if err != nil {
		rec := notify.NewRecorder()
		notify.Error(rec, "Could not load products")
		return web.Error(c, err, rec, fiber.Map{"page": page})
	}
	return web.OK(c, nil, fiber.Map{"page": page})
}

func (h *Handler) getProductBySlug(c *fiber.Ctx) error {
	p, err := h.service.BySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	return web.OK(c, nil, fiber.Map{"product": p.Card()})
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	p, err := h.service.Detail(c.UserContext(), id)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	return web.OK(c, nil, fiber.Map{"product": p.Card()})
}

func (h *Handler) getRelated(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	cards, err := h.service.Related(c.UserContext(), id)
	if err != nil {
		return web.Error(c, err, nil, fiber.Map{"products": []Card{}})
	}
	return web.OK(c, nil, fiber.Map{"products": cards})
}

func (h *Handler) getReviews(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	reviews, err := h.service.Reviews(c.UserContext(), id)
	if err != nil {
		return web.Error(c, err, nil, fiber.Map{"reviews": []Review{}})
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return web.OK(c, nil, fiber.Map{"reviews": reviews})
}

func (h *Handler) getFacets(c *fiber.Ctx) error {
	f, err := h.service.Facets(c.UserContext())
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	return web.OK(c, nil, fiber.Map{"facets": f})
}

func (h *Handler) searchByImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return web.BadRequest(c, "an image file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return web.BadRequest(c, err.Error())
	}
	defer f.Close()

	rec := notify.NewRecorder()
	res, err := h.service.SearchByImage(c.UserContext(), fh.Filename, f)
	if err != nil {
		notify.Error(rec, "Image search failed, please try again")
		return web.Error(c, err, rec, nil)
	}
	if len(res.Similar) == 0 {
		notify.Info(rec, "No similar products were found")
	}
	return web.OK(c, rec, fiber.Map{"result": res})
}

func queryValues(c *fiber.Ctx) map[string][]string {
	out := map[string][]string{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		out[string(k)] = append(out[string(k)], string(v))
	})
	return out
}
