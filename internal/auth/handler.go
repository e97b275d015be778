package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

type Handler struct {
	service  *Service
	sessions web.SessionResolver
}

func NewHandler(service *Service, sessions web.SessionResolver) *Handler {
	return &Handler{service: service, sessions: sessions}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/auth/login", h.login)
	app.Post("/api/v1/auth/signup", h.signup)
	app.Post("/api/v1/auth/forgot-password", h.forgotPassword)
	app.Post("/api/v1/auth/reset-password", h.resetPassword)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/auth/me", h.me)
	app.Post("/api/v1/auth/logout", h.logout)
}

// fail reports err as a notification on the response itself; there is no session yet.
func fail(c *fiber.Ctx, err error, fallback string) error {
	rec := notify.NewRecorder()
	notify.Error(rec, apperr.Message(err, fallback))
	return web.Error(c, err, rec, nil)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(LoginForm)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	res, err := h.service.Login(c.UserContext(), *payload)
	if err != nil {
		return fail(c, err, "Something went wrong while logging in")
	}
	rec := notify.NewRecorder()
	notify.Success(rec, "Logged in successfully")
	return web.OK(c, rec, fiber.Map{"token": res.Token, "userId": res.UserID, "role": res.Role, "redirect": "/"})
}

func (h *Handler) signup(c *fiber.Ctx) error {
	payload := new(SignupForm)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	if err := h.service.Signup(c.UserContext(), *payload); err != nil {
		return fail(c, err, "Something went wrong while signing up")
	}
	rec := notify.NewRecorder()
	notify.Success(rec, "Signed up, please log in")
	return web.OK(c, rec, fiber.Map{"redirect": web.LoginPath})
}

func (h *Handler) forgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotForm)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	if err := h.service.ForgotPassword(c.UserContext(), *payload); err != nil {
		return fail(c, err, "Could not request a password reset")
	}
	rec := notify.NewRecorder()
	notify.Success(rec, "Request received, please check your email")
	return web.OK(c, rec, nil)
}

func (h *Handler) resetPassword(c *fiber.Ctx) error {
	payload := new(ResetForm)
	if err := c.BodyParser(payload); err != nil {
		return web.BadRequest(c, err.Error())
	}
	if err := h.service.ResetPassword(c.UserContext(), *payload); err != nil {
		return fail(c, err, "Could not reset the password, check the email and code")
	}
	rec := notify.NewRecorder()
	notify.Success(rec, "Password changed, please log in")
	return web.OK(c, rec, fiber.Map{"redirect": web.LoginPath})
}

func (h *Handler) me(c *fiber.Ctx) error {
	sess, err := h.sessions.Resolve(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	return web.OK(c, nil, fiber.Map{"userId": sess.UserID, "role": sess.Role})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	sid, err := SessionIDFromCtx(c)
	if err != nil {
		return web.Error(c, err, nil, nil)
	}
	if err := h.service.Logout(c.UserContext(), sid); err != nil {
		return web.Error(c, err, nil, nil)
	}
	return web.OK(c, nil, fiber.Map{"redirect": web.LoginPath})
}
