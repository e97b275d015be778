// Package web holds the response conventions shared by the storefront handlers.
package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

// LoginPath is where unauthenticated shoppers are sent.
const LoginPath = "/login"

// SessionResolver finds the session behind a request.
type SessionResolver interface {
	Resolve(c *fiber.Ctx) (session.Context, error)
}

// OK writes body with the drained notifications attached.
func OK(c *fiber.Ctx, rec *notify.Recorder, body fiber.Map) error {
	if body == nil {
		body = fiber.Map{}
	}
	body["notifications"] = drain(rec)
	return c.Status(fiber.StatusOK).JSON(body)
}

// Error maps err to a status code and writes it with the drained notifications.
// extra fields (a fallback redirect, the retained state) are merged in.
func Error(c *fiber.Ctx, err error, rec *notify.Recorder, extra fiber.Map) error {
	body := fiber.Map{"message": apperr.Message(err, err.Error())}
	for k, v := range extra {
		body[k] = v
	}
	notes := drain(rec)
	if apperr.KindOf(err) == apperr.KindUnauthenticated {
		body["redirect"] = LoginPath
		if len(notes) == 0 {
			notify.Info(recorderFor(&notes), "Please log in to continue")
		}
	}
	body["notifications"] = notes
	return c.Status(apperr.HTTPStatus(err)).JSON(body)
}

func drain(rec *notify.Recorder) []notify.Notification {
	if rec == nil {
		return []notify.Notification{}
	}
	return rec.Drain()
}

type sliceNotifier struct{ out *[]notify.Notification }

func (s sliceNotifier) Notify(n notify.Notification) { *s.out = append(*s.out, n) }

func recorderFor(out *[]notify.Notification) notify.Notifier { return sliceNotifier{out: out} }

// BadRequest is a validation failure raised by the handler itself.
func BadRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg, "notifications": []notify.Notification{}})
}
