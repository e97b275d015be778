package account

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/events"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

type headerResolver struct{}

func (headerResolver) Resolve(c *fiber.Ctx) (session.Context, error) {
	id := c.Get("X-User-ID")
	if id == "" {
		return session.Context{}, apperr.Unauthenticated("test")
	}
	return session.Context{ID: "sid-" + id, Session: session.Session{UserID: id, Token: "tok"}}, nil
}

func TestAccountRoutes(t *testing.T) {
	backend := sampleBackend()
	registry := session.NewRegistry(func(sess session.Context, n notify.Notifier) *Dashboard {
		return NewDashboard(sess, backend, &events.Memory{}, nil, n, quietLogger())
	}, nil)
	app := fiber.New()
	NewHandler(headerResolver{}, registry).RegisterProtectedRoutes(app)

	do := func(method, path, body string) (int, map[string]interface{}) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "7")
		res, err := app.Test(req)
		require.NoError(t, err)
		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		return res.StatusCode, out
	}

	status, body := do("GET", "/api/v1/account/orders?status=delivered", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["orders"], 2)

	status, body = do("GET", "/api/v1/account/delivered-items", "")
	assert.Equal(t, fiber.StatusOK, status)
	items := body["items"].([]interface{})
	require.Len(t, items, 3)
	assert.Equal(t, true, items[1].(map[string]interface{})["reviewed"])

	status, _ = do("POST", "/api/v1/account/reviews", `{"productId":101,"rating":5,"comment":"ok"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = do("POST", "/api/v1/account/reviews", `{"productId":101,"rating":5,"comment":"Hoa rất tươi và đẹp"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["reviewed"])

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/account", nil))
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}
