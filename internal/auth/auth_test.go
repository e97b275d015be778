package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

const testSecret = "test-secret"

type fakeBackend struct {
	users map[string]string
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (session.Session, error) {
	if f.users[email] != password {
		return session.Session{}, apperr.New("test", apperr.KindUnauthenticated, "bad credentials")
	}
	return session.Session{UserID: "7", Token: "backend-token", Role: "customer"}, nil
}

func (f *fakeBackend) Signup(_ context.Context, email, password string) error {
	if _, ok := f.users[email]; ok {
		return apperr.New("test", apperr.KindValidation, "400")
	}
	f.users[email] = password
	return nil
}

func (f *fakeBackend) ForgotPassword(_ context.Context, email string) error {
	if _, ok := f.users[email]; !ok {
		return apperr.New("test", apperr.KindNotFound, "no such email")
	}
	return nil
}

func (f *fakeBackend) ResetPassword(_ context.Context, email, code, newPassword string) error {
	if code != "123456" {
		return apperr.New("test", apperr.KindNonOK, "bad code")
	}
	f.users[email] = newPassword
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestApp(t *testing.T) (*fiber.App, *session.InMemoryStore) {
	t.Helper()
	store := session.NewInMemoryStore(0)
	backend := &fakeBackend{users: map[string]string{"lan@example.com": "hoahong123"}}
	svc := NewService(backend, store, NewIssuer(testSecret, time.Hour), quietLogger())
	h := NewHandler(svc, NewResolver(store))

	app := fiber.New()
	h.RegisterPublicRoutes(app)
	app.Use(Protected(testSecret))
	h.RegisterProtectedRoutes(app)
	return app, store
}

func post(t *testing.T, app *fiber.App, path, body, token string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s request failed: %v", path, err)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return res.StatusCode, out
}

func TestLoginLogoutFlow(t *testing.T) {
	app, store := newTestApp(t)

	status, body := post(t, app, "/api/v1/auth/login", `{"email":"lan@example.com","password":"sai"}`, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", status)
	}

	status, body = post(t, app, "/api/v1/auth/login", `{"email":"lan@example.com","password":"hoahong123"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" || body["userId"] != "7" || body["redirect"] != "/" {
		t.Fatalf("unexpected login body: %v", body)
	}

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 from /me, got %d", res.StatusCode)
	}

	sid, err := NewIssuer(testSecret, time.Hour).SessionID(token)
	if err != nil {
		t.Fatalf("token did not parse: %v", err)
	}
	if s, err := store.Load(context.Background(), sid); err != nil || s.Token != "backend-token" {
		t.Fatalf("session not stored: %v %v", s, err)
	}

	status, _ = post(t, app, "/api/v1/auth/logout", "", token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", status)
	}
	if _, err := store.Load(context.Background(), sid); err != session.ErrNoSession {
		t.Fatalf("expected session to be cleared, got %v", err)
	}

	// the token is still signed but its session is gone
	req = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", res.StatusCode)
	}
}

func TestProtectedRejectsMissingAndForeignTokens(t *testing.T) {
	app, _ := newTestApp(t)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/auth/me", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}

	foreign, _ := NewIssuer("other-secret", time.Hour).Issue("sid", "7", "customer")
	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a foreign token, got %d", res.StatusCode)
	}
}

func TestIssuerRejectsExpiredTokens(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := issuer.Issue("sid-1", "7", "customer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.SessionID(token); !apperrIsUnauthenticated(err) {
		t.Fatalf("expected unauthenticated for expired token, got %v", err)
	}
}

func apperrIsUnauthenticated(err error) bool {
	return apperr.KindOf(err) == apperr.KindUnauthenticated
}

func TestSignupAndPasswordReset(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"signup short password", "/api/v1/auth/signup", `{"email":"mai@example.com","password":"1234","confirmPassword":"1234"}`, fiber.StatusBadRequest},
		{"signup mismatch", "/api/v1/auth/signup", `{"email":"mai@example.com","password":"12345678","confirmPassword":"87654321"}`, fiber.StatusBadRequest},
		{"signup bad email", "/api/v1/auth/signup", `{"email":"mai","password":"12345678","confirmPassword":"12345678"}`, fiber.StatusBadRequest},
		{"signup taken", "/api/v1/auth/signup", `{"email":"lan@example.com","password":"12345678","confirmPassword":"12345678"}`, fiber.StatusConflict},
		{"signup ok", "/api/v1/auth/signup", `{"email":"mai@example.com","password":"12345678","confirmPassword":"12345678"}`, fiber.StatusOK},
		{"forgot unknown", "/api/v1/auth/forgot-password", `{"email":"nobody@example.com"}`, fiber.StatusNotFound},
		{"forgot ok", "/api/v1/auth/forgot-password", `{"email":"mai@example.com"}`, fiber.StatusOK},
		{"reset short", "/api/v1/auth/reset-password", `{"email":"mai@example.com","code":"123456","newPassword":"abc"}`, fiber.StatusBadRequest},
		{"reset bad code", "/api/v1/auth/reset-password", `{"email":"mai@example.com","code":"000000","newPassword":"hoacuc12345"}`, fiber.StatusBadGateway},
		{"reset ok", "/api/v1/auth/reset-password", `{"email":"mai@example.com","code":"123456","newPassword":"hoacuc12345"}`, fiber.StatusOK},
		{"login with new password", "/api/v1/auth/login", `{"email":"mai@example.com","password":"hoacuc12345"}`, fiber.StatusOK},
	}
	for _, tc := range cases {
		status, body := post(t, app, tc.path, tc.body, "")
		if status != tc.status {
			t.Fatalf("%s: expected %d, got %d (%v)", tc.name, tc.status, status, body)
		}
		if status != fiber.StatusOK {
			if notes, _ := body["notifications"].([]interface{}); len(notes) == 0 {
				t.Fatalf("%s: expected a notification, got %v", tc.name, body)
			}
		}
	}
}

func TestResolverReportsExpiredSessions(t *testing.T) {
	store := session.NewInMemoryStore(0)
	resolver := NewResolver(store)
	var missing []string
	resolver.OnMissing(func(sid string) { missing = append(missing, sid) })

	app := fiber.New()
	app.Use(Protected(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		sess, err := resolver.Resolve(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(sess.UserID)
	})

	issuer := NewIssuer(testSecret, time.Hour)
	call := func(sid string) int {
		token, err := issuer.Issue(sid, "7", "customer")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		return res.StatusCode
	}

	if err := store.Save(context.Background(), "sid-live", session.Session{UserID: "7", Token: "t"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if status := call("sid-live"); status != fiber.StatusOK {
		t.Fatalf("expected 200 for a live session, got %d", status)
	}
	if status := call("sid-gone"); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a missing session, got %d", status)
	}
	if len(missing) != 1 || missing[0] != "sid-gone" {
		t.Fatalf("expected only sid-gone to be reported, got %v", missing)
	}
}
