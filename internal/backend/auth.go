package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

type loginResponse struct {
	Token string          `json:"token"`
	ID    json.RawMessage `json:"id"`
	Role  json.RawMessage `json:"role"`
}

// scalar renders a JSON number or string without quotes.
func scalar(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}

// Login returns the backend credentials. An answer without a token is a rejected login.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	cl, err := c.api(http.MethodPost, "/api/customers/login", "").withJSON(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return session.Session{}, err
	}
	var out loginResponse
	if err := c.do(ctx, cl, &out); err != nil {
		return session.Session{}, err
	}
	if out.Token == "" {
		return session.Session{}, apperr.New("backend.Login", apperr.KindUnauthenticated, "wrong email or password")
	}
	return session.Session{UserID: scalar(out.ID), Token: out.Token, Role: scalar(out.Role)}, nil
}

func (c *Client) Signup(ctx context.Context, email, password string) error {
	cl, err := c.api(http.MethodPost, "/api/customers/signup", "").withJSON(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, cl, nil)
}

type successResponse struct {
	Success *bool `json:"success"`
}

func (r successResponse) failed() bool {
	return r.Success != nil && !*r.Success
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	cl, err := c.api(http.MethodPost, "/api/forgotpass", "").withJSON(map[string]string{"user_email": email})
	if err != nil {
		return err
	}
	var out successResponse
	if err := c.do(ctx, cl, &out); err != nil {
		return err
	}
	if out.failed() {
		return apperr.New("backend.ForgotPassword", apperr.KindNotFound, "email not registered")
	}
	return nil
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	cl, err := c.api(http.MethodPost, "/api/confirm", "").withJSON(map[string]string{
		"newPassword": newPassword,
		"email":       email,
		"code":        code,
	})
	if err != nil {
		return err
	}
	var out successResponse
	if err := c.do(ctx, cl, &out); err != nil {
		return err
	}
	if out.failed() {
		return apperr.New("backend.ResetPassword", apperr.KindNonOK, "Could not reset the password, check the email and code")
	}
	return nil
}
