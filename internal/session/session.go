// Package session keeps the shopper's backend credentials on the server side and
// tells the rest of the storefront when they change.
package session

import (
	"errors"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
)

var ErrNoSession = errors.New("session not found")

// Session is a cached copy of the credentials issued by the backend at login.
type Session struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
	Role   string `json:"role"`
}

func (s Session) Valid() bool {
	return s.UserID != "" && s.Token != ""
}

// Context is handed to every per-session manager instead of letting them read the store.
type Context struct {
	ID string
	Session
}

func (c Context) Authenticated() bool {
	return c.ID != "" && c.Valid()
}

// Require returns an Unauthenticated error for op when nobody is logged in.
func (c Context) Require(op string) error {
	if !c.Authenticated() {
		return apperr.Unauthenticated(op)
	}
	return nil
}

// Change is emitted whenever a session is written or cleared.
type Change struct {
	SessionID string `json:"sessionId"`
	Cleared   bool   `json:"cleared"`
}
