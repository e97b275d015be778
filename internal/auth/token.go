package auth

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/web"
)

// Issuer signs and parses storefront tokens. The token only names the session; the
// backend credentials stay in the session store.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(sessionID, userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"sid":     sessionID,
		"user_id": userID,
		"role":    role,
		"exp":     i.now().Add(i.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// SessionID validates raw and returns the session it names.
func (i *Issuer) SessionID(raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", apperr.Unauthenticated("auth.SessionID")
	}
	return sessionIDFromToken(tok)
}

// Protected rejects requests without a valid storefront token. The parsed token is
// left in c.Locals("user").
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return web.Error(c, apperr.Unauthenticated("auth.Protected"), nil, nil)
		},
	})
}

// SessionIDFromCtx reads the sid claim of the token Protected stored.
func SessionIDFromCtx(c *fiber.Ctx) (string, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", apperr.Unauthenticated("auth.SessionIDFromCtx")
	}
	return sessionIDFromToken(tok)
}

func sessionIDFromToken(tok *jwt.Token) (string, error) {
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.Unauthenticated("auth.token")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", apperr.Unauthenticated("auth.token")
	}
	return sid, nil
}
