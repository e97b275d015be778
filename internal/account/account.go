// Package account is the shopper's dashboard: profile, order history and reviews of
// delivered products.
package account

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/wichananm65/flower-shop-storefront/internal/order"
)

var validate = validator.New()

type Profile struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
	IsActive bool   `json:"isActive"`
}

// ProfileUpdate is the body of the customer update call. Address changes go through
// the same call.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	IsActive bool   `json:"isActive"`
}

type ReviewForm struct {
	ProductID  int    `json:"productId" validate:"gt=0"`
	CustomerID int    `json:"customerId"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	Comment    string `json:"comment" validate:"min=10"`
	IsVerified bool   `json:"isVerified"`
}

// IsFormValid reports whether a review can be submitted: a rating from 1 to 5 and a
// comment of at least ten characters.
func IsFormValid(form ReviewForm) bool {
	return validationMessage(form) == ""
}

func validationMessage(form ReviewForm) string {
	err := validate.Struct(form)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	switch verrs[0].Field() {
	case "Rating":
		return "please choose a rating from 1 to 5"
	case "Comment":
		return "the comment must be at least 10 characters"
	default:
		return "please choose a product to review"
	}
}

type Backend interface {
	GetProfile(ctx context.Context, token, customerID string) (Profile, error)
	UpdateProfile(ctx context.Context, token, customerID string, p ProfileUpdate) error
	CustomerOrders(ctx context.Context, token, customerID string) ([]order.Order, error)
	HasReviewed(ctx context.Context, token string, productID int, customerID string) (bool, error)
	SubmitReview(ctx context.Context, token string, form ReviewForm) error
}

// Pusher sends a typed message to the shopper's open sockets.
type Pusher interface {
	Publish(sessionID, messageType string, data interface{})
}
