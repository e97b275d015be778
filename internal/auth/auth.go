// Package auth logs shoppers in against the backend, keeps their credentials in the
// session store and hands the browser a storefront token that names the session.
package auth

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

var validate = validator.New()

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupForm struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

type ForgotForm struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetForm struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// formMessage turns the first validation failure into something a shopper can act on.
func formMessage(form interface{}) string {
	err := validate.Struct(form)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return "Please enter your email"
		}
		return "Please enter a valid email address"
	case "Password", "NewPassword":
		if fe.Tag() == "required" {
			return "Please enter a password"
		}
		return "The password must be at least 8 characters"
	case "ConfirmPassword":
		return "The passwords do not match"
	case "Code":
		return "Please enter the confirmation code"
	default:
		return fe.Error()
	}
}

type Backend interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Signup(ctx context.Context, email, password string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}
