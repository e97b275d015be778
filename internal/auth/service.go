package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
)

// Resolver turns the request's storefront token into the session behind it.
type Resolver struct {
	store     session.Store
	onMissing func(sessionID string)
}

func NewResolver(store session.Store) *Resolver {
	return &Resolver{store: store}
}

// OnMissing registers fn to run when a token points at a session the store no longer
// has, such as one that expired without a logout.
func (r *Resolver) OnMissing(fn func(sessionID string)) {
	r.onMissing = fn
}

func (r *Resolver) Resolve(c *fiber.Ctx) (session.Context, error) {
	sid, err := SessionIDFromCtx(c)
	if err != nil {
		return session.Context{}, err
	}
	s, err := r.store.Load(c.UserContext(), sid)
	if errors.Is(err, session.ErrNoSession) {
		if r.onMissing != nil {
			r.onMissing(sid)
		}
		return session.Context{}, apperr.Unauthenticated("auth.Resolve")
	}
	if err != nil {
		return session.Context{}, fmt.Errorf("load session: %w", err)
	}
	return session.Context{ID: sid, Session: s}, nil
}

type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type Service struct {
	backend Backend
	store   session.Store
	issuer  *Issuer
	log     *logrus.Entry
}

func NewService(backend Backend, store session.Store, issuer *Issuer, logger *logrus.Logger) *Service {
	return &Service{backend: backend, store: store, issuer: issuer, log: logger.WithField("component", "auth")}
}

func (s *Service) Login(ctx context.Context, form LoginForm) (LoginResult, error) {
	const op = "auth.Login"
	if msg := formMessage(form); msg != "" {
		return LoginResult{}, apperr.Validation(op, msg)
	}
	creds, err := s.backend.Login(ctx, form.Email, form.Password)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNetwork:
			return LoginResult{}, err
		default:
			// a rejected login never tells which half was wrong
			return LoginResult{}, apperr.New(op, apperr.KindUnauthenticated, "wrong email or password")
		}
	}
	if !creds.Valid() {
		return LoginResult{}, apperr.New(op, apperr.KindNonOK, "login response carried no credentials")
	}

	sid := uuid.NewString()
	if err := s.store.Save(ctx, sid, creds); err != nil {
		return LoginResult{}, fmt.Errorf("save session: %w", err)
	}
	token, err := s.issuer.Issue(sid, creds.UserID, creds.Role)
	if err != nil {
		_ = s.store.Clear(ctx, sid)
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	s.log.WithFields(logrus.Fields{"session_id": sid, "user_id": creds.UserID}).Info("shopper logged in")
	return LoginResult{Token: token, UserID: creds.UserID, Role: creds.Role}, nil
}

func (s *Service) Signup(ctx context.Context, form SignupForm) error {
	const op = "auth.Signup"
	if msg := formMessage(form); msg != "" {
		return apperr.Validation(op, msg)
	}
	err := s.backend.Signup(ctx, form.Email, form.Password)
	if apperr.KindOf(err) == apperr.KindConflict || apperr.KindOf(err) == apperr.KindValidation {
		return apperr.New(op, apperr.KindConflict, "This email is already registered")
	}
	return err
}

func (s *Service) ForgotPassword(ctx context.Context, form ForgotForm) error {
	const op = "auth.ForgotPassword"
	if msg := formMessage(form); msg != "" {
		return apperr.Validation(op, msg)
	}
	err := s.backend.ForgotPassword(ctx, form.Email)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.New(op, apperr.KindNotFound, "This email is not registered")
	}
	return err
}

func (s *Service) ResetPassword(ctx context.Context, form ResetForm) error {
	const op = "auth.ResetPassword"
	if msg := formMessage(form); msg != "" {
		return apperr.Validation(op, msg)
	}
	return s.backend.ResetPassword(ctx, form.Email, form.Code, form.NewPassword)
}

// Logout clears the session; subscribers drop everything kept for it.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.log.WithField("session_id", sessionID).Info("shopper logged out")
	return nil
}
