// Package apperr holds the error taxonomy shared by the storefront features.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindNotFound        Kind = "not_found"
	KindNetwork         Kind = "network_failure"
	KindNonOK           Kind = "non_ok_response"
	KindValidation      Kind = "validation_failure"
	KindBusy            Kind = "busy"
	KindConflict        Kind = "conflict"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrNetwork         = errors.New("network failure")
	ErrNonOK           = errors.New("non-ok response")
	ErrValidation      = errors.New("validation failure")
	ErrBusy            = errors.New("another update is in progress")
	ErrConflict        = errors.New("conflict")
)

var sentinels = map[Kind]error{
	KindUnauthenticated: ErrUnauthenticated,
	KindNotFound:        ErrNotFound,
	KindNetwork:         ErrNetwork,
	KindNonOK:           ErrNonOK,
	KindValidation:      ErrValidation,
	KindBusy:            ErrBusy,
	KindConflict:        ErrConflict,
}

// Error is a classified failure. Message is safe to show to the shopper.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel error of the same kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func New(op string, kind Kind, msg string) error {
	return &Error{Op: op, Kind: kind, Message: msg}
}

func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func Validation(op, msg string) error {
	return &Error{Op: op, Kind: KindValidation, Message: msg}
}

func Unauthenticated(op string) error {
	return &Error{Op: op, Kind: KindUnauthenticated, Message: "please log in to continue"}
}

// KindOf reports the kind of the first *Error in err's chain, or "" when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return ""
}

// Message returns the shopper-facing text of err, falling back to fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindNetwork, KindNonOK:
		return http.StatusBadGateway
	case KindValidation:
		return http.StatusBadRequest
	case KindBusy:
		return http.StatusTooManyRequests
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
