// Package checkout drives an order from creation to confirmation, including the
// MoMo redirect and its return callback.
package checkout

import (
	"strconv"
	"strings"

	"github.com/wichananm65/flower-shop-storefront/internal/apperr"
)

type State int

const (
	NoOrder State = iota
	AddressPending
	AddressSet
	PaymentPending
	PaymentSet
	Confirmed
)

var stateNames = [...]string{"NoOrder", "AddressPending", "AddressSet", "PaymentPending", "PaymentSet", "Confirmed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type PaymentMethod int

const (
	PaymentCOD  PaymentMethod = 1
	PaymentCard PaymentMethod = 2
	PaymentMoMo PaymentMethod = 3
)

func (p PaymentMethod) Name() string {
	switch p {
	case PaymentCOD:
		return "COD"
	case PaymentCard:
		return "Card"
	case PaymentMoMo:
		return "MoMo"
	}
	return ""
}

// ParsePaymentMethod accepts the option values "1", "2" and "3".
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < int(PaymentCOD) || n > int(PaymentMoMo) {
		return 0, apperr.Validation("checkout.ParsePaymentMethod", "please choose a payment method")
	}
	return PaymentMethod(n), nil
}

// CanConfirm reports whether both the address and the payment method have been filled in.
func CanConfirm(address, paymentMethod string) bool {
	return strings.TrimSpace(address) != "" && strings.TrimSpace(paymentMethod) != ""
}
