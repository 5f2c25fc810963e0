package sale

import (
	"strings"

	"salesdesk/pos"
)

// PaymentMethod is how the client pays. Values are the backend's codes.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "EFECTIVO"
	PaymentCard     PaymentMethod = "TARJETA"
	PaymentYape     PaymentMethod = "YAPE"
	PaymentPlin     PaymentMethod = "PLIN"
	PaymentTransfer PaymentMethod = "TRANSFERENCIA"
)

// DefaultPaymentMethod is selected on a fresh form.
const DefaultPaymentMethod = PaymentCash

// PaymentMethods lists every accepted method in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentCard, PaymentYape, PaymentPlin, PaymentTransfer}
}

// ParsePaymentMethod accepts a method code in any case.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	candidate := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range PaymentMethods() {
		if m == candidate {
			return m, nil
		}
	}
	return "", pos.NewInvalidArgumentf(ErrMsgUnknownPayment, s)
}
