package ticketing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured")
	ErrGatewayFailure       = errors.New("payment gateway request failed")
	ErrEventNotFound        = errors.New("event not found")
	ErrPaymentPending       = errors.New("payment is still pending")
	ErrInvalidSignature     = errors.New("invalid notification signature")
)

// PaymentNotConfirmedError is returned when the gateway reports a status that does not allow issuance.
type PaymentNotConfirmedError struct {
	Status      string
	FraudStatus string
	Reason      string
}

func (e *PaymentNotConfirmedError) Error() string {
	msg := fmt.Sprintf("payment not confirmed: status %q", e.Status)
	if e.FraudStatus != "" {
		msg += fmt.Sprintf(", fraud status %q", e.FraudStatus)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// GatewayDetailer is implemented by gateway errors carrying the gateway's own message.
type GatewayDetailer interface {
	Detail() string
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
