package entity

import (
	"github.com/shopspring/decimal"
)

type CheckoutItem struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

type CheckoutCustomer struct {
	Name  string
	Email string
	Phone string
}

// CheckoutRequest is what the gateway needs to open a checkout for a single event ticket.
type CheckoutRequest struct {
	OrderID     string
	GrossAmount decimal.Decimal
	Item        CheckoutItem
	Customer    CheckoutCustomer
	CustomData  string
}

type Checkout struct {
	Token       string
	RedirectURL string
}

// GatewayTransaction is the authoritative transaction state reported by the gateway.
type GatewayTransaction struct {
	OrderID       string
	TransactionID string
	Status        TransactionStatus
	FraudStatus   FraudStatus
	StatusCode    string
	GrossAmount   decimal.Decimal
}

func (t GatewayTransaction) Outcome() PaymentOutcome {
	return ResolvePayment(t.Status, t.FraudStatus)
}
