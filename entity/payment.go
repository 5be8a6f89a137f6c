package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusCapture    TransactionStatus = "capture"
	TransactionStatusSettlement TransactionStatus = "settlement"
	TransactionStatusDeny       TransactionStatus = "deny"
	TransactionStatusExpire     TransactionStatus = "expire"
	TransactionStatusCancel     TransactionStatus = "cancel"
)

func (s TransactionStatus) Recognized() bool {
	switch s {
	case TransactionStatusPending,
		TransactionStatusCapture,
		TransactionStatusSettlement,
		TransactionStatusDeny,
		TransactionStatusExpire,
		TransactionStatusCancel:
		return true
	default:
		return false
	}
}

type FraudStatus string

const (
	FraudStatusAccept    FraudStatus = "accept"
	FraudStatusChallenge FraudStatus = "challenge"
	FraudStatusDeny      FraudStatus = "deny"
)

type PaymentOutcome int

const (
	PaymentNotConfirmed PaymentOutcome = iota
	PaymentPending
	PaymentConfirmed
)

func (o PaymentOutcome) String() string {
	switch o {
	case PaymentConfirmed:
		return "confirmed"
	case PaymentPending:
		return "pending"
	default:
		return "not_confirmed"
	}
}

// ResolvePayment maps gateway statuses to an outcome. Unrecognized statuses are never confirmations.
func ResolvePayment(status TransactionStatus, fraud FraudStatus) PaymentOutcome {
	switch status {
	case TransactionStatusSettlement:
		return PaymentConfirmed
	case TransactionStatusCapture:
		if fraud == FraudStatusAccept {
			return PaymentConfirmed
		}
		return PaymentNotConfirmed
	case TransactionStatusPending:
		return PaymentPending
	default:
		return PaymentNotConfirmed
	}
}

// CustomData survives the round trip through the gateway in custom_field1.
type CustomData struct {
	EventID        string  `json:"eventId"`
	UserID         string  `json:"userId"`
	EventDate      string  `json:"eventDate"`
	EventTime      string  `json:"eventTime"`
	EventLocation  string  `json:"eventLocation"`
	EventCreatorID *string `json:"eventCreatorId"`
}

// MaxCustomDataLength is the Midtrans limit for custom_field1.
const MaxCustomDataLength = 255

var ErrCustomDataTooLong = errors.New("custom data exceeds gateway limit")

// Encode marshals the custom data, shortening the location, time and date snapshots
// (in that order) until it fits in MaxCustomDataLength characters.
func (c CustomData) Encode() (string, error) {
	for _, field := range []*string{&c.EventLocation, &c.EventTime, &c.EventDate} {
		for {
			encoded, err := c.marshal()
			if err != nil {
				return "", err
			}
			over := utf8.RuneCountInString(encoded) - MaxCustomDataLength
			if over <= 0 {
				return encoded, nil
			}
			if *field == "" {
				break
			}
			*field = trimRunes(*field, over)
		}
	}

	return "", fmt.Errorf("%w: ids of event %q and user %q do not fit", ErrCustomDataTooLong, c.EventID, c.UserID)
}

func (c CustomData) marshal() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("could not marshal custom data: %w", err)
	}
	return string(b), nil
}

// trimRunes drops n runes from the end of s.
func trimRunes(s string, n int) string {
	runes := []rune(s)
	if n >= len(runes) {
		return ""
	}
	return strings.TrimSpace(string(runes[:len(runes)-n]))
}

func ParseCustomData(raw string) (CustomData, error) {
	if strings.TrimSpace(raw) == "" {
		return CustomData{}, errors.New("custom data is empty")
	}

	var c CustomData
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return CustomData{}, fmt.Errorf("could not unmarshal custom data: %w", err)
	}
	if c.EventID == "" || c.UserID == "" {
		return CustomData{}, errors.New("custom data is missing eventId or userId")
	}

	return c, nil
}

const orderIDPrefix = "UPJEH"

// NewOrderID builds UPJEH-<eventId[:8]>-<userId[:8]>-<unix millis>.
func NewOrderID(eventID, userID string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%d", orderIDPrefix, orderIDFragment(eventID), orderIDFragment(userID), now.UnixMilli())
}

// orderIDFragment keeps the first 8 characters Midtrans accepts in an order id.
func orderIDFragment(id string) string {
	var b strings.Builder
	for _, r := range id {
		if b.Len() == 8 {
			break
		}
		if isOrderIDChar(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}

func isOrderIDChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '~', r == '.':
		return true
	}
	return false
}

// GatewayNotification is a raw webhook delivery kept for audit.
type GatewayNotification struct {
	ID                string    `db:"notification_id"`
	OrderID           string    `db:"order_id"`
	TransactionStatus string    `db:"transaction_status"`
	Payload           []byte    `db:"payload"`
	ReceivedAt        time.Time `db:"received_at"`
}

// OrderIDBelongsTo reports whether orderID was generated for this event and user.
func OrderIDBelongsTo(orderID, eventID, userID string) bool {
	prefix := fmt.Sprintf("%s-%s-%s-", orderIDPrefix, orderIDFragment(eventID), orderIDFragment(userID))
	return strings.HasPrefix(orderID, prefix) && len(orderID) > len(prefix)
}
