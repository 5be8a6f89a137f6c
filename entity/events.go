package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type TicketIssued_v1 struct {
	Header EventHeader `json:"header"`

	TicketID string    `json:"ticket_id"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	EventID  string    `json:"event_id"`
	OrderID  string    `json:"order_id"`
	IssuedAt time.Time `json:"issued_at"`
}

type TicketDeleted_v1 struct {
	Header EventHeader `json:"header"`

	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	EventID  string `json:"event_id"`
}
