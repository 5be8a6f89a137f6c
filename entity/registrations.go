package entity

import (
	"time"
)

type EventRegistrations struct {
	EventID string `json:"event_id"`

	Registrants map[string]Registration `json:"registrants"`

	LastUpdate time.Time `json:"last_update"`
}

type Registration struct {
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	OrderID      string    `json:"order_id"`
	RegisteredAt time.Time `json:"registered_at"`
}
