package entity

import (
	"github.com/shopspring/decimal"
)

// Event is owned by its creator and is read-only for ticketing.
type Event struct {
	ID        string          `json:"id" db:"event_id"`
	Title     string          `json:"title" db:"title"`
	Date      string          `json:"date" db:"event_date"`
	Time      string          `json:"time" db:"event_time"`
	Location  string          `json:"location" db:"location"`
	ImageURL  string          `json:"imageUrl" db:"image_url"`
	ImageHint string          `json:"imageHint" db:"image_hint"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatorID *string         `json:"creatorId" db:"creator_id"`
}

func (e Event) IsFree() bool {
	return !e.Price.IsPositive()
}

func (e Event) HasCreator() bool {
	return e.CreatorID != nil && *e.CreatorID != ""
}
