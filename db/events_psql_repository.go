package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aditbap/eventhub-sub000/entity"
)

type EventsPostgresRepository struct {
	db *sqlx.DB
}

func NewEventsPostgresRepository(db *sqlx.DB) *EventsPostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &EventsPostgresRepository{db: db}
}

// Store upserts the event as mirrored from its owner.
func (r *EventsPostgresRepository) Store(ctx context.Context, event entity.Event) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO 
			events (event_id, title, event_date, event_time, location, image_url, image_hint, price, creator_id) 
		VALUES 
			(:event_id, :title, :event_date, :event_time, :location, :image_url, :image_hint, :price, :creator_id)
		ON CONFLICT (event_id) DO UPDATE SET
			title = EXCLUDED.title,
			event_date = EXCLUDED.event_date,
			event_time = EXCLUDED.event_time,
			location = EXCLUDED.location,
			image_url = EXCLUDED.image_url,
			image_hint = EXCLUDED.image_hint,
			price = EXCLUDED.price,
			creator_id = EXCLUDED.creator_id
	`, event)
	if err != nil {
		return fmt.Errorf("could not store event %s: %w", event.ID, err)
	}

	return nil
}

func (r *EventsPostgresRepository) Get(ctx context.Context, eventID string) (entity.Event, error) {
	var event entity.Event
	err := r.db.GetContext(ctx, &event, `
		SELECT event_id, title, event_date, event_time, location, image_url, image_hint, price, creator_id
		FROM events
		WHERE event_id = $1
	`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Event{}, fmt.Errorf("event %s: %w", eventID, entity.ErrNotFound)
	}
	if err != nil {
		return entity.Event{}, fmt.Errorf("could not get event %s: %w", eventID, err)
	}

	return event, nil
}
