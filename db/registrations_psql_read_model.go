package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aditbap/eventhub-sub000/entity"
)

type RegistrationsReadModel struct {
	db *sqlx.DB
}

func NewRegistrationsReadModel(db *sqlx.DB) RegistrationsReadModel {
	if db == nil {
		panic("db is nil")
	}

	return RegistrationsReadModel{db: db}
}

// Get returns an empty read model when no registration was projected yet.
func (r RegistrationsReadModel) Get(ctx context.Context, eventID string) (entity.EventRegistrations, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `
		SELECT payload 
		FROM read_model_event_registrations 
		WHERE event_id = $1
	`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.EventRegistrations{
			EventID:     eventID,
			Registrants: map[string]entity.Registration{},
		}, nil
	}
	if err != nil {
		return entity.EventRegistrations{}, fmt.Errorf("could not get registrations read model: %w", err)
	}

	var rm entity.EventRegistrations
	if err := json.Unmarshal(payload, &rm); err != nil {
		return entity.EventRegistrations{}, fmt.Errorf("could not unmarshal registrations read model: %w", err)
	}

	return rm, nil
}

func (r RegistrationsReadModel) OnTicketIssued(ctx context.Context, event *entity.TicketIssued_v1) error {
	return r.update(ctx, event.EventID, func(rm *entity.EventRegistrations) {
		rm.Registrants[event.TicketID] = entity.Registration{
			UserID:       event.UserID,
			UserName:     event.UserName,
			OrderID:      event.OrderID,
			RegisteredAt: event.IssuedAt,
		}
	})
}

func (r RegistrationsReadModel) OnTicketDeleted(ctx context.Context, event *entity.TicketDeleted_v1) error {
	return r.update(ctx, event.EventID, func(rm *entity.EventRegistrations) {
		delete(rm.Registrants, event.TicketID)
	})
}

func (r RegistrationsReadModel) update(
	ctx context.Context,
	eventID string,
	fn func(rm *entity.EventRegistrations),
) error {
	return updateInTx(ctx, r.db, sql.LevelRepeatableRead, func(ctx context.Context, tx *sqlx.Tx) error {
		rm, err := r.getForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}

		fn(&rm)
		rm.LastUpdate = time.Now().UTC()

		payload, err := json.Marshal(rm)
		if err != nil {
			return fmt.Errorf("could not marshal registrations read model: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO read_model_event_registrations (event_id, payload)
			VALUES ($1, $2)
			ON CONFLICT (event_id) DO UPDATE SET payload = EXCLUDED.payload
		`, eventID, payload)
		if err != nil {
			return fmt.Errorf("could not update registrations read model: %w", err)
		}

		return nil
	})
}

func (r RegistrationsReadModel) getForUpdate(ctx context.Context, tx *sqlx.Tx, eventID string) (entity.EventRegistrations, error) {
	var payload []byte
	err := tx.GetContext(ctx, &payload, `
		SELECT payload 
		FROM read_model_event_registrations 
		WHERE event_id = $1
		FOR UPDATE
	`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.EventRegistrations{
			EventID:     eventID,
			Registrants: map[string]entity.Registration{},
		}, nil
	}
	if err != nil {
		return entity.EventRegistrations{}, fmt.Errorf("could not get registrations read model: %w", err)
	}

	var rm entity.EventRegistrations
	if err := json.Unmarshal(payload, &rm); err != nil {
		return entity.EventRegistrations{}, fmt.Errorf("could not unmarshal registrations read model: %w", err)
	}
	if rm.Registrants == nil {
		rm.Registrants = map[string]entity.Registration{}
	}

	return rm, nil
}
