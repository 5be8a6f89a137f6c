package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aditbap/eventhub-sub000/entity"
	"github.com/aditbap/eventhub-sub000/pubsub/bus"
	"github.com/aditbap/eventhub-sub000/pubsub/outbox"
)

type TicketsPostgresRepository struct {
	db *sqlx.DB
}

func NewTicketsPostgresRepository(db *sqlx.DB) *TicketsPostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &TicketsPostgresRepository{db: db}
}

// InsertIfAbsent stores the ticket unless a ticket for the same order id already exists.
// Notifications and the TicketIssued_v1 event are written in the same transaction, and only
// when the ticket was actually inserted. On conflict the id of the existing ticket is returned.
func (r *TicketsPostgresRepository) InsertIfAbsent(
	ctx context.Context,
	ticket entity.Ticket,
	registrant entity.Registrant,
	notifications []entity.Notification,
) (ticketID string, alreadyExists bool, err error) {
	err = updateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		// Concurrent inserts for the same order id block on the unique index until the first commits,
		// so exactly one of them gets a row back.
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO tickets (
				ticket_id, user_id, event_id, event_name, event_date, event_time, event_location,
				event_image_url, event_image_hint, qr_code_ref, purchased_at, midtrans_order_id, midtrans_transaction_id
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (midtrans_order_id) DO NOTHING
			RETURNING ticket_id
		`,
			ticket.ID,
			ticket.UserID,
			ticket.EventID,
			ticket.EventName,
			ticket.EventDate,
			ticket.EventTime,
			ticket.EventLocation,
			ticket.EventImageURL,
			ticket.EventImageHint,
			ticket.QRCodeRef,
			ticket.PurchasedAt,
			ticket.MidtransOrderID,
			ticket.MidtransTransactionID,
		).Scan(&ticketID)
		if errors.Is(err, sql.ErrNoRows) {
			alreadyExists = true
			return tx.GetContext(ctx, &ticketID, `
				SELECT ticket_id
				FROM tickets
				WHERE midtrans_order_id = $1
			`, ticket.MidtransOrderID)
		}
		if err != nil {
			return fmt.Errorf("could not insert ticket: %w", err)
		}

		for _, notification := range notifications {
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO notifications (
					notification_id, user_id, category, title, message, event_id,
					related_user_id, related_user_name, related_user_avatar, is_read, created_at
				)
				VALUES (
					:notification_id, :user_id, :category, :title, :message, :event_id,
					:related_user_id, :related_user_name, :related_user_avatar, :is_read, :created_at
				)
			`, notification)
			if err != nil {
				return fmt.Errorf("could not insert notification for user %s: %w", notification.UserID, err)
			}
		}

		return publishInTx(ctx, tx, &entity.TicketIssued_v1{
			Header:   entity.NewEventHeaderWithIdempotencyKey(ticket.MidtransOrderID),
			TicketID: ticketID,
			UserID:   ticket.UserID,
			UserName: registrant.DisplayName,
			EventID:  ticket.EventID,
			OrderID:  ticket.MidtransOrderID,
			IssuedAt: ticket.PurchasedAt,
		})
	})
	if err != nil {
		return "", false, err
	}

	return ticketID, alreadyExists, nil
}

func (r *TicketsPostgresRepository) FindByOrderID(ctx context.Context, orderID string) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := r.db.GetContext(ctx, &ticket, `
		SELECT *
		FROM tickets
		WHERE midtrans_order_id = $1
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Ticket{}, fmt.Errorf("ticket for order %s: %w", orderID, entity.ErrNotFound)
	}
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not get ticket for order %s: %w", orderID, err)
	}

	return ticket, nil
}

func (r *TicketsPostgresRepository) FindByUser(ctx context.Context, userID string) ([]entity.Ticket, error) {
	tickets := []entity.Ticket{}
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT *
		FROM tickets
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY purchased_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not get tickets of user %s: %w", userID, err)
	}

	return tickets, nil
}

// FindByEvent returns every ticket of the event, including soft-deleted ones, oldest first.
func (r *TicketsPostgresRepository) FindByEvent(ctx context.Context, eventID string) ([]entity.Ticket, error) {
	tickets := []entity.Ticket{}
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT *
		FROM tickets
		WHERE event_id = $1
		ORDER BY purchased_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("could not get tickets of event %s: %w", eventID, err)
	}

	return tickets, nil
}

// Delete soft-deletes the ticket. The row is kept so the order id stays claimed.
func (r *TicketsPostgresRepository) Delete(ctx context.Context, userID, ticketID string) error {
	return updateInTx(ctx, r.db, sql.LevelReadCommitted, func(ctx context.Context, tx *sqlx.Tx) error {
		var eventID string
		err := tx.GetContext(ctx, &eventID, `
			UPDATE tickets
			SET deleted_at = $3
			WHERE ticket_id = $1 AND user_id = $2 AND deleted_at IS NULL
			RETURNING event_id
		`, ticketID, userID, time.Now().UTC())
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ticket %s: %w", ticketID, entity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("could not delete ticket %s: %w", ticketID, err)
		}

		return publishInTx(ctx, tx, &entity.TicketDeleted_v1{
			Header:   entity.NewEventHeaderWithIdempotencyKey("delete-" + ticketID),
			TicketID: ticketID,
			UserID:   userID,
			EventID:  eventID,
		})
	})
}

func publishInTx(ctx context.Context, tx *sqlx.Tx, event any) error {
	outboxPublisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	eventBus, err := bus.NewEventBus(outboxPublisher)
	if err != nil {
		return fmt.Errorf("could not create event bus: %w", err)
	}

	if err := eventBus.Publish(ctx, event); err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}
