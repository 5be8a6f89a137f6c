package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aditbap/eventhub-sub000/entity"
)

type NotificationsPostgresRepository struct {
	db *sqlx.DB
}

func NewNotificationsPostgresRepository(db *sqlx.DB) *NotificationsPostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &NotificationsPostgresRepository{db: db}
}

func (r *NotificationsPostgresRepository) FindByUser(ctx context.Context, userID string) ([]entity.Notification, error) {
	notifications := []entity.Notification{}
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT *
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not get notifications of user %s: %w", userID, err)
	}

	return notifications, nil
}

func (r *NotificationsPostgresRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE notification_id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("could not mark notification %s as read: %w", notificationID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, entity.ErrNotFound)
	}

	return nil
}
