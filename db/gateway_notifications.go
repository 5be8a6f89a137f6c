package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aditbap/eventhub-sub000/entity"
)

// GatewayNotificationLog keeps every webhook delivery received from the payment gateway.
type GatewayNotificationLog struct {
	db *sqlx.DB
}

func NewGatewayNotificationLog(db *sqlx.DB) GatewayNotificationLog {
	if db == nil {
		panic("db is nil")
	}

	return GatewayNotificationLog{db: db}
}

// Store returns stored=false when the same delivery was already recorded.
func (l GatewayNotificationLog) Store(ctx context.Context, notification entity.GatewayNotification) (stored bool, err error) {
	_, err = l.db.NamedExecContext(
		ctx,
		`
			INSERT INTO 
			    gateway_notifications (notification_id, order_id, transaction_status, payload, received_at) 
			VALUES 
			    (:notification_id, :order_id, :transaction_status, :payload, :received_at)`,
		notification,
	)
	if isErrorUniqueViolation(err) {
		// handling re-delivery
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not store gateway notification %s: %w", notification.ID, err)
	}

	return true, nil
}

func (l GatewayNotificationLog) FindByOrderID(ctx context.Context, orderID string) ([]entity.GatewayNotification, error) {
	var notifications []entity.GatewayNotification
	err := l.db.SelectContext(ctx, &notifications, `
		SELECT notification_id, order_id, transaction_status, payload, received_at
		FROM gateway_notifications
		WHERE order_id = $1
		ORDER BY received_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("could not get gateway notifications for order %s: %w", orderID, err)
	}

	return notifications, nil
}
