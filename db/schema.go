package db

import (
	"github.com/jmoiron/sqlx"
)

func InitializeDatabaseSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			event_id VARCHAR(255) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			event_date VARCHAR(64) NOT NULL,
			event_time VARCHAR(64) NOT NULL DEFAULT '',
			location VARCHAR(255) NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			image_hint VARCHAR(255) NOT NULL DEFAULT '',
			price NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (price >= 0),
			creator_id VARCHAR(255)
		);

		CREATE TABLE IF NOT EXISTS users (
			user_id VARCHAR(255) PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS tickets (
			ticket_id UUID PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			event_id VARCHAR(255) NOT NULL,
			event_name VARCHAR(255) NOT NULL,
			event_date VARCHAR(64) NOT NULL,
			event_time VARCHAR(64) NOT NULL DEFAULT '',
			event_location VARCHAR(255) NOT NULL,
			event_image_url TEXT NOT NULL DEFAULT '',
			event_image_hint VARCHAR(255) NOT NULL DEFAULT '',
			qr_code_ref VARCHAR(255) NOT NULL,
			purchased_at TIMESTAMP WITH TIME ZONE NOT NULL,
			midtrans_order_id VARCHAR(255) NOT NULL UNIQUE,
			midtrans_transaction_id VARCHAR(255),
			deleted_at TIMESTAMP WITH TIME ZONE
		);

		CREATE INDEX IF NOT EXISTS tickets_user_id_idx ON tickets (user_id);

		CREATE TABLE IF NOT EXISTS notifications (
			notification_id UUID PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			category VARCHAR(64) NOT NULL,
			title VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			event_id VARCHAR(255),
			related_user_id VARCHAR(255),
			related_user_name VARCHAR(255),
			related_user_avatar TEXT,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS notifications_user_id_idx ON notifications (user_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS gateway_notifications (
			notification_id VARCHAR(255) PRIMARY KEY,
			order_id VARCHAR(255) NOT NULL,
			transaction_status VARCHAR(64) NOT NULL,
			payload JSONB NOT NULL,
			received_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS read_model_event_registrations (
			event_id VARCHAR(255) PRIMARY KEY,
			payload JSONB NOT NULL
		);
	`)
	return err
}
