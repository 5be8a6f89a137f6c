package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aditbap/eventhub-sub000/entity"
)

type UsersPostgresRepository struct {
	db *sqlx.DB
}

func NewUsersPostgresRepository(db *sqlx.DB) *UsersPostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return &UsersPostgresRepository{db: db}
}

func (r *UsersPostgresRepository) Store(ctx context.Context, user entity.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO 
			users (user_id, display_name, avatar_url, email) 
		VALUES 
			(:user_id, :display_name, :avatar_url, :email)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			email = EXCLUDED.email
	`, user)
	if err != nil {
		return fmt.Errorf("could not store user %s: %w", user.ID, err)
	}

	return nil
}

func (r *UsersPostgresRepository) Get(ctx context.Context, userID string) (entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `
		SELECT user_id, display_name, avatar_url, email
		FROM users
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.User{}, fmt.Errorf("user %s: %w", userID, entity.ErrNotFound)
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("could not get user %s: %w", userID, err)
	}

	return user, nil
}
