package store

import (
	"context"
	"fmt"
	"time"
)

// User is a bot subscriber identified by their Telegram chat id.
type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
}

// UserRepo persists registered users.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// AddUser registers a user, updating the username on conflict so a rename
// on Telegram is picked up on the next /start.
func (r *UserRepo) AddUser(ctx context.Context, telegramID int64, username string) error {
	query := `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username`

	if _, err := r.db.db.ExecContext(ctx, query, telegramID, username); err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

// GetAllUsers returns every registered user; the dispatcher fans out
// notifications over this list.
func (r *UserRepo) GetAllUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := `SELECT telegram_id, username, created_at FROM users ORDER BY created_at`

	if err := r.db.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}
