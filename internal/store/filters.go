package store

import (
	"context"
	"fmt"
	"time"
)

// Filter types. List types hold one row per entry; singleton types hold at
// most one row carrying the current value.
const (
	FilterTokenWhitelist       = "token_whitelist"
	FilterTokenBlacklist       = "token_blacklist"
	FilterWhaleBlacklist       = "whale_blacklist"
	FilterMinPurchase          = "min_purchase"
	FilterMaxMarketCap         = "max_market_cap"
	FilterMonitorAll           = "monitor_all"
	FilterNotificationsEnabled = "notifications_enabled"
)

// MaxEntriesPerList caps each list-type filter per user.
const MaxEntriesPerList = 20

// FilterRecord is one stored filter row. Values are stored as text and
// interpreted by filter type.
type FilterRecord struct {
	ID          int64     `db:"id"`
	TelegramID  int64     `db:"telegram_id"`
	FilterType  string    `db:"filter_type"`
	FilterValue string    `db:"filter_value"`
	CreatedAt   time.Time `db:"created_at"`
}

// FilterRepo persists per-user notification filters.
type FilterRepo struct {
	db *DB
}

func NewFilterRepo(db *DB) *FilterRepo {
	return &FilterRepo{db: db}
}

// GetUserFilters returns all filter rows for a user in insertion order.
// Ordering by id makes "last row wins" well defined for singleton types.
func (r *FilterRepo) GetUserFilters(ctx context.Context, telegramID int64) ([]FilterRecord, error) {
	var filters []FilterRecord
	query := `
		SELECT id, telegram_id, filter_type, filter_value, created_at
		FROM user_filters
		WHERE telegram_id = $1
		ORDER BY id`

	if err := r.db.db.SelectContext(ctx, &filters, query, telegramID); err != nil {
		return nil, fmt.Errorf("failed to get user filters: %w", err)
	}
	return filters, nil
}

// AddFilter appends a filter row.
func (r *FilterRepo) AddFilter(ctx context.Context, telegramID int64, filterType, filterValue string) error {
	query := `
		INSERT INTO user_filters (telegram_id, filter_type, filter_value)
		VALUES ($1, $2, $3)`

	if _, err := r.db.db.ExecContext(ctx, query, telegramID, filterType, filterValue); err != nil {
		return fmt.Errorf("failed to add filter: %w", err)
	}
	return nil
}

// RemoveFilter deletes the rows matching the exact type and value.
func (r *FilterRepo) RemoveFilter(ctx context.Context, telegramID int64, filterType, filterValue string) error {
	query := `
		DELETE FROM user_filters
		WHERE telegram_id = $1 AND filter_type = $2 AND filter_value = $3`

	if _, err := r.db.db.ExecContext(ctx, query, telegramID, filterType, filterValue); err != nil {
		return fmt.Errorf("failed to remove filter: %w", err)
	}
	return nil
}

// ClearFilters deletes all of a user's rows of one type.
func (r *FilterRepo) ClearFilters(ctx context.Context, telegramID int64, filterType string) error {
	query := `DELETE FROM user_filters WHERE telegram_id = $1 AND filter_type = $2`

	if _, err := r.db.db.ExecContext(ctx, query, telegramID, filterType); err != nil {
		return fmt.Errorf("failed to clear filters: %w", err)
	}
	return nil
}

// ClearAllFilters wipes every filter row for the user.
func (r *FilterRepo) ClearAllFilters(ctx context.Context, telegramID int64) error {
	query := `DELETE FROM user_filters WHERE telegram_id = $1`

	if _, err := r.db.db.ExecContext(ctx, query, telegramID); err != nil {
		return fmt.Errorf("failed to clear all filters: %w", err)
	}
	return nil
}

// ReplaceFilter atomically swaps the current value of a singleton type.
// Delete and insert run in one transaction so the type never ends up with
// two live rows.
func (r *FilterRepo) ReplaceFilter(ctx context.Context, telegramID int64, filterType, filterValue string) error {
	tx, err := r.db.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_filters WHERE telegram_id = $1 AND filter_type = $2`,
		telegramID, filterType); err != nil {
		return fmt.Errorf("failed to delete old filter: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_filters (telegram_id, filter_type, filter_value) VALUES ($1, $2, $3)`,
		telegramID, filterType, filterValue); err != nil {
		return fmt.Errorf("failed to insert filter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit filter replacement: %w", err)
	}
	return nil
}

// CountFilters returns how many rows of one type the user has; used to
// enforce the per-list entry cap.
func (r *FilterRepo) CountFilters(ctx context.Context, telegramID int64, filterType string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_filters WHERE telegram_id = $1 AND filter_type = $2`

	if err := r.db.db.GetContext(ctx, &count, query, telegramID, filterType); err != nil {
		return 0, fmt.Errorf("failed to count filters: %w", err)
	}
	return count, nil
}
