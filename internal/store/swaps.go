package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"whale-tracker/internal/clients_api/whalefeed"
)

// SwapRecord is the flattened swaps row. Leg columns are nullable because
// the feed sometimes fails to resolve one side of a trade.
type SwapRecord struct {
	SwapID            string          `db:"swap_id"`
	Timestamp         int64           `db:"timestamp"`
	FeePayer          string          `db:"fee_payer"`
	Source            string          `db:"source"`
	Signature         string          `db:"signature"`
	Description       string          `db:"description"`
	WhaleAsset        string          `db:"whale_asset"`
	WhaleSymbol       string          `db:"whale_symbol"`
	InputTokenMint    sql.NullString  `db:"input_token_mint"`
	InputTokenAmount  sql.NullFloat64 `db:"input_token_amount"`
	InputTokenSymbol  sql.NullString  `db:"input_token_symbol"`
	OutputTokenMint   sql.NullString  `db:"output_token_mint"`
	OutputTokenAmount sql.NullFloat64 `db:"output_token_amount"`
	OutputTokenSymbol sql.NullString  `db:"output_token_symbol"`
	CreatedAt         time.Time       `db:"created_at"`
}

// ToSwap rebuilds the nested feed shape from the flat row.
func (r SwapRecord) ToSwap() *whalefeed.Swap {
	swap := &whalefeed.Swap{
		ID:          r.SwapID,
		Timestamp:   r.Timestamp,
		FeePayer:    r.FeePayer,
		Source:      r.Source,
		Signature:   r.Signature,
		Description: r.Description,
		WhaleAsset:  r.WhaleAsset,
		WhaleSymbol: r.WhaleSymbol,
	}
	if r.InputTokenMint.Valid {
		swap.InputToken = &whalefeed.TokenLeg{
			Mint:     r.InputTokenMint.String,
			Amount:   r.InputTokenAmount.Float64,
			Metadata: whalefeed.TokenMetadata{Symbol: r.InputTokenSymbol.String},
		}
	}
	if r.OutputTokenMint.Valid {
		swap.OutputToken = &whalefeed.TokenLeg{
			Mint:     r.OutputTokenMint.String,
			Amount:   r.OutputTokenAmount.Float64,
			Metadata: whalefeed.TokenMetadata{Symbol: r.OutputTokenSymbol.String},
		}
	}
	return swap
}

// NewSwapRecord flattens a feed swap into row form.
func NewSwapRecord(swap *whalefeed.Swap) SwapRecord {
	record := SwapRecord{
		SwapID:      swap.Identity(),
		Timestamp:   swap.Timestamp,
		FeePayer:    swap.FeePayer,
		Source:      swap.Source,
		Signature:   swap.Signature,
		Description: swap.Description,
		WhaleAsset:  swap.WhaleAsset,
		WhaleSymbol: swap.WhaleSymbol,
	}
	if swap.InputToken != nil {
		record.InputTokenMint = sql.NullString{String: swap.InputToken.Mint, Valid: true}
		record.InputTokenAmount = sql.NullFloat64{Float64: swap.InputToken.Amount, Valid: true}
		record.InputTokenSymbol = sql.NullString{String: swap.InputSymbol(), Valid: true}
	}
	if swap.OutputToken != nil {
		record.OutputTokenMint = sql.NullString{String: swap.OutputToken.Mint, Valid: true}
		record.OutputTokenAmount = sql.NullFloat64{Float64: swap.OutputToken.Amount, Valid: true}
		record.OutputTokenSymbol = sql.NullString{String: swap.OutputSymbol(), Valid: true}
	}
	return record
}

// HourlyCount is one bucket of the hourly activity aggregate.
type HourlyCount struct {
	Hour  time.Time `db:"hour"`
	Count int       `db:"count"`
}

// SwapRepo persists collected whale swaps.
type SwapRepo struct {
	db *DB
}

func NewSwapRepo(db *DB) *SwapRepo {
	return &SwapRepo{db: db}
}

// LatestTimestamp returns the newest stored swap timestamp in unix
// milliseconds, or 0 when the table is empty.
func (r *SwapRepo) LatestTimestamp(ctx context.Context) (int64, error) {
	var ts sql.NullInt64
	query := `SELECT MAX(timestamp) FROM swaps`

	if err := r.db.db.GetContext(ctx, &ts, query); err != nil {
		return 0, fmt.Errorf("failed to get latest timestamp: %w", err)
	}
	return ts.Int64, nil
}

// InsertSwap stores one swap. A duplicate key is not an error; the bool
// reports whether a row was actually written.
func (r *SwapRepo) InsertSwap(ctx context.Context, record SwapRecord) (bool, error) {
	query := `
		INSERT INTO swaps (
			swap_id, timestamp, fee_payer, source, signature, description,
			whale_asset, whale_symbol,
			input_token_mint, input_token_amount, input_token_symbol,
			output_token_mint, output_token_amount, output_token_symbol
		) VALUES (
			:swap_id, :timestamp, :fee_payer, :source, :signature, :description,
			:whale_asset, :whale_symbol,
			:input_token_mint, :input_token_amount, :input_token_symbol,
			:output_token_mint, :output_token_amount, :output_token_symbol
		)`

	if _, err := r.db.db.NamedExecContext(ctx, query, record); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert swap: %w", err)
	}
	return true, nil
}

// RecentSwaps returns swaps newer than since (unix milliseconds), newest
// first, capped at limit.
func (r *SwapRepo) RecentSwaps(ctx context.Context, since int64, limit int) ([]SwapRecord, error) {
	var records []SwapRecord
	query := `
		SELECT swap_id, timestamp, fee_payer, source, signature, description,
			   whale_asset, whale_symbol,
			   input_token_mint, input_token_amount, input_token_symbol,
			   output_token_mint, output_token_amount, output_token_symbol,
			   created_at
		FROM swaps
		WHERE timestamp > $1
		ORDER BY timestamp DESC
		LIMIT $2`

	if err := r.db.db.SelectContext(ctx, &records, query, since, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent swaps: %w", err)
	}
	return records, nil
}

// DeleteOlderThan purges swaps older than the cutoff (unix milliseconds)
// and returns how many rows went away.
func (r *SwapRepo) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM swaps WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old swaps: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// HourlyCounts aggregates swap counts per hour since the cutoff, oldest
// bucket first; feeds the /stats chart.
func (r *SwapRepo) HourlyCounts(ctx context.Context, since int64) ([]HourlyCount, error) {
	var counts []HourlyCount
	query := `
		SELECT date_trunc('hour', to_timestamp(timestamp / 1000.0)) AS hour,
			   COUNT(*) AS count
		FROM swaps
		WHERE timestamp > $1
		GROUP BY hour
		ORDER BY hour`

	if err := r.db.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("failed to get hourly counts: %w", err)
	}
	return counts, nil
}
