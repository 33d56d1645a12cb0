package ingest

// Package ingest pulls swap batches from the upstream whale feed into
// PostgreSQL, where the bot and the read API serve them from.

import (
	"context"
	"time"

	"go.uber.org/zap"

	"whale-tracker/internal/clients_api/whalefeed"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"
)

// Options tunes a collection run.
type Options struct {
	Calls         int           // feed calls per run
	CallDelay     time.Duration // pause between calls
	RetentionDays int           // swap rows older than this get purged
}

func DefaultOptions() Options {
	return Options{
		Calls:         3,
		CallDelay:     20 * time.Second,
		RetentionDays: 7,
	}
}

// RunStats summarizes one collection run.
type RunStats struct {
	Fetched  int
	Inserted int
	Skipped  int
	Errors   int
	Purged   int64
}

// Feed is the upstream batch source.
type Feed interface {
	GetSwaps(ctx context.Context, since int64) ([]*whalefeed.Swap, error)
}

// SwapStore is the slice of the swap repository the collector writes to.
type SwapStore interface {
	LatestTimestamp(ctx context.Context) (int64, error)
	InsertSwap(ctx context.Context, record store.SwapRecord) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// Collector ingests whale swaps from the feed into the swaps table.
type Collector struct {
	feed  Feed
	swaps SwapStore
	opts  Options
}

func NewCollector(feed Feed, swaps SwapStore, opts Options) *Collector {
	if opts.Calls <= 0 {
		opts.Calls = 1
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 7
	}
	return &Collector{feed: feed, swaps: swaps, opts: opts}
}

// Run executes one collection pass: several spaced feed calls, insertion
// of swaps newer than the latest stored one, then a retention purge. A
// failed call does not stop the remaining calls.
func (c *Collector) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	lastTimestamp, err := c.swaps.LatestTimestamp(ctx)
	if err != nil {
		return stats, err
	}

	seen := make(map[string]struct{})
	var batch []*whalefeed.Swap

	for call := 1; call <= c.opts.Calls; call++ {
		swaps, err := c.feed.GetSwaps(ctx, 0)
		if err != nil {
			log.LogWarn("Feed call failed",
				zap.Int("call", call),
				zap.Error(err))
		} else {
			for _, swap := range swaps {
				if swap.Timestamp <= lastTimestamp {
					continue
				}
				// Identity, not ID: the feed may omit ids entirely.
				if _, dup := seen[swap.Identity()]; dup {
					continue
				}
				seen[swap.Identity()] = struct{}{}
				batch = append(batch, swap)
			}
		}

		if call < c.opts.Calls {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(c.opts.CallDelay):
			}
		}
	}
	stats.Fetched = len(batch)

	for _, swap := range batch {
		inserted, err := c.swaps.InsertSwap(ctx, store.NewSwapRecord(swap))
		if err != nil {
			log.LogError("Failed to insert swap",
				zap.String("swap_id", swap.Identity()),
				zap.Error(err))
			stats.Errors++
			continue
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Skipped++
		}
	}

	cutoff := time.Now().AddDate(0, 0, -c.opts.RetentionDays).UnixMilli()
	purged, err := c.swaps.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.LogWarn("Failed to purge old swaps", zap.Error(err))
	} else {
		stats.Purged = purged
	}

	log.LogSuccess("Data collection completed",
		zap.Int("inserted", stats.Inserted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
		zap.Int64("purged", stats.Purged))

	return stats, nil
}

// RunLoop repeats collection runs with the given interval until ctx is
// cancelled. The first run starts immediately.
func (c *Collector) RunLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	log.LogInfo("Starting swap collector", zap.Duration("interval", interval))

	for {
		if _, err := c.Run(ctx); err != nil {
			if ctx.Err() != nil {
				log.LogInfo("Swap collector stopped")
				return
			}
			log.LogError("Collection run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			log.LogInfo("Swap collector stopped")
			return
		case <-time.After(interval):
		}
	}
}
