package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whale-tracker/internal/clients_api/whalefeed"
	"whale-tracker/internal/store"
)

// fakeFeed returns one prepared batch per call.
type fakeFeed struct {
	batches [][]*whalefeed.Swap
	call    int
}

func (f *fakeFeed) GetSwaps(ctx context.Context, since int64) ([]*whalefeed.Swap, error) {
	if f.call >= len(f.batches) {
		return nil, nil
	}
	batch := f.batches[f.call]
	f.call++
	if batch == nil {
		return nil, errors.New("feed down")
	}
	return batch, nil
}

type fakeStore struct {
	latest    int64
	existing  map[string]bool
	inserted  []string
	purgedCut int64
}

func (f *fakeStore) LatestTimestamp(ctx context.Context) (int64, error) {
	return f.latest, nil
}

func (f *fakeStore) InsertSwap(ctx context.Context, record store.SwapRecord) (bool, error) {
	if f.existing[record.SwapID] {
		return false, nil
	}
	f.inserted = append(f.inserted, record.SwapID)
	return true, nil
}

func (f *fakeStore) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	f.purgedCut = cutoff
	return 2, nil
}

func feedSwap(id string, timestamp int64) *whalefeed.Swap {
	return &whalefeed.Swap{ID: id, Signature: id, Timestamp: timestamp, FeePayer: "payer"}
}

func TestRunFiltersWatermarkAndDuplicates(t *testing.T) {
	feed := &fakeFeed{batches: [][]*whalefeed.Swap{
		{feedSwap("old", 900), feedSwap("a", 1100), feedSwap("b", 1200)},
		{feedSwap("b", 1200), feedSwap("c", 1300)}, // b repeats across calls
	}}
	st := &fakeStore{latest: 1000}

	collector := NewCollector(feed, st, Options{Calls: 2, CallDelay: 0, RetentionDays: 7})
	stats, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Fetched)
	assert.Equal(t, 3, stats.Inserted)
	assert.Equal(t, []string{"a", "b", "c"}, st.inserted)
	assert.Equal(t, int64(2), stats.Purged)
	assert.Greater(t, st.purgedCut, int64(0))
}

func TestRunDedupsIDLessSwapsByIdentity(t *testing.T) {
	// Swaps without an id must not collapse into one; dedup keys on the
	// identity (signature, else timestamp plus fee payer).
	a := &whalefeed.Swap{Signature: "sig-a", Timestamp: 1100, FeePayer: "payer"}
	b := &whalefeed.Swap{Signature: "sig-b", Timestamp: 1200, FeePayer: "payer"}
	feed := &fakeFeed{batches: [][]*whalefeed.Swap{
		{a, b},
		{b}, // true repeat across calls still collapses
	}}
	st := &fakeStore{}

	collector := NewCollector(feed, st, Options{Calls: 2, CallDelay: 0, RetentionDays: 7})
	stats, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Fetched)
	assert.Equal(t, []string{"sig-a", "sig-b"}, st.inserted)
}

func TestRunCountsSkippedDuplicates(t *testing.T) {
	feed := &fakeFeed{batches: [][]*whalefeed.Swap{
		{feedSwap("a", 1100), feedSwap("b", 1200)},
	}}
	st := &fakeStore{existing: map[string]bool{"a": true}}

	collector := NewCollector(feed, st, Options{Calls: 1, RetentionDays: 7})
	stats, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Errors)
}

func TestRunSurvivesFailedCall(t *testing.T) {
	feed := &fakeFeed{batches: [][]*whalefeed.Swap{
		nil, // first call errors
		{feedSwap("a", 1100)},
	}}
	st := &fakeStore{}

	collector := NewCollector(feed, st, Options{Calls: 2, CallDelay: 0, RetentionDays: 7})
	stats, err := collector.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Inserted)
}

func TestRunCancelledBetweenCalls(t *testing.T) {
	feed := &fakeFeed{batches: [][]*whalefeed.Swap{
		{feedSwap("a", 1100)},
		{feedSwap("b", 1200)},
	}}
	st := &fakeStore{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := NewCollector(feed, st, Options{Calls: 2, CallDelay: time.Minute, RetentionDays: 7})
	_, err := collector.Run(ctx)
	assert.Error(t, err)
	assert.Empty(t, st.inserted)
}
