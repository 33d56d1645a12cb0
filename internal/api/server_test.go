package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whale-tracker/internal/clients_api/whalefeed"
	"whale-tracker/internal/infra/config"
	"whale-tracker/internal/store"
)

type fakeSwapReader struct {
	records   []store.SwapRecord
	gotSince  int64
	gotLimit  int
	returnErr error
}

func (f *fakeSwapReader) RecentSwaps(ctx context.Context, since int64, limit int) ([]store.SwapRecord, error) {
	f.gotSince = since
	f.gotLimit = limit
	return f.records, f.returnErr
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

func testRecord(id string, timestamp int64) store.SwapRecord {
	return store.SwapRecord{
		SwapID:           id,
		Timestamp:        timestamp,
		FeePayer:         "payer",
		Signature:        id,
		InputTokenMint:   sql.NullString{String: whalefeed.WrappedSOLMint, Valid: true},
		InputTokenAmount: sql.NullFloat64{Float64: 3, Valid: true},
		InputTokenSymbol: sql.NullString{String: "SOL", Valid: true},
	}
}

func testConfig() config.APIConfig {
	return config.APIConfig{ListenAddr: ":0", RateLimitRPM: 1000, WindowMinutes: 120}
}

func TestHandleSwaps(t *testing.T) {
	reader := &fakeSwapReader{records: []store.SwapRecord{
		testRecord("s2", 2000),
		testRecord("s1", 1000),
	}}
	srv := NewServer(testConfig(), reader, &fakeHealth{})

	// A since inside the default window narrows it.
	since := time.Now().Add(-time.Hour).UnixMilli()
	req := httptest.NewRequest(http.MethodGet, "/api/swaps?since="+strconv.FormatInt(since, 10), nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, since, reader.gotSince)
	assert.Equal(t, maxSwapsPerResponse, reader.gotLimit)

	var resp struct {
		Swaps []*whalefeed.Swap `json:"swaps"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "s2", resp.Swaps[0].ID)
	require.NotNil(t, resp.Swaps[0].InputToken)
	assert.Equal(t, "SOL", resp.Swaps[0].InputToken.Metadata.Symbol)
	assert.Nil(t, resp.Swaps[0].OutputToken)
}

func TestHandleSwapsDefaultWindow(t *testing.T) {
	reader := &fakeSwapReader{}
	srv := NewServer(testConfig(), reader, &fakeHealth{})

	req := httptest.NewRequest(http.MethodGet, "/api/swaps", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, reader.gotSince, int64(0), "default window should set a since bound")
}

func TestHandleSwapsBadSince(t *testing.T) {
	srv := NewServer(testConfig(), &fakeSwapReader{}, &fakeHealth{})

	req := httptest.NewRequest(http.MethodGet, "/api/swaps?since=tomorrow", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSwapsStoreError(t *testing.T) {
	reader := &fakeSwapReader{returnErr: errors.New("db gone")}
	srv := NewServer(testConfig(), reader, &fakeHealth{})

	req := httptest.NewRequest(http.MethodGet, "/api/swaps", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(testConfig(), &fakeSwapReader{}, &fakeHealth{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewServer(testConfig(), &fakeSwapReader{}, &fakeHealth{err: errors.New("no db")})
	rec = httptest.NewRecorder()
	down.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPM = 2
	srv := NewServer(cfg, &fakeSwapReader{}, &fakeHealth{})
	router := srv.Router()

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/swaps", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
