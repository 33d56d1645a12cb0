package api

// Package api serves the collected swaps back out over HTTP. The bot's
// dispatcher polls /api/swaps, and external dashboards can reuse it.

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"whale-tracker/internal/clients_api/whalefeed"
	"whale-tracker/internal/infra/config"
	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"
)

const maxSwapsPerResponse = 500

// SwapReader is the slice of the swap repository the API serves from.
type SwapReader interface {
	RecentSwaps(ctx context.Context, since int64, limit int) ([]store.SwapRecord, error)
}

// HealthChecker reports downstream liveness for /healthz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the read API over the collected swap history.
type Server struct {
	swaps         SwapReader
	health        HealthChecker
	listenAddr    string
	rateLimitRPM  int
	defaultWindow time.Duration

	httpServer *http.Server
}

func NewServer(cfg config.APIConfig, swaps SwapReader, health HealthChecker) *Server {
	window := time.Duration(cfg.WindowMinutes) * time.Minute
	if window <= 0 {
		window = 2 * time.Hour
	}
	rpm := cfg.RateLimitRPM
	if rpm <= 0 {
		rpm = 120
	}
	return &Server{
		swaps:         swaps,
		health:        health,
		listenAddr:    cfg.ListenAddr,
		rateLimitRPM:  rpm,
		defaultWindow: window,
	}
}

// Router assembles the middleware stack and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.rateLimitRPM, time.Minute))
		r.Get("/api/swaps", s.handleSwaps)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.LogSuccess("Read API listening", zap.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		log.LogInfo("Read API stopped")
		return err
	}
}

type swapsResponse struct {
	Swaps []*whalefeed.Swap `json:"swaps"`
	Count int               `json:"count"`
}

// handleSwaps returns the recent swap window, newest first. An optional
// since query parameter (unix milliseconds) narrows the window.
func (s *Server) handleSwaps(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-s.defaultWindow).UnixMilli()
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		if parsed > since {
			since = parsed
		}
	}

	records, err := s.swaps.RecentSwaps(r.Context(), since, maxSwapsPerResponse)
	if err != nil {
		log.LogError("Failed to load recent swaps", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load swaps")
		return
	}

	swaps := make([]*whalefeed.Swap, 0, len(records))
	for _, record := range records {
		swaps = append(swaps, record.ToSwap())
	}

	writeJSON(w, http.StatusOK, swapsResponse{Swaps: swaps, Count: len(swaps)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.LogDebug("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// requestLogger records each request with its status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.LogInfo("HTTP request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	})
}
