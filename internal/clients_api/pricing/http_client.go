package pricing

// Package pricing aggregates token price and market-cap data from several
// public providers. This file is the shared transport used by every
// provider client.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxResponseSize = 5 * 1024 * 1024

// httpClient wraps a provider endpoint with a circuit breaker and retries.
type httpClient struct {
	name           string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	retryOpts      retry.Options
	headers        map[string]string
}

func newHTTPClient(name string, timeout time.Duration, headers map[string]string) *httpClient {
	return &httpClient{
		name:      name,
		headers:   headers,
		retryOpts: retry.Options{MaxRetries: 1, BaseDelay: 200 * time.Millisecond, MaxDelay: time.Second},
		circuitBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// doGET fetches url and returns the body. Transient status codes are
// retried once; repeated failures trip the breaker for this provider only.
func (c *httpClient) doGET(ctx context.Context, url string) ([]byte, error) {
	requestID := log.GenerateRequestID()
	startTime := time.Now()

	var respBody []byte
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, retry.Do(ctx, c.retryOpts, func() error {
			body, err := c.get(ctx, requestID, url, startTime)
			if err != nil {
				return err
			}
			respBody = body
			return nil
		})
	})
	if err != nil {
		log.LogDebug("Provider request failed",
			zap.String("provider", c.name),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}

	return respBody, nil
}

func (c *httpClient) get(ctx context.Context, requestID, url string, startTime time.Time) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	duration := time.Since(startTime).Milliseconds()
	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("provider", c.name))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return respBody, nil
}
