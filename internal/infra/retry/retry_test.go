package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() Options {
	return Options{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Backoff: 2.0}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastOptions(), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoNonRetryableFailsFast(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastOptions(), func() error {
		attempts++
		return &HTTPError{StatusCode: 404}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoPlainErrorFailsFast(t *testing.T) {
	attempts := 0
	sentinel := errors.New("boom")
	err := Do(context.Background(), fastOptions(), func() error {
		attempts++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastOptions(), func() error {
		attempts++
		return &HTTPError{StatusCode: 500}
	})

	assert.Error(t, err)
	assert.Equal(t, 4, attempts)
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastOptions(), func() error {
		return &HTTPError{StatusCode: 500}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, IsRetryable(&HTTPError{StatusCode: code}), code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, IsRetryable(&HTTPError{StatusCode: code}), code)
	}
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 7*time.Second, ParseRetryAfter("7"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("garbage"))
	// A date in the past resolves to no wait.
	assert.Equal(t, time.Duration(0), ParseRetryAfter("Mon, 02 Jan 2006 15:04:05 GMT"))
}
