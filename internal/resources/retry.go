package resources

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
)

// RetryPolicy defines retry behaviour with exponential backoff. Only
// transport errors and the retryable status set are retried; all other
// HTTP failures surface immediately.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewRetryPolicy creates the default policy: 3 attempts, 1s base, 30s cap.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// ShouldRetry checks whether an attempt should be retried based on attempt
// count, status code, and error type.
func (p *RetryPolicy) ShouldRetry(attempt int, statusCode int, err error) bool {
	if attempt >= p.MaxAttempts-1 {
		return false
	}
	if statusCode > 0 {
		return models.IsRetryableStatus(statusCode)
	}
	if err != nil {
		return isRetryableError(err)
	}
	return false
}

// Backoff calculates the delay before the given (0-indexed) attempt is
// retried: base * 2^attempt, capped at MaxBackoff.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := p.InitialBackoff << uint(attempt)
	if backoff > p.MaxBackoff || backoff <= 0 {
		backoff = p.MaxBackoff
	}
	return backoff
}

// Execute wraps fn with the retry loop. fn returns the HTTP status code
// (0 for transport failures) and an error.
func (p *RetryPolicy) Execute(ctx context.Context, logger arbor.ILogger, fn func() (int, error)) (int, error) {
	var lastErr error
	var statusCode int

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		statusCode, lastErr = fn()
		if lastErr == nil {
			return statusCode, nil
		}

		if !p.ShouldRetry(attempt, statusCode, lastErr) {
			return statusCode, lastErr
		}

		backoff := p.Backoff(attempt)
		logger.Debug().
			Int("attempt", attempt+1).
			Int("status_code", statusCode).
			Err(lastErr).
			Dur("backoff", backoff).
			Msg("Retrying after backoff")

		select {
		case <-ctx.Done():
			return statusCode, ctx.Err()
		case <-time.After(backoff):
		}
	}

	logger.Warn().
		Int("max_attempts", p.MaxAttempts).
		Int("status_code", statusCode).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return statusCode, lastErr
}

// isRetryableError checks if an error is retryable (timeouts, connection
// errors, context deadline exceeded)
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var modelErr *models.Error
	if errors.As(err, &modelErr) {
		if modelErr.Kind == models.ErrKindHTTP {
			return models.IsRetryableStatus(modelErr.StatusCode)
		}
		return modelErr.Kind == models.ErrKindTransport
	}

	return false
}
