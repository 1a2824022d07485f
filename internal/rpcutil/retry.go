package rpcutil

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/paylinkhq/server/internal/logger"
)

// Policy bounds how often a read-only RPC call is attempted.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy retries up to twice with 100ms, 200ms backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
	}
}

// NoRetry attempts the operation exactly once.
func NoRetry() Policy {
	return Policy{}
}

// WithPolicy runs operation, retrying transient failures with exponential
// backoff. Only use it for idempotent reads.
func WithPolicy[T any](ctx context.Context, policy Policy, operation func(context.Context) (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		result, err = operation(ctx)
		if err == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			return result, err
		}
		if !IsRetryable(err) {
			return result, err
		}
		if attempt == policy.MaxRetries {
			break
		}

		delay := policy.BaseDelay * time.Duration(1<<uint(attempt))
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", policy.MaxRetries+1).
			Dur("retry_delay", delay).
			Msg("rpc.operation_retry")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, err
}

// IsRetryable reports whether err looks like a transient transport or
// upstream failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "temporary failure") ||
		strings.Contains(msg, "eof") {
		return true
	}

	// Rate limiting
	if strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "504") ||
		strings.Contains(msg, "bad gateway") ||
		strings.Contains(msg, "service unavailable") ||
		strings.Contains(msg, "gateway timeout") {
		return true
	}

	return false
}
