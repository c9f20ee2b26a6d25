package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tracepoint-io/tracepoint/internal/pkg/ctxlog"
	"github.com/tracepoint-io/tracepoint/internal/pkg/metrics"
)

// ErrUnavailable signals that the database stayed unreachable after all
// retry attempts were exhausted. Callers map it to 503.
var ErrUnavailable = errors.New("database unavailable")

// RetryPolicy retries transient failures of a database operation.
// Logical errors (constraint violations, bad values) never match the
// Retryable predicate and propagate unmodified on the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries connectivity failures up to 3 attempts with
// linearly increasing backoff (500ms, 1s).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(500 * time.Millisecond),
		Retryable:   IsConnectivityError,
	}
}

// LinearBackoff returns a backoff function yielding step × attempt.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return step * time.Duration(attempt)
	}
}

// Do runs fn, retrying per the policy. On exhaustion the last error is
// wrapped with ErrUnavailable so the caller can distinguish a dead
// database from a failed statement.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		backoff := p.Backoff(attempt)
		ctxlog.FromContext(ctx).Warn("retrying database operation",
			"op", op,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		metrics.DBRetries.WithLabelValues(op).Inc()

		if !sleep(ctx, backoff) {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}

	return fmt.Errorf("%s after %d attempts: %w", op, attempts, errors.Join(ErrUnavailable, err))
}

// IsConnectivityError reports whether err looks like a transient
// connection-level failure (drop, timeout, refused connection) rather
// than a statement the database rejected.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	// Server responded: the connection works, the statement does not.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
