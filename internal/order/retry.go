package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"storefront/prometheus"
)

// Postgres SQLSTATE codes that mark a transaction as safe to rerun.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// RetryPolicy bounds the optimistic-transaction loop. Retryable decides
// which errors count as transient conflicts; everything else propagates on
// the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy returns the production policy: five attempts, backoff
// starting at 50ms and doubling, retrying only storage-level conflicts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseBackoff: 50 * time.Millisecond,
		Retryable:   IsTransientConflict,
	}
}

// IsTransientConflict reports whether err is a storage-detected concurrent
// write collision, as opposed to a business-rule failure.
func IsTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// withRetry runs op until it succeeds, fails with a non-retryable error, or
// the attempt budget is spent. Exhaustion is reported as
// ErrFulfillmentConflict wrapping the last conflict.
func withRetry(ctx context.Context, log *zap.Logger, policy RetryPolicy, op func(context.Context) error) error {
	delay := policy.BaseBackoff
	var err error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		prometheus.RecordFulfillmentAttempt()

		err = op(ctx)
		if err == nil || !policy.Retryable(err) {
			return err
		}

		prometheus.RecordFulfillmentConflict()
		if attempt == policy.MaxAttempts {
			break
		}

		log.Warn("transient conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%w: %v", ErrFulfillmentConflict, err)
}
