package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseBackoff: time.Millisecond,
		Retryable:   IsTransientConflict,
	}
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestWithRetryExhaustsBudgetOnPersistentConflict(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), zap.NewNop(), testPolicy(), func(ctx context.Context) error {
		attempts++
		return serializationFailure()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFulfillmentConflict)
	assert.Equal(t, 5, attempts, "must attempt exactly MaxAttempts times, never loop forever")
}

func TestWithRetryNeverRetriesBusinessErrors(t *testing.T) {
	for _, bizErr := range []error{
		ErrEmptyCart,
		ErrInsufficientStock,
		ErrProductUnavailable,
		ErrInvalidShippingInfo,
		ErrCustomerNotFound,
	} {
		attempts := 0
		err := withRetry(context.Background(), zap.NewNop(), testPolicy(), func(ctx context.Context) error {
			attempts++
			return bizErr
		})

		assert.ErrorIs(t, err, bizErr)
		assert.NotErrorIs(t, err, ErrFulfillmentConflict)
		assert.Equal(t, 1, attempts, "business errors must propagate immediately")
	}
}

func TestWithRetrySucceedsAfterTransientConflicts(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), zap.NewNop(), testPolicy(), func(ctx context.Context) error {
		attempts++
		if attempts <= 2 {
			return serializationFailure()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := testPolicy()
	policy.BaseBackoff = time.Minute // would stall without cancellation

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- withRetry(ctx, zap.NewNop(), policy, func(ctx context.Context) error {
			attempts++
			return serializationFailure()
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("withRetry did not observe context cancellation")
	}
}

func TestIsTransientConflict(t *testing.T) {
	assert.True(t, IsTransientConflict(serializationFailure()))
	assert.True(t, IsTransientConflict(&pgconn.PgError{Code: "40P01"}))

	// Wrapped conflicts still count.
	wrapped := errors.Join(errors.New("transaction failed"), serializationFailure())
	assert.True(t, IsTransientConflict(wrapped))

	assert.False(t, IsTransientConflict(nil))
	assert.False(t, IsTransientConflict(ErrEmptyCart))
	assert.False(t, IsTransientConflict(&pgconn.PgError{Code: "23505"}))
}
