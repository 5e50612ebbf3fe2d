package taxii

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxAttempts:     attempts,
	}
}

func TestRetryer_SucceedsAfterTransientFailures(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig(5), testLogger{})

	calls := 0
	err := retryer.Do(context.Background(), "get objects", func() error {
		calls++
		if calls < 3 {
			return newStatusError(503, "unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryer_ExhaustsBudgetOnTransient(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig(3), testLogger{})

	calls := 0
	err := retryer.Do(context.Background(), "get objects", func() error {
		calls++
		return newStatusError(503, "unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "retries exhausted")
	// Every attempt is recorded in the final error.
	assert.Contains(t, err.Error(), "attempt 1:")
	assert.Contains(t, err.Error(), "attempt 3:")
}

func TestRetryer_PermanentErrorStopsImmediately(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig(5), testLogger{})

	calls := 0
	err := retryer.Do(context.Background(), "get objects", func() error {
		calls++
		return newStatusError(404, "no such collection")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "status 404")
}

func TestRetryer_NonRequestErrorIsPermanent(t *testing.T) {
	retryer := NewRetryer(fastRetryConfig(5), testLogger{})

	calls := 0
	err := retryer.Do(context.Background(), "get objects", func() error {
		calls++
		return errors.New("something else entirely")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryer_ContextCancellation(t *testing.T) {
	retryer := NewRetryer(RetryConfig{
		InitialInterval: time.Hour,
		MaxInterval:     time.Hour,
		MaxAttempts:     5,
	}, testLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := retryer.Do(ctx, "get objects", func() error {
		return newStatusError(503, "unavailable")
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, err.Error(), "canceled")
}

func TestRetryer_ZeroAttemptsMeansOne(t *testing.T) {
	retryer := NewRetryer(RetryConfig{MaxAttempts: 0}, testLogger{})

	calls := 0
	err := retryer.Do(context.Background(), "op", func() error {
		calls++
		return newStatusError(503, "unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
