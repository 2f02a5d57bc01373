package submissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SucceedsAfterTransientFailures(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}
	val, calls, err := Run(context.Background(), p, func(_ context.Context, attempt int) (string, error) {
		if attempt < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestRun_StopsAtMaxAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}
	boom := errors.New("still down")
	_, calls, err := Run(context.Background(), p, func(context.Context, int) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRun_DoesNotRetryFatalErrors(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}
	_, calls, err := Run(context.Background(), p, func(context.Context, int) (int, error) {
		return 0, Permanent(errors.New("unique violation"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_CustomClassifier(t *testing.T) {
	retryOnce := errors.New("retry me")
	p := RetryPolicy{
		MaxAttempts: 4,
		Delay:       time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, retryOnce) },
	}
	_, calls, err := Run(context.Background(), p, func(_ context.Context, attempt int) (int, error) {
		if attempt == 1 {
			return 0, retryOnce
		}
		return 0, errors.New("fatal")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRun_ZeroAttemptsMeansOne(t *testing.T) {
	_, calls, _ := Run(context.Background(), RetryPolicy{}, func(context.Context, int) (int, error) {
		return 0, errors.New("down")
	})
	assert.Equal(t, 1, calls)
}

func TestRun_StopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Hour}
	_, calls, err := Run(ctx, p, func(context.Context, int) (int, error) {
		cancel()
		return 0, errors.New("down")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Delay)
}
