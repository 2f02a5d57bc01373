package submissions

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryPolicy is a bounded, fixed-delay retry for store calls.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable reports whether an error is worth another attempt. Nil means
	// IsTransient.
	Retryable func(error) bool
}

// DefaultRetryPolicy is three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second, Retryable: IsTransient}
}

// Run calls fn until it succeeds, returns a non-retryable error, the
// attempts are used up or ctx is done. It returns the value of the last
// call, how many calls were made and the last error.
func Run[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	calls := 0
	val, err := retry.DoWithData(
		func() (T, error) {
			calls++
			return fn(ctx, calls)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(p.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	)
	return val, calls, err
}
