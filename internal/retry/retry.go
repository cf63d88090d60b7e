// Package retry wraps fallible remote operations with bounded retry and
// exponential backoff. Every network call in the sync path funnels
// through this package so backoff, jitter and error classification stay
// uniform across call sites.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/ringline-app/backend/internal/errors"
)

// jitterFraction bounds the random jitter added to each backoff delay:
// jitter is uniform in [0, jitterFraction*delay).
const jitterFraction = 0.3

// Options controls retry behavior. The zero value gets the defaults.
type Options struct {
	// MaxAttempts is the total number of attempts including the first.
	// Defaults to 3.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Defaults to 1s.
	BaseDelay time.Duration

	// Multiplier grows the delay between consecutive retries.
	// Defaults to 2.
	Multiplier float64

	// OnRetry, if set, is called before each backoff wait with the
	// error and the attempt number that just failed. Side-effect hook
	// only; it cannot affect control flow.
	OnRetry func(err error, attempt int)

	// Sleep replaces time.Sleep. Tests inject a recording fake here.
	Sleep func(time.Duration)
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// Do runs op up to MaxAttempts times, sleeping an exponentially growing
// jittered delay between attempts. Terminal errors (auth, permission,
// validation, constraint, uniqueness, foreign key) short-circuit: they
// are returned immediately without consuming remaining attempts. When
// all attempts are exhausted the last error is returned.
func Do(ctx context.Context, op func() error, opts Options) error {
	_, err := DoValue(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, opts)
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, op func() (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op()
		if err == nil {
			return v, nil
		}
		if errors.IsTerminal(err) {
			return zero, err
		}
		lastErr = err

		if attempt == opts.MaxAttempts {
			break
		}
		if opts.OnRetry != nil {
			opts.OnRetry(err, attempt)
		}
		opts.Sleep(Backoff(opts.BaseDelay, opts.Multiplier, attempt))
	}

	return zero, lastErr
}

// Backoff computes the jittered delay before retrying after the given
// attempt number (1-based): BaseDelay * Multiplier^(attempt-1) plus a
// uniform jitter in [0, 0.3*delay).
func Backoff(base time.Duration, multiplier float64, attempt int) time.Duration {
	delay := float64(base)
	for i := 1; i < attempt; i++ {
		delay *= multiplier
	}
	jitter := rand.Float64() * jitterFraction * delay
	return time.Duration(delay + jitter)
}
