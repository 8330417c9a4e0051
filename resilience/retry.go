package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/entadmin/adminkit/apiclient"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Zero or one disables retries.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// BackoffFactor multiplies the delay after each attempt.
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter randomizes each delay by up to ±Jitter of its value (0.0 to 1.0).
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`

	// RetryIf decides whether an error is retried. Used by Retry only.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns three attempts starting at 200ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
	}
}

// ApplyDefaults fills zero-valued timing fields. MaxAttempts is left alone so
// a zero value keeps retries off.
func (c *RetryConfig) ApplyDefaults() {
	d := DefaultRetryConfig()
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
}

// Enabled reports whether more than one attempt is configured.
func (c RetryConfig) Enabled() bool {
	return c.MaxAttempts > 1
}

// DefaultRetryIf retries every error except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf rejects the error, attempts run
// out, or ctx ends.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}
	var result T
	var err error
	stopped := attempts(ctx, cfg, func(ctx context.Context) (bool, error) {
		result, err = fn(ctx)
		return err != nil && cfg.RetryIf(err), err
	})
	if stopped != nil {
		err = stopped
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// RetryEnvelope repeats fn while its envelope reports a retryable failure.
// The last envelope is returned as is.
func RetryEnvelope[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) apiclient.Envelope[T]) apiclient.Envelope[T] {
	var env apiclient.Envelope[T]
	_ = attempts(ctx, cfg, func(ctx context.Context) (bool, error) {
		env = fn(ctx)
		return env.Retryable(), env.Err()
	})
	return env
}

// attempts drives the attempt loop. call reports whether its failure may be
// retried. The returned error is non-nil only when ctx ended during a backoff.
func attempts(ctx context.Context, cfg RetryConfig, call func(ctx context.Context) (bool, error)) error {
	cfg.ApplyDefaults()
	maxAttempts := max(cfg.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		retry, err := call(ctx)
		if !retry || attempt >= maxAttempts || ctx.Err() != nil {
			return nil
		}

		backoff := Backoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Backoff returns the delay after the given attempt:
// initial * factor^(attempt-1), jittered and capped at MaxBackoff.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	cfg.ApplyDefaults()
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))

	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	if d <= 0 {
		d = float64(cfg.InitialBackoff)
	}
	return time.Duration(d)
}
