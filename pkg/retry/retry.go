// Package retry re-runs startup connectivity checks while their failures look
// transient. Request paths never retry on their own.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Name           string
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
	// Transient reports whether an error may clear by itself. Errors it
	// rejects end the loop at once. Nil treats every error as transient.
	Transient func(error) bool
	Logger    *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         zap.NewNop(),
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

// ExhaustedError is returned when every attempt failed with a transient error.
type ExhaustedError struct {
	Name     string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s gave up after %d attempts: %v", e.Name, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying regardless of the classifier.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func (cfg Config) transient(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if cfg.Transient == nil {
		return true
	}
	return cfg.Transient(err)
}

// Do runs operation until it succeeds, fails with a non-transient error, the
// attempts run out, or ctx is done. A non-transient error is returned as is;
// running out of attempts returns an *ExhaustedError wrapping the last one.
func Do(ctx context.Context, cfg Config, operation func(context.Context) error) error {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With(zap.String("operation", cfg.Name))

	delays := newBackoff(cfg)
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info("Operation succeeded after retry", zap.Int("attempt", attempt))
			}
			return nil
		}
		lastErr = err

		if !cfg.transient(err) {
			log.Warn("Operation failed permanently", zap.Error(err), zap.Int("attempt", attempt))
			var perm *permanentError
			if errors.As(err, &perm) {
				return perm.err
			}
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := delays.next()
		log.Warn("Operation failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxAttempts),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ExhaustedError{Name: cfg.Name, Attempts: cfg.MaxAttempts, Err: lastErr}
}

func DoWithResult[T any](ctx context.Context, cfg Config, operation func(context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	return result, err
}

// backoff yields exponentially growing delays capped at MaxDelay.
type backoff struct {
	current  time.Duration
	max      time.Duration
	factor   float64
	jitter   float64
	randFunc func() float64
}

func newBackoff(cfg Config) *backoff {
	return &backoff{
		current:  cfg.InitialDelay,
		max:      cfg.MaxDelay,
		factor:   cfg.Multiplier,
		jitter:   cfg.JitterFraction,
		randFunc: rand.Float64,
	}
}

func (b *backoff) next() time.Duration {
	d := b.current
	if grown := time.Duration(float64(b.current) * b.factor); grown < b.max {
		b.current = grown
	} else {
		b.current = b.max
	}
	if d > b.max {
		d = b.max
	}

	if b.jitter <= 0 {
		return d
	}
	// Spread evenly over [d*(1-jitter), d*(1+jitter)].
	offset := (b.randFunc()*2 - 1) * b.jitter * float64(d)
	return d + time.Duration(offset)
}
