package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errBusy      = errors.New("database is locked")
	errPermanent = errors.New("unable to open database file")
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.JitterFraction = 0
	return cfg
}

func onlyBusy(err error) bool { return errors.Is(err, errBusy) }

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.Transient = onlyBusy

	attempts := 0
	err := Do(context.Background(), cfg, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("failed to ping database: %w", errBusy)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoReportsExhaustion(t *testing.T) {
	cfg := fastConfig()
	cfg.Name = "sqlite-ping"

	attempts := 0
	err := Do(context.Background(), cfg, func(context.Context) error {
		attempts++
		return errBusy
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, "sqlite-ping gave up after 3 attempts: database is locked", err.Error())
	assert.Equal(t, 3, attempts)
}

func TestDoFailsFastOnNonTransientError(t *testing.T) {
	cfg := fastConfig()
	cfg.Transient = onlyBusy

	attempts := 0
	err := Do(context.Background(), cfg, func(context.Context) error {
		attempts++
		return errPermanent
	})

	require.ErrorIs(t, err, errPermanent)
	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, attempts)
}

func TestPermanentOverridesClassifier(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		return Permanent(errBusy)
	})

	assert.Same(t, errBusy, err)
	assert.Equal(t, 1, attempts)
	assert.NoError(t, Permanent(nil))
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func(context.Context) error {
		t.Fatal("operation must not run after cancellation")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDoStopsWaitingWhenCancelled(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Do(ctx, cfg, func(context.Context) error { return errBusy })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func(context.Context) (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errBusy
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestBackoffGrowsToCap(t *testing.T) {
	b := newBackoff(Config{InitialDelay: 10 * time.Millisecond, MaxDelay: 35 * time.Millisecond, Multiplier: 2})

	assert.Equal(t, 10*time.Millisecond, b.next())
	assert.Equal(t, 20*time.Millisecond, b.next())
	assert.Equal(t, 35*time.Millisecond, b.next())
	assert.Equal(t, 35*time.Millisecond, b.next())
}

func TestBackoffJitterStaysInRange(t *testing.T) {
	b := newBackoff(Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 1, JitterFraction: 0.1})

	b.randFunc = func() float64 { return 0 }
	assert.Equal(t, 90*time.Millisecond, b.next())
	b.randFunc = func() float64 { return 1 }
	assert.Equal(t, 110*time.Millisecond, b.next())
}
