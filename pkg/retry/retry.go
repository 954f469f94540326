package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config drives a bounded, fixed-delay retry loop. The provisioner runs once
// at startup, so there is no exponential backoff: a constant inter-attempt
// delay keeps the wait ceiling predictable (MaxAttempts * Delay).
type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *zap.Logger

	// After is the timer hook. Tests inject a fake to simulate
	// "ready on the third attempt" without wall-clock sleeps.
	After func(time.Duration) <-chan time.Time
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 30,
		Delay:       2 * time.Second,
		Logger:      zap.NewNop(),
		After:       time.After,
	}
}

// Do runs operation up to MaxAttempts times, waiting Delay between attempts.
// It returns nil on the first success and the last error after exhaustion.
func Do(ctx context.Context, cfg Config, operation func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 30
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 2 * time.Second
	}
	if cfg.After == nil {
		cfg.After = time.After
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.Info("Operation succeeded after retry",
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn("Operation failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", cfg.MaxAttempts),
				zap.Duration("delay", cfg.Delay),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cfg.After(cfg.Delay):
		}
	}

	return lastErr
}

// DoWithResult is Do for operations that return a value.
func DoWithResult[T any](ctx context.Context, cfg Config, operation func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var err error
		result, err = operation()
		return err
	})
	return result, err
}
