package provision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scirec/provisioner/internal/metrics"
	"github.com/scirec/provisioner/pkg/logger"
	"github.com/scirec/provisioner/pkg/retry"
)

// Prober blocks until a store reports ready, retrying on a fixed delay.
// The worst-case wait is MaxAttempts * Delay; the process is short-lived
// and externally killable, so the wait is not cancellable beyond ctx.
type Prober struct {
	MaxAttempts int
	Delay       time.Duration
	Timeout     time.Duration

	// After overrides the retry timer in tests.
	After func(time.Duration) <-chan time.Time
}

func NewProber(maxAttempts int, delay, timeout time.Duration) *Prober {
	return &Prober{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Timeout:     timeout,
	}
}

// AwaitReady polls the store's health until it reports ready or the attempt
// budget is exhausted, in which case it fails with ErrUnavailable.
func (p *Prober) AwaitReady(ctx context.Context, store HealthChecker) error {
	start := time.Now()

	attempt := 0
	cfg := retry.Config{
		MaxAttempts: p.MaxAttempts,
		Delay:       p.Delay,
		Logger:      logger.Log.With(zap.String("store", store.Kind())),
		After:       p.After,
	}

	err := retry.Do(ctx, cfg, func() error {
		attempt++
		metrics.ReadinessAttempts.WithLabelValues(store.Kind()).Inc()
		checkCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			checkCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}
		return store.CheckReady(checkCtx)
	})
	if err != nil {
		return fmt.Errorf("%s not ready after %d attempts: %w (last error: %v)",
			store.Kind(), p.MaxAttempts, ErrUnavailable, err)
	}

	logger.Info("Store ready",
		zap.String("store", store.Kind()),
		zap.Int("attempts", attempt),
		zap.Duration("waited", time.Since(start)),
	)
	return nil
}
