package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHealth struct {
	failures int
	calls    int
}

func (f *flakyHealth) Kind() string { return "flaky" }

func (f *flakyHealth) CheckReady(ctx context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("not ready")
	}
	return nil
}

func TestAwaitReadyOnThirdAttempt(t *testing.T) {
	hc := &flakyHealth{failures: 2}
	p := &Prober{MaxAttempts: 5, Delay: time.Hour, After: immediateAfter}

	err := p.AwaitReady(context.Background(), hc)
	require.NoError(t, err)
	assert.Equal(t, 3, hc.calls)
}

func TestAwaitReadyExhaustion(t *testing.T) {
	hc := &flakyHealth{failures: 100}
	p := &Prober{MaxAttempts: 3, Delay: time.Hour, After: immediateAfter}

	err := p.AwaitReady(context.Background(), hc)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, hc.calls)
}

func TestAwaitReadyImmediate(t *testing.T) {
	hc := &flakyHealth{}
	p := &Prober{MaxAttempts: 1, Delay: time.Hour, After: immediateAfter}

	require.NoError(t, p.AwaitReady(context.Background(), hc))
	assert.Equal(t, 1, hc.calls)
}
