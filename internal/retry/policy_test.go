package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, BackoffExponential, p.Mode)
	assert.Equal(t, 200*time.Millisecond, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial, "initial is clamped to max")
	assert.Equal(t, BackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	p = NewPolicy("bogus", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), p)
}

func TestDelayModes(t *testing.T) {
	fixed := NewPolicy(BackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3)
	linear := NewPolicy(BackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5)
	exp := NewPolicy(BackoffExponential, 100*time.Millisecond, 350*time.Millisecond, 5)

	tests := []struct {
		p       Policy
		attempt int
		want    time.Duration
	}{
		{fixed, 3, 100 * time.Millisecond},
		{linear, 1, 100 * time.Millisecond},
		{linear, 2, 200 * time.Millisecond},
		{linear, 3, 250 * time.Millisecond},
		{exp, 1, 100 * time.Millisecond},
		{exp, 2, 200 * time.Millisecond},
		{exp, 3, 350 * time.Millisecond},
		{exp, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Delay(tt.attempt), "%s attempt %d", tt.p.Mode, tt.attempt)
	}
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return derrors.NetworkError("unreachable").Retryable().Build()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentErrors(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUp(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return derrors.NetworkError("unreachable").Retryable().Build()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}
