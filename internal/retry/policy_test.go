package retry

import (
	"testing"
	"time"

	"github.com/blobb999/selfsustain/internal/config"
)

func TestDelayLinear(t *testing.T) {
	p := NewPolicy(config.RetryBackoffLinear, time.Second, 5*time.Second, 10)

	cases := []struct {
		retry int
		want  time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 5 * time.Second},
		{9, 5 * time.Second}, // capped
	}
	for _, tc := range cases {
		if got := p.Delay(tc.retry); got != tc.want {
			t.Errorf("Delay(%d) = %s, want %s", tc.retry, got, tc.want)
		}
	}
}

func TestDelayExponential(t *testing.T) {
	p := NewPolicy(config.RetryBackoffExponential, time.Second, 10*time.Second, 10)

	cases := []struct {
		retry int
		want  time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
	}
	for _, tc := range cases {
		if got := p.Delay(tc.retry); got != tc.want {
			t.Errorf("Delay(%d) = %s, want %s", tc.retry, got, tc.want)
		}
	}
}

func TestDelayFixed(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 2*time.Second, 30*time.Second, 3)
	for retry := 1; retry <= 3; retry++ {
		if got := p.Delay(retry); got != 2*time.Second {
			t.Errorf("Delay(%d) = %s, want 2s", retry, got)
		}
	}
}

func TestNewPolicyFallbacks(t *testing.T) {
	p := NewPolicy("bogus", 0, 0, -1)
	def := DefaultPolicy()

	if p.Mode != def.Mode || p.Initial != def.Initial || p.Max != def.Max || p.MaxRetries != def.MaxRetries {
		t.Errorf("expected defaults for invalid input, got %+v", p)
	}
}

func TestNewPolicyClampsInitialToMax(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Minute, time.Second, 1)
	if p.Initial != time.Second {
		t.Errorf("expected initial clamped to max, got %s", p.Initial)
	}
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{
		Backoff:    config.RetryBackoffExponential,
		Initial:    config.Duration(500 * time.Millisecond),
		Max:        config.Duration(8 * time.Second),
		MaxRetries: 4,
	})
	if p.Mode != config.RetryBackoffExponential || p.MaxRetries != 4 {
		t.Errorf("unexpected policy: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("valid policy rejected: %v", err)
	}
}
