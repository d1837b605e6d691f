package retry

import (
	"testing"
	"time"
)

func TestExponentialDuration(t *testing.T) {
	e := Exponential{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{10, time.Second}, // clamped at Max
	}
	for _, tt := range tests {
		if got := e.Duration(tt.n); got != tt.want {
			t.Errorf("Duration(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestLinearDuration(t *testing.T) {
	l := Linear{Initial: 100 * time.Millisecond, Step: 50 * time.Millisecond, Max: 300 * time.Millisecond}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{10, 300 * time.Millisecond}, // clamped at Max
	}
	for _, tt := range tests {
		if got := l.Duration(tt.n); got != tt.want {
			t.Errorf("Duration(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestFixedDuration(t *testing.T) {
	f := Fixed{Interval: 250 * time.Millisecond}
	if got := f.Duration(0); got != 250*time.Millisecond {
		t.Errorf("Duration(0) = %v, want 250ms", got)
	}
	if got := f.Duration(5); got != 250*time.Millisecond {
		t.Errorf("Duration(5) = %v, want 250ms", got)
	}
}

func TestApplyJitterZeroIsNoop(t *testing.T) {
	d := 100 * time.Millisecond
	if got := applyJitter(d, 0); got != d {
		t.Errorf("applyJitter with jitter=0 = %v, want %v unchanged", got, d)
	}
}

func TestApplyJitterWithinBounds(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		got := applyJitter(d, 0.5)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("applyJitter(100ms, 0.5) = %v, want within [50ms,150ms]", got)
		}
	}
}
