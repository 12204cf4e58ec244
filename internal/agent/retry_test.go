package agent

import (
	"context"
	"testing"
	"time"
)

func TestBackoffDelayCapsAtMax(t *testing.T) {
	base := 10 * time.Millisecond
	max := 25 * time.Millisecond

	for attempt := 0; attempt < 10; attempt++ {
		d := backoffDelay(attempt, base, max)
		// Jitter adds up to 10% on top of the capped delay.
		if d > max+max/10+1 {
			t.Errorf("attempt %d: delay %v exceeds max+jitter bound %v", attempt, d, max)
		}
		if d < base {
			t.Errorf("attempt %d: delay %v is less than base %v", attempt, d, base)
		}
	}
}

func TestBackoffDelayGrowsWithAttempt(t *testing.T) {
	base := 10 * time.Millisecond
	max := time.Hour

	d0 := backoffDelay(0, base, max)
	d3 := backoffDelay(3, base, max)

	if d3 <= d0 {
		t.Errorf("expected delay to grow with attempt count, got d0=%v d3=%v", d0, d3)
	}
}

func TestSleepCancellableReturnsNilOnElapse(t *testing.T) {
	err := sleepCancellable(context.Background(), time.Millisecond)
	if err != nil {
		t.Errorf("expected nil error on normal elapse, got %v", err)
	}
}

func TestSleepCancellableReturnsErrOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepCancellable(ctx, time.Hour)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
