package agent

import (
	"context"
	"math/rand"
	"time"
)

// backoffDelay computes delay = min(base·2^attempt, max) + U(0, 0.1·delay).
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > max {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}

// sleepCancellable blocks for d or until ctx is cancelled, whichever
// comes first, returning ctx.Err() on cancellation.
func sleepCancellable(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
