// Package scheduler implements the cron-driven scheduler:
// parse cron expressions eagerly at registration time, tick once per
// wall-clock minute, and dispatch each due job through a handler that
// can never crash the scheduler loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
)

// RetryConfig parameterizes the backoff applied when a job handler
// returns an error.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns the documented defaults (3 retries, 2s base, 30s max).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

// Job is one scheduled unit of work.
type Job struct {
	ID         string
	Expression string // standard 5-field cron expression
	Handler    func(ctx context.Context) error
	Retry      RetryConfig

	lastEpoch int64 // last dispatched floor(wallclock_ms/60000), dedup guard
}

// Scheduler ticks every wall-clock minute and fires any job whose cron
// expression matches that minute, deduplicating by epoch-minute so a
// slow tick loop never double-fires a job.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	expr    *gronx.Gronx
	tick    time.Duration
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a Scheduler. tick defaults to one minute when zero.
func New(tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		jobs: make(map[string]*Job),
		expr: gronx.New(),
		tick: tick,
	}
}

// Register parses expression eagerly and adds the job. Returns an error immediately on a malformed
// expression rather than failing silently at tick time.
func (s *Scheduler) Register(id, expression string, handler func(ctx context.Context) error, retry RetryConfig) error {
	if !s.expr.IsValid(expression) {
		return fmt.Errorf("scheduler: invalid cron expression %q for job %q", expression, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &Job{ID: id, Expression: expression, Handler: handler, Retry: retry}
	return nil
}

// Unregister removes a job.
func (s *Scheduler) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.tickOnce(ctx, time.Now())
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.tickOnce(ctx, now)
			}
		}
	}()
}

// Stop cancels the tick loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
}

// epochMinute computes floor(wallclock_ms / 60000), the dedup key for
// one tick.
func epochMinute(t time.Time) int64 {
	return t.UnixMilli() / 60000
}

func (s *Scheduler) tickOnce(ctx context.Context, now time.Time) {
	epoch := epochMinute(now)

	s.mu.Lock()
	due := make([]*Job, 0)
	for _, j := range s.jobs {
		if j.lastEpoch == epoch {
			continue // already dispatched this epoch-minute
		}
		ok, err := s.expr.IsDue(j.Expression, now)
		if err != nil {
			slog.Warn("scheduler.expression_error", "job", j.ID, "error", err)
			continue
		}
		if ok {
			j.lastEpoch = epoch
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		go s.dispatch(ctx, j)
	}
}

// dispatch runs one job's handler with retry-with-backoff, recovering
// any panic so a buggy handler can never crash the scheduler loop.
func (s *Scheduler) dispatch(ctx context.Context, j *Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler.job_panicked", "job", j.ID, "recover", r)
		}
	}()

	retry := j.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		if err := j.Handler(ctx); err != nil {
			lastErr = err
			slog.Warn("scheduler.job_failed", "job", j.ID, "attempt", attempt, "error", err)
			if attempt == retry.MaxRetries {
				break
			}
			delay := backoff(attempt, retry.BaseDelay, retry.MaxDelay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			continue
		}
		return
	}
	slog.Error("scheduler.job_exhausted_retries", "job", j.ID, "error", lastErr)
}

func backoff(attempt int, base, max time.Duration) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > max {
			return max
		}
	}
	if delay > max {
		delay = max
	}
	return delay
}
