package core

import (
	"context"
	"log/slog"
	"time"
)

// DefaultFrame is used when no frame interval is configured.
const DefaultFrame = 16 * time.Millisecond

// Loop is the single logical thread driving input handling, deferred
// callbacks and periodic jobs.
type Loop struct {
	frame time.Duration
	later *DoLater
	hooks []func(ctx context.Context)
	jobs  []Job
	steps int64
	now   func() time.Time
}

// NewLoop creates a loop stepping every frame.
func NewLoop(frame time.Duration, later *DoLater) *Loop {
	if frame <= 0 {
		frame = DefaultFrame
	}
	if later == nil {
		later = NewDoLater()
	}
	return &Loop{
		frame: frame,
		later: later,
		now:   time.Now,
	}
}

// Later returns the loop's deferred queue.
func (l *Loop) Later() *DoLater {
	return l.later
}

// AddFrameHook registers fn to run at the start of every step.
func (l *Loop) AddFrameHook(fn func(ctx context.Context)) {
	l.hooks = append(l.hooks, fn)
}

// AddJob registers a job.
func (l *Loop) AddJob(j Job) {
	l.jobs = append(l.jobs, j)
}

// Frame returns the number of completed steps.
func (l *Loop) Frame() int64 {
	return l.steps
}

// Start runs the loop. It blocks until ctx is cancelled.
func (l *Loop) Start(ctx context.Context) {
	ticker := time.NewTicker(l.frame)
	defer ticker.Stop()

	slog.Info("Loop started", "frame", l.frame)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Loop stopped", "frames", l.steps)
			return
		case <-ticker.C:
			l.Step(ctx)
		}
	}
}

// Step runs one update cycle: frame hooks, then deferred callbacks, then
// due jobs.
func (l *Loop) Step(ctx context.Context) {
	for _, h := range l.hooks {
		if err := safeCall(func() { h(ctx) }); err != nil {
			slog.Error("Loop: frame hook failed", "error", err)
		}
	}

	l.later.Update()

	now := l.now()
	for _, job := range l.jobs {
		if !job.ShouldFire(now) {
			continue
		}
		if err := safeCall(func() { job.Run(ctx, now) }); err != nil {
			slog.Error("Loop: job failed", "job", job.Name(), "error", err)
		}
	}

	l.steps++
}
