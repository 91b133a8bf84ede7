package core

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Trigger coalesces any number of requests made within one update cycle into
// a single deferred run of body.
//
// The scheduled flag is cleared before body starts, so a request made from
// inside body queues exactly one follow-up run instead of being lost.
type Trigger struct {
	name      string
	deferrer  Deferrer
	body      func() error
	scheduled atomic.Bool
	runs      atomic.Int64
	failures  atomic.Int64
}

// NewTrigger creates a trigger that runs body through deferrer.
func NewTrigger(name string, deferrer Deferrer, body func() error) *Trigger {
	return &Trigger{
		name:     name,
		deferrer: deferrer,
		body:     body,
	}
}

// Request schedules a run unless one is already pending.
// It reports whether this call scheduled the run.
func (t *Trigger) Request() bool {
	if !t.scheduled.CompareAndSwap(false, true) {
		return false
	}
	t.deferrer.RunOnNextUpdate(t.fire)
	return true
}

// Scheduled reports whether a run is pending.
func (t *Trigger) Scheduled() bool {
	return t.scheduled.Load()
}

// Runs returns how many times body has executed.
func (t *Trigger) Runs() int64 {
	return t.runs.Load()
}

// Failures returns how many runs ended in an error or panic.
func (t *Trigger) Failures() int64 {
	return t.failures.Load()
}

func (t *Trigger) fire() {
	t.scheduled.Store(false)
	t.runs.Add(1)

	if err := t.call(); err != nil {
		t.failures.Add(1)
		slog.Error("Trigger: run failed", "trigger", t.name, "error", err)
	}
}

func (t *Trigger) call() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", t.name, r)
		}
	}()
	return t.body()
}
