package core

import (
	"fmt"
	"log/slog"
	"sync"
)

// Deferrer schedules a callback for the next update cycle.
type Deferrer interface {
	RunOnNextUpdate(fn func())
}

// DoLater is a FIFO queue of callbacks executed on the next Update.
// Enqueueing is safe from any goroutine; Update must only be called from the
// loop thread.
type DoLater struct {
	mu      sync.Mutex
	pending []func()
}

// NewDoLater creates an empty queue.
func NewDoLater() *DoLater {
	return &DoLater{}
}

// RunOnNextUpdate implements Deferrer.
func (d *DoLater) RunOnNextUpdate(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
}

// Update runs every callback queued before the call. Callbacks queued while
// draining are left for the next Update.
func (d *DoLater) Update() int {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range batch {
		if err := safeCall(fn); err != nil {
			slog.Error("DoLater: deferred callback failed", "error", err)
		}
	}
	return len(batch)
}

// Pending returns the number of queued callbacks.
func (d *DoLater) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func safeCall(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn()
	return nil
}
