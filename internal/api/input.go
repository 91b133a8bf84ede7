package api

import (
	"log/slog"
	"sync"

	"designate/pkg/dispatch"
	"designate/pkg/keys"
	"designate/pkg/tracker"
)

// Outbound is a message pushed to input subscribers.
type Outbound struct {
	Type   string           `json:"type"`
	Source string           `json:"source,omitempty"`
	Result *dispatch.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

type queuedEvent struct {
	ev     keys.Event
	source string
}

// InputQueue hands key events from request goroutines to the loop thread and
// fans dispatch results out to subscribers.
type InputQueue struct {
	mu      sync.Mutex
	pending []queuedEvent
	subs    map[string]chan Outbound
	dropped int
	tracker *tracker.Tracker
}

// subscriberBuffer bounds per-client backlog; slow clients lose messages.
const subscriberBuffer = 32

// NewInputQueue creates an empty queue.
func NewInputQueue() *InputQueue {
	return &InputQueue{subs: make(map[string]chan Outbound)}
}

// Push queues ev for the next Drain, attributed to source.
func (q *InputQueue) Push(ev keys.Event, source string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, queuedEvent{ev: ev.From(source), source: source})
}

// SetTracker records the outcome of every drained key press in tr.
func (q *InputQueue) SetTracker(tr *tracker.Tracker) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracker = tr
}

// Len returns the number of queued events.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs handle for every queued event in arrival order and publishes
// every result other than ResultNone. It must be called from the loop thread.
func (q *InputQueue) Drain(handle func(keys.Event) dispatch.Result) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	tr := q.tracker
	q.mu.Unlock()

	for _, item := range batch {
		res := handle(item.ev)
		if tr != nil && item.ev.Down {
			tr.Track(item.source, res.Kind)
		}
		if res.Kind == dispatch.ResultNone {
			continue
		}
		q.Publish(Outbound{Type: "result", Source: item.source, Result: &res})
	}
	return len(batch)
}

// Subscribe registers a subscriber and returns its channel.
func (q *InputQueue) Subscribe(id string) <-chan Outbound {
	ch := make(chan Outbound, subscriberBuffer)
	q.mu.Lock()
	q.subs[id] = ch
	q.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (q *InputQueue) Unsubscribe(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if ch, ok := q.subs[id]; ok {
		delete(q.subs, id)
		close(ch)
	}
}

// Publish sends msg to every subscriber without blocking.
func (q *InputQueue) Publish(msg Outbound) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, ch := range q.subs {
		select {
		case ch <- msg:
		default:
			q.dropped++
			slog.Debug("API: dropping message for slow subscriber", "client", id)
		}
	}
}

// Send delivers msg to one subscriber without blocking.
func (q *InputQueue) Send(id string, msg Outbound) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if ch, ok := q.subs[id]; ok {
		select {
		case ch <- msg:
		default:
			q.dropped++
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (q *InputQueue) Subscribers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}
