package keys

import "sync"

// Event is a raw key transition delivered by a host. Source names the input
// that produced it; each source has its own held-key state.
type Event struct {
	Key    Key    `json:"key"`
	Down   bool   `json:"down"`
	Source string `json:"source,omitempty"`
}

// From returns ev attributed to source.
func (ev Event) From(source string) Event {
	ev.Source = source
	return ev
}

// Press returns a key-down event for k.
func Press(k Key) Event { return Event{Key: k, Down: true} }

// Release returns a key-up event for k.
func Release(k Key) Event { return Event{Key: k} }

type heldKey struct {
	source string
	key    Key
}

// EdgeTracker turns raw transitions into just-pressed edges.
// A key fires once when it goes from up to down; further downs while it is
// held are ignored until an up event re-arms it. Held state is kept per
// source, so a key held by one input never swallows another input's press.
type EdgeTracker struct {
	mu      sync.Mutex
	held    map[heldKey]bool
	current Key
}

// NewEdgeTracker creates an empty tracker.
func NewEdgeTracker() *EdgeTracker {
	return &EdgeTracker{held: make(map[heldKey]bool)}
}

// Observe records ev and reports whether it is a fresh key-down edge.
func (t *EdgeTracker) Observe(ev Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = None
	if ev.Key.IsNone() {
		return false
	}
	hk := heldKey{source: ev.Source, key: ev.Key}
	if !ev.Down {
		delete(t.held, hk)
		return false
	}
	if t.held[hk] {
		return false
	}
	t.held[hk] = true
	t.current = ev.Key
	return true
}

// JustPressed reports whether k produced the most recent edge.
func (t *EdgeTracker) JustPressed(k Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !k.IsNone() && t.current == k
}

// Held reports whether any source holds k down.
func (t *EdgeTracker) Held(k Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for hk := range t.held {
		if hk.key == k {
			return true
		}
	}
	return false
}

// HeldBy reports whether source holds k down.
func (t *EdgeTracker) HeldBy(source string, k Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.held[heldKey{source: source, key: k}]
}

// Reset forgets all held keys. Hosts that never deliver release events
// (terminals) call it once per frame so each keystroke is a new edge.
func (t *EdgeTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.held)
	t.current = None
}
