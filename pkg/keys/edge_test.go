package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeTracker_Observe(t *testing.T) {
	h := MustParse("h")
	k := MustParse("k")

	tests := []struct {
		name   string
		events []Event
		want   []bool
	}{
		{
			name:   "SinglePress",
			events: []Event{Press(h)},
			want:   []bool{true},
		},
		{
			name:   "HeldKeyDoesNotRepeat",
			events: []Event{Press(h), Press(h), Press(h)},
			want:   []bool{true, false, false},
		},
		{
			name:   "ReleaseRearms",
			events: []Event{Press(h), Release(h), Press(h)},
			want:   []bool{true, false, true},
		},
		{
			name:   "IndependentKeys",
			events: []Event{Press(h), Press(k), Press(h)},
			want:   []bool{true, true, false},
		},
		{
			name:   "HeldBySourceDoesNotBlockOthers",
			events: []Event{Press(h).From("ws-a"), Press(h).From("ws-b"), Press(h).From("ws-a")},
			want:   []bool{true, true, false},
		},
		{
			name:   "ReleaseOnlyRearmsOwnSource",
			events: []Event{Press(h).From("a"), Press(h).From("b"), Release(h).From("a"), Press(h).From("b"), Press(h).From("a")},
			want:   []bool{true, true, false, false, true},
		},
		{
			name:   "NoneIgnored",
			events: []Event{Press(None)},
			want:   []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewEdgeTracker()
			for i, ev := range tt.events {
				assert.Equal(t, tt.want[i], tr.Observe(ev), "event %d (%v)", i, ev)
			}
		})
	}
}

func TestEdgeTracker_JustPressed(t *testing.T) {
	h := MustParse("h")
	tr := NewEdgeTracker()

	assert.False(t, tr.JustPressed(h))
	tr.Observe(Press(h))
	assert.True(t, tr.JustPressed(h))
	assert.True(t, tr.Held(h))

	// A repeat clears the edge but the key stays held.
	tr.Observe(Press(h))
	assert.False(t, tr.JustPressed(h))
	assert.True(t, tr.Held(h))
}

func TestEdgeTracker_Reset(t *testing.T) {
	h := MustParse("h")
	tr := NewEdgeTracker()

	assert.True(t, tr.Observe(Press(h)))
	tr.Reset()
	assert.False(t, tr.Held(h))
	assert.True(t, tr.Observe(Press(h)), "reset should re-arm held keys")
}

func TestEdgeTracker_HeldBy(t *testing.T) {
	h := MustParse("h")
	tr := NewEdgeTracker()

	tr.Observe(Press(h).From("client"))
	assert.True(t, tr.HeldBy("client", h))
	assert.False(t, tr.HeldBy("http", h))
	assert.True(t, tr.Held(h))

	tr.Observe(Release(h).From("http"))
	assert.True(t, tr.HeldBy("client", h), "a release from another source leaves the key held")

	tr.Observe(Release(h).From("client"))
	assert.False(t, tr.Held(h))
}
