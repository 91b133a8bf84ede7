package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designate/pkg/defs"
)

func TestResolve_Visibility(t *testing.T) {
	h := New()
	tl, err := h.Resolve(defs.ToolDef{Name: "HuntAll", Kind: "hunt", Requires: []string{"hunting"}})
	require.NoError(t, err)

	assert.Equal(t, "HuntAll", tl.ID())
	assert.False(t, tl.Visible(), "locked feature hides the tool")

	h.Unlock("hunting")
	assert.True(t, tl.Visible(), "visibility is evaluated on each call")

	assert.False(t, h.Toggle("hunting"))
	assert.False(t, tl.Visible())
	assert.Equal(t, "hunt", h.KindOf("HuntAll"))
}

func TestResolve_UnknownKind(t *testing.T) {
	h := New()
	_, err := h.Resolve(defs.ToolDef{Name: "Mystery", Kind: "teleport"})
	assert.Error(t, err)
}

func TestSelection(t *testing.T) {
	h := New()
	h.Select("HaulUrgently")
	assert.Equal(t, "HaulUrgently", h.SelectedTool())

	h.Deselect()
	assert.Equal(t, "", h.SelectedTool())
	assert.Equal(t, "HaulUrgently", h.LastSelectedTool())

	h.Select("FinishOff")
	h.SetMapActive(false)
	assert.False(t, h.Active())
	assert.Equal(t, "", h.SelectedTool(), "leaving the map clears the selection")
	assert.Equal(t, 2, h.Snapshot().Selections)
}

func TestApplyAll_Limit(t *testing.T) {
	h := New()
	h.SetTargets("hunt", 300)

	assert.Equal(t, 300, h.ApplyAll("hunt"))

	h.SetSelectionLimit(func() int { return 200 })
	assert.Equal(t, 200, h.ApplyAll("hunt"))
	assert.Equal(t, 0, h.ApplyAll("forbid"))

	assert.Equal(t, 500, h.Designations("hunt"))
	assert.Equal(t, map[string]int{"hunt": 500, "forbid": 0}, h.Snapshot().Designations)
}

func TestSnapshot_Unlocked(t *testing.T) {
	h := New()
	h.Unlock("mining")
	h.Unlock("hunting")
	h.Lock("mining")
	h.Unlock("melee")

	assert.Equal(t, []string{"hunting", "melee"}, h.Snapshot().Unlocked)
	assert.True(t, h.Snapshot().MapActive)
}
