package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"designate/pkg/contextmenu"
	"designate/pkg/designator"
	"designate/pkg/host"
	"designate/pkg/registry"
	"designate/pkg/store"
)

// ToolsHandler exposes the registry, the host state and rebuild history.
type ToolsHandler struct {
	ctrl     *designator.Controller
	menus    *contextmenu.Controller
	host     *host.Host
	rebuilds store.RebuildLogStore
}

// NewToolsHandler creates a new handler. Returns nil if the controller is
// missing. The other collaborators are optional.
func NewToolsHandler(ctrl *designator.Controller, menus *contextmenu.Controller, h *host.Host, rebuilds store.RebuildLogStore) *ToolsHandler {
	if ctrl == nil {
		return nil
	}
	return &ToolsHandler{ctrl: ctrl, menus: menus, host: h, rebuilds: rebuilds}
}

// ToolResponse is one registry entry.
type ToolResponse struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	Kind              string `json:"kind"`
	Hotkey            string `json:"hotkey"`
	EnabledInSettings bool   `json:"enabled_in_settings"`
	Visible           bool   `json:"visible"`
	Enabled           bool   `json:"enabled"`
}

// ToolsResponse is the registry snapshot.
type ToolsResponse struct {
	Generation     uint64         `json:"generation"`
	Rebuilds       int64          `json:"rebuilds"`
	FailedRebuilds int64          `json:"failed_rebuilds"`
	Pending        bool           `json:"pending"`
	Tools          []ToolResponse `json:"tools"`
}

// HandleList returns the registry in dispatch order.
func (h *ToolsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	reg := h.ctrl.Registry()
	resp := ToolsResponse{
		Generation:     reg.Generation(),
		Rebuilds:       h.ctrl.Rebuilds(),
		FailedRebuilds: h.ctrl.FailedRebuilds(),
		Pending:        h.ctrl.RebuildPending(),
		Tools:          make([]ToolResponse, 0, reg.Len()),
	}
	reg.ForEach(func(e registry.Entry) bool {
		visible := e.Visible()
		resp.Tools = append(resp.Tools, ToolResponse{
			ID:                e.ID,
			Label:             e.Label,
			Kind:              e.Kind,
			Hotkey:            e.Hotkey.String(),
			EnabledInSettings: e.EnabledInSettings,
			Visible:           visible,
			Enabled:           e.EnabledInSettings && visible,
		})
		return true
	})
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet returns a single active tool.
func (h *ToolsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := h.ctrl.FindEntry(id)
	if !ok {
		writeError(w, http.StatusNotFound, "tool not active: "+id)
		return
	}
	writeJSON(w, http.StatusOK, ToolResponse{
		ID:                e.ID,
		Label:             e.Label,
		Kind:              e.Kind,
		Hotkey:            e.Hotkey.String(),
		EnabledInSettings: e.EnabledInSettings,
		Visible:           e.Visible(),
		Enabled:           h.ctrl.IsEnabled(id),
	})
}

// HandleRebuild requests a registry rebuild on the next frame.
func (h *ToolsHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	scheduled := h.ctrl.RequestRebuild()
	writeJSON(w, http.StatusAccepted, map[string]bool{"scheduled": scheduled})
}

// HandleRebuildLog returns recent rebuild attempts.
func (h *ToolsHandler) HandleRebuildLog(w http.ResponseWriter, r *http.Request) {
	if h.rebuilds == nil {
		writeJSON(w, http.StatusOK, []store.RebuildRecord{})
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := h.rebuilds.RecentRebuilds(r.Context(), limit)
	if err != nil {
		slog.Error("API: failed to read rebuild log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read rebuild log")
		return
	}
	if recs == nil {
		recs = []store.RebuildRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleContextMenu returns the current context menu bindings.
func (h *ToolsHandler) HandleContextMenu(w http.ResponseWriter, r *http.Request) {
	if h.menus == nil {
		writeJSON(w, http.StatusOK, []contextmenu.Binding{})
		return
	}
	bindings := h.menus.BoundTools()
	if bindings == nil {
		bindings = []contextmenu.Binding{}
	}
	writeJSON(w, http.StatusOK, bindings)
}

// HostRequest changes the sandbox host.
type HostRequest struct {
	MapActive *bool          `json:"map_active,omitempty"`
	Unlock    []string       `json:"unlock,omitempty"`
	Lock      []string       `json:"lock,omitempty"`
	Targets   map[string]int `json:"targets,omitempty"`
	Deselect  bool           `json:"deselect,omitempty"`
}

// HandleHost returns the sandbox host state.
func (h *ToolsHandler) HandleHost(w http.ResponseWriter, r *http.Request) {
	if h.host == nil {
		writeError(w, http.StatusNotFound, "no sandbox host")
		return
	}
	writeJSON(w, http.StatusOK, h.host.Snapshot())
}

// HandleHostUpdate applies a HostRequest. Visibility is evaluated on each
// input, so no rebuild is needed.
func (h *ToolsHandler) HandleHostUpdate(w http.ResponseWriter, r *http.Request) {
	if h.host == nil {
		writeError(w, http.StatusNotFound, "no sandbox host")
		return
	}
	var req HostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MapActive != nil {
		h.host.SetMapActive(*req.MapActive)
	}
	for _, f := range req.Unlock {
		h.host.Unlock(f)
	}
	for _, f := range req.Lock {
		h.host.Lock(f)
	}
	for kind, n := range req.Targets {
		h.host.SetTargets(kind, n)
	}
	if req.Deselect {
		h.host.Deselect()
	}
	writeJSON(w, http.StatusOK, h.host.Snapshot())
}
