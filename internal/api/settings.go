package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"designate/pkg/config"
	"designate/pkg/core"
)

// SettingsHandler reads and writes persisted settings.
type SettingsHandler struct {
	prov     *config.UnifiedProvider
	deferrer core.Deferrer
	onChange func()
}

// NewSettingsHandler creates a new handler. onChange runs on the loop thread
// after a successful write. Returns nil if the provider is missing.
func NewSettingsHandler(prov *config.UnifiedProvider, deferrer core.Deferrer, onChange func()) *SettingsHandler {
	if prov == nil {
		return nil
	}
	return &SettingsHandler{prov: prov, deferrer: deferrer, onChange: onChange}
}

// SettingsResponse is the full settings view.
type SettingsResponse struct {
	Settings       []config.Value `json:"settings"`
	SelectionLimit int            `json:"selection_limit"`
}

// HandleGet lists settings. ?hidden=1 includes hidden handles.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	includeHidden := r.URL.Query().Get("hidden") == "1"
	writeJSON(w, http.StatusOK, SettingsResponse{
		Settings:       h.prov.List(r.Context(), includeHidden),
		SelectionLimit: h.prov.SelectionLimit(r.Context()),
	})
}

// HandlePost applies a partial update such as {"showHuntAll": false}.
// The whole request is validated before anything is written.
func (h *SettingsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "no settings given")
		return
	}

	bools := make(map[string]bool)
	limit := -1
	for key, val := range raw {
		if key == config.KeySelectionLimit {
			var n int
			if err := json.Unmarshal(val, &n); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: expected integer", key))
				return
			}
			limit = n
			continue
		}
		if _, ok := h.prov.Lookup(key); !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", key, config.ErrUnknownSetting))
			return
		}
		var b bool
		if err := json.Unmarshal(val, &b); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: expected boolean", key))
			return
		}
		bools[key] = b
	}

	ctx := r.Context()
	keys := make([]string, 0, len(bools))
	for k := range bools {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := h.prov.SetBool(ctx, k, bools[k]); err != nil {
			slog.Error("API: failed to save setting", "key", k, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}
	if limit >= 0 {
		if _, err := h.prov.SetSelectionLimit(ctx, limit); err != nil {
			slog.Error("API: failed to save selection limit", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	slog.Info("API: settings updated", "count", len(raw))
	if h.onChange != nil && h.deferrer != nil {
		h.deferrer.RunOnNextUpdate(h.onChange)
	}

	h.HandleGet(w, r)
}
