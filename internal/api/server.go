package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"designate/pkg/tracker"
	"designate/pkg/version"
)

// Handlers groups the API handlers. Nil handlers leave their routes
// unregistered.
type Handlers struct {
	Tools    *ToolsHandler
	Settings *SettingsHandler
	Input    *InputHandler
	Stats    *tracker.Tracker
}

// NewServer creates and configures the HTTP server.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(h, shutdown),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers all routes.
func NewMux(h Handlers, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	if h.Tools != nil {
		mux.HandleFunc("GET /api/tools", h.Tools.HandleList)
		mux.HandleFunc("GET /api/tools/{id}", h.Tools.HandleGet)
		mux.HandleFunc("POST /api/tools/rebuild", h.Tools.HandleRebuild)
		mux.HandleFunc("GET /api/rebuilds", h.Tools.HandleRebuildLog)
		mux.HandleFunc("GET /api/contextmenu", h.Tools.HandleContextMenu)
		mux.HandleFunc("GET /api/host", h.Tools.HandleHost)
		mux.HandleFunc("POST /api/host", h.Tools.HandleHostUpdate)
	}

	if h.Settings != nil {
		mux.HandleFunc("GET /api/settings", h.Settings.HandleGet)
		mux.HandleFunc("POST /api/settings", h.Settings.HandlePost)
	}

	if h.Input != nil {
		mux.HandleFunc("POST /api/input", h.Input.HandlePost)
		mux.HandleFunc("GET /ws/input", h.Input.HandleWS)
	}

	if h.Stats != nil {
		mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, StatsResponse{Sources: h.Stats.Snapshot(), Total: h.Stats.Total()})
		})
	}

	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			// Let the response flush first.
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	return mux
}

// StatsResponse is the dispatch outcome summary.
type StatsResponse struct {
	Sources map[string]tracker.SourceStats `json:"sources"`
	Total   tracker.SourceStats            `json:"total"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body. It writes a 400 and returns false on
// failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}
