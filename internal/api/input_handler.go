package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"designate/pkg/keys"
)

// InputHandler accepts key events over HTTP and websocket.
type InputHandler struct {
	queue    *InputQueue
	upgrader websocket.Upgrader
}

// NewInputHandler creates a new handler. Returns nil if the queue is missing.
func NewInputHandler(queue *InputQueue) *InputHandler {
	if queue == nil {
		return nil
	}
	return &InputHandler{
		queue: queue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// InputRequest is one key transition sent by a remote host.
type InputRequest struct {
	Key  string `json:"key"`
	Down *bool  `json:"down,omitempty"`
}

// events parses the request. A missing down field means a full tap.
func (r InputRequest) events() ([]keys.Event, error) {
	k, err := keys.Parse(r.Key)
	if err != nil {
		return nil, err
	}
	if r.Down == nil {
		return []keys.Event{keys.Press(k), keys.Release(k)}, nil
	}
	return []keys.Event{{Key: k, Down: *r.Down}}, nil
}

// HandlePost queues a key event for the next frame.
func (h *InputHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	evs, err := req.events()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, ev := range evs {
		h.queue.Push(ev, "http")
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": len(evs)})
}

// HandleWS upgrades to a websocket. Inbound messages are InputRequests;
// outbound messages are Outbound values for every dispatch result.
func (h *InputHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("API: websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	out := h.queue.Subscribe(id)
	slog.Info("API: input client connected", "client", id, "remote", r.RemoteAddr)

	done := make(chan struct{})
	go h.writeLoop(conn, out, done)

	held := h.readLoop(conn, id)

	// A client that drops while holding keys never sends the releases.
	for k := range held {
		h.queue.Push(keys.Release(k), id)
	}

	h.queue.Unsubscribe(id)
	<-done
	_ = conn.Close()
	slog.Info("API: input client disconnected", "client", id)
}

// readLoop queues inbound events until the connection ends and returns the
// keys the client still holds.
func (h *InputHandler) readLoop(conn *websocket.Conn, id string) (held map[keys.Key]bool) {
	held = make(map[keys.Key]bool)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("API: websocket read loop panicked", "client", id, "panic", r)
		}
	}()

	conn.SetReadLimit(1 << 10)
	for {
		var req InputRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("API: websocket read failed", "client", id, "error", err)
			}
			return
		}
		evs, err := req.events()
		if err != nil {
			h.queue.Send(id, Outbound{Type: "error", Error: err.Error()})
			continue
		}
		for _, ev := range evs {
			if ev.Down {
				held[ev.Key] = true
			} else {
				delete(held, ev.Key)
			}
			h.queue.Push(ev, id)
		}
	}
}

func (h *InputHandler) writeLoop(conn *websocket.Conn, out <-chan Outbound, done chan<- struct{}) {
	defer close(done)
	for msg := range out {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			slog.Debug("API: websocket write failed", "error", err)
			// Keep draining until Unsubscribe closes the channel.
			continue
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
