package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bnema/audiochunk/internal/domain"
	"github.com/bnema/audiochunk/internal/service"
)

type EventSource interface {
	Subscribe(jobID string) chan service.Event
	Unsubscribe(jobID string, ch chan service.Event)
}

const keepAliveInterval = 15 * time.Second

type SSEHandler struct {
	events    EventSource
	status    StatusQuerier
	keepAlive time.Duration
}

func NewSSEHandler(events EventSource, status StatusQuerier) *SSEHandler {
	return &SSEHandler{
		events:    events,
		status:    status,
		keepAlive: keepAliveInterval,
	}
}

// sseWrite writes an SSE event, handling multi-line data correctly.
func sseWrite(w http.ResponseWriter, eventName string, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendSnapshot emits a "status" event unless it would repeat last. It
// returns the payload that is now current on the client.
func sendSnapshot(w http.ResponseWriter, snap domain.StatusSnapshot, last string) (string, error) {
	payload, err := json.Marshal(statusBody(snap))
	if err != nil {
		return last, err
	}
	if string(payload) == last {
		return last, nil
	}
	sseWrite(w, "status", string(payload))
	return string(payload), nil
}

// Events streams status snapshots of one job until it reaches a terminal
// state or the client goes away.
func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobID")
		ctx := r.Context()

		// Subscribe first so no transition between the query and the loop is lost.
		ch := h.events.Subscribe(id)
		defer h.events.Unsubscribe(id, ch)

		snap, err := h.status.Query(ctx, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		last, err := sendSnapshot(w, snap, "")
		if err != nil || snap.State.IsTerminal() {
			return
		}

		keepAlive := time.NewTicker(h.keepAlive)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case event, ok := <-ch:
				if !ok {
					return
				}
				// Re-query so the payload matches what polling would return.
				snap, err := h.status.Query(ctx, id)
				if err != nil {
					return
				}
				if event.Terminal() && !snap.State.IsTerminal() {
					snap = snapshotFromEvent(event)
				}
				if last, err = sendSnapshot(w, snap, last); err != nil {
					return
				}
				if snap.State.IsTerminal() {
					return
				}
			}
		}
	}
}

// snapshotFromEvent covers a terminal event whose record update was lost.
func snapshotFromEvent(e service.Event) domain.StatusSnapshot {
	snap := domain.StatusSnapshot{JobID: e.JobID, State: e.State}
	switch e.State {
	case domain.JobStateCompleted:
		snap.Outputs = e.Outputs
	case domain.JobStateFailed:
		snap.Error = e.Message
	}
	return snap
}
