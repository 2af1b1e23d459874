package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"genremap/pkg/models"
)

// keepAliveInterval is how often an idle event stream sends a comment line
const keepAliveInterval = 15 * time.Second

// handleEvents streams a view after every state change as server-sent events.
// The current view is sent first. Slow clients are dropped by the explorer and
// their stream ends.
func (es *ExplorerServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		es.respondWithError(w, r, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}

	updates := es.explorer.Subscribe()
	defer es.explorer.Unsubscribe(updates)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial := es.explorer.View()
	if err := writeEvent(w, &initial); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case view, ok := <-updates:
			if !ok {
				es.logger.WithField("request_id", RequestID(r.Context())).Debug("Event listener dropped")
				return
			}
			if err := writeEvent(w, view); err != nil {
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one view as a "view" event
func writeEvent(w http.ResponseWriter, view *models.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: view\ndata: %s\n\n", data)
	return err
}
