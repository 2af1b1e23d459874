package server

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// handlePlayback drives the transport buttons: /api/playback/{toggle|play|pause|prev|next}.
// Prev and next are ignored while playing and report applied=false.
func (es *ExplorerServer) handlePlayback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	action, verr := validatePlaybackAction(pathParts, 3)
	if verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	resp := ViewResponse{Applied: true}
	switch action {
	case "toggle":
		resp.View = es.explorer.TogglePlay()
	case "play":
		resp.View = es.explorer.Play()
	case "pause":
		resp.View = es.explorer.Pause()
	case "prev":
		resp.View, resp.Applied = es.explorer.Prev()
	case "next":
		resp.View, resp.Applied = es.explorer.Next()
	}

	es.logger.WithFields(logrus.Fields{
		"action":  action,
		"applied": resp.Applied,
		"step":    resp.View.Playback.Step,
		"playing": resp.View.Playback.IsPlaying,
	}).Debug("Playback control")

	es.respondJSON(w, http.StatusOK, resp)
}
