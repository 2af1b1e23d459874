package server

import (
	"errors"
	"net/http"
	"path/filepath"

	"genremap/internal/palette"
	"genremap/internal/stats"
	"genremap/pkg/models"

	"github.com/sirupsen/logrus"
)

// ViewResponse is returned by every control endpoint
type ViewResponse struct {
	Applied bool        `json:"applied"`
	View    models.View `json:"view"`
}

// TooltipResponse answers a statistics lookup for one genre and decade
type TooltipResponse struct {
	Genre  string   `json:"genre"`
	Decade string   `json:"decade"`
	Lines  []string `json:"lines"`
}

// handleHome serves the page from the configured static dir.
func (es *ExplorerServer) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(es.config.Server.StaticDir, "index.html"))
}

// handleGetView returns the rendered explorer state.
func (es *ExplorerServer) handleGetView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	es.respondJSON(w, http.StatusOK, es.explorer.View())
}

// handleGetStats returns the statistics document, or the tooltip lines for
// one genre when ?genre= is given. The decade defaults to the one on screen.
func (es *ExplorerServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	store := es.explorer.Store()
	if !store.Loaded() {
		es.respondWithError(w, r, http.StatusServiceUnavailable, "Statistics not loaded", stats.ErrNotLoaded)
		return
	}

	genre := sanitizeInput(r.URL.Query().Get("genre"))
	if genre == "" {
		es.respondJSON(w, http.StatusOK, store.Document())
		return
	}
	// selector keys are accepted as well as display names
	if g, ok := palette.Lookup(genre); ok {
		genre = g.Name
	}

	decade := sanitizeInput(r.URL.Query().Get("decade"))
	if decade == "" {
		decade = es.explorer.View().Playback.Decade
	}

	tip, err := store.Tooltip(genre, decade)
	switch {
	case errors.Is(err, stats.ErrInvalidDecade):
		es.respondWithValidationError(w, r, []ValidationError{{
			Field:   "decade",
			Message: "Decade must be a number",
			Code:    "INVALID_DECADE",
		}})
		return
	case err != nil:
		es.respondWithError(w, r, http.StatusNotFound, "No statistics for genre", err)
		return
	}

	es.respondJSON(w, http.StatusOK, TooltipResponse{
		Genre:  genre,
		Decade: decade,
		Lines:  tip.Lines(),
	})
}

// handleSelectGenre applies the genre selector.
func (es *ExplorerServer) handleSelectGenre(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req GenreRequest
	if verr := es.decodeRequest(w, r, &req); verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}
	if verr := validateGenreKey(req.Genre); verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	view := es.explorer.SelectGenre(sanitizeInput(req.Genre))
	es.respondJSON(w, http.StatusOK, ViewResponse{Applied: true, View: view})
}

// handleSetOpacity applies the blend slider.
func (es *ExplorerServer) handleSetOpacity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req OpacityRequest
	if verr := es.decodeRequest(w, r, &req); verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}
	if verr := validateOpacity(req.Value); verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	view := es.explorer.SetOpacity(*req.Value)
	es.respondJSON(w, http.StatusOK, ViewResponse{Applied: true, View: view})
}

// handleSetElements applies the annotation checkbox.
func (es *ExplorerServer) handleSetElements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req ElementsRequest
	if verr := es.decodeRequest(w, r, &req); verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}
	if verr := validateElements(req.Visible); verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	view := es.explorer.SetElementsVisible(*req.Visible)
	es.respondJSON(w, http.StatusOK, ViewResponse{Applied: true, View: view})
}

// handleInspect looks up the genre under a click on the map.
func (es *ExplorerServer) handleInspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req InspectRequest
	if verr := es.decodeRequest(w, r, &req); verr != nil {
		es.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}
	if errs := validateClick(req); len(errs) > 0 {
		es.respondWithValidationError(w, r, errs)
		return
	}

	view := es.explorer.Inspect(req.Click())
	es.logger.WithFields(logrus.Fields{
		"x":       req.X,
		"y":       req.Y,
		"visible": view.InfoBox.Visible,
		"genre":   view.InfoBox.Genre,
	}).Debug("Map inspected")

	es.respondJSON(w, http.StatusOK, ViewResponse{Applied: true, View: view})
}
