package server

import (
	"net/http"

	"genremap/internal/palette"
)

// ConfigResponse represents the public configuration sent to the frontend
type ConfigResponse struct {
	Genres             []GenreOption `json:"genres"`
	Decades            []string      `json:"decades"`
	Steps              []string      `json:"steps"`
	InterpolationSteps int           `json:"interpolation_steps"`
	IntervalMillis     int           `json:"interval_ms"`
	Tolerance          int           `json:"tolerance"`
	ImagePrefix        string        `json:"image_prefix"`
	PublicURL          string        `json:"public_url,omitempty"`
}

// GenreOption is one entry of the genre selector
type GenreOption struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// handleGetConfig returns the selector options and the timeline for the frontend.
// It is also served as /api/genres.
func (es *ExplorerServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		es.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	timeline := es.explorer.Timeline()

	genres := make([]GenreOption, 0, len(palette.Selectable()))
	for _, g := range palette.Selectable() {
		genres = append(genres, GenreOption{Key: g.Key, Name: g.Name, Color: g.Color.String()})
	}

	steps := make([]string, 0, timeline.Len())
	for _, step := range timeline.Steps() {
		steps = append(steps, step.Folder())
	}

	es.respondJSON(w, http.StatusOK, ConfigResponse{
		Genres:             genres,
		Decades:            timeline.Decades(),
		Steps:              steps,
		InterpolationSteps: es.config.Assets.InterpolationSteps,
		IntervalMillis:     es.config.Playback.IntervalMillis,
		Tolerance:          es.config.Inspect.Tolerance,
		ImagePrefix:        es.imagePrefix(),
		PublicURL:          es.ngrokService.GetPublicURL(),
	})
}
