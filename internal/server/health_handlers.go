package server

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Uptime     string                 `json:"uptime"`
	Statistics string                 `json:"statistics"`
	Images     string                 `json:"images"`
	Records    int                    `json:"totalRecords"`
	Listeners  int                    `json:"listeners"`
	Playing    bool                   `json:"playing"`
	Step       string                 `json:"step"`
	PublicURL  string                 `json:"publicUrl,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks. Statistics
// still loading only degrade the status; a missing image directory is fatal.
func (es *ExplorerServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	state := es.explorer.Playback()

	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Uptime:     time.Since(es.startedAt).Round(time.Second).String(),
		Statistics: "ok",
		Images:     "ok",
		Listeners:  es.explorer.Listeners(),
		Playing:    state.IsPlaying(),
		Step:       state.Step.Folder(),
		PublicURL:  es.ngrokService.GetPublicURL(),
		Details:    make(map[string]interface{}),
	}

	if doc := es.explorer.Store().Document(); doc != nil {
		health.Records = doc.Metadata.TotalRecords
	} else {
		health.Status = "degraded"
		health.Statistics = "not_loaded"
		health.Details["statistics_source"] = es.explorer.Store().Source()
	}

	if err := es.checkImageDir(); err != nil {
		health.Status = "unhealthy"
		health.Images = "error"
		health.Details["images_error"] = err.Error()
	}

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}

	es.respondJSON(w, code, health)
}

// checkImageDir validates the image directory is a readable directory.
func (es *ExplorerServer) checkImageDir() error {
	info, err := os.Stat(es.config.Assets.ImageDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", es.config.Assets.ImageDir)
	}
	return nil
}
