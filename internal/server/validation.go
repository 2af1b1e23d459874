package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"genremap/internal/explorer"

	"github.com/sirupsen/logrus"
)

// maxRequestBody bounds control request bodies
const maxRequestBody = 4 << 10

// playbackActions lists the transport buttons
var playbackActions = map[string]bool{
	"toggle": true,
	"play":   true,
	"pause":  true,
	"prev":   true,
	"next":   true,
}

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// GenreRequest selects a genre overlay; an empty genre clears it
type GenreRequest struct {
	Genre string `json:"genre"`
}

// OpacityRequest moves the blend slider
type OpacityRequest struct {
	Value *int `json:"value"`
}

// ElementsRequest toggles the annotation layer
type ElementsRequest struct {
	Visible *bool `json:"visible"`
}

// InspectRequest is a click on the map in display coordinates
type InspectRequest struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
	PageX         float64 `json:"page_x"`
	PageY         float64 `json:"page_y"`
}

// Click converts the request for the explorer
func (r InspectRequest) Click() explorer.Click {
	return explorer.Click{
		X:             r.X,
		Y:             r.Y,
		DisplayWidth:  r.DisplayWidth,
		DisplayHeight: r.DisplayHeight,
		PageX:         r.PageX,
		PageY:         r.PageY,
	}
}

// respondWithValidationError sends a structured validation error response
func (es *ExplorerServer) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	es.logger.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"errors":     errors,
		"request_id": RequestID(r.Context()),
	}).Warn("Validation failed")

	result := ValidationResult{
		Valid:  false,
		Errors: errors,
	}

	es.respondJSON(w, http.StatusBadRequest, result)
}

// respondWithError sends a structured error response
func (es *ExplorerServer) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := es.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
		"request_id":  RequestID(r.Context()),
	})

	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	response := map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	}

	es.respondJSON(w, statusCode, response)
}

// respondJSON writes v as a JSON body with the given status
func (es *ExplorerServer) respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		es.logger.WithError(err).Warn("Failed to encode response")
	}
}

// decodeRequest reads a bounded JSON body into v
func (es *ExplorerServer) decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) *ValidationError {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return &ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("Invalid JSON: %v", err),
			Code:    "INVALID_JSON",
		}
	}
	return nil
}

// validateGenreKey checks a selector key. Unknown keys are allowed and clear
// the selection.
func validateGenreKey(key string) *ValidationError {
	if len(key) > 64 {
		return &ValidationError{
			Field:   "genre",
			Message: "Genre key too long (max 64 characters)",
			Code:    "GENRE_TOO_LONG",
		}
	}

	if strings.ContainsAny(key, "\x00\n\r") {
		return &ValidationError{
			Field:   "genre",
			Message: "Genre key contains invalid characters",
			Code:    "INVALID_GENRE_CHARACTERS",
		}
	}

	return nil
}

// validateOpacity requires a slider value between 0 and 100
func validateOpacity(value *int) *ValidationError {
	if value == nil {
		return &ValidationError{
			Field:   "value",
			Message: "Opacity value is required",
			Code:    "MISSING_OPACITY",
		}
	}

	if *value < 0 || *value > 100 {
		return &ValidationError{
			Field:   "value",
			Message: "Opacity must be between 0 and 100",
			Code:    "INVALID_OPACITY_VALUE",
		}
	}

	return nil
}

// validateElements requires the visibility flag
func validateElements(visible *bool) *ValidationError {
	if visible == nil {
		return &ValidationError{
			Field:   "visible",
			Message: "Visibility flag is required",
			Code:    "MISSING_VISIBLE",
		}
	}
	return nil
}

// validateClick checks click coordinates and the displayed image size
func validateClick(req InspectRequest) []ValidationError {
	var errs []ValidationError

	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	if !finite(req.X) || !finite(req.Y) || req.X < 0 || req.Y < 0 {
		errs = append(errs, ValidationError{
			Field:   "x,y",
			Message: "Click coordinates must be non-negative numbers",
			Code:    "INVALID_CLICK_POSITION",
		})
	}

	if !finite(req.DisplayWidth) || !finite(req.DisplayHeight) || req.DisplayWidth <= 0 || req.DisplayHeight <= 0 {
		errs = append(errs, ValidationError{
			Field:   "display_width,display_height",
			Message: "Displayed image size must be positive",
			Code:    "INVALID_DISPLAY_SIZE",
		})
	}

	if !finite(req.PageX) || !finite(req.PageY) {
		errs = append(errs, ValidationError{
			Field:   "page_x,page_y",
			Message: "Page coordinates must be numbers",
			Code:    "INVALID_PAGE_POSITION",
		})
	}

	return errs
}

// validatePlaybackAction parses the action from /api/playback/{action}
func validatePlaybackAction(pathParts []string, minParts int) (string, *ValidationError) {
	if len(pathParts) < minParts || pathParts[minParts-1] == "" {
		return "", &ValidationError{
			Field:   "action",
			Message: "Playback action is required",
			Code:    "MISSING_PLAYBACK_ACTION",
		}
	}

	action := strings.ToLower(pathParts[minParts-1])
	if !playbackActions[action] {
		return "", &ValidationError{
			Field:   "action",
			Message: fmt.Sprintf("Unknown playback action: %s", action),
			Code:    "INVALID_PLAYBACK_ACTION",
		}
	}

	return action, nil
}

// sanitizeInput sanitizes user input to prevent injection attacks
func sanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
