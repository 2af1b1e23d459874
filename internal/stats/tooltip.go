package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotAvailable marks a metric that is missing from the document
const NotAvailable = "N/A"

// Tooltip is the summary shown for a clicked genre region
type Tooltip struct {
	Genre       string `json:"genre"`
	Decade      int    `json:"decade"`
	TotalSongs  string `json:"totalSongs"`
	DecadeSongs string `json:"decadeSongs"`
	MeanEnergy  string `json:"meanEnergy"`
	MeanValence string `json:"meanValence"`
}

// Lines returns the tooltip as display lines
func (t Tooltip) Lines() []string {
	return []string{
		"Genre: " + t.Genre,
		"Total songs: " + t.TotalSongs,
		fmt.Sprintf("Total decade %d: %s", t.Decade, t.DecadeSongs),
		"Mean energy: " + t.MeanEnergy,
		"Mean valence: " + t.MeanValence,
	}
}

// Text joins the display lines with newlines
func (t Tooltip) Text() string {
	return strings.Join(t.Lines(), "\n")
}

// DecadeKey normalizes a decade label to the document's float key, e.g.
// "1980" becomes "1980.0".
func DecadeKey(label string) (string, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDecade, label)
	}
	return strconv.FormatFloat(v, 'f', 1, 64), nil
}

// Tooltip builds the summary for genre in the decade named by label.
// Per-decade metrics fall back to the genre's aggregate values.
func (d *Document) Tooltip(genre, label string) (Tooltip, error) {
	global, ok := d.Genres[genre]
	if !ok {
		return Tooltip{}, fmt.Errorf("no statistics for genre %q", genre)
	}

	key, err := DecadeKey(label)
	if err != nil {
		return Tooltip{}, err
	}
	year, _ := strconv.ParseFloat(key, 64)

	var local Summary
	if byGenre, ok := d.Decades[key]; ok {
		local = byGenre[genre]
	}

	return Tooltip{
		Genre:       genre,
		Decade:      int(year),
		TotalSongs:  formatCount(global.NumSongs),
		DecadeSongs: formatCount(local.NumSongs),
		MeanEnergy:  formatMean(local.AvgEnergy, global.AvgEnergy),
		MeanValence: formatMean(local.AvgValence, global.AvgValence),
	}, nil
}

// Tooltip builds the summary from the loaded document
func (s *Store) Tooltip(genre, label string) (Tooltip, error) {
	doc := s.Document()
	if doc == nil {
		return Tooltip{}, ErrNotLoaded
	}
	return doc.Tooltip(genre, label)
}

// a zero count is reported the same as a missing one
func formatCount(n *int) string {
	if n == nil || *n == 0 {
		return NotAvailable
	}
	return strconv.Itoa(*n)
}

func formatMean(local, global *float64) string {
	v := local
	if v == nil {
		v = global
	}
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
