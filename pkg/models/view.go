package models

import "time"

// Image is one rendered layer of the stack
type Image struct {
	ID      string  `json:"id"`
	Src     string  `json:"src"`
	Alt     string  `json:"alt"`
	Opacity float64 `json:"opacity"`
	Visible bool    `json:"visible"`
}

// Controls mirrors the state of the page controls
type Controls struct {
	SelectedGenre         string `json:"selectedGenre,omitempty"`
	Opacity               int    `json:"opacity"` // slider value, 0 to 100
	OpacityControlVisible bool   `json:"opacityControlVisible"`
	ElementsVisible       bool   `json:"elementsVisible"`
	PlayActive            bool   `json:"playActive"`
	PrevDisabled          bool   `json:"prevDisabled"`
	NextDisabled          bool   `json:"nextDisabled"`
}

// Playback describes the timeline position
type Playback struct {
	Index     int    `json:"index"`
	Length    int    `json:"length"`
	Step      string `json:"step"`
	Decade    string `json:"decade"`
	IsPlaying bool   `json:"isPlaying"`
}

// InfoBox is the click-to-inspect tooltip
type InfoBox struct {
	Visible bool     `json:"visible"`
	Genre   string   `json:"genre,omitempty"`
	Lines   []string `json:"lines,omitempty"`
	Left    int      `json:"left"`
	Top     int      `json:"top"`
}

// View is the full render of the explorer state. Layers are ordered bottom
// to top; the overlay is absent when no genre is selected.
type View struct {
	Layers    []Image   `json:"layers"`
	Controls  Controls  `json:"controls"`
	Playback  Playback  `json:"playback"`
	InfoBox   InfoBox   `json:"infoBox"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Layer returns the layer with the given id
func (v *View) Layer(id string) (Image, bool) {
	for _, l := range v.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Image{}, false
}
