// Package layers keeps the image stack of the genre map: decoration and data
// base layers, the optional genre overlay and the annotation elements.
package layers

import (
	"genremap/internal/assets"
	"genremap/internal/palette"
	"genremap/pkg/models"
)

// Layer ids as exposed to the page
const (
	DecorationID = "decoration"
	DataID       = "data"
	ElementsID   = "elements"
	OverlayID    = "genre"
)

// base map opacity with a genre selected and the slider at 0
const minBaseOpacity = 0.3

type overlay struct {
	genre palette.Genre
	src   string
}

// Stack is the layer stack controller. It is not safe for concurrent use;
// callers serialize access.
type Stack struct {
	resolver assets.Resolver

	decorationSrc string
	dataSrc       string
	elementsSrc   string

	overlay *overlay
	genre   *palette.Genre
	step    assets.Step
	decade  string

	opacity               int
	elementsVisible       bool
	opacityControlVisible bool
}

// New creates a stack showing the given step, with the slider at 0, the
// elements layer hidden and no genre selected.
func New(resolver assets.Resolver, start assets.Step) *Stack {
	s := &Stack{
		resolver:    resolver,
		elementsSrc: resolver.Elements(),
	}
	s.decorationSrc = resolver.Decoration(start)
	s.dataSrc = resolver.Data(start)
	s.step = start
	s.decade = start.Decade
	return s
}

// SetStep shows a timeline step. The decoration image only follows exact
// decades; interpolated steps keep the last decade's decoration.
func (s *Stack) SetStep(step assets.Step) {
	s.step = step
	s.decade = step.Decade
	s.dataSrc = s.resolver.Data(step)
	if step.IsDecade() {
		s.decorationSrc = s.resolver.Decoration(step)
	}

	s.overlay = nil
	if s.genre != nil {
		s.overlay = &overlay{genre: *s.genre, src: s.resolver.Overlay(step, s.genre.Key)}
	}
}

// SetGenre selects a genre, or clears the selection when genre is nil. A new
// overlay is built from the given decade.
func (s *Stack) SetGenre(genre *palette.Genre, decade assets.Step) {
	s.overlay = nil
	if genre == nil {
		s.genre = nil
		s.opacityControlVisible = false
		return
	}

	g := *genre
	s.genre = &g
	s.overlay = &overlay{genre: g, src: s.resolver.Overlay(decade, g.Key)}
	s.opacityControlVisible = true
}

// SetOpacity sets the blend slider, clamped to [0,100]
func (s *Stack) SetOpacity(value int) {
	switch {
	case value < 0:
		value = 0
	case value > 100:
		value = 100
	}
	s.opacity = value
}

// SetElementsVisible toggles the annotation layer
func (s *Stack) SetElementsVisible(visible bool) {
	s.elementsVisible = visible
}

// OverlayOpacity is 1 at slider 0 and fades to 0 at slider 100
func (s *Stack) OverlayOpacity() float64 {
	return 1 - float64(s.opacity)/100
}

// BaseOpacity is the data layer opacity. Without a genre the base map is
// opaque; with one it stays at least minBaseOpacity so it remains legible.
func (s *Stack) BaseOpacity() float64 {
	if s.genre == nil {
		return 1
	}
	return minBaseOpacity + (1-minBaseOpacity)*float64(s.opacity)/100
}

// Genre returns the selected genre
func (s *Stack) Genre() (palette.Genre, bool) {
	if s.genre == nil {
		return palette.Genre{}, false
	}
	return *s.genre, true
}

// Step returns the step currently displayed
func (s *Stack) Step() assets.Step {
	return s.step
}

// Decade returns the decade of the displayed step
func (s *Stack) Decade() string {
	return s.decade
}

// DataSrc returns the source of the displayed data image
func (s *Stack) DataSrc() string {
	return s.dataSrc
}

// Layers renders the stack bottom to top
func (s *Stack) Layers() []models.Image {
	out := []models.Image{
		{ID: DecorationID, Src: s.decorationSrc, Alt: "Decoration", Opacity: 1, Visible: true},
		{ID: DataID, Src: s.dataSrc, Alt: "Data", Opacity: s.BaseOpacity(), Visible: true},
		{ID: ElementsID, Src: s.elementsSrc, Alt: "Elements", Opacity: 1, Visible: s.elementsVisible},
	}
	if s.overlay != nil {
		out = append(out, models.Image{
			ID:      OverlayID,
			Src:     s.overlay.src,
			Alt:     s.overlay.genre.Key,
			Opacity: s.OverlayOpacity(),
			Visible: true,
		})
	}
	return out
}

// Controls renders the control state owned by the stack
func (s *Stack) Controls() models.Controls {
	c := models.Controls{
		Opacity:               s.opacity,
		OpacityControlVisible: s.opacityControlVisible,
		ElementsVisible:       s.elementsVisible,
	}
	if s.genre != nil {
		c.SelectedGenre = s.genre.Key
	}
	return c
}
