package assets

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Layer identifies one image in the layer stack
type Layer string

const (
	LayerDecoration Layer = "decoration"
	LayerData       Layer = "data"
	LayerOverlay    Layer = "genre"
	LayerElements   Layer = "elements"
)

const (
	decorationFile = "genre_map_decoration.png"
	dataFile       = "genre_map_data.png"
	elementsFile   = "common/elements.png"
	interpPrefix   = "interpolated_"
)

// Step is one frame of the timeline: an exact decade or an interpolated
// sub-frame between Decade and the following decade.
type Step struct {
	Decade        string `json:"decade"`
	Interpolation int    `json:"interpolation,omitempty"`
}

// IsDecade reports whether the step is an exact decade
func (s Step) IsDecade() bool {
	return s.Interpolation == 0
}

// Folder returns the asset folder for the step, e.g. "1980" or "1980/interpolated_2"
func (s Step) Folder() string {
	if s.IsDecade() {
		return s.Decade
	}
	return fmt.Sprintf("%s/%s%d", s.Decade, interpPrefix, s.Interpolation)
}

func (s Step) String() string {
	return s.Folder()
}

// ParseStep parses a folder string produced by Folder
func ParseStep(folder string) (Step, error) {
	decade, rest, found := strings.Cut(folder, "/")
	if decade == "" {
		return Step{}, fmt.Errorf("empty step %q", folder)
	}
	if !found {
		return Step{Decade: decade}, nil
	}
	if !strings.HasPrefix(rest, interpPrefix) {
		return Step{}, fmt.Errorf("invalid interpolation folder %q", folder)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(rest, interpPrefix))
	if err != nil || n <= 0 {
		return Step{}, fmt.Errorf("invalid interpolation index in %q", folder)
	}
	return Step{Decade: decade, Interpolation: n}, nil
}

// Resolver maps steps and layers to image paths below Root.
// Root is joined with forward slashes so results can be used both as
// URL paths and, after filepath.FromSlash, as file paths.
type Resolver struct {
	Root string
}

// NewResolver creates a resolver rooted at the given asset prefix
func NewResolver(root string) Resolver {
	return Resolver{Root: strings.TrimSuffix(root, "/")}
}

// Resolve returns the image path for a layer at a step. Interpolation folders
// only hold data images, so decoration and overlay resolve against the
// step's decade. genreKey is only used for LayerOverlay.
func (r Resolver) Resolve(step Step, layer Layer, genreKey string) string {
	switch layer {
	case LayerData:
		return path.Join(r.Root, step.Folder(), dataFile)
	case LayerDecoration:
		return path.Join(r.Root, step.Decade, decorationFile)
	case LayerOverlay:
		return path.Join(r.Root, step.Decade, genreKey+".png")
	case LayerElements:
		return path.Join(r.Root, elementsFile)
	}
	return ""
}

// Data is shorthand for Resolve(step, LayerData, "")
func (r Resolver) Data(step Step) string {
	return r.Resolve(step, LayerData, "")
}

// Decoration is shorthand for Resolve(step, LayerDecoration, "")
func (r Resolver) Decoration(step Step) string {
	return r.Resolve(step, LayerDecoration, "")
}

// Overlay is shorthand for Resolve(step, LayerOverlay, genreKey)
func (r Resolver) Overlay(step Step, genreKey string) string {
	return r.Resolve(step, LayerOverlay, genreKey)
}

// Elements returns the decade-independent annotation image
func (r Resolver) Elements() string {
	return r.Resolve(Step{}, LayerElements, "")
}
