// Package palette holds the fixed genre set and the click color classifier.
package palette

import (
	"fmt"
	"image/color"
)

// ClickTolerance is the per-channel tolerance used for pointer lookups
const ClickTolerance = 50

// RGB is an 8-bit color triple
type RGB [3]uint8

func (c RGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c[0], c[1], c[2])
}

// Genre is one of the seven genre clusters on the map
type Genre struct {
	Key   string `json:"key"`  // asset suffix and selector value
	Name  string `json:"name"` // display name, also the statistics key
	Color RGB    `json:"color"`
}

// classification order; earlier entries win when colors overlap
var palette = []Genre{
	{Key: "Classical", Name: "Classical", Color: RGB{33, 120, 181}},
	{Key: "Folk_Country", Name: "Folk & Country", Color: RGB{51, 162, 50}},
	{Key: "Indie_Asian_Jazz", Name: "Indie / Asian / Jazz", Color: RGB{214, 41, 42}},
	{Key: "Urban_Latin", Name: "Urban & Latin", Color: RGB{233, 151, 208}},
	{Key: "Electronic", Name: "Electronic", Color: RGB{250, 134, 32}},
	{Key: "Pop_Rock", Name: "Pop & Rock", Color: RGB{152, 104, 94}},
	{Key: "Metal", Name: "Metal", Color: RGB{151, 106, 190}},
}

var selectorOrder = []string{
	"Classical", "Electronic", "Folk_Country", "Indie_Asian_Jazz", "Metal", "Pop_Rock", "Urban_Latin",
}

// Palette returns the genres in classification order
func Palette() []Genre {
	return append([]Genre(nil), palette...)
}

// Selectable returns the genres in the order the selector lists them
func Selectable() []Genre {
	out := make([]Genre, 0, len(selectorOrder))
	for _, key := range selectorOrder {
		g, _ := Lookup(key)
		out = append(out, g)
	}
	return out
}

// Lookup finds a genre by selector key
func Lookup(key string) (Genre, bool) {
	for _, g := range palette {
		if g.Key == key {
			return g, true
		}
	}
	return Genre{}, false
}

// Similar reports whether every channel of a and b differs by at most tolerance
func Similar(a, b RGB, tolerance int) bool {
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		if d > tolerance {
			return false
		}
	}
	return true
}

// Classify returns the first palette genre within tolerance of c. The scan
// stops at the first hit, it does not look for the closest color.
func Classify(c RGB, tolerance int) (Genre, bool) {
	for _, g := range palette {
		if Similar(c, g.Color, tolerance) {
			return g, true
		}
	}
	return Genre{}, false
}

// FromColor converts any color to an 8-bit RGB triple, ignoring alpha
func FromColor(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{n.R, n.G, n.B}
}
