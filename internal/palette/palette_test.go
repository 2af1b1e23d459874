package palette

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		color     RGB
		tolerance int
		wantKey   string
		wantFound bool
	}{
		{"exact classical", RGB{33, 120, 181}, ClickTolerance, "Classical", true},
		{"near folk", RGB{60, 170, 40}, ClickTolerance, "Folk_Country", true},
		{"exact metal", RGB{151, 106, 190}, 0, "Metal", true},
		{"black", RGB{0, 0, 0}, ClickTolerance, "", false},
		{"white", RGB{255, 255, 255}, ClickTolerance, "", false},
		{"outside tight tolerance", RGB{40, 120, 181}, 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := Classify(tt.color, tt.tolerance)
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantKey, g.Key)
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// Pop & Rock and Metal are within 50 of this color on every channel, but
	// Pop & Rock comes first.
	c := RGB{152, 105, 140}
	assert.True(t, Similar(c, RGB{151, 106, 190}, ClickTolerance))

	g, ok := Classify(c, ClickTolerance)
	assert.True(t, ok)
	assert.Equal(t, "Pop_Rock", g.Key)
}

func TestLookup(t *testing.T) {
	g, ok := Lookup("Indie_Asian_Jazz")
	assert.True(t, ok)
	assert.Equal(t, "Indie / Asian / Jazz", g.Name)

	_, ok = Lookup("Polka")
	assert.False(t, ok)
	_, ok = Lookup("")
	assert.False(t, ok)
}

func TestSelectableCoversPalette(t *testing.T) {
	sel := Selectable()
	assert.Len(t, sel, 7)
	assert.Equal(t, "Classical", sel[0].Key)
	assert.Equal(t, "Urban_Latin", sel[6].Key)
	assert.ElementsMatch(t, Palette(), sel)
}

func TestFromColor(t *testing.T) {
	assert.Equal(t, RGB{33, 120, 181}, FromColor(color.RGBA{33, 120, 181, 255}))
	assert.Equal(t, RGB{1, 2, 3}, FromColor(color.NRGBA{1, 2, 3, 10}))
	assert.Equal(t, "33,120,181", RGB{33, 120, 181}.String())
}
