package explorer

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"genremap/internal/assets"
	"genremap/internal/cache"
	"genremap/internal/player"
	"genremap/internal/stats"
	"genremap/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStats = `{
    "metadata": {"total_records": 10},
    "genres": {
        "Classical": {"num_songs": 300, "avg_energy": 0.21, "avg_valence": 0.33},
        "Metal": {"num_songs": 150, "avg_energy": 0.91, "avg_valence": 0.27}
    },
    "decades": {
        "1990.0": {"Classical": {"num_songs": 12, "avg_energy": 0.25}}
    }
}`

var (
	classicalColor = color.RGBA{33, 120, 181, 255}
	metalColor     = color.RGBA{151, 106, 190, 255}
	blankColor     = color.RGBA{255, 255, 255, 255}
)

type heldScheduler struct {
	mu      sync.Mutex
	pending []func()
}

type heldTimer struct{}

func (heldTimer) Stop() bool { return true }

func (s *heldScheduler) AfterFunc(_ time.Duration, f func()) player.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	return heldTimer{}
}

func (s *heldScheduler) fire() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	f := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()
	f()
}

// writeDataImage writes a 200x100 image: left half colored, right half blank
func writeDataImage(t *testing.T, dir, folder string, left color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if x < 100 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, blankColor)
			}
		}
	}

	path := filepath.Join(dir, filepath.FromSlash(folder), "genre_map_data.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

type fixture struct {
	explorer *Explorer
	sched    *heldScheduler
	store    *stats.Store
	dir      string
}

func newFixture(t *testing.T, loadStats bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	writeDataImage(t, dir, "1980", classicalColor)
	writeDataImage(t, dir, "1980/interpolated_1", metalColor)
	writeDataImage(t, dir, "1990", classicalColor)

	statsPath := filepath.Join(t.TempDir(), "genres_summary.json")
	require.NoError(t, os.WriteFile(statsPath, []byte(testStats), 0644))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := stats.NewStore(statsPath, logger)
	if loadStats {
		require.NoError(t, store.Load(context.Background()))
	}

	tl, err := assets.NewTimeline(assets.DefaultDecades, assets.DefaultInterpolationSteps)
	require.NoError(t, err)

	images := cache.NewImageCache(time.Minute)
	t.Cleanup(images.Close)

	sched := &heldScheduler{}
	e := New(Config{
		Timeline:  tl,
		Resolver:  assets.NewResolver("img"),
		Store:     store,
		Sampler:   NewSampler("img", dir, images),
		Logger:    logger,
		Scheduler: sched,
	})
	t.Cleanup(e.Close)

	return &fixture{explorer: e, sched: sched, store: store, dir: dir}
}

func layer(t *testing.T, v models.View, id string) models.Image {
	t.Helper()
	l, ok := v.Layer(id)
	require.True(t, ok, "layer %s missing", id)
	return l
}

func TestInitialView(t *testing.T) {
	f := newFixture(t, true)
	v := f.explorer.View()

	assert.Len(t, v.Layers, 3)
	assert.Equal(t, "img/1980/genre_map_data.png", layer(t, v, "data").Src)
	assert.False(t, layer(t, v, "elements").Visible)
	assert.False(t, v.Controls.PlayActive)
	assert.False(t, v.Controls.PrevDisabled)
	assert.Equal(t, 25, v.Playback.Length)
	assert.Equal(t, "1980", v.Playback.Decade)
	assert.False(t, v.InfoBox.Visible)
}

func TestSelectGenreUsesFirstDecade(t *testing.T) {
	f := newFixture(t, true)

	f.explorer.Next()
	f.explorer.Next()
	v := f.explorer.SelectGenre("Metal")

	assert.Equal(t, "img/1980/Metal.png", layer(t, v, "genre").Src)
	assert.True(t, v.Controls.OpacityControlVisible)
	assert.InDelta(t, 1.0, layer(t, v, "genre").Opacity, 1e-9)
	assert.InDelta(t, 0.3, layer(t, v, "data").Opacity, 1e-9)

	v = f.explorer.SelectGenre("not-a-genre")
	_, ok := v.Layer("genre")
	assert.False(t, ok)
	assert.False(t, v.Controls.OpacityControlVisible)
	assert.Equal(t, 1.0, layer(t, v, "data").Opacity)
}

func TestSetOpacityAndElements(t *testing.T) {
	f := newFixture(t, true)
	f.explorer.SelectGenre("Classical")

	v := f.explorer.SetOpacity(100)
	assert.InDelta(t, 0.0, layer(t, v, "genre").Opacity, 1e-9)
	assert.InDelta(t, 1.0, layer(t, v, "data").Opacity, 1e-9)

	v = f.explorer.SetElementsVisible(true)
	assert.True(t, layer(t, v, "elements").Visible)
	assert.Equal(t, 100, v.Controls.Opacity)
}

func TestTransportButtons(t *testing.T) {
	f := newFixture(t, true)

	v := f.explorer.TogglePlay()
	assert.True(t, v.Controls.PlayActive)
	assert.True(t, v.Controls.PrevDisabled)
	assert.True(t, v.Controls.NextDisabled)
	assert.Equal(t, 1, v.Playback.Index)

	_, ok := f.explorer.Next()
	assert.False(t, ok, "next is guarded while playing")

	f.sched.fire()
	v = f.explorer.View()
	assert.Equal(t, "1980/interpolated_1", v.Playback.Step)
	assert.Equal(t, "img/1980/interpolated_1/genre_map_data.png", layer(t, v, "data").Src)
	assert.Equal(t, "img/1980/genre_map_decoration.png", layer(t, v, "decoration").Src)

	v = f.explorer.Pause()
	assert.False(t, v.Controls.PlayActive)

	v, ok = f.explorer.Next()
	assert.True(t, ok)
	assert.Equal(t, 3, v.Playback.Index)

	v, ok = f.explorer.Prev()
	assert.True(t, ok)
	assert.Equal(t, 2, v.Playback.Index)
}

func TestInspectShowsTooltip(t *testing.T) {
	f := newFixture(t, true)

	// Displayed at half size: (40, 20) maps to natural (80, 40), inside the
	// classical half.
	v := f.explorer.Inspect(Click{X: 40, Y: 20, DisplayWidth: 100, DisplayHeight: 50, PageX: 140, PageY: 220})

	require.True(t, v.InfoBox.Visible)
	assert.Equal(t, "Classical", v.InfoBox.Genre)
	assert.Equal(t, 150, v.InfoBox.Left)
	assert.Equal(t, 230, v.InfoBox.Top)
	assert.Equal(t, []string{
		"Genre: Classical",
		"Total songs: 300",
		"Total decade 1980: N/A",
		"Mean energy: 0.21",
		"Mean valence: 0.33",
	}, v.InfoBox.Lines)
}

func TestInspectUsesCurrentDecade(t *testing.T) {
	f := newFixture(t, true)
	for i := 0; i < 6; i++ {
		f.explorer.Next()
	}
	require.Equal(t, "1990", f.explorer.View().Playback.Decade)

	v := f.explorer.Inspect(Click{X: 10, Y: 10, DisplayWidth: 200, DisplayHeight: 100})
	require.True(t, v.InfoBox.Visible)
	assert.Equal(t, "Total decade 1990: 12", v.InfoBox.Lines[2])
	assert.Equal(t, "Mean energy: 0.25", v.InfoBox.Lines[3])
	assert.Equal(t, "Mean valence: 0.33", v.InfoBox.Lines[4])
}

func TestInspectHidesOnUnknownColor(t *testing.T) {
	f := newFixture(t, true)

	v := f.explorer.Inspect(Click{X: 10, Y: 10, DisplayWidth: 200, DisplayHeight: 100})
	require.True(t, v.InfoBox.Visible)

	v = f.explorer.Inspect(Click{X: 150, Y: 10, DisplayWidth: 200, DisplayHeight: 100})
	assert.False(t, v.InfoBox.Visible)

	// Outside the image reads as transparent black.
	v = f.explorer.Inspect(Click{X: 500, Y: 10, DisplayWidth: 200, DisplayHeight: 100})
	assert.False(t, v.InfoBox.Visible)
}

func TestInspectWithoutStatsIsSilent(t *testing.T) {
	f := newFixture(t, false)

	v := f.explorer.Inspect(Click{X: 10, Y: 10, DisplayWidth: 200, DisplayHeight: 100})
	assert.False(t, v.InfoBox.Visible)

	require.NoError(t, f.store.Load(context.Background()))
	v = f.explorer.Inspect(Click{X: 10, Y: 10, DisplayWidth: 200, DisplayHeight: 100})
	assert.True(t, v.InfoBox.Visible)
}

func TestInspectMissingImage(t *testing.T) {
	f := newFixture(t, true)
	f.explorer.Prev() // 2020 has no image in the fixture

	v := f.explorer.Inspect(Click{X: 10, Y: 10, DisplayWidth: 200, DisplayHeight: 100})
	assert.False(t, v.InfoBox.Visible)
}

func TestSubscribeReceivesViews(t *testing.T) {
	f := newFixture(t, true)

	ch := f.explorer.Subscribe()
	assert.Equal(t, 1, f.explorer.Listeners())

	f.explorer.SetElementsVisible(true)
	select {
	case v := <-ch:
		assert.True(t, v.Controls.ElementsVisible)
	case <-time.After(time.Second):
		t.Fatal("no view received")
	}

	f.explorer.Unsubscribe(ch)
	assert.Equal(t, 0, f.explorer.Listeners())
	_, open := <-ch
	assert.False(t, open)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	f := newFixture(t, true)

	ch := f.explorer.Subscribe()
	for i := 0; i < 11; i++ {
		f.explorer.SetOpacity(i)
	}
	assert.Equal(t, 0, f.explorer.Listeners())

	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, 10, n)
}

func TestNaturalPoint(t *testing.T) {
	b := image.Rect(0, 0, 800, 600)

	x, y := NaturalPoint(b, Click{X: 199.9, Y: 10, DisplayWidth: 400, DisplayHeight: 300})
	assert.Equal(t, 399, x)
	assert.Equal(t, 20, y)

	x, y = NaturalPoint(b, Click{X: 5, Y: 6})
	assert.Equal(t, 5, x)
	assert.Equal(t, 6, y)
}

func TestSamplerFilePath(t *testing.T) {
	s := NewSampler("/img/", "/srv/assets", nil)
	assert.Equal(t, filepath.Join("/srv/assets", "1980", "genre_map_data.png"), s.FilePath("img/1980/genre_map_data.png"))
	assert.Equal(t, filepath.Join("/srv/assets", "common", "elements.png"), s.FilePath("/img/common/elements.png"))
}
