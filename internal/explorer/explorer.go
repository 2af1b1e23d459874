// Package explorer binds the page controls to the layer stack, the playback
// machine and the statistics store, and renders the resulting view.
package explorer

import (
	"context"
	"errors"
	"sync"
	"time"

	"genremap/internal/assets"
	"genremap/internal/layers"
	"genremap/internal/palette"
	"genremap/internal/player"
	"genremap/internal/stats"
	"genremap/pkg/models"

	"github.com/sirupsen/logrus"
)

// infoBoxOffset places the info box next to the pointer
const infoBoxOffset = 10

// Config carries the explorer dependencies
type Config struct {
	Timeline  *assets.Timeline
	Resolver  assets.Resolver
	Store     *stats.Store
	Sampler   *Sampler
	Logger    *logrus.Logger
	Tolerance int
	Interval  time.Duration
	Scheduler player.Scheduler
}

// Explorer owns the whole explorer state. Lock order is machine, then
// explorer: the machine applies steps while holding its own lock, so
// methods never hold e.mutex while calling into the machine.
type Explorer struct {
	timeline  *assets.Timeline
	store     *stats.Store
	sampler   *Sampler
	logger    *logrus.Logger
	tolerance int
	machine   *player.Machine

	mutex     sync.Mutex
	stack     *layers.Stack
	playback  player.State
	infoBox   models.InfoBox
	listeners []chan *models.View
}

// New creates an explorer showing the first decade, stopped
func New(cfg Config) *Explorer {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = palette.ClickTolerance
	}

	e := &Explorer{
		timeline:  cfg.Timeline,
		store:     cfg.Store,
		sampler:   cfg.Sampler,
		logger:    cfg.Logger,
		tolerance: cfg.Tolerance,
		stack:     layers.New(cfg.Resolver, cfg.Timeline.First()),
		listeners: make([]chan *models.View, 0),
	}

	opts := []player.Option{player.WithLogger(cfg.Logger), player.WithInterval(cfg.Interval)}
	if cfg.Scheduler != nil {
		opts = append(opts, player.WithScheduler(cfg.Scheduler))
	}
	e.machine = player.NewMachine(cfg.Timeline, e, opts...)
	e.playback = e.machine.GetState()
	return e
}

// Apply shows a step chosen by the playback machine
func (e *Explorer) Apply(state player.State) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.observeLocked(state)
	e.stack.SetStep(state.Step)
	e.notifyListeners()
}

// observeLocked records a machine snapshot unless a newer one was seen
func (e *Explorer) observeLocked(state player.State) {
	if state.Version >= e.playback.Version {
		e.playback = state
	}
}

// sync pulls the machine state after a transition that applied no step
func (e *Explorer) sync() models.View {
	state := e.machine.GetState()

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.observeLocked(state)
	e.notifyListeners()
	return e.renderLocked()
}

// View renders the current state
func (e *Explorer) View() models.View {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return e.renderLocked()
}

// Playback returns the machine state
func (e *Explorer) Playback() player.State {
	return e.machine.GetState()
}

// Timeline returns the playback timeline
func (e *Explorer) Timeline() *assets.Timeline {
	return e.timeline
}

// Store returns the statistics store
func (e *Explorer) Store() *stats.Store {
	return e.store
}

// Sampler returns the image sampler
func (e *Explorer) Sampler() *Sampler {
	return e.sampler
}

// SelectGenre selects a genre by selector key. Unknown keys clear the
// selection. The overlay restarts at the first decade of the range.
func (e *Explorer) SelectGenre(key string) models.View {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	var selected *palette.Genre
	if g, ok := palette.Lookup(key); ok {
		selected = &g
	}
	e.stack.SetGenre(selected, e.timeline.First())

	e.logger.WithField("genre", key).Debug("Genre selected")
	e.notifyListeners()
	return e.renderLocked()
}

// SetOpacity moves the blend slider (0 to 100)
func (e *Explorer) SetOpacity(value int) models.View {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.stack.SetOpacity(value)
	e.notifyListeners()
	return e.renderLocked()
}

// SetElementsVisible toggles the annotation layer
func (e *Explorer) SetElementsVisible(visible bool) models.View {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.stack.SetElementsVisible(visible)
	e.notifyListeners()
	return e.renderLocked()
}

// TogglePlay is the play/pause button
func (e *Explorer) TogglePlay() models.View {
	status := e.machine.Toggle()
	e.logger.WithField("status", status).Debug("Playback toggled")
	return e.sync()
}

// Play starts playback if stopped
func (e *Explorer) Play() models.View {
	e.machine.Play()
	return e.sync()
}

// Pause stops playback if playing
func (e *Explorer) Pause() models.View {
	e.machine.Pause()
	return e.sync()
}

// Next steps forward; it reports false while playing
func (e *Explorer) Next() (models.View, bool) {
	ok := e.machine.Next()
	return e.View(), ok
}

// Prev steps back; it reports false while playing
func (e *Explorer) Prev() (models.View, bool) {
	ok := e.machine.Prev()
	return e.View(), ok
}

// Inspect looks up the genre under a click on the data layer. Clicks on no
// known color hide the info box. A known genre without loaded statistics
// leaves the info box untouched.
func (e *Explorer) Inspect(click Click) models.View {
	e.mutex.Lock()
	src := e.stack.DataSrc()
	decade := e.stack.Decade()
	e.mutex.Unlock()

	rgb, err := e.sampler.Sample(src, click)
	if err != nil {
		e.logger.WithError(err).WithField("src", src).Warn("Could not sample data layer")
	}

	genre, found := palette.Classify(rgb, e.tolerance)

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !found {
		e.infoBox = models.InfoBox{}
		e.notifyListeners()
		return e.renderLocked()
	}

	tip, err := e.store.Tooltip(genre.Name, decade)
	if err != nil {
		if !errors.Is(err, stats.ErrNotLoaded) {
			e.logger.WithError(err).WithField("genre", genre.Name).Debug("No statistics for genre")
		}
		return e.renderLocked()
	}

	e.infoBox = models.InfoBox{
		Visible: true,
		Genre:   genre.Name,
		Lines:   tip.Lines(),
		Left:    int(click.PageX) + infoBoxOffset,
		Top:     int(click.PageY) + infoBoxOffset,
	}
	e.notifyListeners()
	return e.renderLocked()
}

// ReloadStats reloads the statistics document, keeping the old one on failure
func (e *Explorer) ReloadStats(ctx context.Context) error {
	return e.store.Load(ctx)
}

// Close stops playback
func (e *Explorer) Close() {
	e.machine.Pause()
}

func (e *Explorer) renderLocked() models.View {
	playing := e.playback.IsPlaying()
	step := e.stack.Step()

	controls := e.stack.Controls()
	controls.PlayActive = playing
	controls.PrevDisabled = playing
	controls.NextDisabled = playing

	return models.View{
		Layers:   e.stack.Layers(),
		Controls: controls,
		Playback: models.Playback{
			Index:     e.playback.Index,
			Length:    e.timeline.Len(),
			Step:      step.Folder(),
			Decade:    e.stack.Decade(),
			IsPlaying: playing,
		},
		InfoBox:   e.infoBox,
		UpdatedAt: time.Now(),
	}
}
