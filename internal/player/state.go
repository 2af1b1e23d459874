package player

import (
	"sync"
	"time"

	"genremap/internal/assets"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the delay between two animation frames
const DefaultInterval = 800 * time.Millisecond

// Status is the playback machine state
type Status string

const (
	Stopped Status = "stopped"
	Playing Status = "playing"
)

// State is a snapshot of the playback machine. Index is the cursor of the
// next frame to show; Step is the frame most recently applied. Version grows
// with every transition so observers can discard stale snapshots.
type State struct {
	Index     int         `json:"index"`
	Length    int         `json:"length"`
	Status    Status      `json:"status"`
	Step      assets.Step `json:"step"`
	Version   uint64      `json:"version"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// IsPlaying reports whether the animation loop is running
func (s State) IsPlaying() bool {
	return s.Status == Playing
}

// Applier receives the machine state every time a step is shown. state.Step
// is the step to display.
type Applier interface {
	Apply(state State)
}

// ApplierFunc adapts a function to Applier
type ApplierFunc func(state State)

// Apply calls f(state)
func (f ApplierFunc) Apply(state State) {
	f(state)
}

// Timer is a pending tick
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Machine is the playback state machine driving the layer stack over a
// circular timeline. Steps are applied while the machine lock is held, so
// Applier implementations must not call back into the Machine.
type Machine struct {
	timeline  *assets.Timeline
	applier   Applier
	scheduler Scheduler
	interval  time.Duration
	logger    *logrus.Logger

	mutex      sync.Mutex
	state      State
	generation uint64
	timer      Timer
}

// Option customizes a Machine
type Option func(*Machine)

// WithInterval sets the frame delay
func WithInterval(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithScheduler replaces the wall clock scheduler
func WithScheduler(s Scheduler) Option {
	return func(m *Machine) {
		m.scheduler = s
	}
}

// WithLogger sets the logger used for transitions
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// NewMachine creates a stopped machine at index 0
func NewMachine(timeline *assets.Timeline, applier Applier, opts ...Option) *Machine {
	m := &Machine{
		timeline:  timeline,
		applier:   applier,
		scheduler: clockScheduler{},
		interval:  DefaultInterval,
		logger:    logrus.StandardLogger(),
		state: State{
			Length:    timeline.Len(),
			Status:    Stopped,
			Step:      timeline.At(0),
			UpdatedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetState returns a copy of the current state
func (m *Machine) GetState() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.state
}

// Interval returns the frame delay
func (m *Machine) Interval() time.Duration {
	return m.interval
}

// Play starts the animation loop. The current step is applied right away and
// the next tick is scheduled one interval later. Returns false if already
// playing.
func (m *Machine) Play() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state.IsPlaying() {
		return false
	}

	m.generation++
	m.state.Status = Playing
	m.touchLocked()
	m.logger.WithField("index", m.state.Index).Debug("Playback started")

	m.tickLocked(m.generation)
	return true
}

// Pause stops the loop. A tick that is already due finds the machine stopped
// and does nothing; the display keeps the last applied step. Returns false if
// not playing.
func (m *Machine) Pause() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.state.IsPlaying() {
		return false
	}

	m.state.Status = Stopped
	m.touchLocked()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.logger.WithField("index", m.state.Index).Debug("Playback paused")
	return true
}

// Toggle switches between playing and stopped, returning the new status
func (m *Machine) Toggle() Status {
	if m.Pause() {
		return Stopped
	}
	m.Play()
	return Playing
}

// Next moves one step forward and applies it. Ignored while playing.
func (m *Machine) Next() bool {
	return m.move(1)
}

// Prev moves one step back and applies it. Ignored while playing.
func (m *Machine) Prev() bool {
	return m.move(-1)
}

func (m *Machine) move(delta int) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state.IsPlaying() {
		return false
	}

	m.state.Index = m.timeline.Wrap(m.state.Index + delta)
	m.applyLocked(m.timeline.At(m.state.Index))
	return true
}

func (m *Machine) tick(gen uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.tickLocked(gen)
}

// tickLocked shows the current step, advances the cursor and schedules the
// following tick. A tick from an earlier play session, or one arriving after
// a pause, ends the loop.
func (m *Machine) tickLocked(gen uint64) {
	if !m.state.IsPlaying() || gen != m.generation {
		return
	}

	step := m.timeline.At(m.state.Index)
	m.state.Index = m.timeline.Wrap(m.state.Index + 1)
	m.applyLocked(step)

	m.timer = m.scheduler.AfterFunc(m.interval, func() {
		m.tick(gen)
	})
}

func (m *Machine) applyLocked(step assets.Step) {
	m.state.Step = step
	m.touchLocked()
	if m.applier != nil {
		m.applier.Apply(m.state)
	}
}

func (m *Machine) touchLocked() {
	m.state.Version++
	m.state.UpdatedAt = time.Now()
}
