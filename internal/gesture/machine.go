// Package gesture debounces per-frame distress signals into SOS triggers.
//
// A Machine counts rising edges of the signal inside a time window. When the
// window has run longer than the timeframe it fires if enough edges were seen
// and then starts over.
package gesture

import (
	"sync"
	"time"
)

// Default tuning.
const (
	DefaultThreshold = 3
	DefaultTimeframe = 10 * time.Second
)

// Session is the observable state of a Machine.
type Session struct {
	WindowStart time.Time // zero when no window is open
	Count       int       // rising edges seen in the open window
	Active      bool      // whether the previous observation was signalling
}

// Open reports whether a counting window is in progress.
func (s Session) Open() bool {
	return !s.WindowStart.IsZero()
}

// Machine is the per-region gesture state machine. The zero value is not
// usable; create one with NewMachine.
type Machine struct {
	threshold int
	timeframe time.Duration
	clock     Clock

	mu      sync.Mutex
	session Session
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// NewMachine creates a Machine that fires after threshold rising edges within
// a window longer than timeframe. Non-positive values fall back to defaults.
func NewMachine(threshold int, timeframe time.Duration, opts ...Option) *Machine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if timeframe <= 0 {
		timeframe = DefaultTimeframe
	}
	m := &Machine{
		threshold: threshold,
		timeframe: timeframe,
		clock:     RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Observe feeds one observation and reports whether an SOS fired.
//
// The first observation opens the window. A false-to-true transition counts
// as one edge. Once the window is older than the timeframe the machine fires
// if the count reached the threshold, and in either case closes the window
// and clears the count. Active survives the reset, so a signal held across
// the boundary is not counted again.
func (m *Machine) Observe(signal bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	s := &m.session

	if s.WindowStart.IsZero() {
		s.WindowStart = now
	}

	if signal && !s.Active {
		s.Count++
		s.Active = true
	} else if !signal && s.Active {
		s.Active = false
	}

	if now.Sub(s.WindowStart) <= m.timeframe {
		return false
	}

	fired := s.Count >= m.threshold
	s.WindowStart = time.Time{}
	s.Count = 0
	return fired
}

// Session returns a snapshot of the current state.
func (m *Machine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Threshold returns the number of edges needed to fire.
func (m *Machine) Threshold() int {
	return m.threshold
}

// Timeframe returns the window length.
func (m *Machine) Timeframe() time.Duration {
	return m.timeframe
}
