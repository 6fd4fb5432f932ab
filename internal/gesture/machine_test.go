package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestMachine() (*Machine, *ManualClock) {
	clock := NewManualClock(epoch)
	return NewMachine(3, 10*time.Second, WithClock(clock)), clock
}

// feed observes each signal one second apart and returns how many fired.
func feed(m *Machine, clock *ManualClock, signals ...bool) int {
	fired := 0
	for _, s := range signals {
		if m.Observe(s) {
			fired++
		}
		clock.Advance(time.Second)
	}
	return fired
}

func TestMachine_ThreeEdgesFireOnceAtExpiry(t *testing.T) {
	m, clock := newTestMachine()

	fired := feed(m, clock, true, false, true, false, true)
	assert.Zero(t, fired, "must not fire before the window expires")
	assert.Equal(t, 3, m.Session().Count)

	clock.Advance(6 * time.Second) // window is now 11s old
	assert.True(t, m.Observe(false))

	s := m.Session()
	assert.False(t, s.Open())
	assert.Zero(t, s.Count)

	// The next window starts from scratch.
	assert.False(t, m.Observe(false))
	assert.True(t, m.Session().Open())
}

func TestMachine_HeldSignalCountsOnce(t *testing.T) {
	m, clock := newTestMachine()

	fired := feed(m, clock, true, true, true)
	assert.Zero(t, fired)
	assert.Equal(t, 1, m.Session().Count)

	clock.Advance(10 * time.Second)
	assert.False(t, m.Observe(true), "one edge is below the threshold")
	assert.Zero(t, m.Session().Count)
}

func TestMachine_ActiveSurvivesReset(t *testing.T) {
	m, clock := newTestMachine()

	m.Observe(true)
	clock.Advance(11 * time.Second)
	require.False(t, m.Observe(true))

	s := m.Session()
	assert.True(t, s.Active)
	assert.False(t, s.Open())

	// Still holding the signal: a new window opens but nothing is counted.
	m.Observe(true)
	assert.Zero(t, m.Session().Count)

	m.Observe(false)
	m.Observe(true)
	assert.Equal(t, 1, m.Session().Count)
}

func TestMachine_WindowBoundary(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"exactly timeframe", 10 * time.Second, false},
		{"just past timeframe", 10*time.Second + time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewManualClock(epoch)
			m := NewMachine(3, 10*time.Second, WithClock(clock))
			for i := 0; i < 3; i++ {
				m.Observe(true)
				m.Observe(false)
			}
			clock.Advance(tt.elapsed)
			assert.Equal(t, tt.want, m.Observe(false))
		})
	}
}

func TestMachine_FewEdgesResetWithoutFiring(t *testing.T) {
	m, clock := newTestMachine()

	assert.Zero(t, feed(m, clock, true, false, true, false))
	clock.Advance(10 * time.Second)
	assert.False(t, m.Observe(false))
	assert.Zero(t, m.Session().Count)
}

func TestNewMachine_Defaults(t *testing.T) {
	m := NewMachine(0, 0)
	assert.Equal(t, DefaultThreshold, m.Threshold())
	assert.Equal(t, DefaultTimeframe, m.Timeframe())
}
