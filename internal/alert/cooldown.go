package alert

import (
	"sync"
	"time"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

type cooldownKey struct {
	location string
	kind     event.Kind
}

// Cooldown suppresses repeats of the same alert kind at the same location
// within a window. A zero window allows everything.
type Cooldown struct {
	window time.Duration

	mu   sync.Mutex
	last map[cooldownKey]time.Time
}

// NewCooldown creates a Cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   make(map[cooldownKey]time.Time),
	}
}

// Allow reports whether an alert may fire at now and, if so, records it.
func (c *Cooldown) Allow(location string, kind event.Kind, now time.Time) bool {
	if c == nil || c.window <= 0 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cooldownKey{location: location, kind: kind}
	if last, ok := c.last[key]; ok && now.Sub(last) < c.window {
		return false
	}
	c.last[key] = now
	return true
}
