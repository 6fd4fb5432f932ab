package vision

import (
	"sync"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/labels"
)

// Smoother replaces each track's per-frame labels with the majority of its
// last Window labels. Tracks absent from a frame are forgotten. With a window
// of 1 or less it passes states through unchanged.
type Smoother struct {
	window int

	mu      sync.Mutex
	history map[int][]PersonState
}

// NewSmoother creates a Smoother over the last window frames.
func NewSmoother(window int) *Smoother {
	return &Smoother{
		window:  window,
		history: make(map[int][]PersonState),
	}
}

// Smooth records states and returns the smoothed labels.
func (s *Smoother) Smooth(states map[int]PersonState) map[int]PersonState {
	if s == nil || s.window <= 1 {
		return states
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.history {
		if _, ok := states[id]; !ok {
			delete(s.history, id)
		}
	}

	out := make(map[int]PersonState, len(states))
	for id, st := range states {
		h := append(s.history[id], st)
		if len(h) > s.window {
			h = h[len(h)-s.window:]
		}
		s.history[id] = h
		out[id] = majority(h)
	}
	return out
}

// majority picks the most frequent action and gender independently. Ties go
// to the most recent label.
func majority(h []PersonState) PersonState {
	actions := make(map[labels.Action]int)
	genders := make(map[labels.Gender]int)

	best := h[len(h)-1]
	for _, st := range h {
		actions[st.Action]++
		genders[st.Gender]++
	}
	for i := len(h) - 1; i >= 0; i-- {
		if actions[h[i].Action] > actions[best.Action] {
			best.Action = h[i].Action
		}
		if genders[h[i].Gender] > genders[best.Gender] {
			best.Gender = h[i].Gender
		}
	}
	return best
}
