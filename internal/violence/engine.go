// Package violence turns one frame's classified tracks into a verdict.
package violence

import (
	"image"
	"sort"
	"time"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/labels"
)

// Frame is the classified content of one frame. Tracks without an entry in
// Genders were not classified and take no part in the verdict.
type Frame struct {
	Tracks  map[int]image.Rectangle
	Genders map[int]labels.Gender
	Actions map[int]labels.Action
}

// Verdict is the per-frame outcome.
type Verdict struct {
	ViolenceAgainstWoman bool
	LoneFemale           bool
	MaleCount            int
	FemaleCount          int
	Timestamp            time.Time
	Location             string

	// Pair holds the male and female track ids of the pair that raised the
	// violence flag. Both are zero when no pair did.
	Pair [2]int
}

// Any reports whether the verdict calls for an alert.
func (v Verdict) Any() bool {
	return v.ViolenceAgainstWoman || v.LoneFemale
}

// Engine evaluates frames. The zero value uses LiteralLoneFemale.
type Engine struct {
	LoneFemale LoneFemaleRule
}

// NewEngine creates an Engine with the given lone female rule.
func NewEngine(rule LoneFemaleRule) *Engine {
	return &Engine{LoneFemale: rule}
}

// Infer computes the verdict for one frame. It keeps no state between calls.
func (e *Engine) Infer(f Frame, location string, ts time.Time) Verdict {
	v := Verdict{
		Timestamp: ts,
		Location:  location,
	}

	ids := classifiedIDs(f)
	for _, id := range ids {
		switch f.Genders[id] {
		case labels.Male:
			v.MaleCount++
		case labels.Female:
			v.FemaleCount++
		}
	}

	if male, female, ok := violentPair(f, ids); ok {
		v.ViolenceAgainstWoman = true
		v.Pair = [2]int{male, female}
	} else if v.FemaleCount > 0 && fighting(f, ids) {
		v.ViolenceAgainstWoman = true
	}

	rule := e.LoneFemale
	if rule == nil {
		rule = LiteralLoneFemale
	}
	v.LoneFemale = rule(v.MaleCount, v.FemaleCount)

	return v
}

// classifiedIDs returns the ids of tracks that have a gender, ascending.
func classifiedIDs(f Frame) []int {
	ids := make([]int, 0, len(f.Tracks))
	for id := range f.Tracks {
		if _, ok := f.Genders[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// violentPair scans unordered pairs in ascending id order and returns the
// first male/female pair whose male is acting violently.
func violentPair(f Frame, ids []int) (male, female int, ok bool) {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			ga, gb := f.Genders[a], f.Genders[b]
			if ga == gb {
				continue
			}
			male, female = a, b
			if ga == labels.Female {
				male, female = b, a
			}
			action, classified := f.Actions[male]
			if classified && action.Violent() {
				return male, female, true
			}
		}
	}
	return 0, 0, false
}

func fighting(f Frame, ids []int) bool {
	for _, id := range ids {
		if action, ok := f.Actions[id]; ok && action == labels.TwoPeopleFighting {
			return true
		}
	}
	return false
}
