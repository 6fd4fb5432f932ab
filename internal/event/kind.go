// Package event defines the alerts raised by the pipeline. It has no
// image dependencies so that storage and reporting can use it alone.
package event

import (
	"fmt"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/violence"
)

// Kind is the category of an alert.
type Kind int

const (
	ViolenceAgainstWoman Kind = iota
	LoneFemale
	DistressGesture
)

var kindNames = [...]string{
	ViolenceAgainstWoman: "violence_against_women",
	LoneFemale:           "one_female",
	DistressGesture:      "gesture",
}

var kindActions = [...]string{
	ViolenceAgainstWoman: "Violence against a woman",
	LoneFemale:           "Lone female detected",
	DistressGesture:      "SOS gesture",
}

var kindBodies = [...]string{
	ViolenceAgainstWoman: "Alert! Violence against a woman detected. See the attached image.",
	LoneFemale:           "Lone woman detected. See the attached image.",
	DistressGesture:      "SOS Alert! Help required. See the attached image.",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{ViolenceAgainstWoman, LoneFemale, DistressGesture}
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// Category is the evidence directory name of the kind.
func (k Kind) Category() string {
	if !k.valid() {
		return fmt.Sprintf("kind_%d", int(k))
	}
	return kindNames[k]
}

// String returns the category.
func (k Kind) String() string {
	return k.Category()
}

// ActionText is the "Action Detected" column of the violence log.
func (k Kind) ActionText() string {
	if !k.valid() {
		return ""
	}
	return kindActions[k]
}

// Body is the notification text sent with the evidence URL.
func (k Kind) Body() string {
	if !k.valid() {
		return ""
	}
	return kindBodies[k]
}

// MarshalText encodes the kind as its category.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("invalid alert kind %d", int(k))
	}
	return []byte(k.Category()), nil
}

// UnmarshalText parses a category.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind maps a category name back to its kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown alert kind %q", s)
}

// KindForVerdict picks the alert a verdict calls for. Violence wins over a
// lone female.
func KindForVerdict(v violence.Verdict) (Kind, bool) {
	switch {
	case v.ViolenceAgainstWoman:
		return ViolenceAgainstWoman, true
	case v.LoneFemale:
		return LoneFemale, true
	}
	return 0, false
}
