package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/violence"
)

// Event is one dispatched alert. Dispatch fills EvidencePath, ImageURL and
// MessageID as the steps succeed.
type Event struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	RegionID    int       `json:"region_id"`
	Location    string    `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
	MaleCount   int       `json:"male_count"`
	FemaleCount int       `json:"female_count"`

	EvidencePath string `json:"evidence_path,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	MessageID    string `json:"message_id,omitempty"`
}

// NewEvent creates an event for region r.
func NewEvent(kind Kind, r region.Region, ts time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		RegionID:  r.ID,
		Location:  r.Location,
		Timestamp: ts,
	}
}

// EventForVerdict creates the event a verdict calls for, if any.
func EventForVerdict(v violence.Verdict, r region.Region) (Event, bool) {
	kind, ok := KindForVerdict(v)
	if !ok {
		return Event{}, false
	}
	ev := NewEvent(kind, r, v.Timestamp)
	ev.Location = v.Location
	ev.MaleCount = v.MaleCount
	ev.FemaleCount = v.FemaleCount
	return ev, true
}
