package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// PersonClass is the detector class name kept by the tracker.
const PersonClass = "person"

// DefaultPersonConfidence is the minimum detection confidence.
const DefaultPersonConfidence = 0.3

// Box is a detected person in frame pixels.
type Box struct {
	Rect       image.Rectangle
	Confidence float64
}

// PersonDetector finds people in a frame. Implementations must be safe for
// concurrent use.
type PersonDetector interface {
	DetectPeople(ctx context.Context, frame gocv.Mat) ([]Box, error)
}

// SidecarDetector detects people with the sidecar's object detector.
type SidecarDetector struct {
	sidecar       *Sidecar
	minConfidence float64
}

// NewSidecarDetector creates a detector. minConfidence <= 0 uses
// DefaultPersonConfidence.
func NewSidecarDetector(s *Sidecar, minConfidence float64) *SidecarDetector {
	if minConfidence <= 0 {
		minConfidence = DefaultPersonConfidence
	}
	return &SidecarDetector{sidecar: s, minConfidence: minConfidence}
}

// DetectPeople returns person boxes at or above the confidence floor.
func (d *SidecarDetector) DetectPeople(ctx context.Context, frame gocv.Mat) ([]Box, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	dets, err := d.sidecar.Detect(ctx, buf.GetBytes(), d.minConfidence)
	if err != nil {
		return nil, err
	}

	return filterPeople(dets, d.minConfidence), nil
}

func filterPeople(dets []Detection, minConfidence float64) []Box {
	boxes := make([]Box, 0, len(dets))
	for _, det := range dets {
		if det.Class != PersonClass || det.Confidence < minConfidence || len(det.Box) != 4 {
			continue
		}
		r := image.Rect(int(det.Box[0]), int(det.Box[1]), int(det.Box[2]), int(det.Box[3]))
		if r.Empty() {
			continue
		}
		boxes = append(boxes, Box{Rect: r, Confidence: det.Confidence})
	}
	return boxes
}

// MockPersonDetector returns scripted detections, one slice per call. After
// the script runs out the last entry repeats.
type MockPersonDetector struct {
	mu     sync.Mutex
	script [][]Box
	calls  int
	err    error
}

// NewMockPersonDetector creates a mock that plays script.
func NewMockPersonDetector(script ...[]Box) *MockPersonDetector {
	return &MockPersonDetector{script: script}
}

// SetError makes DetectPeople fail.
func (m *MockPersonDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// DetectPeople returns the next scripted result.
func (m *MockPersonDetector) DetectPeople(ctx context.Context, frame gocv.Mat) ([]Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) == 0 {
		return nil, nil
	}
	i := m.calls
	if i >= len(m.script) {
		i = len(m.script) - 1
	}
	m.calls++
	return m.script[i], nil
}
