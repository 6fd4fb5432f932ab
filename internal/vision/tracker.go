package vision

import (
	"context"
	"image"
	"sort"
	"sync"

	"gocv.io/x/gocv"
)

// Tracker defaults.
const (
	DefaultIoUThreshold = 0.3
	DefaultMaxAge       = 30
)

type track struct {
	id     int
	rect   image.Rectangle
	missed int
}

// Tracker keeps person identities for one region across frames. Detections
// are matched to live tracks greedily by IoU; unmatched detections start new
// tracks and tracks missing for more than MaxAge frames are dropped. A track
// missing from the current frame is not reported, but keeps its id if it
// reappears within MaxAge frames.
type Tracker struct {
	detector  PersonDetector
	threshold float64
	maxAge    int

	mu     sync.Mutex
	tracks []*track
	nextID int
}

// NewTracker creates a tracker over detector. Non-positive arguments use the
// defaults.
func NewTracker(detector PersonDetector, iouThreshold float64, maxAge int) *Tracker {
	if iouThreshold <= 0 {
		iouThreshold = DefaultIoUThreshold
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Tracker{
		detector:  detector,
		threshold: iouThreshold,
		maxAge:    maxAge,
		nextID:    1,
	}
}

// Track detects people in frame and returns the boxes of the tracks seen in
// it, keyed by track id.
func (t *Tracker) Track(ctx context.Context, frame gocv.Mat) (map[int]image.Rectangle, error) {
	boxes, err := t.detector.DetectPeople(ctx, frame)
	if err != nil {
		return nil, err
	}

	rects := make([]image.Rectangle, len(boxes))
	for i, b := range boxes {
		rects[i] = b.Rect
	}
	return t.Update(rects), nil
}

type candidate struct {
	track int
	det   int
	iou   float64
}

// Update associates one frame's detections with the live tracks.
func (t *Tracker) Update(dets []image.Rectangle) map[int]image.Rectangle {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cands []candidate
	for ti, tr := range t.tracks {
		for di, d := range dets {
			if v := IoU(tr.rect, d); v >= t.threshold {
				cands = append(cands, candidate{track: ti, det: di, iou: v})
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].iou > cands[j].iou
	})

	trackUsed := make([]bool, len(t.tracks))
	detUsed := make([]bool, len(dets))
	out := make(map[int]image.Rectangle, len(dets))

	for _, c := range cands {
		if trackUsed[c.track] || detUsed[c.det] {
			continue
		}
		trackUsed[c.track] = true
		detUsed[c.det] = true

		tr := t.tracks[c.track]
		tr.rect = dets[c.det]
		tr.missed = 0
		out[tr.id] = tr.rect
	}

	live := t.tracks[:0]
	for i, tr := range t.tracks {
		if !trackUsed[i] {
			tr.missed++
			if tr.missed > t.maxAge {
				continue
			}
		}
		live = append(live, tr)
	}
	t.tracks = live

	for di, d := range dets {
		if detUsed[di] {
			continue
		}
		tr := &track{id: t.nextID, rect: d}
		t.nextID++
		t.tracks = append(t.tracks, tr)
		out[tr.id] = d
	}

	return out
}

// Reset forgets every track. Ids keep increasing.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracks = nil
}

// IoU is the intersection over union of two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := area(inter)
	union := area(a) + area(b) - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
