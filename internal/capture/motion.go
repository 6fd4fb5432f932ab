package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultMotionThreshold is the percentage of changed pixels that counts
	// as motion.
	DefaultMotionThreshold = 1.0
)

// MotionGate decides per region whether a frame differs enough from the
// previous one to be worth running the person models on. Each region keeps
// its own baseline, so one gate can be shared by every worker.
type MotionGate struct {
	threshold float64

	mu        sync.Mutex
	baselines map[int]*gocv.Mat
}

// NewMotionGate creates a gate. threshold is the percentage of pixels that
// must change; values <= 0 use DefaultMotionThreshold.
func NewMotionGate(threshold float64) *MotionGate {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &MotionGate{
		threshold: threshold,
		baselines: make(map[int]*gocv.Mat),
	}
}

// Moving compares frame with the region's previous frame and reports whether
// motion was seen together with the percentage of pixels that changed. The
// first frame of a region always counts as moving so new regions are
// analysed immediately.
//
// Algorithm:
// 1. Convert frame to grayscale
// 2. Apply Gaussian blur (21x21) to reduce noise
// 3. Without a baseline, store it and report motion
// 4. Threshold the absolute difference with the baseline (threshold=25)
// 5. Count non-zero pixels / total pixels = changePercent
func (g *MotionGate) Moving(regionID int, frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	blurred := blurGray(frame)

	g.mu.Lock()
	defer g.mu.Unlock()

	prev, ok := g.baselines[regionID]
	if !ok || prev.Rows() != blurred.Rows() || prev.Cols() != blurred.Cols() {
		if ok {
			prev.Close()
		}
		g.baselines[regionID] = &blurred
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, *prev, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(total) * 100.0

	prev.Close()
	g.baselines[regionID] = &blurred

	return changePercent > g.threshold, changePercent
}

func blurGray(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)
	return blurred
}

// Forget drops the baseline of one region.
func (g *MotionGate) Forget(regionID int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.baselines[regionID]; ok {
		prev.Close()
		delete(g.baselines, regionID)
	}
}

// Close releases every baseline. The gate can still be used afterwards.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, prev := range g.baselines {
		prev.Close()
		delete(g.baselines, id)
	}
}

// Threshold returns the change percentage above which a frame is moving.
func (g *MotionGate) Threshold() float64 {
	return g.threshold
}
