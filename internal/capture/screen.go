package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbinani/screenshot"
	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

// ScreenSource captures regions of the desktop, which usually shows a grid
// of camera feeds from a surveillance viewer.
type ScreenSource struct {
	mu     sync.Mutex
	closed bool
}

// NewScreenSource creates a ScreenSource. It fails when no display is active.
func NewScreenSource() (*ScreenSource, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active display")
	}
	return &ScreenSource{}, nil
}

// Capture grabs the screen rectangle of r as a BGR Mat.
func (s *ScreenSource) Capture(ctx context.Context, r region.Region) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: err}
	}

	// Some platforms' capture APIs are not safe to call concurrently.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: ErrSourceClosed}
	}

	img, err := screenshot.CaptureRect(r.Rect())
	if err != nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: err}
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: fmt.Errorf("convert: %w", err)}
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: ErrEmptyFrame}
	}
	return mat, nil
}

// Close marks the source closed.
func (s *ScreenSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
