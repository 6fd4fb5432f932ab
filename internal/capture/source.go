// Package capture grabs still frames for monitored regions from the screen
// or a video device.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

// Default processing size. Frames are scaled to this before inference.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrSourceClosed is returned when capturing from a closed source.
	ErrSourceClosed = errors.New("capture source is closed")

	// ErrEmptyFrame is returned when the capture surface produced no pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")

	// ErrOutOfBounds is returned when a region does not overlap the surface.
	ErrOutOfBounds = errors.New("region is outside the capture surface")
)

// CaptureError reports a failed capture for one region. It is transient:
// callers skip the iteration and try again.
type CaptureError struct {
	RegionID int
	Err      error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture region %d: %v", e.RegionID, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Source captures a still image of a region. The region must already be
// normalized. Implementations must be safe for concurrent use. The caller
// owns the returned Mat and must Close it.
type Source interface {
	Capture(ctx context.Context, r region.Region) (gocv.Mat, error)
	Close() error
}

// Resize scales src to width x height into a new Mat.
func Resize(src gocv.Mat, width, height int) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return dst
}

// crop copies the part of frame covered by rect, clipped to the frame.
func crop(frame gocv.Mat, rect image.Rectangle) (gocv.Mat, error) {
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	clipped := rect.Intersect(bounds)
	if clipped.Empty() {
		return gocv.Mat{}, ErrOutOfBounds
	}

	view := frame.Region(clipped)
	defer view.Close()
	return view.Clone(), nil
}
