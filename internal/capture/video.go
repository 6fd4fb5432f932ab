package capture

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

// DefaultFPS is the capture rate requested from video devices.
const DefaultFPS = 5

// VideoSource reads frames from one camera device or stream and crops each
// region out of the full frame. All regions share the device.
type VideoSource struct {
	device  string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewVideoSource creates a VideoSource for device, which is either a numeric
// device index or a stream URL or file path.
func NewVideoSource(device string) *VideoSource {
	return &VideoSource{
		device: device,
		fps:    DefaultFPS,
	}
}

// Open opens the device for capturing frames.
func (v *VideoSource) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	var target interface{} = v.device
	if id, err := strconv.Atoi(v.device); err == nil {
		target = id
	}

	capture, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return err
	}
	capture.Set(gocv.VideoCaptureFPS, float64(v.fps))

	v.capture = capture
	v.running = true

	return nil
}

// Close closes the device and releases resources.
func (v *VideoSource) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}

	err := v.capture.Close()
	v.capture = nil
	v.running = false

	return err
}

// Capture reads the next frame and returns the part covered by r.
func (v *VideoSource) Capture(ctx context.Context, r region.Region) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: ErrSourceClosed}
	}

	frame := gocv.NewMat()
	defer frame.Close()

	if ok := v.capture.Read(&frame); !ok {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: errors.New("failed to read frame from device")}
	}
	if frame.Empty() {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: ErrEmptyFrame}
	}

	out, err := crop(frame, r.Rect())
	if err != nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: err}
	}
	return out, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (v *VideoSource) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.fps = fps

	if v.capture != nil {
		v.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (v *VideoSource) FPS() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.fps
}

// IsOpen returns true if the device is currently open.
func (v *VideoSource) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.running
}
