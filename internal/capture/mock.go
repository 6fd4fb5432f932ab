package capture

import (
	"context"
	"errors"
	"sync"

	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

// ErrNoMoreFrames is returned by a non-looping MockSource once it has played
// every frame.
var ErrNoMoreFrames = errors.New("no more frames")

// MockSource plays back pre-recorded frames for testing. Each region keeps
// its own playback position.
type MockSource struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	index  map[int]int
	loop   bool
	err    error
	closed bool
	calls  int
}

// NewMockSource creates a MockSource over frames.
func NewMockSource(frames []*gocv.Mat, loop bool) *MockSource {
	return &MockSource{
		frames: frames,
		index:  make(map[int]int),
		loop:   loop,
	}
}

// Capture returns a clone of the region's next frame.
func (m *MockSource) Capture(ctx context.Context, r region.Region) (gocv.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: err}
	}
	if m.closed {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: ErrSourceClosed}
	}
	if m.err != nil {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: m.err}
	}
	if len(m.frames) == 0 {
		return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: ErrEmptyFrame}
	}

	i := m.index[r.ID]
	if i >= len(m.frames) {
		if !m.loop {
			return gocv.Mat{}, &CaptureError{RegionID: r.ID, Err: ErrNoMoreFrames}
		}
		i = 0
	}
	m.index[r.ID] = i + 1

	// Clone the frame so the original isn't modified
	return m.frames[i].Clone(), nil
}

// SetError makes every subsequent Capture fail with err. Pass nil to clear.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetFrames replaces the frame sequence and rewinds every region.
func (m *MockSource) SetFrames(frames []*gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.index = make(map[int]int)
}

// Calls returns how many times Capture was invoked.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the source closed. It does not close the playback frames.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
