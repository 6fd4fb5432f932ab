package display

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/hybridgroup/mjpeg"
	"gocv.io/x/gocv"
)

// Surface shows labelled frames. Show and PollQuit are only called from the
// consumer goroutine.
type Surface interface {
	Show(label string, frame gocv.Mat) error
	// PollQuit reports whether the operator asked to stop.
	PollQuit() bool
	Close() error
}

// WindowSurface shows each label in its own OpenCV window. Pressing 'q' in
// any window requests a stop. It must be driven from the main OS thread on
// platforms whose GUI toolkit requires it.
type WindowSurface struct {
	windows map[string]*gocv.Window
	last    *gocv.Window
}

// NewWindowSurface creates an empty WindowSurface. Windows open on first use.
func NewWindowSurface() *WindowSurface {
	return &WindowSurface{windows: make(map[string]*gocv.Window)}
}

// Show displays frame in the window named label.
func (s *WindowSurface) Show(label string, frame gocv.Mat) error {
	w, ok := s.windows[label]
	if !ok {
		w = gocv.NewWindow(label)
		s.windows[label] = w
	}
	w.IMShow(frame)
	s.last = w
	return nil
}

// PollQuit pumps the GUI event loop and checks for 'q'.
func (s *WindowSurface) PollQuit() bool {
	if s.last == nil {
		return false
	}
	return s.last.WaitKey(1)&0xff == 'q'
}

// Close destroys all windows.
func (s *WindowSurface) Close() error {
	for label, w := range s.windows {
		w.Close()
		delete(s.windows, label)
	}
	s.last = nil
	return nil
}

// MJPEGSurface publishes each label as an MJPEG stream over HTTP.
type MJPEGSurface struct {
	mu      sync.RWMutex
	streams map[string]*mjpeg.Stream
	quit    chan struct{}
	once    sync.Once
}

// NewMJPEGSurface creates an MJPEGSurface with no streams.
func NewMJPEGSurface() *MJPEGSurface {
	return &MJPEGSurface{
		streams: make(map[string]*mjpeg.Stream),
		quit:    make(chan struct{}),
	}
}

// Show encodes frame as JPEG and pushes it to the label's stream.
func (s *MJPEGSurface) Show(label string, frame gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return fmt.Errorf("encode %q: %w", label, err)
	}
	defer buf.Close()

	s.stream(label).UpdateJPEG(buf.GetBytes())
	return nil
}

func (s *MJPEGSurface) stream(label string) *mjpeg.Stream {
	s.mu.RLock()
	st, ok := s.streams[label]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streams[label]; ok {
		return st
	}
	st = mjpeg.NewStream()
	s.streams[label] = st
	return st
}

// RequestQuit makes the next PollQuit return true.
func (s *MJPEGSurface) RequestQuit() {
	s.once.Do(func() { close(s.quit) })
}

// PollQuit reports whether RequestQuit was called.
func (s *MJPEGSurface) PollQuit() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

// Close is a no-op. Streams stop when their HTTP clients disconnect.
func (s *MJPEGSurface) Close() error {
	return nil
}

// Labels returns the labels that have received at least one frame.
func (s *MJPEGSurface) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.streams))
	for l := range s.streams {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Handler serves the stream index at prefix and each stream at
// prefix + url.PathEscape(label).
func (s *MJPEGSurface) Handler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
		if name == "" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"streams": s.Labels()})
			return
		}

		label, err := url.PathUnescape(name)
		if err != nil {
			http.Error(w, "Bad stream name", http.StatusBadRequest)
			return
		}

		s.mu.RLock()
		st, ok := s.streams[label]
		s.mu.RUnlock()
		if !ok {
			http.Error(w, "Stream not found", http.StatusNotFound)
			return
		}
		st.ServeHTTP(w, r)
	})
}

// NullSurface discards frames.
type NullSurface struct{}

func (NullSurface) Show(string, gocv.Mat) error { return nil }
func (NullSurface) PollQuit() bool              { return false }
func (NullSurface) Close() error                { return nil }
