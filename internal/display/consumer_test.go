package display

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/metrics"
)

// recordingSurface records labels and asks to quit after quitAfter frames.
type recordingSurface struct {
	mu        sync.Mutex
	labels    []string
	quitAfter int
	showErr   error
}

func (s *recordingSurface) Show(label string, frame gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.showErr != nil {
		return s.showErr
	}
	s.labels = append(s.labels, label)
	return nil
}

func (s *recordingSurface) PollQuit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quitAfter > 0 && len(s.labels) >= s.quitAfter
}

func (s *recordingSurface) Close() error { return nil }

func (s *recordingSurface) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.labels...)
}

func TestConsumer_QuitCancelsContext(t *testing.T) {
	q := NewQueue(4)
	q.TryPut(newItem("Gesture Tracker - Region 1 - Lobby"), 0)
	q.TryPut(newItem("Violence Tracker - Region 1 - Lobby"), 0)
	q.TryPut(newItem("Gesture Tracker - Region 2 - Gate"), 0)

	surface := &recordingSurface{quitAfter: 2}
	m := metrics.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		NewConsumer(q, surface, 10*time.Millisecond, m).Run(ctx, cancel)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after quit")
	}

	assert.Error(t, ctx.Err(), "quit cancels the shared context")
	assert.Equal(t, []string{
		"Gesture Tracker - Region 1 - Lobby",
		"Violence Tracker - Region 1 - Lobby",
	}, surface.Labels())
	assert.EqualValues(t, 2, m.FramesShown.Load())
	assert.Equal(t, 0, q.Len(), "remaining frames are released")
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	q := NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewConsumer(q, NullSurface{}, 10*time.Millisecond, nil).Run(ctx, cancel)
		close(done)
	}()

	// Empty reads keep the consumer alive.
	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("consumer stopped on an empty queue")
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestConsumer_ShowErrorIsNotFatal(t *testing.T) {
	q := NewQueue(2)
	q.TryPut(newItem("a"), 0)
	surface := &recordingSurface{showErr: errors.New("no display")}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	NewConsumer(q, surface, 10*time.Millisecond, nil).Run(ctx, cancel)
	assert.Equal(t, 0, q.Len())
}

func TestMJPEGSurface_Handler(t *testing.T) {
	s := NewMJPEGSurface()
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	label := "Violence Tracker - Region 1 - Lobby"
	require.NoError(t, s.Show(label, frame))
	assert.Equal(t, []string{label}, s.Labels())

	srv := httptest.NewServer(s.Handler("/api/stream/"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stream/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), label)

	resp, err = http.Get(srv.URL + "/api/stream/" + url.PathEscape("Gesture Tracker - Region 9 - Roof"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMJPEGSurface_RequestQuit(t *testing.T) {
	s := NewMJPEGSurface()
	assert.False(t, s.PollQuit())
	s.RequestQuit()
	s.RequestQuit()
	assert.True(t, s.PollQuit())
}
