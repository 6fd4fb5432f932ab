package vision

import (
	"context"
	"encoding/binary"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSidecar serves the sidecar protocol over in-memory pipes.
type fakeSidecar struct {
	handle func(req sidecarRequest) sidecarResponse
	seen   chan sidecarRequest
}

func startFakeSidecar(t *testing.T, handle func(req sidecarRequest) sidecarResponse) (*Sidecar, <-chan sidecarRequest) {
	t.Helper()

	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()
	f := &fakeSidecar{handle: handle, seen: make(chan sidecarRequest, 16)}

	go func() {
		defer s2cW.Close()
		for {
			var req sidecarRequest
			if err := readMessage(c2sR, &req); err != nil {
				return
			}
			f.seen <- req
			if err := writeMessage(s2cW, f.handle(req)); err != nil {
				return
			}
		}
	}()

	s := NewSidecarConn(c2sW, s2cR)
	t.Cleanup(func() { s.Close() })
	return s, f.seen
}

func TestSidecar_Detect(t *testing.T) {
	s, seen := startFakeSidecar(t, func(req sidecarRequest) sidecarResponse {
		return sidecarResponse{Detections: []Detection{
			{Class: "person", Confidence: 0.9, Box: []float64{10, 20, 110, 220}},
			{Class: "dog", Confidence: 0.8, Box: []float64{0, 0, 5, 5}},
		}}
	})

	dets, err := s.Detect(context.Background(), []byte{0xff, 0xd8}, 0.3)
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, "person", dets[0].Class)

	req := <-seen
	assert.Equal(t, opDetect, req.Op)
	assert.Equal(t, []byte{0xff, 0xd8}, req.Image)
	assert.Equal(t, 0.3, req.Confidence)
}

func TestSidecar_Embed(t *testing.T) {
	s, _ := startFakeSidecar(t, func(req sidecarRequest) sidecarResponse {
		switch req.Op {
		case opEmbedText:
			vecs := make([][]float64, len(req.Texts))
			for i := range req.Texts {
				vecs[i] = []float64{float64(i), 1}
			}
			return sidecarResponse{Vectors: vecs}
		case opEmbedImage:
			return sidecarResponse{Vectors: [][]float64{{0.5, 0.5}}}
		}
		return sidecarResponse{Error: "unknown op"}
	})
	ctx := context.Background()

	vecs, err := s.EmbedText(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1}, {1, 1}, {2, 1}}, vecs)

	vec, err := s.EmbedImage(ctx, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, vec)
}

func TestSidecar_RemoteError(t *testing.T) {
	s, _ := startFakeSidecar(t, func(req sidecarRequest) sidecarResponse {
		return sidecarResponse{Error: "CUDA out of memory"}
	})

	_, err := s.Detect(context.Background(), nil, 0.3)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "CUDA out of memory"))
}

func TestSidecar_RestartsAfterProcessExit(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	marker := filepath.Join(t.TempDir(), "started")

	// The first process exits at once; later ones answer one empty reply and
	// then wait for stdin to close.
	script := `if [ -e "$0" ]; then printf '\000\000\000\001\200'; exec cat >/dev/null; fi; touch "$0"; exit 0`
	s := NewSidecar([]string{"sh", "-c", script, marker})
	defer s.Close()
	ctx := context.Background()

	_, err := s.Detect(ctx, nil, 0.3)
	require.Error(t, err)

	dets, err := s.Detect(ctx, nil, 0.3)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestSidecar_BadReplyBreaksConn(t *testing.T) {
	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()

	go func() {
		defer s2cW.Close()
		for {
			var req sidecarRequest
			if err := readMessage(c2sR, &req); err != nil {
				return
			}
			// An oversized prefix followed by a well-formed reply that must
			// never be read as the answer to a later call.
			prefix := make([]byte, 4)
			binary.BigEndian.PutUint32(prefix, maxMessageSize+1)
			if _, err := s2cW.Write(prefix); err != nil {
				return
			}
			if err := writeMessage(s2cW, sidecarResponse{Vectors: [][]float64{{1, 2, 3}}}); err != nil {
				return
			}
		}
	}()

	s := NewSidecarConn(c2sW, s2cR)
	defer s.Close()
	ctx := context.Background()

	_, err := s.EmbedImage(ctx, []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")

	vec, err := s.EmbedImage(ctx, []byte{1})
	assert.ErrorIs(t, err, ErrSidecarBroken)
	assert.Nil(t, vec)
}

func TestSidecar_WrongVectorCount(t *testing.T) {
	s, _ := startFakeSidecar(t, func(req sidecarRequest) sidecarResponse {
		return sidecarResponse{Vectors: [][]float64{{1}}}
	})

	_, err := s.EmbedText(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestSidecar_Closed(t *testing.T) {
	s, _ := startFakeSidecar(t, func(req sidecarRequest) sidecarResponse {
		return sidecarResponse{}
	})
	require.NoError(t, s.Close())

	_, err := s.Detect(context.Background(), nil, 0.3)
	assert.ErrorIs(t, err, ErrSidecarClosed)
}

func TestSidecar_CancelledContext(t *testing.T) {
	s := NewSidecar([]string{"does-not-exist"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Detect(ctx, nil, 0.3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterPeople(t *testing.T) {
	dets := []Detection{
		{Class: "person", Confidence: 0.9, Box: []float64{10, 20, 110, 220}},
		{Class: "person", Confidence: 0.2, Box: []float64{0, 0, 50, 50}},
		{Class: "car", Confidence: 0.99, Box: []float64{0, 0, 50, 50}},
		{Class: "person", Confidence: 0.5, Box: []float64{5, 5, 5, 50}},
		{Class: "person", Confidence: 0.5, Box: []float64{1, 2}},
	}

	boxes := filterPeople(dets, 0.3)
	require.Len(t, boxes, 1)
	assert.Equal(t, 10, boxes[0].Rect.Min.X)
	assert.Equal(t, 220, boxes[0].Rect.Max.Y)
}
