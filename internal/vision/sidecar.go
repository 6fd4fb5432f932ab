// Package vision adapts the external person detector and appearance
// embedding models to the pipeline: per-region tracking of people and
// nearest-phrase classification of their action and gender.
package vision

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// maxMessageSize bounds a single sidecar reply.
const maxMessageSize = 64 << 20

var (
	// ErrSidecarClosed is returned after Close.
	ErrSidecarClosed = errors.New("vision sidecar is closed")

	// ErrSidecarBroken is returned by a connected client after a transport
	// error left its stream out of sync.
	ErrSidecarBroken = errors.New("vision sidecar stream is broken")
)

// Sidecar operations.
const (
	opDetect     = "detect"
	opEmbedImage = "embed_image"
	opEmbedText  = "embed_text"
)

type sidecarRequest struct {
	Op         string   `msgpack:"op"`
	Image      []byte   `msgpack:"image,omitempty"`
	Texts      []string `msgpack:"texts,omitempty"`
	Confidence float64  `msgpack:"confidence,omitempty"`
}

type sidecarResponse struct {
	Error      string      `msgpack:"error"`
	Detections []Detection `msgpack:"detections"`
	Vectors    [][]float64 `msgpack:"vectors"`
}

// Detection is one object found by the sidecar's detector. Box is
// [x1, y1, x2, y2] in frame pixels.
type Detection struct {
	Class      string    `msgpack:"class"`
	Confidence float64   `msgpack:"confidence"`
	Box        []float64 `msgpack:"box"`
}

// Sidecar is a client for the model process. Messages in both directions are
// a 4-byte big-endian length followed by a msgpack body. Calls are serialized
// so any number of workers can share one Sidecar.
type Sidecar struct {
	command []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	w       io.WriteCloser
	r       io.Reader
	started bool
	closed  bool
	broken  bool
}

// NewSidecar creates a client that starts command on first use.
func NewSidecar(command []string) *Sidecar {
	return &Sidecar{command: command}
}

// NewSidecarConn creates a client over an already connected stream pair,
// such as a socket or an in-memory pipe.
func NewSidecarConn(w io.WriteCloser, r io.Reader) *Sidecar {
	return &Sidecar{w: w, r: r, started: true}
}

// Detect runs the object detector on a JPEG frame.
func (s *Sidecar) Detect(ctx context.Context, jpeg []byte, minConfidence float64) ([]Detection, error) {
	var resp sidecarResponse
	err := s.call(ctx, sidecarRequest{Op: opDetect, Image: jpeg, Confidence: minConfidence}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Detections, nil
}

// EmbedImage returns the image embedding of a JPEG crop.
func (s *Sidecar) EmbedImage(ctx context.Context, jpeg []byte) ([]float64, error) {
	var resp sidecarResponse
	if err := s.call(ctx, sidecarRequest{Op: opEmbedImage, Image: jpeg}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Vectors) != 1 {
		return nil, fmt.Errorf("embed_image: want 1 vector, got %d", len(resp.Vectors))
	}
	return resp.Vectors[0], nil
}

// EmbedText returns one text embedding per phrase, in order.
func (s *Sidecar) EmbedText(ctx context.Context, texts []string) ([][]float64, error) {
	var resp sidecarResponse
	if err := s.call(ctx, sidecarRequest{Op: opEmbedText, Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Vectors) != len(texts) {
		return nil, fmt.Errorf("embed_text: want %d vectors, got %d", len(texts), len(resp.Vectors))
	}
	return resp.Vectors, nil
}

func (s *Sidecar) call(ctx context.Context, req sidecarRequest, resp *sidecarResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSidecarClosed
	}
	if s.broken {
		return ErrSidecarBroken
	}
	if err := s.ensureStarted(); err != nil {
		return err
	}

	// A failed exchange may leave part of a message in either pipe; drop the
	// stream so the next call starts clean.
	if err := writeMessage(s.w, req); err != nil {
		s.reset()
		return fmt.Errorf("%s: %w", req.Op, err)
	}
	if err := readMessage(s.r, resp); err != nil {
		s.reset()
		return fmt.Errorf("%s: %w", req.Op, err)
	}
	if resp.Error != "" {
		return fmt.Errorf("%s: sidecar: %s", req.Op, resp.Error)
	}
	return nil
}

func (s *Sidecar) ensureStarted() error {
	if s.started {
		return nil
	}
	if len(s.command) == 0 {
		return errors.New("vision sidecar command is empty")
	}

	cmd := exec.Command(s.command[0], s.command[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start vision sidecar: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Debug("vision sidecar", "line", scanner.Text())
		}
	}()

	s.cmd = cmd
	s.w = stdin
	s.r = bufio.NewReader(stdout)
	s.started = true

	slog.Info("vision sidecar started", "pid", cmd.Process.Pid, "command", s.command[0])
	return nil
}

// reset tears down the current stream. A command-backed client restarts the
// process on the next call; a connected client cannot reconnect and is
// marked broken.
func (s *Sidecar) reset() {
	if s.w != nil {
		s.w.Close()
	}
	if s.cmd != nil {
		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		s.cmd.Wait()
		slog.Warn("vision sidecar stopped after transport error, restarting on next call")
	}
	s.cmd = nil
	s.w = nil
	s.r = nil
	s.started = false
	if len(s.command) == 0 {
		s.broken = true
	}
}

// Close stops the sidecar process, or closes the stream for a connected
// client.
func (s *Sidecar) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.w != nil {
		err = s.w.Close()
	}
	if s.cmd != nil {
		if waitErr := s.cmd.Wait(); waitErr != nil && err == nil {
			err = waitErr
		}
	}
	return err
}

func writeMessage(w io.Writer, v interface{}) error {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, uint32(len(body)))

	if _, err := w.Write(prefix); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

func readMessage(r io.Reader, v interface{}) error {
	prefix := make([]byte, 4)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return fmt.Errorf("read length prefix: %w", err)
	}

	n := binary.BigEndian.Uint32(prefix)
	if n > maxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit", n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
