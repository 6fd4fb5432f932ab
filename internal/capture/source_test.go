package capture

import (
	"context"
	"errors"
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

var lobby = region.Region{ID: 1, X: 0, Y: 0, Width: 640, Height: 480, Location: "Lobby"}

func TestMockSource_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	src := NewMockSource([]*gocv.Mat{&frame1, &frame2}, false)
	defer src.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		f, err := src.Capture(ctx, lobby)
		if err != nil {
			t.Fatalf("Capture() %d error = %v", i, err)
		}
		f.Close()
	}

	_, err := src.Capture(ctx, lobby)
	if !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("expected ErrNoMoreFrames after all frames consumed, got %v", err)
	}

	// Another region has its own position.
	f, err := src.Capture(ctx, region.Region{ID: 2, Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("Capture() for region 2 error = %v", err)
	}
	f.Close()
}

func TestMockSource_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	src := NewMockSource([]*gocv.Mat{&frame}, true)
	for i := 0; i < 5; i++ {
		f, err := src.Capture(context.Background(), lobby)
		if err != nil {
			t.Fatalf("Capture() iteration %d error = %v", i, err)
		}
		f.Close()
	}
	if src.Calls() != 5 {
		t.Errorf("Calls() = %d, want 5", src.Calls())
	}
}

func TestMockSource_Errors(t *testing.T) {
	frame := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer frame.Close()

	tests := []struct {
		name  string
		setup func(*MockSource) context.Context
		want  error
	}{
		{
			name: "injected error",
			setup: func(m *MockSource) context.Context {
				m.SetError(errors.New("display locked"))
				return context.Background()
			},
		},
		{
			name: "closed",
			setup: func(m *MockSource) context.Context {
				m.Close()
				return context.Background()
			},
			want: ErrSourceClosed,
		},
		{
			name: "cancelled context",
			setup: func(m *MockSource) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			want: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewMockSource([]*gocv.Mat{&frame}, true)
			ctx := tt.setup(src)

			_, err := src.Capture(ctx, lobby)

			var capErr *CaptureError
			if !errors.As(err, &capErr) {
				t.Fatalf("expected *CaptureError, got %T (%v)", err, err)
			}
			if capErr.RegionID != lobby.ID {
				t.Errorf("RegionID = %d, want %d", capErr.RegionID, lobby.ID)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVideoSource_NotOpen(t *testing.T) {
	v := NewVideoSource("0")

	if v.IsOpen() {
		t.Error("video source should not be open initially")
	}
	if v.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", v.FPS(), DefaultFPS)
	}

	_, err := v.Capture(context.Background(), lobby)
	if !errors.Is(err, ErrSourceClosed) {
		t.Errorf("expected ErrSourceClosed, got %v", err)
	}

	if err := v.Close(); err != nil {
		t.Errorf("Close() on unopened source = %v", err)
	}
}

func TestVideoSource_SetFPS(t *testing.T) {
	v := NewVideoSource("0")

	v.SetFPS(10)
	if v.FPS() != 10 {
		t.Errorf("FPS() = %d, want 10", v.FPS())
	}

	v.SetFPS(0)
	v.SetFPS(-5)
	if v.FPS() != 10 {
		t.Errorf("non-positive FPS should be ignored, got %d", v.FPS())
	}
}

func TestCrop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	tests := []struct {
		name     string
		rect     image.Rectangle
		wantCols int
		wantRows int
		wantErr  error
	}{
		{"inside", image.Rect(10, 20, 110, 220), 100, 200, nil},
		{"clipped", image.Rect(600, 400, 700, 500), 40, 80, nil},
		{"outside", image.Rect(700, 500, 800, 600), 0, 0, ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := crop(frame, tt.rect)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("crop() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer got.Close()
			if got.Cols() != tt.wantCols || got.Rows() != tt.wantRows {
				t.Errorf("crop() size = %dx%d, want %dx%d", got.Cols(), got.Rows(), tt.wantCols, tt.wantRows)
			}
		})
	}
}

func TestResize(t *testing.T) {
	src := gocv.NewMatWithSize(300, 200, gocv.MatTypeCV8UC3)
	defer src.Close()

	dst := Resize(src, DefaultWidth, DefaultHeight)
	defer dst.Close()

	if dst.Cols() != DefaultWidth || dst.Rows() != DefaultHeight {
		t.Errorf("Resize() = %dx%d, want %dx%d", dst.Cols(), dst.Rows(), DefaultWidth, DefaultHeight)
	}
}
