package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionGate(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"explicit threshold", 5.0, 5.0},
		{"zero uses default", 0, DefaultMotionThreshold},
		{"negative uses default", -1, DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMotionGate(tt.threshold)
			defer g.Close()

			if g.Threshold() != tt.want {
				t.Errorf("Threshold() = %f, want %f", g.Threshold(), tt.want)
			}
		})
	}
}

func TestMotionGate_StillScene(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	if moving, _ := g.Moving(1, &frame1); !moving {
		t.Error("first frame of a region should count as moving")
	}

	if moving, change := g.Moving(1, &frame2); moving {
		t.Errorf("identical frames should not be moving, changePercent = %f", change)
	}
}

func TestMotionGate_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	g.Moving(1, &black)

	moving, change := g.Moving(1, &white)
	if !moving {
		t.Errorf("black to white should be moving, changePercent = %f", change)
	}
	if change < 50.0 {
		t.Errorf("changePercent = %f, expected > 50%% for black to white transition", change)
	}
}

func TestMotionGate_RegionsAreIndependent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewMotionGate(1.0)
	defer g.Close()

	black := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	g.Moving(1, &black)
	g.Moving(2, &white)

	if moving, _ := g.Moving(1, &black); moving {
		t.Error("region 1 saw the same frame twice and should be still")
	}
	if moving, _ := g.Moving(2, &white); moving {
		t.Error("region 2 saw the same frame twice and should be still")
	}

	g.Forget(2)
	if moving, _ := g.Moving(2, &white); !moving {
		t.Error("a forgotten region starts over")
	}
}

func TestMotionGate_EmptyFrame(t *testing.T) {
	g := NewMotionGate(1.0)
	defer g.Close()

	if moving, _ := g.Moving(1, nil); moving {
		t.Error("nil frame should not be moving")
	}
}
