package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// SpreadThreshold is the minimum thumb-to-pinky L1 distance, in normalized
// image units, for a hand to count as signalling.
const SpreadThreshold = 0.4

// IsSignal reports whether a hand is making the distress signal: thumb and
// little finger spread wide, the other three fingers folded below their
// knuckles and the wrist lower in the frame than both extended tips.
func IsSignal(h HandLandmarks) bool {
	p := h.Points

	spread := manhattan(p[ThumbTip], p[PinkyTip]) > SpreadThreshold

	folded := p[IndexTip].Y > p[IndexMCP].Y &&
		p[MiddleTip].Y > p[MiddleMCP].Y &&
		p[RingTip].Y > p[RingMCP].Y

	upright := p[Wrist].Y > p[ThumbTip].Y && p[Wrist].Y > p[PinkyTip].Y

	return spread && folded && upright
}

// Observation is the result of running a detector on one frame.
type Observation struct {
	Hands   []HandLandmarks
	Signals []bool // Signals[i] is IsSignal(Hands[i])
}

// Any reports whether at least one hand is signalling.
func (o Observation) Any() bool {
	for _, s := range o.Signals {
		if s {
			return true
		}
	}
	return false
}

// DetectSignals runs d on frame and evaluates every hand found.
func DetectSignals(d Detector, frame *gocv.Mat) (Observation, error) {
	hands, err := d.Detect(frame)
	if err != nil {
		return Observation{}, err
	}

	obs := Observation{
		Hands:   hands,
		Signals: make([]bool, len(hands)),
	}
	for i, h := range hands {
		obs.Signals[i] = IsSignal(h)
	}
	return obs, nil
}

var (
	boneColor   = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	jointColor  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	signalColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// Draw overlays hand skeletons on frame. Signalling hands get green joints.
func Draw(frame *gocv.Mat, obs Observation) {
	if frame == nil || frame.Empty() {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	for i := range obs.Hands {
		hand := &obs.Hands[i]
		joint := jointColor
		if i < len(obs.Signals) && obs.Signals[i] {
			joint = signalColor
		}

		for _, c := range connections {
			gocv.Line(frame, hand.Pixel(c[0], w, h), hand.Pixel(c[1], w, h), boneColor, 2)
		}
		for j := 0; j < NumLandmarks; j++ {
			gocv.Circle(frame, hand.Pixel(j, w, h), 4, joint, -1)
		}

		if i < len(obs.Signals) && obs.Signals[i] {
			wrist := hand.Pixel(Wrist, w, h)
			gocv.PutText(frame, "SOS", image.Pt(wrist.X, wrist.Y+20),
				gocv.FontHersheySimplex, 0.8, signalColor, 2)
		}
	}
}
