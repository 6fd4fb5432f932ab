package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/capture"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/detector"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/labels"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/violence"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/vision"
)

var (
	personColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	pairColor   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	countColor  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// gestureStep processes one frame for the distress gesture:
//
// 1. Capture the region and scale it to the processing size
// 2. Run hand detection
// 3. Feed the machine only when a hand is visible
// 4. Dispatch a DistressGesture alert when the machine fires
// 5. Draw the hands and hand the frame to the display queue
func (p *Pool) gestureStep(ctx context.Context, rs *regionState, label string) {
	raw, ok := p.capture(ctx, rs.region)
	if !ok {
		return
	}
	frame := capture.Resize(raw, p.config.Width, p.config.Height)
	raw.Close()

	obs, err := detector.DetectSignals(p.config.Hands, &frame)
	if err != nil {
		slog.Warn("hand detection failed", "region", rs.region.ID, "error", err)
	} else if len(obs.Hands) > 0 && rs.machine.Observe(obs.Any()) {
		ev := event.NewEvent(event.DistressGesture, rs.region, p.config.Clock.Now())
		p.dispatch(ctx, ev, frame)
	}

	detector.Draw(&frame, obs)
	p.enqueue(label, frame)
}

// violenceStep processes one frame for violence and lone women:
//
// 1. Capture the region, optionally skipping frames without motion
// 2. Track people and classify each track
// 3. Infer the verdict and dispatch an alert if it calls for one
// 4. Annotate, scale and hand the frame to the display queue
func (p *Pool) violenceStep(ctx context.Context, rs *regionState, label string) {
	frame, ok := p.capture(ctx, rs.region)
	if !ok {
		return
	}

	if p.config.Motion != nil {
		if moving, _ := p.config.Motion.Moving(rs.region.ID, &frame); !moving {
			p.config.Metrics.FramesSkipped.Add(1)
			p.show(label, frame)
			return
		}
	}

	tracks, err := rs.tracker.Track(ctx, frame)
	if err != nil {
		slog.Warn("person tracking failed", "region", rs.region.ID, "error", err)
		p.show(label, frame)
		return
	}

	states := p.config.Classifier.ClassifyTracks(ctx, frame, tracks)
	if missed := len(tracks) - len(states); missed > 0 {
		p.config.Metrics.ClassificationErrors.Add(uint64(missed))
	}
	states = rs.smoother.Smooth(states)

	v := p.config.Engine.Infer(frameOf(tracks, states), rs.region.Location, p.config.Clock.Now())
	if ev, ok := event.EventForVerdict(v, rs.region); ok {
		p.dispatch(ctx, ev, frame)
	}

	annotate(&frame, tracks, states, v)
	p.show(label, frame)
}

// show scales frame to the processing size and enqueues it. It takes
// ownership of frame.
func (p *Pool) show(label string, frame gocv.Mat) {
	scaled := capture.Resize(frame, p.config.Width, p.config.Height)
	frame.Close()
	p.enqueue(label, scaled)
}

// frameOf builds the inference input from tracks and their labels.
func frameOf(tracks map[int]image.Rectangle, states map[int]vision.PersonState) violence.Frame {
	f := violence.Frame{
		Tracks:  tracks,
		Genders: make(map[int]labels.Gender, len(states)),
		Actions: make(map[int]labels.Action, len(states)),
	}
	for id, st := range states {
		f.Genders[id] = st.Gender
		f.Actions[id] = st.Action
	}
	return f
}

// annotate draws every track with its id and labels, highlights the pair
// that raised the violence flag and prints the counts.
func annotate(frame *gocv.Mat, tracks map[int]image.Rectangle, states map[int]vision.PersonState, v violence.Verdict) {
	for id, box := range tracks {
		c := personColor
		if v.Pair[0] != 0 && (id == v.Pair[0] || id == v.Pair[1]) {
			c = pairColor
		}

		text := fmt.Sprintf("Player ID: %d - Unknown", id)
		if st, ok := states[id]; ok {
			text = fmt.Sprintf("Player ID: %d - %s (%s)", id, st.Gender, st.Action)
		}
		gocv.PutText(frame, text, image.Pt(box.Min.X, box.Min.Y-10), gocv.FontHersheySimplex, 0.9, c, 2)
		gocv.Rectangle(frame, box, c, 2)
	}

	gocv.PutText(frame, fmt.Sprintf("Males: %d", v.MaleCount), image.Pt(20, 40), gocv.FontHersheySimplex, 1, countColor, 2)
	gocv.PutText(frame, fmt.Sprintf("Females: %d", v.FemaleCount), image.Pt(20, 80), gocv.FontHersheySimplex, 1, countColor, 2)
}
