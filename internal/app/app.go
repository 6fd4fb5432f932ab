// Package app runs the region worker pool: one gesture worker and one
// violence worker per monitored region, all feeding a shared display queue.
package app

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/alert"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/capture"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/detector"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/display"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/gesture"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/metrics"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/violence"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/vision"
)

// Window label prefixes.
const (
	GestureWindow  = "Gesture Tracker"
	ViolenceWindow = "Violence Tracker"
)

// PausedPoll is how often a paused worker checks whether it was resumed.
const PausedPoll = 200 * time.Millisecond

// ErrNoRegions is returned by New when there is nothing to monitor.
var ErrNoRegions = errors.New("app: no regions")

// Classifier labels tracked people in a frame. *vision.Classifier
// implements it.
type Classifier interface {
	ClassifyTracks(ctx context.Context, frame gocv.Mat, tracks map[int]image.Rectangle) map[int]vision.PersonState
}

// Config holds the collaborators of a Pool. Zero values use defaults.
type Config struct {
	Regions    []region.Region
	Source     capture.Source
	Hands      detector.Detector
	People     vision.PersonDetector
	Classifier Classifier
	Engine     *violence.Engine
	Dispatcher *alert.Dispatcher
	Queue      *display.Queue
	Surface    display.Surface

	// Motion skips model calls on frames without motion. Nil disables it.
	Motion *capture.MotionGate

	Width, Height    int
	TrackIoU         float64
	TrackMaxAge      int
	SmoothingWindow  int
	GestureThreshold int
	GestureTimeframe time.Duration
	PutTimeout       time.Duration
	GetTimeout       time.Duration

	Clock   gesture.Clock
	Metrics *metrics.Metrics
}

// regionState is the per-region state owned by that region's two workers.
type regionState struct {
	region   region.Region
	machine  *gesture.Machine
	tracker  *vision.Tracker
	smoother *vision.Smoother
}

// Pool is the region worker pool.
type Pool struct {
	config  Config
	regions []*regionState

	enabled bool
	mu      sync.RWMutex
}

// New creates a Pool. Regions are normalized; the pool starts enabled.
func New(config Config) (*Pool, error) {
	if len(config.Regions) == 0 {
		return nil, ErrNoRegions
	}
	if config.Source == nil || config.Hands == nil || config.People == nil ||
		config.Classifier == nil || config.Dispatcher == nil {
		return nil, errors.New("app: source, hands, people, classifier and dispatcher are required")
	}

	if config.Engine == nil {
		config.Engine = violence.NewEngine(violence.LiteralLoneFemale)
	}
	if config.Queue == nil {
		config.Queue = display.NewQueue(display.DefaultCapacity)
	}
	if config.Surface == nil {
		config.Surface = display.NullSurface{}
	}
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = capture.DefaultWidth, capture.DefaultHeight
	}
	if config.PutTimeout <= 0 {
		config.PutTimeout = display.DefaultPutTimeout
	}
	if config.Clock == nil {
		config.Clock = gesture.RealClock{}
	}
	if config.Metrics == nil {
		config.Metrics = metrics.New()
	}
	config.Metrics.SetQueueDepth(config.Queue.Len)

	p := &Pool{config: config, enabled: true}
	for _, r := range config.Regions {
		p.regions = append(p.regions, &regionState{
			region:   r.Normalize(),
			machine:  gesture.NewMachine(config.GestureThreshold, config.GestureTimeframe, gesture.WithClock(config.Clock)),
			tracker:  vision.NewTracker(config.People, config.TrackIoU, config.TrackMaxAge),
			smoother: vision.NewSmoother(config.SmoothingWindow),
		})
	}
	return p, nil
}

// SetEnabled pauses or resumes all workers. Paused workers do not capture.
func (p *Pool) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// IsEnabled returns whether the workers are capturing.
func (p *Pool) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// Regions returns the normalized regions.
func (p *Pool) Regions() []region.Region {
	out := make([]region.Region, len(p.regions))
	for i, rs := range p.regions {
		out[i] = rs.region
	}
	return out
}

// Queue returns the display queue.
func (p *Pool) Queue() *display.Queue {
	return p.config.Queue
}

// Run starts two workers per region and runs the display consumer on the
// calling goroutine, which must be the main goroutine when the surface is a
// native window. It returns once ctx is done or the surface requested quit,
// after every worker has stopped.
func (p *Pool) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, rs := range p.regions {
		wg.Add(2)
		go func(rs *regionState) {
			defer wg.Done()
			p.loop(ctx, rs, GestureWindow, p.gestureStep)
		}(rs)
		go func(rs *regionState) {
			defer wg.Done()
			p.loop(ctx, rs, ViolenceWindow, p.violenceStep)
		}(rs)
	}

	slog.Info("workers started", "regions", len(p.regions), "workers", 2*len(p.regions))

	consumer := display.NewConsumer(p.config.Queue, p.config.Surface, p.config.GetTimeout, p.config.Metrics)
	consumer.Run(ctx, cancel)

	cancel()
	wg.Wait()
	p.config.Queue.Drain()
	slog.Info("workers stopped")
}

type stepFunc func(ctx context.Context, rs *regionState, label string)

// loop runs step until ctx is done.
func (p *Pool) loop(ctx context.Context, rs *regionState, kind string, step stepFunc) {
	label := rs.region.WindowLabel(kind)
	for ctx.Err() == nil {
		if !p.IsEnabled() {
			select {
			case <-ctx.Done():
			case <-time.After(PausedPoll):
			}
			continue
		}
		p.safeStep(ctx, rs, label, step)
	}
}

// safeStep runs one iteration and recovers a panic so a single bad frame
// cannot stop the worker.
func (p *Pool) safeStep(ctx context.Context, rs *regionState, label string, step stepFunc) {
	defer func() {
		if r := recover(); r != nil {
			p.config.Metrics.WorkerPanics.Add(1)
			slog.Error("worker panic recovered", "window", label, "panic", r)
		}
	}()
	step(ctx, rs, label)
}

// capture grabs the region. Failures are counted and logged and the
// iteration is skipped.
func (p *Pool) capture(ctx context.Context, r region.Region) (gocv.Mat, bool) {
	frame, err := p.config.Source.Capture(ctx, r)
	if err != nil {
		if ctx.Err() == nil {
			p.config.Metrics.CaptureErrors.Add(1)
			slog.Warn("capture failed", "region", r.ID, "location", r.Location, "error", err)
		}
		return gocv.Mat{}, false
	}
	if frame.Empty() {
		frame.Close()
		p.config.Metrics.CaptureErrors.Add(1)
		return gocv.Mat{}, false
	}
	p.config.Metrics.FramesCaptured.Add(1)
	return frame, true
}

// enqueue hands frame to the display queue. The queue owns frame afterwards.
func (p *Pool) enqueue(label string, frame gocv.Mat) {
	if p.config.Queue.TryPut(display.Item{Label: label, Frame: frame}, p.config.PutTimeout) {
		p.config.Metrics.FramesEnqueued.Add(1)
	} else {
		p.config.Metrics.FramesDropped.Add(1)
	}
}

// dispatch sends ev, logging returned failures.
func (p *Pool) dispatch(ctx context.Context, ev event.Event, frame gocv.Mat) {
	slog.Info("alert", "kind", ev.Kind, "region", ev.RegionID, "location", ev.Location,
		"males", ev.MaleCount, "females", ev.FemaleCount)
	if err := p.config.Dispatcher.Dispatch(ctx, ev, frame); err != nil {
		slog.Warn("alert dispatch incomplete", "id", ev.ID, "kind", ev.Kind, "error", err)
	}
}
