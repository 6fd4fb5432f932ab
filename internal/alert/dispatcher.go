// Package alert turns verdicts and gesture triggers into persisted,
// delivered alerts.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/metrics"
	"github.com/esh22nika/Abhayam-Women-Safety/internal/notify"
)

// Dispatch steps, in the order they are attempted.
const (
	StepLog      = "log"
	StepEvidence = "evidence"
	StepUpload   = "upload"
	StepNotify   = "notify"
	StepRecord   = "record"
	StepHook     = "hook"
)

// DispatchSubError is the failure of one dispatch step.
type DispatchSubError struct {
	Step string
	Err  error
}

func (e *DispatchSubError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Step, e.Err)
}

func (e *DispatchSubError) Unwrap() error {
	return e.Err
}

// Recorder mirrors dispatched events, e.g. into a database.
type Recorder interface {
	Record(ctx context.Context, ev event.Event) error
}

// Hook runs external side effects for an event.
type Hook interface {
	Fire(ctx context.Context, ev event.Event) error
}

// Options configures a Dispatcher. Zero values fall back to the defaults
// of the original log files and a log-only messenger.
type Options struct {
	ViolenceLog  string
	GestureLog   string
	EvidenceRoot string
	EvidenceExt  string
	Cooldown     time.Duration

	Uploader  notify.Uploader
	Messenger notify.Messenger
	Recorder  Recorder
	Hook      Hook
	Metrics   *metrics.Metrics
}

// Dispatcher performs the alert side effects. Safe for concurrent use.
type Dispatcher struct {
	violenceLog  *CSVLog
	gestureLog   *CSVLog
	evidenceRoot string
	evidenceExt  string
	cooldown     *Cooldown

	uploader  notify.Uploader
	messenger notify.Messenger
	recorder  Recorder
	hook      Hook
	metrics   *metrics.Metrics

	mu      sync.RWMutex
	subs    map[int]func(event.Event)
	nextSub int
}

// NewDispatcher creates a Dispatcher from opts.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.ViolenceLog == "" {
		opts.ViolenceLog = "violence_log.csv"
	}
	if opts.GestureLog == "" {
		opts.GestureLog = "sos_gestures.csv"
	}
	if opts.EvidenceRoot == "" {
		opts.EvidenceRoot = "."
	}
	if opts.Messenger == nil {
		opts.Messenger = notify.LogMessenger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return &Dispatcher{
		violenceLog:  NewCSVLog(opts.ViolenceLog, ViolenceHeader),
		gestureLog:   NewCSVLog(opts.GestureLog, GestureHeader),
		evidenceRoot: opts.EvidenceRoot,
		evidenceExt:  opts.EvidenceExt,
		cooldown:     NewCooldown(opts.Cooldown),
		uploader:     opts.Uploader,
		messenger:    opts.Messenger,
		recorder:     opts.Recorder,
		hook:         opts.Hook,
		metrics:      opts.Metrics,
		subs:         make(map[int]func(event.Event)),
	}
}

// Subscribe registers fn to receive every dispatched event. fn runs on the
// dispatching goroutine and must not block. The returned func unsubscribes.
func (d *Dispatcher) Subscribe(fn func(event.Event)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// Dispatch runs the alert steps for ev with frame as evidence. Violence
// kinds are logged first. Gesture rows carry the image URL and are logged
// after the upload. Upload, notification and mirroring failures are logged
// and swallowed. Log and evidence failures are returned, joined, after all
// steps have been attempted. Nothing is rolled back.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event, frame gocv.Mat) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	if !d.cooldown.Allow(ev.Location, ev.Kind, ev.Timestamp) {
		d.metrics.AlertsSuppressed.Add(1)
		slog.Debug("alert suppressed by cooldown", "location", ev.Location, "kind", ev.Kind)
		return nil
	}

	var errs []error
	fail := func(step string, err error) {
		subErr := &DispatchSubError{Step: step, Err: err}
		d.metrics.DispatchSubErrors.Add(1)
		slog.Warn("alert step failed", "id", ev.ID, "kind", ev.Kind, "location", ev.Location, "error", subErr)
		if step == StepLog || step == StepEvidence {
			errs = append(errs, subErr)
		}
	}

	if ev.Kind != event.DistressGesture {
		if err := d.violenceLog.Append(ViolenceRow(ev)); err != nil {
			fail(StepLog, err)
		}
	}

	path := EvidencePath(d.evidenceRoot, ev, d.evidenceExt)
	if err := WriteEvidence(path, frame); err != nil {
		fail(StepEvidence, err)
	} else {
		ev.EvidencePath = path
		if d.uploader != nil {
			url, err := d.uploader.Upload(ctx, path)
			if err != nil {
				fail(StepUpload, err)
			}
			ev.ImageURL = url
		}
	}

	id, err := d.messenger.Send(ctx, notify.Message{Body: ev.Kind.Body(), MediaURL: ev.ImageURL})
	if err != nil {
		fail(StepNotify, err)
	}
	ev.MessageID = id

	if ev.Kind == event.DistressGesture {
		if err := d.gestureLog.Append(GestureRow(ev)); err != nil {
			fail(StepLog, err)
		}
	}

	if d.recorder != nil {
		if err := d.recorder.Record(ctx, ev); err != nil {
			fail(StepRecord, err)
		}
	}
	if d.hook != nil {
		if err := d.hook.Fire(ctx, ev); err != nil {
			fail(StepHook, err)
		}
	}

	d.count(ev.Kind)
	d.publish(ev)

	slog.Info("alert dispatched",
		"id", ev.ID,
		"kind", ev.Kind,
		"region", ev.RegionID,
		"location", ev.Location,
		"evidence", ev.EvidencePath,
		"url", ev.ImageURL,
	)

	return errors.Join(errs...)
}

func (d *Dispatcher) count(kind event.Kind) {
	switch kind {
	case event.ViolenceAgainstWoman:
		d.metrics.AlertsViolence.Add(1)
	case event.LoneFemale:
		d.metrics.AlertsLoneFemale.Add(1)
	case event.DistressGesture:
		d.metrics.AlertsGesture.Add(1)
	}
}

func (d *Dispatcher) publish(ev event.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, fn := range d.subs {
		fn(ev)
	}
}
