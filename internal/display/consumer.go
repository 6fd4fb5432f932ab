package display

import (
	"context"
	"log/slog"
	"time"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/metrics"
)

// Consumer drains a Queue onto a Surface.
type Consumer struct {
	queue      *Queue
	surface    Surface
	getTimeout time.Duration
	metrics    *metrics.Metrics
}

// NewConsumer creates a consumer. A nil m disables counting.
func NewConsumer(q *Queue, s Surface, getTimeout time.Duration, m *metrics.Metrics) *Consumer {
	if getTimeout <= 0 {
		getTimeout = DefaultGetTimeout
	}
	return &Consumer{queue: q, surface: s, getTimeout: getTimeout, metrics: m}
}

// Run shows frames until ctx is done. It is the cancellation point of the
// pipeline: when the surface reports a quit request Run calls cancel, which
// stops every worker sharing ctx. Empty reads are normal and ignored.
func (c *Consumer) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.queue.Drain()

	for {
		if ctx.Err() != nil {
			return
		}

		if item, ok := c.queue.Get(ctx, c.getTimeout); ok {
			if err := c.surface.Show(item.Label, item.Frame); err != nil {
				slog.Warn("display failed", "label", item.Label, "error", err)
			} else if c.metrics != nil {
				c.metrics.FramesShown.Add(1)
			}
			item.Close()
		}

		if c.surface.PollQuit() {
			slog.Info("quit requested from display")
			cancel()
			return
		}
	}
}
