package hook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

// Runner fires every matching hook for an alert. It satisfies alert.Hook.
type Runner struct {
	manager  *Manager
	executor *Executor
}

// NewRunner creates a Runner over the hooks known to m.
func NewRunner(m *Manager, e *Executor) *Runner {
	return &Runner{manager: m, executor: e}
}

// Fire runs the hooks that handle ev.Kind one after another. All hooks
// are attempted; their failures are joined.
func (r *Runner) Fire(ctx context.Context, ev event.Event) error {
	var errs []error
	for _, h := range r.manager.List() {
		if !h.Manifest.Handles(ev.Kind) {
			continue
		}

		resp, err := r.executor.Execute(ctx, h, &Request{Event: ev, Config: h.Manifest.Config})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !resp.Success {
			errs = append(errs, fmt.Errorf("hook %s: %s", h.Manifest.Name, resp.Error))
			continue
		}
		slog.Debug("hook ran", "hook", h.Manifest.Name, "id", ev.ID)
	}
	return errors.Join(errs...)
}
