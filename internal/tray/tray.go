// Package tray provides the operator's system tray menu.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	lastAlert   string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastAlert *systray.MenuItem
}

// New creates a new Tray with monitoring enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when monitoring is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback called when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback called when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Stop or the Quit item is used.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Stop closes the tray.
func (t *Tray) Stop() {
	systray.Quit()
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Abhayam")
	systray.SetTooltip("Abhayam region safety monitor")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume monitoring")
	systray.AddSeparator()

	t.menuLastAlert = systray.AddMenuItem(lastAlertTitle(t.lastAlert), "Most recent alert")
	t.menuLastAlert.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the alert API in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Stop monitoring and quit")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Monitoring"
	}
	return "○ Paused"
}

func lastAlertTitle(desc string) string {
	if desc == "" {
		return "Last alert: none"
	}
	return "Last alert: " + desc
}

// describe renders ev for the menu, e.g. "Lone female detected @ Lobby 10:00:00".
func describe(ev event.Event) string {
	return fmt.Sprintf("%s @ %s %s", ev.Kind.ActionText(), ev.Location, ev.Timestamp.Format("15:04:05"))
}

// handleToggle flips the monitoring state.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastAlert shows ev as the most recent alert. It can be passed to
// alert.Dispatcher.Subscribe.
func (t *Tray) SetLastAlert(ev event.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAlert = describe(ev)
	if t.menuLastAlert != nil {
		t.menuLastAlert.SetTitle(lastAlertTitle(t.lastAlert))
	}
}

// LastAlert returns the description of the most recent alert.
func (t *Tray) LastAlert() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAlert
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
