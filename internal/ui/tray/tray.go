package tray

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/systray"

	"tomatotimer/internal/core/timefmt"
	"tomatotimer/internal/core/timekeeper"
)

const appTitle = "TomatoTimer"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnStart       func()
	OnStop        func()
	OnReset       func()
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state. Its methods must run on the fyne
// thread.
type Manager struct {
	app        desktop.App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	startItem  *fyne.MenuItem
	stopItem   *fyne.MenuItem
	resetItem  *fyne.MenuItem
	menu       *fyne.Menu
	state      timekeeper.State
	remaining  time.Duration
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
		state:     timekeeper.StateIdle,
	}

	manager.statusItem = fyne.NewMenuItem("Status: idle", nil)
	manager.statusItem.Disabled = true
	manager.startItem = fyne.NewMenuItem("Start", invoke(&manager.callbacks.OnStart))
	manager.stopItem = fyne.NewMenuItem("Stop", invoke(&manager.callbacks.OnStop))
	manager.resetItem = fyne.NewMenuItem("Reset", invoke(&manager.callbacks.OnReset))

	manager.menu = fyne.NewMenu(appTitle,
		manager.statusItem,
		fyne.NewMenuItem("Show timer", invoke(&manager.callbacks.OnShow)),
		fyne.NewMenuItemSeparator(),
		manager.startItem,
		manager.stopItem,
		manager.resetItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", invoke(&manager.callbacks.OnPreferences)),
		fyne.NewMenuItem("Quit", invoke(&manager.callbacks.OnQuit)),
	)
	manager.applyState()
	if app != nil {
		app.SetSystemTrayMenu(manager.menu)
	}
	return manager
}

// SetState updates labels and enabled items for a countdown event.
func (manager *Manager) SetState(state timekeeper.State, remaining time.Duration) {
	if manager.state == state && manager.remaining == remaining {
		return
	}
	manager.state = state
	manager.remaining = remaining
	manager.applyState()
	manager.refreshMenu()
}

func (manager *Manager) applyState() {
	status := statusText(manager.state, manager.remaining)
	manager.statusItem.Label = "Status: " + status
	manager.startItem.Label = startLabel(manager.state)
	manager.startItem.Disabled = manager.state == timekeeper.StateRunning
	manager.stopItem.Disabled = manager.state != timekeeper.StateRunning
	manager.resetItem.Disabled = manager.state == timekeeper.StateIdle
	if manager.app != nil {
		systray.SetTooltip(fmt.Sprintf("%s: %s", appTitle, status))
	}
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.menu)
	}
}

func statusText(state timekeeper.State, remaining time.Duration) string {
	switch state {
	case timekeeper.StateRunning:
		return timefmt.Format(remaining) + " left"
	case timekeeper.StatePaused:
		return fmt.Sprintf("%s left (paused)", timefmt.Format(remaining))
	case timekeeper.StateCompleted:
		return "done"
	default:
		return "idle"
	}
}

func startLabel(state timekeeper.State) string {
	switch state {
	case timekeeper.StatePaused:
		return "Resume"
	case timekeeper.StateCompleted:
		return "Start again"
	default:
		return "Start"
	}
}

// invoke defers the callback lookup so handlers can be set after New.
func invoke(handler *func()) func() {
	return func() {
		if *handler != nil {
			(*handler)()
		}
	}
}
