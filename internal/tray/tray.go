// Package tray shows the recording state in the system tray and offers the
// toggle and quit actions.
package tray

import (
	"log"
	"sync"

	"fyne.io/systray"
)

type State int

const (
	Idle State = iota
	Recording
	// Degraded follows a capture failure and lasts until the next start.
	Degraded
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Degraded:
		return "degraded"
	default:
		return "idle"
	}
}

type Callbacks struct {
	OnToggle func()
	OnQuit   func()
}

type App struct {
	shortcut  string
	callbacks Callbacks

	mu     sync.Mutex
	state    State
	ready    bool
	quitting bool
	toggle *systray.MenuItem
	status *systray.MenuItem
	quit   *systray.MenuItem
	done   chan struct{}
}

// New returns a tray app. shortcut is the human readable hotkey shown next to
// the toggle item; empty hides it.
func New(shortcut string, callbacks Callbacks) *App {
	return &App{
		shortcut:  shortcut,
		callbacks: callbacks,
		done:      make(chan struct{}),
	}
}

// Run blocks until Quit is called or the tray is closed.
func (a *App) Run() {
	systray.Run(a.onReady, a.onExit)
}

// Done is closed once the tray has exited.
func (a *App) Done() <-chan struct{} {
	return a.done
}

func (a *App) onReady() {
	a.mu.Lock()
	state := a.state
	systray.SetTitle("")
	a.status = systray.AddMenuItem(statusLabel(state), "Current state")
	a.status.Disable()
	systray.AddSeparator()
	a.toggle = systray.AddMenuItem(toggleLabel(state, a.shortcut), "Start or stop recording")
	systray.AddSeparator()
	a.quit = systray.AddMenuItem("Quit", "Stop whisperclip")
	a.ready = true
	a.applyLocked(state)
	quitting := a.quitting
	a.mu.Unlock()

	if quitting {
		systray.Quit()
		return
	}
	log.Printf("Tray: ready")
	go a.handleClicks()
}

func (a *App) onExit() {
	log.Printf("Tray: exited")
	close(a.done)
}

func (a *App) handleClicks() {
	for {
		select {
		case <-a.toggle.ClickedCh:
			if a.callbacks.OnToggle != nil {
				a.callbacks.OnToggle()
			}
		case <-a.quit.ClickedCh:
			if a.callbacks.OnQuit != nil {
				a.callbacks.OnQuit()
			}
			return
		case <-a.done:
			return
		}
	}
}

// SetState updates icon and menu. Calls before the tray is ready are kept and
// applied once it is.
func (a *App) SetState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == s {
		return
	}
	a.state = s
	if a.ready {
		a.applyLocked(s)
	}
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) applyLocked(s State) {
	systray.SetIcon(Icon(s))
	systray.SetTooltip("whisperclip: " + s.String())
	a.status.SetTitle(statusLabel(s))
	a.toggle.SetTitle(toggleLabel(s, a.shortcut))
}

// Quit closes the tray. Before the tray is ready the request is kept and
// honoured as soon as it is.
func (a *App) Quit() {
	a.mu.Lock()
	a.quitting = true
	ready := a.ready
	a.mu.Unlock()
	if ready {
		systray.Quit()
	}
}

func statusLabel(s State) string {
	switch s {
	case Recording:
		return "Status: Recording"
	case Degraded:
		return "Status: Microphone error"
	default:
		return "Status: Idle"
	}
}

func toggleLabel(s State, shortcut string) string {
	var label string
	switch s {
	case Recording:
		label = "Stop Recording"
	case Degraded:
		label = "Retry Recording"
	default:
		label = "Start Recording"
	}
	if shortcut != "" {
		label += " (" + shortcut + ")"
	}
	return label
}
