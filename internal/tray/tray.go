// Package tray shows recording status in the system tray and feeds toggle
// clicks back into the recording state machine.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/typr-dev/typr/internal/session"
)

// Tray manages the status icon and its menu. All methods are safe to call
// before the tray loop is ready; updates are dropped until then.
type Tray struct {
	combo    string
	onToggle func()
	onQuit   func()

	mu      sync.Mutex
	ready   bool
	mStatus *systray.MenuItem
	mToggle *systray.MenuItem
}

// New creates a Tray. onToggle fires when the user clicks the record menu
// item; onQuit when they quit from the menu.
func New(combo string, onToggle, onQuit func()) *Tray {
	return &Tray{
		combo:    combo,
		onToggle: onToggle,
		onQuit:   onQuit,
	}
}

// Run enters the tray main loop. It blocks until Quit is called and must
// run on the main goroutine on most platforms.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit ends the tray loop started by Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("typr")
	systray.SetTooltip(fmt.Sprintf("typr — hold %s to dictate", t.combo))

	t.mu.Lock()
	t.mStatus = systray.AddMenuItem("Ready", "Current state")
	t.mStatus.Disable()
	systray.AddSeparator()
	t.mToggle = systray.AddMenuItem("Start Recording", "Toggle recording")
	mQuit := systray.AddMenuItem("Quit", "Exit typr")
	t.ready = true
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.mToggle.ClickedCh:
				t.onToggle()
			case <-mQuit.ClickedCh:
				t.onQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// SetState updates the icon title and menu to reflect the machine state.
func (t *Tray) SetState(s session.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	switch s {
	case session.StateRecording:
		systray.SetTitle("typr ●")
		t.mStatus.SetTitle("Recording...")
		t.mToggle.SetTitle("Stop Recording")
	default:
		systray.SetTitle("typr")
		t.mStatus.SetTitle("Ready")
		t.mToggle.SetTitle("Start Recording")
	}
}

// SetStatus shows a transient status line, e.g. "Transcribing..." or an
// error message.
func (t *Tray) SetStatus(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}
	t.mStatus.SetTitle(msg)
}

// SetCombo updates the tooltip after a hotkey reload.
func (t *Tray) SetCombo(combo string) {
	t.mu.Lock()
	t.combo = combo
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.SetTooltip(fmt.Sprintf("typr — hold %s to dictate", combo))
	}
}
