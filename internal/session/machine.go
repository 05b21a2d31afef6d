// Package session converts combo transitions and toggle requests into
// single-flight recording commands. The machine itself is pure state
// bookkeeping; audio capture and status display are collaborators behind
// small interfaces.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the recording state, exposed for status display.
type State int

const (
	// StateIdle means no recording session exists.
	StateIdle State = iota
	// StateRecording means exactly one session is active.
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Mode selects how combo transitions drive the machine.
type Mode int

const (
	// ModePushToTalk records while the combo is continuously held.
	ModePushToTalk Mode = iota
	// ModeToggle flips recording on each combo activation.
	ModeToggle
)

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "push_to_talk", "":
		return ModePushToTalk, nil
	case "toggle":
		return ModeToggle, nil
	default:
		return 0, fmt.Errorf("session: unknown mode %q (use push_to_talk or toggle)", s)
	}
}

// Recorder is the audio-capture collaborator. Start failing is recoverable:
// the machine reverts to Idle and the hotkey listener keeps running.
type Recorder interface {
	Start() error
	Stop()
}

// Notifier receives state changes and recoverable errors for the tray.
type Notifier interface {
	StateChanged(State)
	Error(msg string)
}

// Machine is the recording state machine. Combo transitions and toggle
// requests (tray clicks) feed the same two-state core, so hotkey-hold and
// click-to-record can never be concurrently active. All entry points are
// safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	mode      Mode
	state     State
	startedAt time.Time

	rec    Recorder
	notify Notifier

	maxDuration time.Duration
	cutoff      *time.Timer
}

// New creates an idle Machine. maxDuration > 0 arms a safety cutoff that
// stops a session left running (a stuck key, a forgotten toggle).
func New(mode Mode, rec Recorder, notify Notifier, maxDuration time.Duration) *Machine {
	return &Machine{
		mode:        mode,
		state:       StateIdle,
		rec:         rec,
		notify:      notify,
		maxDuration: maxDuration,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetMode changes how combo transitions are interpreted. An active session
// keeps running; the new mode applies from the next transition.
func (m *Machine) SetMode(mode Mode) {
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
}

// ComboActivated handles the full combo becoming held.
func (m *Machine) ComboActivated() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.mode {
	case ModePushToTalk:
		m.start()
	case ModeToggle:
		if m.state == StateRecording {
			m.stop()
		} else {
			m.start()
		}
	}
}

// ComboDeactivated handles the combo being broken. Only push-to-talk cares:
// releasing any combo member stops the session.
func (m *Machine) ComboDeactivated() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == ModePushToTalk {
		m.stop()
	}
}

// Toggle flips recording regardless of mode. This is the tray-click path.
func (m *Machine) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateRecording {
		m.stop()
	} else {
		m.start()
	}
}

// start is a no-op when already recording, so duplicate combo events can
// never produce two consecutive start commands. Callers hold m.mu.
func (m *Machine) start() {
	if m.state == StateRecording {
		return
	}

	if err := m.rec.Start(); err != nil {
		slog.Error("Failed to start recording", "error", err)
		m.notify.Error(fmt.Sprintf("Could not start recording: %v", err))
		return
	}

	m.state = StateRecording
	m.startedAt = time.Now()
	if m.maxDuration > 0 {
		m.cutoff = time.AfterFunc(m.maxDuration, m.cutoffFired)
	}
	slog.Info("Recording started", "mode", m.mode)
	m.notify.StateChanged(StateRecording)
}

// stop is a no-op when idle. Callers hold m.mu.
func (m *Machine) stop() {
	if m.state != StateRecording {
		return
	}

	if m.cutoff != nil {
		m.cutoff.Stop()
		m.cutoff = nil
	}

	m.state = StateIdle
	m.rec.Stop()
	slog.Info("Recording stopped", "duration", time.Since(m.startedAt).Round(time.Millisecond))
	m.notify.StateChanged(StateIdle)
}

func (m *Machine) cutoffFired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRecording {
		return
	}
	slog.Warn("Recording hit maximum duration, stopping", "max", m.maxDuration)
	m.stop()
}
