// Package hotkey detects a global modifier+key combination by reading raw
// kernel input devices through evdev. It works identically under Wayland and
// X11 because it never touches the window system: devices are read below the
// compositor, and activation is evaluated against the merged event stream of
// every keyboard the process can open.
package hotkey

import (
	"context"
	"log/slog"
	"time"

	"github.com/holoplot/go-evdev"
)

// EventType distinguishes combo activation from release.
type EventType int

const (
	// EventActivated signals the full combo just became held.
	EventActivated EventType = iota
	// EventDeactivated signals the combo was just broken.
	EventDeactivated
)

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
	Time time.Time
}

// rescanDelay debounces device re-enumeration after a hot-plug event so a
// hub disconnect does not trigger one rescan per port.
const rescanDelay = 500 * time.Millisecond

// Listener owns the device read loop: it enumerates keyboards, multiplexes
// their event streams and drives the combo tracker. Combo transitions are
// delivered on a buffered channel; a full channel drops the oldest-unread
// semantics in favour of never blocking the read loop.
type Listener struct {
	ch      chan Event
	reload  chan *Spec
	snaps   chan chan State
	exclude string

	// enumerate is swapped out by tests to feed scripted devices.
	enumerate func() ([]source, error)

	tracker *Tracker
}

// NewListener creates a Listener for the given spec. Devices whose name
// equals exclude are ignored during enumeration.
func NewListener(spec *Spec, exclude string) *Listener {
	return &Listener{
		ch:      make(chan Event, 16),
		reload:  make(chan *Spec, 1),
		snaps:   make(chan chan State),
		exclude: exclude,
		tracker: NewTracker(spec),
		enumerate: func() ([]source, error) {
			devices, err := ListKeyboards(exclude)
			if err != nil {
				return nil, err
			}
			sources := make([]source, len(devices))
			for i, dev := range devices {
				sources[i] = dev
			}
			return sources, nil
		},
	}
}

// Events returns the combo transition channel. It is closed when Run returns.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Reload swaps the hotkey spec. The held-key state resets, so a combo must
// be pressed fresh after a config change.
func (l *Listener) Reload(spec *Spec) {
	select {
	case <-l.reload:
	default:
	}
	l.reload <- spec
}

// Snapshot returns a copy of the current combo state. It is served by the
// read-loop goroutine, so it reflects a consistent point in the stream.
// After Run has returned it reports the zero State.
func (l *Listener) Snapshot() State {
	req := make(chan State, 1)
	select {
	case l.snaps <- req:
		return <-req
	default:
		return State{}
	}
}

// Run blocks reading devices until ctx is cancelled. The initial enumeration
// failing is fatal (typically a PermissionError); device loss afterwards
// triggers a debounced rescan while the remaining devices keep flowing.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.ch)

	first := true
	for {
		sources, err := l.enumerate()
		if err != nil {
			if first {
				return err
			}
			slog.Warn("Device rescan failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(rescanDelay):
				continue
			}
		}
		first = false

		if done := l.serve(ctx, newMux(sources)); done {
			return nil
		}
	}
}

// serve consumes one mux until a rescan is needed or ctx ends.
// It reports true when the listener should shut down.
func (l *Listener) serve(ctx context.Context, m *mux) bool {
	defer m.Close()

	var rescan <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return true

		case ev, ok := <-m.Events():
			if !ok {
				// Every device dropped; rebuild immediately.
				return false
			}
			l.dispatch(ev)

		case path := <-m.Lost():
			slog.Debug("Input device lost, scheduling rescan", "device", path)
			if rescan == nil {
				rescan = time.After(rescanDelay)
			}

		case <-rescan:
			return false

		case spec := <-l.reload:
			l.tracker.Reload(spec)
			slog.Info("Hotkey combo reloaded", "combo", spec.String())

		case req := <-l.snaps:
			req <- l.tracker.Snapshot()
		}
	}
}

// dispatch applies one key event and forwards any combo transition.
func (l *Listener) dispatch(ev KeyEvent) {
	var out Event
	switch l.tracker.Apply(ev) {
	case TransitionActivated:
		out = Event{Type: EventActivated, Time: ev.Time}
	case TransitionDeactivated:
		out = Event{Type: EventDeactivated, Time: ev.Time}
	default:
		return
	}

	select {
	case l.ch <- out:
	default:
		slog.Warn("Hotkey event dropped, consumer too slow")
	}
}

// KeyName returns the evdev name of a key code, for diagnostics.
func KeyName(code evdev.EvCode) string {
	return evdev.CodeName(evdev.EV_KEY, code)
}
