package hotkey

import (
	"github.com/holoplot/go-evdev"
)

// Transition is the combo-level outcome of applying one key event.
type Transition int

const (
	// TransitionNone means the combo state did not change.
	TransitionNone Transition = iota
	// TransitionActivated means the full combo just became held.
	TransitionActivated
	// TransitionDeactivated means a combo member was just released.
	TransitionDeactivated
)

// State is an immutable snapshot of the tracker for external readers.
type State struct {
	Held   []evdev.EvCode
	Active bool
}

// Tracker maintains the live set of held keys across all devices and
// detects transitions of the configured combo. It is not safe for
// concurrent use; the listener goroutine is its sole owner and hands out
// copies via Snapshot.
type Tracker struct {
	spec   *Spec
	held   map[evdev.EvCode]struct{}
	active bool
}

// NewTracker creates a Tracker for the given spec with no keys held.
func NewTracker(spec *Spec) *Tracker {
	return &Tracker{
		spec: spec,
		held: make(map[evdev.EvCode]struct{}),
	}
}

// Apply folds one key event into the held set and reports whether the
// combo activated or deactivated as a result.
//
// Auto-repeat events are ignored: the key is already held and treating
// repeats as presses would re-activate a combo the user never released.
// A release for a key not recorded as held is also ignored, so a release
// that arrives before we started listening cannot corrupt the set.
func (t *Tracker) Apply(ev KeyEvent) Transition {
	code := canonicalCode(ev.Code)

	switch ev.Action {
	case ActionPress:
		t.held[code] = struct{}{}
	case ActionRelease:
		if _, ok := t.held[code]; !ok {
			return TransitionNone
		}
		delete(t.held, code)
	default:
		return TransitionNone
	}

	was := t.active
	t.active = t.comboHeld()

	switch {
	case !was && t.active:
		return TransitionActivated
	case was && !t.active:
		return TransitionDeactivated
	}
	return TransitionNone
}

// Reload swaps in a new spec atomically and resets the held set.
// Clearing avoids a stale activation from keys held under the old spec.
func (t *Tracker) Reload(spec *Spec) {
	t.spec = spec
	t.held = make(map[evdev.EvCode]struct{})
	t.active = false
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	held := make([]evdev.EvCode, 0, len(t.held))
	for code := range t.held {
		held = append(held, code)
	}
	return State{Held: held, Active: t.active}
}

func (t *Tracker) comboHeld() bool {
	for _, code := range t.spec.keys() {
		if _, ok := t.held[code]; !ok {
			return false
		}
	}
	return true
}
