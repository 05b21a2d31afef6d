package hotkey

import (
	"math/rand"
	"testing"
	"time"

	"github.com/holoplot/go-evdev"
)

func keyEvent(dev string, code evdev.EvCode, action KeyAction) KeyEvent {
	return KeyEvent{Device: dev, Code: code, Action: action, Time: time.Now()}
}

func mustSpec(t *testing.T, combo string) *Spec {
	t.Helper()
	spec, err := ParseSpec(combo)
	if err != nil {
		t.Fatalf("ParseSpec(%q) error = %v", combo, err)
	}
	return spec
}

// TestTrackerScenario walks the canonical Meta+Shift+Space sequence:
// pressing all three activates, releasing Space deactivates, and the
// trailing modifier releases produce no further transitions.
func TestTrackerScenario(t *testing.T) {
	tr := NewTracker(mustSpec(t, "Meta+Shift+Space"))

	steps := []struct {
		code   evdev.EvCode
		action KeyAction
		want   Transition
	}{
		{evdev.KEY_LEFTMETA, ActionPress, TransitionNone},
		{evdev.KEY_LEFTSHIFT, ActionPress, TransitionNone},
		{evdev.KEY_SPACE, ActionPress, TransitionActivated},
		{evdev.KEY_SPACE, ActionRelease, TransitionDeactivated},
		{evdev.KEY_LEFTSHIFT, ActionRelease, TransitionNone},
		{evdev.KEY_LEFTMETA, ActionRelease, TransitionNone},
	}

	for i, step := range steps {
		got := tr.Apply(keyEvent("event0", step.code, step.action))
		if got != step.want {
			t.Errorf("step %d (%s %d): transition = %v, want %v",
				i, KeyName(step.code), step.action, got, step.want)
		}
	}
}

// TestTrackerModifierFirstRelease covers push-to-talk release-to-stop:
// dropping a modifier while the terminal key is still held deactivates
// immediately, and exactly once.
func TestTrackerModifierFirstRelease(t *testing.T) {
	tr := NewTracker(mustSpec(t, "Meta+Shift+Space"))

	tr.Apply(keyEvent("event0", evdev.KEY_LEFTMETA, ActionPress))
	tr.Apply(keyEvent("event0", evdev.KEY_LEFTSHIFT, ActionPress))
	if got := tr.Apply(keyEvent("event0", evdev.KEY_SPACE, ActionPress)); got != TransitionActivated {
		t.Fatalf("press Space: transition = %v, want activated", got)
	}

	if got := tr.Apply(keyEvent("event0", evdev.KEY_LEFTSHIFT, ActionRelease)); got != TransitionDeactivated {
		t.Errorf("release Shift: transition = %v, want deactivated", got)
	}
	if got := tr.Apply(keyEvent("event0", evdev.KEY_SPACE, ActionRelease)); got != TransitionNone {
		t.Errorf("release Space after break: transition = %v, want none", got)
	}
	if got := tr.Apply(keyEvent("event0", evdev.KEY_LEFTMETA, ActionRelease)); got != TransitionNone {
		t.Errorf("release Meta after break: transition = %v, want none", got)
	}
}

func TestTrackerIgnoresRepeats(t *testing.T) {
	tr := NewTracker(mustSpec(t, "Ctrl+R"))

	tr.Apply(keyEvent("event0", evdev.KEY_LEFTCTRL, ActionPress))
	if got := tr.Apply(keyEvent("event0", evdev.KEY_R, ActionPress)); got != TransitionActivated {
		t.Fatalf("press R: transition = %v, want activated", got)
	}

	// Auto-repeat while held must not re-trigger.
	for i := 0; i < 5; i++ {
		if got := tr.Apply(keyEvent("event0", evdev.KEY_R, ActionRepeat)); got != TransitionNone {
			t.Fatalf("repeat %d: transition = %v, want none", i, got)
		}
	}
}

func TestTrackerIgnoresUnknownRelease(t *testing.T) {
	tr := NewTracker(mustSpec(t, "Ctrl+R"))

	// Release without a prior press must not disturb anything.
	if got := tr.Apply(keyEvent("event0", evdev.KEY_R, ActionRelease)); got != TransitionNone {
		t.Errorf("stray release: transition = %v, want none", got)
	}

	tr.Apply(keyEvent("event0", evdev.KEY_LEFTCTRL, ActionPress))
	tr.Apply(keyEvent("event0", evdev.KEY_R, ActionPress))
	if !tr.Snapshot().Active {
		t.Error("combo should be active after stray release then full press")
	}
}

func TestTrackerRightVariants(t *testing.T) {
	tr := NewTracker(mustSpec(t, "Ctrl+Shift+R"))

	tr.Apply(keyEvent("event0", evdev.KEY_RIGHTCTRL, ActionPress))
	tr.Apply(keyEvent("event1", evdev.KEY_RIGHTSHIFT, ActionPress))
	if got := tr.Apply(keyEvent("event0", evdev.KEY_R, ActionPress)); got != TransitionActivated {
		t.Errorf("right-hand modifiers: transition = %v, want activated", got)
	}
}

func TestTrackerReloadResetsState(t *testing.T) {
	tr := NewTracker(mustSpec(t, "Ctrl+R"))

	tr.Apply(keyEvent("event0", evdev.KEY_LEFTCTRL, ActionPress))
	tr.Apply(keyEvent("event0", evdev.KEY_R, ActionPress))
	if !tr.Snapshot().Active {
		t.Fatal("combo should be active before reload")
	}

	tr.Reload(mustSpec(t, "Ctrl+T"))

	snap := tr.Snapshot()
	if snap.Active {
		t.Error("combo should not be active after reload")
	}
	if len(snap.Held) != 0 {
		t.Errorf("held set after reload = %v, want empty", snap.Held)
	}

	// The keys physically still held do not sour the new spec: releases
	// for them are ignored, and a fresh press sequence activates cleanly.
	tr.Apply(keyEvent("event0", evdev.KEY_R, ActionRelease))
	tr.Apply(keyEvent("event0", evdev.KEY_LEFTCTRL, ActionPress))
	if got := tr.Apply(keyEvent("event0", evdev.KEY_T, ActionPress)); got != TransitionActivated {
		t.Errorf("fresh combo after reload: transition = %v, want activated", got)
	}
}

// TestTrackerRandomInterleavings simulates random but physically consistent
// press/release sequences across multiple devices and checks the invariant:
// the active flag is true iff every combo key is currently down.
func TestTrackerRandomInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	spec := mustSpec(t, "Meta+Shift+Space")
	comboKeys := map[evdev.EvCode]bool{
		evdev.KEY_LEFTMETA:  true,
		evdev.KEY_LEFTSHIFT: true,
		evdev.KEY_SPACE:     true,
	}

	pool := []evdev.EvCode{
		evdev.KEY_LEFTMETA, evdev.KEY_LEFTSHIFT, evdev.KEY_SPACE,
		evdev.KEY_A, evdev.KEY_B, evdev.KEY_LEFTCTRL, evdev.KEY_F5,
	}
	devices := []string{"event0", "event1", "event2"}

	for trial := 0; trial < 200; trial++ {
		tr := NewTracker(spec)
		down := make(map[evdev.EvCode]bool)

		for step := 0; step < 100; step++ {
			code := pool[rng.Intn(len(pool))]
			dev := devices[rng.Intn(len(devices))]

			var action KeyAction
			switch {
			case !down[code]:
				action = ActionPress
				down[code] = true
			case rng.Intn(3) == 0:
				action = ActionRepeat
			default:
				action = ActionRelease
				down[code] = false
			}

			transition := tr.Apply(keyEvent(dev, code, action))

			wantActive := true
			for key := range comboKeys {
				if !down[key] {
					wantActive = false
					break
				}
			}

			snap := tr.Snapshot()
			if snap.Active != wantActive {
				t.Fatalf("trial %d step %d: active = %v, want %v (down=%v)",
					trial, step, snap.Active, wantActive, down)
			}
			if transition == TransitionActivated && !wantActive {
				t.Fatalf("trial %d step %d: spurious activation", trial, step)
			}
			if transition == TransitionDeactivated && wantActive {
				t.Fatalf("trial %d step %d: spurious deactivation", trial, step)
			}
		}
	}
}
