package hotkey

import (
	"fmt"
	"strings"

	"github.com/holoplot/go-evdev"
)

// Spec is a parsed hotkey combination: one or more modifiers plus a single
// terminal key, all of which must be held simultaneously to activate.
// A Spec is immutable after parsing.
type Spec struct {
	// Modifiers holds the canonical (left-variant) modifier codes in the
	// order they appeared in the combo string.
	Modifiers []evdev.EvCode
	// Terminal is the non-modifier key that completes the combo.
	Terminal evdev.EvCode

	raw string
}

// modifierCodes maps modifier names to their canonical key code.
// Right-hand variants are folded onto these by canonicalCode.
var modifierCodes = map[string]evdev.EvCode{
	"meta":  evdev.KEY_LEFTMETA,
	"super": evdev.KEY_LEFTMETA,
	"shift": evdev.KEY_LEFTSHIFT,
	"ctrl":  evdev.KEY_LEFTCTRL,
	"alt":   evdev.KEY_LEFTALT,
}

// terminalCodes maps terminal key names to key codes. Letters, digits,
// function keys and a few whitespace keys are supported.
var terminalCodes = map[string]evdev.EvCode{
	"a": evdev.KEY_A, "b": evdev.KEY_B, "c": evdev.KEY_C, "d": evdev.KEY_D,
	"e": evdev.KEY_E, "f": evdev.KEY_F, "g": evdev.KEY_G, "h": evdev.KEY_H,
	"i": evdev.KEY_I, "j": evdev.KEY_J, "k": evdev.KEY_K, "l": evdev.KEY_L,
	"m": evdev.KEY_M, "n": evdev.KEY_N, "o": evdev.KEY_O, "p": evdev.KEY_P,
	"q": evdev.KEY_Q, "r": evdev.KEY_R, "s": evdev.KEY_S, "t": evdev.KEY_T,
	"u": evdev.KEY_U, "v": evdev.KEY_V, "w": evdev.KEY_W, "x": evdev.KEY_X,
	"y": evdev.KEY_Y, "z": evdev.KEY_Z,

	"0": evdev.KEY_0, "1": evdev.KEY_1, "2": evdev.KEY_2, "3": evdev.KEY_3,
	"4": evdev.KEY_4, "5": evdev.KEY_5, "6": evdev.KEY_6, "7": evdev.KEY_7,
	"8": evdev.KEY_8, "9": evdev.KEY_9,

	"f1": evdev.KEY_F1, "f2": evdev.KEY_F2, "f3": evdev.KEY_F3,
	"f4": evdev.KEY_F4, "f5": evdev.KEY_F5, "f6": evdev.KEY_F6,
	"f7": evdev.KEY_F7, "f8": evdev.KEY_F8, "f9": evdev.KEY_F9,
	"f10": evdev.KEY_F10, "f11": evdev.KEY_F11, "f12": evdev.KEY_F12,

	"space": evdev.KEY_SPACE,
	"enter": evdev.KEY_ENTER,
	"tab":   evdev.KEY_TAB,
}

// rightVariants folds right-hand modifier keys onto their canonical
// left-hand code so that either physical key satisfies the combo.
var rightVariants = map[evdev.EvCode]evdev.EvCode{
	evdev.KEY_RIGHTMETA:  evdev.KEY_LEFTMETA,
	evdev.KEY_RIGHTSHIFT: evdev.KEY_LEFTSHIFT,
	evdev.KEY_RIGHTCTRL:  evdev.KEY_LEFTCTRL,
	evdev.KEY_RIGHTALT:   evdev.KEY_LEFTALT,
}

// canonicalCode returns the code used for combo matching: right-hand
// modifiers become their left-hand equivalent, everything else is unchanged.
func canonicalCode(code evdev.EvCode) evdev.EvCode {
	if left, ok := rightVariants[code]; ok {
		return left
	}
	return code
}

// ParseSpec parses a combo string of the form "Mod[+Mod...]+Key",
// e.g. "Meta+Shift+Space" or "Ctrl+Alt+R". Names are case-insensitive.
// At least one modifier and exactly one terminal key are required.
func ParseSpec(combo string) (*Spec, error) {
	parts := strings.Split(combo, "+")
	if len(parts) < 2 {
		return nil, fmt.Errorf("hotkey: combo %q needs at least one modifier and a key", combo)
	}

	spec := &Spec{raw: combo}
	seen := make(map[evdev.EvCode]bool)

	for i, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			return nil, fmt.Errorf("hotkey: combo %q has an empty component", combo)
		}

		if i < len(parts)-1 {
			code, ok := modifierCodes[name]
			if !ok {
				return nil, fmt.Errorf("hotkey: unknown modifier %q in combo %q (use Meta, Shift, Ctrl or Alt)", part, combo)
			}
			if seen[code] {
				return nil, fmt.Errorf("hotkey: duplicate modifier %q in combo %q", part, combo)
			}
			seen[code] = true
			spec.Modifiers = append(spec.Modifiers, code)
			continue
		}

		code, ok := terminalCodes[name]
		if !ok {
			return nil, fmt.Errorf("hotkey: unknown key %q in combo %q", part, combo)
		}
		if seen[code] {
			return nil, fmt.Errorf("hotkey: key %q repeats a modifier in combo %q", part, combo)
		}
		spec.Terminal = code
	}

	return spec, nil
}

// String returns the combo string the Spec was parsed from.
func (s *Spec) String() string {
	return s.raw
}

// keys returns every canonical code that must be held for the combo.
func (s *Spec) keys() []evdev.EvCode {
	out := make([]evdev.EvCode, 0, len(s.Modifiers)+1)
	out = append(out, s.Modifiers...)
	return append(out, s.Terminal)
}
