package hotkey

import (
	"testing"

	"github.com/holoplot/go-evdev"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		combo     string
		modifiers []evdev.EvCode
		terminal  evdev.EvCode
	}{
		{"Meta+Shift+Space", []evdev.EvCode{evdev.KEY_LEFTMETA, evdev.KEY_LEFTSHIFT}, evdev.KEY_SPACE},
		{"Ctrl+Alt+R", []evdev.EvCode{evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT}, evdev.KEY_R},
		{"ctrl+shift+f12", []evdev.EvCode{evdev.KEY_LEFTCTRL, evdev.KEY_LEFTSHIFT}, evdev.KEY_F12},
		{"Super+Enter", []evdev.EvCode{evdev.KEY_LEFTMETA}, evdev.KEY_ENTER},
		{"Alt+3", []evdev.EvCode{evdev.KEY_LEFTALT}, evdev.KEY_3},
	}

	for _, tt := range tests {
		spec, err := ParseSpec(tt.combo)
		if err != nil {
			t.Errorf("ParseSpec(%q) error = %v", tt.combo, err)
			continue
		}
		if len(spec.Modifiers) != len(tt.modifiers) {
			t.Errorf("ParseSpec(%q) modifiers = %v, want %v", tt.combo, spec.Modifiers, tt.modifiers)
			continue
		}
		for i, mod := range tt.modifiers {
			if spec.Modifiers[i] != mod {
				t.Errorf("ParseSpec(%q) modifier[%d] = %d, want %d", tt.combo, i, spec.Modifiers[i], mod)
			}
		}
		if spec.Terminal != tt.terminal {
			t.Errorf("ParseSpec(%q) terminal = %d, want %d", tt.combo, spec.Terminal, tt.terminal)
		}
		if spec.String() != tt.combo {
			t.Errorf("ParseSpec(%q).String() = %q", tt.combo, spec.String())
		}
	}
}

func TestParseSpecErrors(t *testing.T) {
	combos := []string{
		"",                // empty
		"Space",           // no modifier
		"Meta+",           // empty terminal
		"+Space",          // empty modifier
		"Meta+Banana",     // unknown terminal
		"Hyper+Space",     // unknown modifier
		"Meta+Meta+Space", // duplicate modifier
		"Space+Meta",      // modifier in terminal position
	}

	for _, combo := range combos {
		if _, err := ParseSpec(combo); err == nil {
			t.Errorf("ParseSpec(%q) should fail", combo)
		}
	}
}

func TestCanonicalCode(t *testing.T) {
	if got := canonicalCode(evdev.KEY_RIGHTSHIFT); got != evdev.KEY_LEFTSHIFT {
		t.Errorf("canonicalCode(KEY_RIGHTSHIFT) = %d, want KEY_LEFTSHIFT", got)
	}
	if got := canonicalCode(evdev.KEY_A); got != evdev.KEY_A {
		t.Errorf("canonicalCode(KEY_A) = %d, want KEY_A", got)
	}
}
