package output

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/holoplot/go-evdev"
)

// Device is the keystroke sink the injector writes to. *Keyboard satisfies
// it; tests substitute a recorder.
type Device interface {
	Press(code evdev.EvCode) error
	Release(code evdev.EvCode) error
}

// PartialError reports an injection that failed after typing part of the
// text. The typed prefix stays: there is no portable way to undo keystrokes
// in an arbitrary focused application.
type PartialError struct {
	Written int // characters fully typed before the failure
	Total   int
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("output: injection failed after %d/%d characters: %v", e.Written, e.Total, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Injector types text through the virtual keyboard one character at a time.
// Calls are serialized: interleaved press/release sequences from two callers
// would corrupt both texts.
type Injector struct {
	mu    sync.Mutex
	dev   Device
	delay time.Duration
}

// NewInjector wraps dev with the given inter-keystroke delay. A small delay
// keeps fast injection from outrunning the focused application's input
// processing; zero disables it.
func NewInjector(dev Device, delay time.Duration) *Injector {
	return &Injector{dev: dev, delay: delay}
}

// SetDelay updates the inter-keystroke delay, taking effect on the next
// injection call.
func (inj *Injector) SetDelay(delay time.Duration) {
	inj.mu.Lock()
	inj.delay = delay
	inj.mu.Unlock()
}

// Inject types text into whatever application holds focus. Characters are
// emitted in order; unmapped runes are skipped with a warning. A device
// failure mid-text returns a PartialError describing how far typing got.
// Cancellation via ctx stops between characters.
func (inj *Injector) Inject(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	inj.mu.Lock()
	defer inj.mu.Unlock()

	runes := []rune(text)
	for i, r := range runes {
		if err := ctx.Err(); err != nil {
			return &PartialError{Written: i, Total: len(runes), Err: err}
		}

		ks, ok := layout[r]
		if !ok {
			slog.Warn("Skipping character with no key mapping", "char", string(r))
			continue
		}

		if err := inj.typeKey(ks); err != nil {
			return &PartialError{Written: i, Total: len(runes), Err: err}
		}

		if inj.delay > 0 {
			time.Sleep(inj.delay)
		}
	}

	return nil
}

// typeKey performs one full keystroke: modifier down, key down, key up,
// modifier up, in that order.
func (inj *Injector) typeKey(ks keystroke) error {
	if ks.shift {
		if err := inj.dev.Press(evdev.KEY_LEFTSHIFT); err != nil {
			return err
		}
	}
	if err := inj.dev.Press(ks.code); err != nil {
		return err
	}
	if err := inj.dev.Release(ks.code); err != nil {
		return err
	}
	if ks.shift {
		if err := inj.dev.Release(evdev.KEY_LEFTSHIFT); err != nil {
			return err
		}
	}
	return nil
}
