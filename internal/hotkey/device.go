package hotkey

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/holoplot/go-evdev"
)

// PermissionError reports a device node that exists but could not be opened.
// This is a fatal, user-correctable startup condition.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("hotkey: open %s: %v (add your user to the \"input\" group and log in again)", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ErrNoKeyboards is returned when enumeration finds no readable device that
// can produce keyboard events.
var ErrNoKeyboards = errors.New("hotkey: no readable keyboard devices found under /dev/input")

// ListKeyboards opens every input device capable of generating keyboard
// events, holding a non-exclusive read handle on each. Devices whose name
// matches exclude (our own virtual keyboard) are skipped so injected text
// does not feed back into the combo tracker.
//
// It can be called again at any time to pick up hot-plugged devices.
// If at least one device node was denied and none could be opened, the
// first PermissionError is returned so the caller can surface the fix.
func ListKeyboards(exclude string) ([]*evdev.InputDevice, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("hotkey: list input devices: %w", err)
	}

	var (
		devices []*evdev.InputDevice
		denied  *PermissionError
	)

	for _, p := range paths {
		if exclude != "" && p.Name == exclude {
			continue
		}

		dev, err := evdev.Open(p.Path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && denied == nil {
				denied = &PermissionError{Path: p.Path, Err: err}
			}
			continue
		}

		if !isKeyboard(dev) {
			dev.Close()
			continue
		}

		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		if denied != nil {
			return nil, denied
		}
		return nil, ErrNoKeyboards
	}

	return devices, nil
}

// isKeyboard reports whether the device advertises enough of the key range
// to be usable as a keyboard. Requiring both a letter and Space filters out
// mice, power buttons and other devices that expose a handful of KEY codes.
func isKeyboard(dev *evdev.InputDevice) bool {
	for _, t := range dev.CapableTypes() {
		if t != evdev.EV_KEY {
			continue
		}
		var hasLetter, hasSpace bool
		for _, code := range dev.CapableEvents(t) {
			switch {
			case code >= evdev.KEY_Q && code <= evdev.KEY_P:
				hasLetter = true
			case code == evdev.KEY_SPACE:
				hasSpace = true
			}
			if hasLetter && hasSpace {
				return true
			}
		}
	}
	return false
}
