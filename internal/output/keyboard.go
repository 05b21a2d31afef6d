// Package output owns the virtual keyboard: a process-registered uinput
// device that window systems treat exactly like physical hardware, and the
// injector that types transcribed text through it.
package output

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/holoplot/go-evdev"
)

// DeviceName is the name the virtual keyboard registers under. The hotkey
// enumerator excludes it so injected keystrokes never loop back into combo
// tracking.
const DeviceName = "typr-keyboard"

// ErrDeviceLost reports that the uinput registration disappeared at runtime
// (for example, permissions revoked). It manifests to the user as "text not
// appearing", so callers surface it rather than swallowing it.
var ErrDeviceLost = errors.New("output: virtual keyboard lost")

// Keyboard is the process-owned synthetic keyboard.
type Keyboard struct {
	dev *evdev.InputDevice
}

// NewKeyboard registers the virtual keyboard with the kernel input
// subsystem. It advertises every code in the layout table, so downstream
// applications see a plausible US keyboard.
func NewKeyboard() (*Keyboard, error) {
	dev, err := evdev.CreateDevice(
		DeviceName,
		evdev.InputID{BusType: 0x03, Vendor: 0x7970, Product: 0x0001, Version: 1},
		map[evdev.EvType][]evdev.EvCode{
			evdev.EV_KEY: layoutCodes(),
		},
	)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("output: create virtual keyboard: %w (grant write access to /dev/uinput, e.g. via a udev rule for the \"input\" group)", err)
		}
		return nil, fmt.Errorf("output: create virtual keyboard: %w", err)
	}
	return &Keyboard{dev: dev}, nil
}

// Press emits a key-down for code followed by a synchronization report.
func (k *Keyboard) Press(code evdev.EvCode) error {
	return k.emit(code, 1)
}

// Release emits a key-up for code followed by a synchronization report.
func (k *Keyboard) Release(code evdev.EvCode) error {
	return k.emit(code, 0)
}

func (k *Keyboard) emit(code evdev.EvCode, value int32) error {
	if err := k.dev.WriteOne(&evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: value}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	if err := k.dev.WriteOne(&evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	return nil
}

// Close unregisters the virtual keyboard.
func (k *Keyboard) Close() error {
	return k.dev.Close()
}
