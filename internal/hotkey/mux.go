package hotkey

import (
	"sync"
	"time"

	"github.com/holoplot/go-evdev"
)

// KeyAction is the state change reported by a key event.
type KeyAction int32

const (
	// ActionRelease is emitted when a key goes up.
	ActionRelease KeyAction = 0
	// ActionPress is emitted when a key goes down.
	ActionPress KeyAction = 1
	// ActionRepeat is the kernel auto-repeat while a key stays down.
	ActionRepeat KeyAction = 2
)

// KeyEvent is one keyboard event tagged with its device of origin.
type KeyEvent struct {
	Device string
	Code   evdev.EvCode
	Action KeyAction
	Time   time.Time
}

// source is the part of *evdev.InputDevice the multiplexer needs.
// Tests substitute scripted implementations.
type source interface {
	Path() string
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// mux merges the event streams of several input devices into one ordered
// channel. Per-device ordering is preserved; cross-device ordering follows
// arrival. A mux is not restartable: after Close, or after the last device
// drops, a fresh mux over a fresh device set is required.
type mux struct {
	events chan KeyEvent
	lost   chan string
	done   chan struct{}

	mu      sync.Mutex
	sources map[string]source
	wg      sync.WaitGroup
	once    sync.Once
}

// newMux starts one reader goroutine per device. The returned mux owns the
// devices and closes them on Close.
func newMux(sources []source) *mux {
	m := &mux{
		events:  make(chan KeyEvent, 64),
		lost:    make(chan string, len(sources)),
		done:    make(chan struct{}),
		sources: make(map[string]source, len(sources)),
	}

	for _, src := range sources {
		m.sources[src.Path()] = src
		m.wg.Add(1)
		go m.readLoop(src)
	}

	go func() {
		m.wg.Wait()
		close(m.events)
	}()

	return m
}

// Events returns the merged event stream. The channel is closed once every
// device has dropped or the mux has been closed.
func (m *mux) Events() <-chan KeyEvent {
	return m.events
}

// Lost reports the paths of devices that disappeared mid-stream. The caller
// uses it to trigger re-enumeration; remaining devices keep flowing.
func (m *mux) Lost() <-chan string {
	return m.lost
}

// readLoop is the blocking read on one device. A read error means the
// device went away (unplugged, or handle closed during shutdown); the
// device is dropped silently and the loop exits.
func (m *mux) readLoop(src source) {
	defer m.wg.Done()

	for {
		ev, err := src.ReadOne()
		if err != nil {
			m.drop(src)
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		select {
		case m.events <- KeyEvent{
			Device: src.Path(),
			Code:   ev.Code,
			Action: KeyAction(ev.Value),
			Time:   time.Now(),
		}:
		case <-m.done:
			// Shutdown: the consumer is gone, stop delivering.
			m.drop(src)
			return
		}
	}
}

// drop removes a single device, closing its handle at most once.
func (m *mux) drop(src source) {
	m.mu.Lock()
	_, present := m.sources[src.Path()]
	if present {
		delete(m.sources, src.Path())
	}
	m.mu.Unlock()

	if !present {
		return
	}
	src.Close()
	select {
	case m.lost <- src.Path():
	default:
	}
}

// Close closes every device handle, which unblocks the reader goroutines
// and ends the event stream. Safe to call more than once.
func (m *mux) Close() {
	m.once.Do(func() {
		close(m.done)
		m.mu.Lock()
		srcs := make([]source, 0, len(m.sources))
		for _, src := range m.sources {
			srcs = append(srcs, src)
		}
		m.sources = make(map[string]source)
		m.mu.Unlock()

		for _, src := range srcs {
			src.Close()
		}
	})
}
