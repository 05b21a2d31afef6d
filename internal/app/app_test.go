package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/holoplot/go-evdev"

	"github.com/typr-dev/typr/internal/config"
	"github.com/typr-dev/typr/internal/history"
	"github.com/typr-dev/typr/internal/output"
	"github.com/typr-dev/typr/internal/session"
	"github.com/typr-dev/typr/internal/tray"
)

// fakeTranscriber returns a fixed result and remembers whether it ran.
type fakeTranscriber struct {
	mu     sync.Mutex
	text   string
	err    error
	called bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, wavData []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = true
	if len(wavData) == 0 {
		return "", errors.New("empty upload")
	}
	return f.text, f.err
}

func (f *fakeTranscriber) wasCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.called
}

// fakeDevice counts keystroke events written by the injector.
type fakeDevice struct {
	mu     sync.Mutex
	events int
}

func (d *fakeDevice) Press(evdev.EvCode) error {
	d.mu.Lock()
	d.events++
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Release(evdev.EvCode) error {
	d.mu.Lock()
	d.events++
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events
}

type stubRecorder struct{}

func (stubRecorder) Start() error { return nil }
func (stubRecorder) Stop()        {}

type stubNotifier struct{}

func (stubNotifier) StateChanged(session.State) {}
func (stubNotifier) Error(string)               {}

func newTestApp(t *testing.T, transcriber *fakeTranscriber, dev *fakeDevice) *App {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	a := &App{
		cfg:         config.Default(),
		transcriber: transcriber,
		injector:    output.NewInjector(dev, 0),
		tr:          tray.New("Meta+Shift+Space", func() {}, func() {}),
		store:       store,
		quit:        make(chan struct{}),
	}
	a.machine = session.New(session.ModePushToTalk, stubRecorder{}, stubNotifier{}, 0)
	return a
}

// second() returns one second of silence at the default sample rate.
func second() []int16 {
	return make([]int16, 16000)
}

func TestProcessTypesTranscript(t *testing.T) {
	transcriber := &fakeTranscriber{text: "ok"}
	dev := &fakeDevice{}
	a := newTestApp(t, transcriber, dev)

	a.process(second())

	if !transcriber.wasCalled() {
		t.Fatal("transcriber was not called")
	}
	// "ok": two characters, press+release each.
	if dev.count() != 4 {
		t.Errorf("device events = %d, want 4", dev.count())
	}

	recent, err := a.store.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 1 || recent[0].Text != "ok" {
		t.Errorf("history = %+v, want one entry with text \"ok\"", recent)
	}
}

func TestProcessSkipsShortRecording(t *testing.T) {
	transcriber := &fakeTranscriber{text: "ok"}
	dev := &fakeDevice{}
	a := newTestApp(t, transcriber, dev)

	// 100ms at 16kHz is below the minimum utterance length.
	a.process(make([]int16, 1600))

	if transcriber.wasCalled() {
		t.Error("transcriber should not run for a too-short recording")
	}
	if dev.count() != 0 {
		t.Errorf("device events = %d, want 0", dev.count())
	}
}

func TestProcessTranscriptionFailure(t *testing.T) {
	transcriber := &fakeTranscriber{err: errors.New("api down")}
	dev := &fakeDevice{}
	a := newTestApp(t, transcriber, dev)

	a.process(second())

	if dev.count() != 0 {
		t.Errorf("device events after failed transcription = %d, want 0", dev.count())
	}
	if recent, _ := a.store.Recent(1); len(recent) != 0 {
		t.Errorf("history after failed transcription = %+v, want empty", recent)
	}
}

func TestProcessEmptyTranscript(t *testing.T) {
	transcriber := &fakeTranscriber{text: ""}
	dev := &fakeDevice{}
	a := newTestApp(t, transcriber, dev)

	a.process(second())

	if dev.count() != 0 {
		t.Errorf("device events for empty transcript = %d, want 0", dev.count())
	}
}
