// Package app wires the hotkey listener, recording state machine, audio
// capture, transcription client, text injector and tray into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/typr-dev/typr/internal/audio"
	"github.com/typr-dev/typr/internal/config"
	"github.com/typr-dev/typr/internal/history"
	"github.com/typr-dev/typr/internal/hotkey"
	"github.com/typr-dev/typr/internal/output"
	"github.com/typr-dev/typr/internal/session"
	"github.com/typr-dev/typr/internal/transcribe"
	"github.com/typr-dev/typr/internal/tray"
)

// minUtterance filters out accidental taps: recordings shorter than this
// are discarded without calling the API.
const minUtterance = 300 * time.Millisecond

// transcribeTimeout bounds one transcription round trip.
const transcribeTimeout = 90 * time.Second

// App owns every long-lived component and runs the main event loop.
type App struct {
	cfgPath string

	mu  sync.Mutex
	cfg *config.Config

	listener    *hotkey.Listener
	machine     *session.Machine
	recorder    *audio.Recorder
	transcriber transcribe.Transcriber
	keyboard    *output.Keyboard
	injector    *output.Injector
	store       *history.Store
	tr          *tray.Tray

	quit     chan struct{}
	quitOnce sync.Once
}

// New builds the full component graph. Startup failures carry actionable
// guidance: missing input-group membership or /dev/uinput access surface
// here, before anything starts running.
func New(cfg *config.Config, cfgPath string) (*App, error) {
	spec, err := hotkey.ParseSpec(cfg.Hotkey.Combo)
	if err != nil {
		return nil, err
	}
	mode, err := session.ParseMode(cfg.Hotkey.Mode)
	if err != nil {
		return nil, err
	}

	keyboard, err := output.NewKeyboard()
	if err != nil {
		return nil, err
	}

	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		keyboard.Close()
		return nil, err
	}

	a := &App{
		cfgPath:     cfgPath,
		cfg:         cfg,
		recorder:    recorder,
		keyboard:    keyboard,
		injector:    output.NewInjector(keyboard, time.Duration(cfg.Inject.TypingDelayMs)*time.Millisecond),
		transcriber: transcribe.NewClient(cfg.API.Key, cfg.API.BaseURL, cfg.API.Model, cfg.API.Language, cfg.API.Prompt),
		listener:    hotkey.NewListener(spec, output.DeviceName),
		quit:        make(chan struct{}),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			// History is a convenience; a broken store must not block dictation.
			slog.Warn("Dictation history disabled", "error", err)
		} else {
			a.store = store
		}
	}

	a.tr = tray.New(cfg.Hotkey.Combo, a.toggle, a.requestQuit)
	a.machine = session.New(mode, &captureAdapter{app: a}, &trayNotifier{tr: a.tr}, time.Duration(cfg.Audio.MaxSeconds)*time.Second)

	return a, nil
}

// Tray returns the tray component so main can run its loop on the main
// goroutine.
func (a *App) Tray() *tray.Tray {
	return a.tr
}

// Run drives the event loop until ctx is cancelled or the user quits from
// the tray. The hotkey listener's device read loop runs on its own
// goroutine; everything it feeds is handled here.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenerErr := make(chan error, 1)
	go func() {
		listenerErr <- a.listener.Run(ctx)
	}()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	slog.Info("typr ready", "combo", a.config().Hotkey.Combo, "mode", a.config().Hotkey.Mode)

	for {
		select {
		case <-ctx.Done():
			return a.shutdown(nil)

		case <-a.quit:
			return a.shutdown(nil)

		case err := <-listenerErr:
			// The listener only returns early on a fatal device error.
			return a.shutdown(err)

		case ev, ok := <-a.listener.Events():
			if !ok {
				continue
			}
			switch ev.Type {
			case hotkey.EventActivated:
				a.machine.ComboActivated()
			case hotkey.EventDeactivated:
				a.machine.ComboDeactivated()
			}

		case <-reload:
			a.reloadConfig()
		}
	}
}

func (a *App) config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

func (a *App) toggle() {
	a.machine.Toggle()
}

func (a *App) requestQuit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// shutdown stops an active session and releases all resources.
func (a *App) shutdown(err error) error {
	if a.machine.State() == session.StateRecording {
		a.machine.Toggle()
	}
	a.recorder.Close()
	if closeErr := a.keyboard.Close(); closeErr != nil {
		slog.Warn("Closing virtual keyboard", "error", closeErr)
	}
	if a.store != nil {
		a.store.Close()
	}
	return err
}

// reloadConfig applies a changed config file: the hotkey spec swaps
// atomically, the trigger mode and typing delay update in place. Audio and
// API settings need a restart and are logged as skipped when they differ.
func (a *App) reloadConfig() {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		slog.Error("Config reload failed", "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Config reload rejected", "error", err)
		return
	}

	spec, err := hotkey.ParseSpec(cfg.Hotkey.Combo)
	if err != nil {
		slog.Error("Config reload rejected", "error", err)
		return
	}
	mode, err := session.ParseMode(cfg.Hotkey.Mode)
	if err != nil {
		slog.Error("Config reload rejected", "error", err)
		return
	}

	old := a.config()
	if cfg.Audio != old.Audio || cfg.API != old.API || cfg.History != old.History {
		slog.Warn("Audio, API and history settings need a restart; keeping current values")
	}

	a.listener.Reload(spec)
	a.machine.SetMode(mode)
	a.injector.SetDelay(time.Duration(cfg.Inject.TypingDelayMs) * time.Millisecond)
	a.tr.SetCombo(cfg.Hotkey.Combo)

	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	slog.Info("Config reloaded", "combo", cfg.Hotkey.Combo, "mode", cfg.Hotkey.Mode)
}

// process runs the transcribe-then-type pipeline for one finished
// recording. It runs on its own goroutine so a long API call never stalls
// hotkey handling.
func (a *App) process(samples []int16) {
	cfg := a.config()

	frames := len(samples) / int(cfg.Audio.Channels)
	duration := time.Duration(frames) * time.Second / time.Duration(cfg.Audio.SampleRate)
	if duration < minUtterance {
		slog.Info("Recording too short, skipping", "duration", duration.Round(time.Millisecond))
		a.tr.SetState(a.machine.State())
		return
	}

	slog.Info("Transcribing", "duration", duration.Round(time.Millisecond))
	a.tr.SetStatus("Transcribing...")

	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	start := time.Now()
	wavData := audio.EncodeWAV(samples, cfg.Audio.SampleRate, cfg.Audio.Channels)
	text, err := a.transcriber.Transcribe(ctx, wavData)
	if err != nil {
		slog.Error("Transcription failed", "error", err)
		a.tr.SetStatus("Transcription failed")
		return
	}
	elapsed := time.Since(start)

	if text == "" {
		slog.Info("No speech detected", "elapsed", elapsed.Round(time.Millisecond))
		a.tr.SetState(a.machine.State())
		return
	}

	slog.Info("Transcribed", "elapsed", elapsed.Round(time.Millisecond), "chars", len(text))

	if err := a.injector.Inject(ctx, text); err != nil {
		var pe *output.PartialError
		if errors.As(err, &pe) {
			slog.Error("Injection incomplete", "written", pe.Written, "total", pe.Total, "error", pe.Err)
			a.tr.SetStatus(fmt.Sprintf("Typed %d of %d characters", pe.Written, pe.Total))
		} else {
			slog.Error("Injection failed", "error", err)
			a.tr.SetStatus("Typing failed")
		}
		return
	}

	if a.store != nil {
		err := a.store.Record(history.Dictation{
			Text:         text,
			CharCount:    len([]rune(text)),
			AudioSeconds: duration.Seconds(),
			TranscribeMs: elapsed.Milliseconds(),
		})
		if err != nil {
			slog.Warn("Recording dictation history", "error", err)
		}
	}

	a.tr.SetState(a.machine.State())
}

// captureAdapter feeds the state machine's start/stop commands into the
// audio recorder and hands finished recordings to the pipeline.
type captureAdapter struct {
	app *App
}

func (c *captureAdapter) Start() error {
	return c.app.recorder.Start()
}

func (c *captureAdapter) Stop() {
	samples := c.app.recorder.Stop()
	if samples == nil {
		return
	}
	go c.app.process(samples)
}

// trayNotifier adapts the tray to the state machine's Notifier interface.
type trayNotifier struct {
	tr *tray.Tray
}

func (n *trayNotifier) StateChanged(s session.State) {
	n.tr.SetState(s)
}

func (n *trayNotifier) Error(msg string) {
	n.tr.SetStatus(msg)
}
