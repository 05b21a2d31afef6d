// Command typr is a push-to-talk dictation daemon for Linux. It watches
// kernel input devices for a global hotkey, records the microphone while
// the combo is held, transcribes the audio through an OpenAI-compatible
// API and types the result into the focused application via a virtual
// keyboard. It needs no window-system support, so it behaves the same
// under Wayland and X11.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/typr-dev/typr/internal/app"
	"github.com/typr-dev/typr/internal/config"
	"github.com/typr-dev/typr/internal/hotkey"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/typr/config.yaml)")
	flag.Parse()

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Config validation failed", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	a, err := app.New(cfg, path)
	if err != nil {
		var pe *hotkey.PermissionError
		if errors.As(err, &pe) {
			slog.Error("Cannot read input devices", "error", pe)
		} else {
			slog.Error("Startup failed", "error", err)
		}
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting typr",
		"combo", cfg.Hotkey.Combo,
		"mode", cfg.Hotkey.Mode,
		"audio", fmt.Sprintf("%dHz/%dch", cfg.Audio.SampleRate, cfg.Audio.Channels))

	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
		a.Tray().Quit()
	}()

	// The tray loop must own the main goroutine.
	a.Tray().Run()
	cancel()

	if err := <-done; err != nil {
		slog.Error("typr exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("typr stopped")
}

// loadConfig resolves the config: an explicit path must exist, the default
// path is used when present, and built-in defaults apply otherwise.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Info("Config loaded", "path", defaultPath)
		return cfg, defaultPath, nil
	}

	slog.Info("No config file found, using defaults")
	return config.Default(), defaultPath, nil
}

func setupLogging(level string) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
