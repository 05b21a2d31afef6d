package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Hotkey  HotkeyConfig  `yaml:"hotkey"`
	Audio   AudioConfig   `yaml:"audio"`
	API     APIConfig     `yaml:"api"`
	Inject  InjectConfig  `yaml:"inject"`
	History HistoryConfig `yaml:"history"`

	LogLevel string `yaml:"log_level"`
}

// HotkeyConfig holds the combo string and trigger mode.
type HotkeyConfig struct {
	Combo string `yaml:"combo"` // e.g. "Meta+Shift+Space"
	Mode  string `yaml:"mode"`  // "push_to_talk" or "toggle"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
	MaxSeconds int    `yaml:"max_seconds"` // safety cutoff, 0 disables
}

// APIConfig holds transcription endpoint settings.
type APIConfig struct {
	Key      string `yaml:"key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Prompt   string `yaml:"prompt"`
}

// InjectConfig holds text injection settings.
type InjectConfig struct {
	TypingDelayMs int `yaml:"typing_delay_ms"` // delay between keystrokes
}

// HistoryConfig holds dictation history settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // defaults to <config dir>/history.db
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "typr")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Combo: "Meta+Shift+Space",
			Mode:  "push_to_talk",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			MaxSeconds: 120,
		},
		API: APIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "whisper-1",
		},
		Inject: InjectConfig{
			TypingDelayMs: 2,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    filepath.Join(DefaultConfigDir(), "history.db"),
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults. A leading ~ in history.path expands to the home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.History.Path = expandTilde(cfg.History.Path)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Hotkey.Combo == "" {
		return fmt.Errorf("hotkey.combo must not be empty")
	}

	switch c.Hotkey.Mode {
	case "push_to_talk", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"push_to_talk\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}
	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}
	if c.Audio.MaxSeconds < 0 {
		return fmt.Errorf("audio.max_seconds must be >= 0")
	}

	if c.Inject.TypingDelayMs < 0 {
		return fmt.Errorf("inject.typing_delay_ms must be >= 0")
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
