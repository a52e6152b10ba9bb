// Package config loads the sotto YAML configuration with defaults and
// validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	ModelsDir  string           `yaml:"models_dir"`
	Hotkey     HotkeyConfig     `yaml:"hotkey"`
	Audio      AudioConfig      `yaml:"audio"`
	Insert     InsertConfig     `yaml:"insert"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Tray       TrayConfig       `yaml:"tray"`
	DebugDump  bool             `yaml:"debug_dump"`
	LogLevel   string           `yaml:"log_level"`
}

// HotkeyConfig holds the push-to-talk chords. Both chords are
// equivalent triggers.
type HotkeyConfig struct {
	Chords []string `yaml:"chords"`
}

// AudioConfig holds audio capture settings. Capture always targets
// 16 kHz; FallbackSampleRate is used when the device refuses 16 kHz.
type AudioConfig struct {
	Channels           uint32 `yaml:"channels"`
	FallbackSampleRate uint32 `yaml:"fallback_sample_rate"`
}

// InsertConfig holds text insertion settings.
type InsertConfig struct {
	Method string `yaml:"method"` // "paste" or "type"
}

// TranscribeConfig holds inference settings.
type TranscribeConfig struct {
	Language  string `yaml:"language"` // whisper language code or "auto"
	Translate bool   `yaml:"translate"`
	Threads   int    `yaml:"threads"` // 0 = max(1, NumCPU/2)
}

// TrayConfig controls the menu-bar indicator.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sotto")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the default model store directory.
func DefaultModelsDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "sotto", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		ModelsDir: DefaultModelsDir(),
		Hotkey: HotkeyConfig{
			Chords: []string{"alt+space", "ctrl+shift+space"},
		},
		Audio: AudioConfig{
			Channels:           1,
			FallbackSampleRate: 48000,
		},
		Insert: InsertConfig{
			Method: "paste",
		},
		Transcribe: TranscribeConfig{
			Language: "en",
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in models_dir is expanded to the user's
// home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ModelsDir = expandTilde(cfg.ModelsDir)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir must not be empty")
	}

	if n := len(c.Hotkey.Chords); n != 2 {
		return fmt.Errorf("hotkey.chords must list exactly 2 chords, got %d", n)
	}
	for _, chord := range c.Hotkey.Chords {
		if strings.TrimSpace(chord) == "" {
			return fmt.Errorf("hotkey.chords must not contain empty chords")
		}
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}
	if c.Audio.FallbackSampleRate < 16000 {
		return fmt.Errorf("audio.fallback_sample_rate must be >= 16000, got %d", c.Audio.FallbackSampleRate)
	}

	switch c.Insert.Method {
	case "paste", "type":
	default:
		return fmt.Errorf("insert.method must be \"paste\" or \"type\", got %q", c.Insert.Method)
	}

	if c.Transcribe.Language == "" {
		return fmt.Errorf("transcribe.language must not be empty (use \"auto\" for detection)")
	}
	if c.Transcribe.Threads < 0 {
		return fmt.Errorf("transcribe.threads must be >= 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a config log level to a slog.Level. Unknown
// values default to info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
