package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// MaxDurationSec is the longest clip the recorder accepts.
const MaxDurationSec = 30.0

// Environment overrides, applied after the config file.
const (
	EnvRecorder = "MICCHECK_RECORDER"
	EnvDataDir  = "MICCHECK_DATA_DIR"
)

// CustomTheme is a user-defined color theme. Empty colors fall back to
// the synthwave palette.
type CustomTheme struct {
	Name       string `toml:"name"`
	Recording  string `toml:"recording"`  // title, recording badge, progress bar
	Frame      string `toml:"frame"`      // border, labels, key help
	Detail     string `toml:"detail"`     // level readout, notices
	OK         string `toml:"ok"`         // idle and ready badges, mic found
	Busy       string `toml:"busy"`       // preparing and playing badges
	Error      string `toml:"error"`      // errors, missing mic, silence warning
	Background string `toml:"background"` // panel background
	Text       string `toml:"text"`       // body text
	Muted      string `toml:"muted"`      // status bar, debug table
}

// AudioConfig holds recording and playback settings.
type AudioConfig struct {
	DurationSec  float64 `toml:"duration_sec"`
	RecorderPath string  `toml:"recorder_path"`
	Player       string  `toml:"player"`       // "command" (external player) or "beep" (in-process)
	PlayCommand  string  `toml:"play_command"` // {input} and {volume} are substituted
	Volume       float64 `toml:"volume"`
	ChimeEnabled bool    `toml:"chime_enabled"`
	ChimeSuccess string  `toml:"chime_success"`
	ChimeFailure string  `toml:"chime_failure"`
}

// StorageConfig holds where the recording is kept.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// Config is the top-level configuration.
type Config struct {
	Theme        string        `toml:"theme"`
	CustomThemes []CustomTheme `toml:"custom_theme"`
	Audio        AudioConfig   `toml:"audio"`
	Storage      StorageConfig `toml:"storage"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		Theme: "synthwave",
		Audio: AudioConfig{
			DurationSec:  5,
			Player:       "command",
			Volume:       1.0,
			ChimeEnabled: true,
		},
	}
}

// Validate rejects settings the recorder or players cannot honor.
func (c *Config) Validate() error {
	if c.Audio.DurationSec <= 0 || c.Audio.DurationSec > MaxDurationSec {
		return fmt.Errorf("audio.duration_sec must be in (0, %g], got %g", MaxDurationSec, c.Audio.DurationSec)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume must be in [0, 1], got %g", c.Audio.Volume)
	}
	switch c.Audio.Player {
	case "command", "beep":
	default:
		return fmt.Errorf("audio.player must be \"command\" or \"beep\", got %q", c.Audio.Player)
	}
	if dir := c.Storage.DataDir; dir != "" {
		dir = expandTilde(dir)
		if !filepath.IsAbs(dir) || strings.Contains(dir, "..") {
			return fmt.Errorf("storage.data_dir must be an absolute path without \"..\", got %q", c.Storage.DataDir)
		}
	}
	return nil
}

// DataDir returns the configured data directory or the default one.
func (c *Config) DataDir() string {
	if c.Storage.DataDir != "" {
		return expandTilde(c.Storage.DataDir)
	}
	return DefaultDataDir()
}

// DefaultPath returns the default config file path (~/.config/miccheck/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "miccheck", "config.toml")
}

// DefaultDataDir returns the default data directory (~/.local/share/miccheck).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "miccheck")
	}
	return filepath.Join(home, ".local", "share", "miccheck")
}

// Save writes the config as TOML to the given path, creating parent
// directories if needed. The write is atomic: data is written to a
// temporary file and renamed into place.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".miccheck-config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads the TOML config from path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvRecorder); v != "" {
		cfg.Audio.RecorderPath = expandTilde(v)
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Storage.DataDir = expandTilde(v)
	}
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
