// Package config loads the TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/llehouerou/coderadio/internal/coderadio"
)

const appName = "coderadio"

type Config struct {
	Volume        int    `koanf:"volume"`        // initial volume, 0-9
	StationID     int64  `koanf:"station_id"`    // roster entry to play; 0 = primary listen URL
	Notifications bool   `koanf:"notifications"` // desktop notification on song change
	LogLevel      string `koanf:"log_level"`     // zerolog level name
	LogFile       string `koanf:"log_file"`      // default: $XDG_STATE_HOME/coderadio/coderadio.log

	API      APIConfig      `koanf:"api"`
	Feed     FeedConfig     `koanf:"feed"`
	Playback PlaybackConfig `koanf:"playback"`
}

// APIConfig holds the now-playing endpoints.
type APIConfig struct {
	NowPlayingURL string `koanf:"now_playing_url"`
	EventsURL     string `koanf:"events_url"`
}

// FeedConfig holds the live feed reconnect policy.
type FeedConfig struct {
	RetryAttempts int `koanf:"retry_attempts"` // attempts per outage (default: 3)
	RetryDelayMS  int `koanf:"retry_delay_ms"` // delay between attempts (default: 1000)
}

// PlaybackConfig holds output device settings.
type PlaybackConfig struct {
	BufferMS   int `koanf:"buffer_ms"`   // device buffer (default: 100)
	SampleRate int `koanf:"sample_rate"` // device rate (default: 44100)
}

// Load reads the configuration files. explicit, if not empty, is read last
// and must exist.
func Load(explicit string) (*Config, error) {
	paths := getConfigPaths()
	if explicit != "" {
		explicit = expandPath(explicit)
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		paths = append(paths, explicit)
	}
	return loadFrom(paths)
}

func loadFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Later files win.
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.LogFile != "" {
		cfg.LogFile = expandPath(cfg.LogFile)
	}
	return cfg, nil
}

// Default returns the configuration used when no file sets a key.
func Default() *Config {
	return &Config{
		Volume:   9,
		LogLevel: "info",
		API: APIConfig{
			NowPlayingURL: coderadio.DefaultNowPlayingURL,
			EventsURL:     coderadio.DefaultEventsURL,
		},
	}
}

func getConfigPaths() []string {
	// 1. $XDG_CONFIG_HOME/coderadio/config.toml
	// 2. ./config.toml (pwd)
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Validate rejects values that cannot be clamped into a sane range.
func (c *Config) Validate() error {
	var errs []error
	if c.Volume < 0 || c.Volume > 9 {
		errs = append(errs, errors.New("volume must be between 0 and 9"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// GetFeedConfig returns the feed configuration with defaults applied.
func (c *Config) GetFeedConfig() FeedConfig {
	cfg := c.Feed
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = coderadio.DefaultRetryAttempts
	}
	if cfg.RetryDelayMS <= 0 {
		cfg.RetryDelayMS = int(coderadio.DefaultRetryDelay / time.Millisecond)
	}
	return cfg
}

// RetryDelay returns the delay between reconnect attempts.
func (f FeedConfig) RetryDelay() time.Duration {
	return time.Duration(f.RetryDelayMS) * time.Millisecond
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback
	if cfg.BufferMS <= 0 || cfg.BufferMS > 2000 {
		cfg.BufferMS = 100
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	return cfg
}

// Buffer returns the device buffer duration.
func (p PlaybackConfig) Buffer() time.Duration {
	return time.Duration(p.BufferMS) * time.Millisecond
}
