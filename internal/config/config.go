// Package config provides application configuration with support for a
// TOML file and environment variable overrides. Flags applied by the CLI
// take final precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is the configuration file looked up when no explicit
// path is given. A missing file is not an error; defaults apply.
const DefaultConfigFile = "slidecast.toml"

// Environment variable names recognized by Finalize.
const (
	EnvTTSPath    = "SLIDECAST_TTS_PATH"
	EnvFFmpegPath = "SLIDECAST_FFMPEG_PATH"
	EnvLogLevel   = "SLIDECAST_LOG_LEVEL"
	EnvLogFile    = "SLIDECAST_LOG_FILE"
)

// Config is the root configuration.
type Config struct {
	TTS     TTSConfig     `toml:"tts"`
	Render  RenderConfig  `toml:"render"`
	Video   VideoConfig   `toml:"video"`
	Handout HandoutConfig `toml:"handout"`
	Logging LoggingConfig `toml:"logging"`
}

// TTSConfig locates and bounds the external speech-synthesis executable.
type TTSConfig struct {
	// Path is the synthesis executable, resolved via PATH when relative.
	Path string `toml:"path"`
	// Timeout bounds a single synthesis invocation ("0" disables).
	Timeout string `toml:"timeout"`
}

// TimeoutDuration parses and returns the synthesis timeout.
func (c *TTSConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// RenderConfig controls slide rasterization.
type RenderConfig struct {
	// Width is the exported image width in pixels.
	Width int `toml:"width"`
	// FontDirs lists extra font directories beyond the system defaults.
	FontDirs []string `toml:"font_dirs"`
}

// VideoConfig controls per-slide clip creation and concatenation.
// The encoding settings trade quality against speed.
type VideoConfig struct {
	Enabled    *bool  `toml:"enabled"`
	FFmpegPath string `toml:"ffmpeg_path"`
	FPS        int    `toml:"fps"`
	Codec      string `toml:"codec"`
	AudioCodec string `toml:"audio_codec"`
	Preset     string `toml:"preset"`
	Bitrate    string `toml:"bitrate"`
}

// IsEnabled reports whether video assembly should run.
func (c *VideoConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// HandoutConfig controls the optional PDF handout.
type HandoutConfig struct {
	Enabled bool `toml:"enabled"`
}

// LoggingConfig controls the process-wide log sinks.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File is the append-only log file shared with the console sink.
	File string `toml:"file"`
}

// Load reads and parses the configuration file at path. When path is the
// default file name and it does not exist, an empty configuration is
// returned so defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultConfigFile {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates
// the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *Config) loadDefaults() {
	if c.TTS.Path == "" {
		c.TTS.Path = "csm-voice"
	}
	if c.TTS.Timeout == "" {
		c.TTS.Timeout = "0"
	}
	if c.Render.Width == 0 {
		c.Render.Width = 1920
	}
	if c.Video.FFmpegPath == "" {
		c.Video.FFmpegPath = "ffmpeg"
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 24
	}
	if c.Video.Codec == "" {
		c.Video.Codec = "libx264"
	}
	if c.Video.AudioCodec == "" {
		c.Video.AudioCodec = "aac"
	}
	if c.Video.Preset == "" {
		c.Video.Preset = "ultrafast"
	}
	if c.Video.Bitrate == "" {
		c.Video.Bitrate = "1000k"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File == "" {
		c.Logging.File = "error.log"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvTTSPath); v != "" {
		c.TTS.Path = v
	}
	if v := os.Getenv(EnvFFmpegPath); v != "" {
		c.Video.FFmpegPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
}

func (c *Config) validate() error {
	if c.Render.Width <= 0 {
		return fmt.Errorf("render width must be positive, got %d", c.Render.Width)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video fps must be positive, got %d", c.Video.FPS)
	}
	if _, err := time.ParseDuration(c.TTS.Timeout); err != nil {
		return fmt.Errorf("invalid tts timeout %q: %w", c.TTS.Timeout, err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}
