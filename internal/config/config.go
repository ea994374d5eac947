// Package config loads the trainer's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the player reads at startup.
type Config struct {
	// External tools
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	FFplayPath  string `yaml:"ffplay_path"`

	// Paths
	DatabasePath string `yaml:"database_path"`
	AudioDir     string `yaml:"audio_dir"`
	SubtitleDir  string `yaml:"subtitle_dir"`
	SocketPath   string `yaml:"socket_path"`
	LogFile      string `yaml:"log_file"`

	// Timing
	TickInterval    time.Duration `yaml:"tick_interval"`
	ResampleTimeout time.Duration `yaml:"resample_timeout"`
	FinishEpsilon   time.Duration `yaml:"finish_epsilon"`

	ResampleWorkers int `yaml:"resample_workers"`

	// Practice
	Speeds           []float64 `yaml:"speeds"`
	DefaultSpeed     float64   `yaml:"default_speed"`
	JumpSeconds      float64   `yaml:"jump_seconds"`
	CorrectThreshold float64   `yaml:"correct_threshold"`

	path string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		FFplayPath:       "ffplay",
		TickInterval:     100 * time.Millisecond,
		ResampleTimeout:  30 * time.Second,
		FinishEpsilon:    100 * time.Millisecond,
		ResampleWorkers:  2,
		Speeds:           []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0},
		DefaultSpeed:     1.0,
		JumpSeconds:      5,
		CorrectThreshold: 0.8,
	}
}

// DefaultPath returns ~/.config/listening-master/config.yaml or the
// platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "listening-master.yaml"
	}
	return filepath.Join(dir, "listening-master", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults are returned as is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg.normalize()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Fields absent from the file keep their defaults.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

func (c *Config) normalize() {
	c.FFmpegPath = orDefault(c.FFmpegPath, "ffmpeg")
	c.FFprobePath = orDefault(c.FFprobePath, "ffprobe")
	c.FFplayPath = orDefault(c.FFplayPath, "ffplay")

	for _, p := range []*string{&c.DatabasePath, &c.AudioDir, &c.SubtitleDir, &c.SocketPath, &c.LogFile} {
		*p = expandHome(strings.TrimSpace(*p))
	}

	if c.ResampleWorkers <= 0 {
		c.ResampleWorkers = 2
	}

	sort.Float64s(c.Speeds)
	c.Speeds = dedupe(c.Speeds)
}

// SpeedAllowed reports whether f is one of the configured speeds.
func (c *Config) SpeedAllowed(f float64) bool {
	for _, s := range c.Speeds {
		if s == f {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0]
	for i, f := range sorted {
		if i > 0 && f == sorted[i-1] {
			continue
		}
		out = append(out, f)
	}
	return out
}
