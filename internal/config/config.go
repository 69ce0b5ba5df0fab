package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dragonzoom/internal/camera"
)

const (
	DefaultWidth      = 1920
	DefaultHeight     = 1080
	DefaultMargin     = 0.1
	DefaultMinScale   = 1.0
	DefaultDuration   = 45.0
	DefaultFPS        = 60
	DefaultSamples    = 50
	DefaultHops       = 100
	DefaultStepSize   = 0.5
	DefaultTemp       = 1.0
	DefaultBackground = "#ffffff"
	DefaultStroke     = "#f44336"
	DefaultOutputDir  = "frames"
)

// ErrInvalidConfig is returned by Validate and Load for values no
// component can run with.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Screen   ScreenConfig `yaml:"screen"`
	Margin   float64      `yaml:"margin"`
	MinScale float64      `yaml:"min_scale"`
	Duration float64      `yaml:"duration"`
	FPS      int          `yaml:"fps"`
	Fit      FitConfig    `yaml:"fit"`
	Style    StyleConfig  `yaml:"style"`
	Output   OutputConfig `yaml:"output"`
}

type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type FitConfig struct {
	Samples     int     `yaml:"samples"`
	Scale       bool    `yaml:"scale"`
	Translate   bool    `yaml:"translate"`
	Hops        int     `yaml:"hops"`
	StepSize    float64 `yaml:"step_size"`
	Temperature float64 `yaml:"temperature"`
	Seed        uint64  `yaml:"seed"`
}

type StyleConfig struct {
	Background string `yaml:"background"`
	Stroke     string `yaml:"stroke"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
	// Workers is the number of frames rendered concurrently; 0 means one
	// per CPU.
	Workers int `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Screen:   ScreenConfig{Width: DefaultWidth, Height: DefaultHeight},
		Margin:   DefaultMargin,
		MinScale: DefaultMinScale,
		Duration: DefaultDuration,
		FPS:      DefaultFPS,
		Fit: FitConfig{
			Samples:     DefaultSamples,
			Scale:       true,
			Translate:   false,
			Hops:        DefaultHops,
			StepSize:    DefaultStepSize,
			Temperature: DefaultTemp,
			Seed:        1,
		},
		Style: StyleConfig{
			Background: DefaultBackground,
			Stroke:     DefaultStroke,
		},
		Output: OutputConfig{Dir: DefaultOutputDir},
	}
}

// Load reads a config file over the defaults.
func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto reads a config file over a copy of base, so keys the file omits
// keep base's values. base is not modified.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Camera().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, c.FPS)
	}
	if c.Fit.Samples < 1 {
		return fmt.Errorf("%w: fit.samples must be at least 1, got %d", ErrInvalidConfig, c.Fit.Samples)
	}
	if c.Fit.Hops < 0 || c.Fit.StepSize < 0 || c.Fit.Temperature < 0 {
		return fmt.Errorf("%w: fit search parameters must not be negative", ErrInvalidConfig)
	}
	if c.Output.Workers < 0 {
		return fmt.Errorf("%w: output.workers must not be negative, got %d", ErrInvalidConfig, c.Output.Workers)
	}
	for name, hex := range map[string]string{"background": c.Style.Background, "stroke": c.Style.Stroke} {
		if !IsHexColor(hex) {
			return fmt.Errorf("%w: style.%s %q is not a hex colour", ErrInvalidConfig, name, hex)
		}
	}
	return nil
}

// Camera returns the camera settings described by the config.
func (c *Config) Camera() camera.Settings {
	return camera.Settings{
		ScreenWidth:  float64(c.Screen.Width),
		ScreenHeight: float64(c.Screen.Height),
		Margin:       c.Margin,
		MinScale:     c.MinScale,
		Duration:     c.Duration,
	}
}

// IsHexColor accepts #rgb, #rgba, #rrggbb and #rrggbbaa, with or without
// the leading '#'.
func IsHexColor(s string) bool {
	s = strings.TrimPrefix(s, "#")
	switch len(s) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
