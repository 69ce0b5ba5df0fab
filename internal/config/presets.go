package config

import "sort"

func preset(width, height int, duration float64, fps, workers int) *Config {
	cfg := DefaultConfig()
	cfg.Screen = ScreenConfig{Width: width, Height: height}
	cfg.Duration = duration
	cfg.FPS = fps
	cfg.Output.Workers = workers
	return cfg
}

var Presets = map[string]func() *Config{
	"4k":      func() *Config { return preset(3840, 2160, 45, 60, 0) },
	"1080p":   func() *Config { return preset(1920, 1080, 45, 60, 0) },
	"preview": func() *Config { return preset(640, 360, 20, 24, 2) },
	"draft": func() *Config {
		cfg := preset(640, 360, 20, 12, 2)
		cfg.Fit.Samples = 20
		cfg.Fit.Hops = 10
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
