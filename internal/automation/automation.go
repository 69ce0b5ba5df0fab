package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dragonzoom/internal/camera"
	"github.com/san-kum/dragonzoom/internal/export"
	"github.com/san-kum/dragonzoom/internal/render"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario scripts a set of still frames taken from one camera.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Shots       []Shot  `yaml:"shots"`
	Sweeps      []Sweep `yaml:"sweeps"`
}

// Shot is a single still at animation time T.
type Shot struct {
	T      float64 `yaml:"t"`
	Out    string  `yaml:"out"`
	Format string  `yaml:"format"`
}

// Sweep expands into Count shots evenly spaced over [From, To]. Pattern is a
// fmt pattern that receives the shot index, e.g. "sweep/still_%03d.png".
type Sweep struct {
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
	Count   int     `yaml:"count"`
	Pattern string  `yaml:"pattern"`
	Format  string  `yaml:"format"`
}

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Shots) == 0 && len(s.Sweeps) == 0 {
		return fmt.Errorf("%w: no shots or sweeps", ErrInvalidScenario)
	}
	for i, sw := range s.Sweeps {
		switch {
		case sw.Count < 1:
			return fmt.Errorf("%w: sweep %d: count must be positive, got %d", ErrInvalidScenario, i+1, sw.Count)
		case !strings.Contains(sw.Pattern, "%"):
			return fmt.Errorf("%w: sweep %d: pattern %q has no index verb", ErrInvalidScenario, i+1, sw.Pattern)
		case !validTime(sw.From) || !validTime(sw.To):
			return fmt.Errorf("%w: sweep %d: times must be finite and non-negative", ErrInvalidScenario, i+1)
		}
	}
	for i, sh := range s.Expand() {
		if !validTime(sh.T) {
			return fmt.Errorf("%w: shot %d: invalid time %v", ErrInvalidScenario, i+1, sh.T)
		}
		if sh.Out == "" {
			return fmt.Errorf("%w: shot %d: no output path", ErrInvalidScenario, i+1)
		}
		if _, err := FormatOf(sh); err != nil {
			return fmt.Errorf("%w: shot %d: %v", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func validTime(t float64) bool {
	return t >= 0 && !math.IsInf(t, 0) && !math.IsNaN(t)
}

// Shots lists the sweep's shots in order. A single-shot sweep sits at From.
func (sw Sweep) Shots() []Shot {
	shots := make([]Shot, sw.Count)
	for i := range shots {
		t := sw.From
		if sw.Count > 1 {
			t = sw.From + (sw.To-sw.From)*float64(i)/float64(sw.Count-1)
		}
		shots[i] = Shot{T: t, Out: fmt.Sprintf(sw.Pattern, i), Format: sw.Format}
	}
	return shots
}

// Expand returns the explicit shots followed by every sweep's shots.
func (s *Scenario) Expand() []Shot {
	shots := append([]Shot(nil), s.Shots...)
	for _, sw := range s.Sweeps {
		if sw.Count > 0 {
			shots = append(shots, sw.Shots()...)
		}
	}
	return shots
}

// FormatOf resolves a shot's output format, falling back to the file
// extension and then to png.
func FormatOf(sh Shot) (string, error) {
	f := strings.ToLower(sh.Format)
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(sh.Out)), ".")
	}
	switch f {
	case "", "png":
		return "png", nil
	case "svg":
		return "svg", nil
	}
	return "", fmt.Errorf("unknown format %q (png, svg)", f)
}

// Target is the camera and frame settings shots are taken with.
type Target struct {
	Camera        *camera.Camera
	Width, Height int
	// Background and Stroke are hex colours.
	Background string
	Stroke     string
}

// Render writes one shot.
func (tg Target) Render(sh Shot) error {
	format, err := FormatOf(sh)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(sh.Out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if format == "svg" {
		f, err := os.Create(sh.Out)
		if err != nil {
			return err
		}
		if err := export.FrameToSVG(f, tg.Camera, tg.Width, tg.Height, sh.T, tg.Background, tg.Stroke); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	style := render.ParseStyle(tg.Background, tg.Stroke)
	return render.RenderStill(sh.Out, tg.Camera, style, tg.Width, tg.Height, sh.T)
}

// Run renders every shot of the scenario in order and returns the shots
// written. It stops at the first failure.
func Run(ctx context.Context, scenario *Scenario, tg Target, logger *slog.Logger) ([]Shot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	shots := scenario.Expand()
	done := make([]Shot, 0, len(shots))
	for i, sh := range shots {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := tg.Render(sh); err != nil {
			return done, fmt.Errorf("shot %d: %w", i+1, err)
		}
		done = append(done, sh)
		logger.Info("shot rendered", "scenario", scenario.Name, "shot", i+1, "of", len(shots), "t", sh.T, "out", sh.Out)
	}
	return done, nil
}
