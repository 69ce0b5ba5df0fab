package camera

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/san-kum/dragonzoom/internal/dragon"
	"github.com/san-kum/dragonzoom/internal/optim"
)

// Kind tells whether a camera function is computed from the live bounding
// box or evaluated from fitted coefficients.
type Kind int

const (
	Raw Kind = iota
	Fitted
)

func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case Fitted:
		return "fitted"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// View is the camera transform for one frame: the curve is translated by
// Translate, then drawn at Scale curve units per pixel around the screen
// centre.
type View struct {
	Scale     float64
	Translate dragon.Point
}

type scaleFunc interface {
	scaleAt(t float64) float64
}

type translateFunc interface {
	translateAt(t float64) dragon.Point
}

type rawScale struct{ cam *Camera }

func (r rawScale) scaleAt(t float64) float64 { return r.cam.RawScale(t) }

type fittedScale struct {
	coeffs ScaleCoeffs
	floor  float64
}

func (f fittedScale) scaleAt(t float64) float64 { return math.Max(f.coeffs.Eval(t), f.floor) }

type rawTranslate struct{ cam *Camera }

func (r rawTranslate) translateAt(t float64) dragon.Point { return r.cam.RawTranslate(t) }

type fittedTranslate struct{ coeffs TranslateCoeffs }

func (f fittedTranslate) translateAt(t float64) dragon.Point { return f.coeffs.Eval(t) }

// Camera maps animation time to a View that keeps the curve framed.
//
// Fitting replaces the active scale or translate function and must happen
// before frames are rendered concurrently; Apply itself never mutates.
// Seal marks the point after which the active functions are fixed.
type Camera struct {
	store     *dragon.Store
	settings  Settings
	floor     float64
	scale     scaleFunc
	translate translateFunc
	hopping   optim.BasinHopping
	logger    *slog.Logger
	sealed    atomic.Bool
}

type Option func(*Camera)

func WithLogger(l *slog.Logger) Option {
	return func(c *Camera) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBasinHopping overrides the global search used by FitTranslate.
func WithBasinHopping(b optim.BasinHopping) Option {
	return func(c *Camera) { c.hopping = b }
}

func New(store *dragon.Store, s Settings, opts ...Option) (*Camera, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	c := &Camera{
		store:    store,
		settings: s,
		floor:    s.scaleFloor(),
		hopping:  optim.DefaultBasinHopping(),
		logger:   slog.New(slog.DiscardHandler),
	}
	c.scale = rawScale{c}
	c.translate = rawTranslate{c}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WarpTime maps animation time to parametric time.
func WarpTime(t float64) float64 {
	return math.Exp2(t/2) - 1
}

func (c *Camera) Settings() Settings   { return c.settings }
func (c *Camera) Store() *dragon.Store { return c.store }

// MinScale returns the lower bound every scale function is clamped to.
func (c *Camera) MinScale() float64 { return c.floor }

// RawScale fits the bounding box at WarpTime(t), shrunk by the margin, on
// screen.
func (c *Camera) RawScale(t float64) float64 {
	mustValidTime(t)
	b := c.store.Bounds(WarpTime(t))
	s := math.Max(b.Width()/c.settings.ScreenWidth, b.Height()/c.settings.ScreenHeight) / (1 - 2*c.settings.Margin)
	return math.Max(s, c.floor)
}

// RawTranslate recentres the bounding box at WarpTime(t) on the origin.
func (c *Camera) RawTranslate(t float64) dragon.Point {
	mustValidTime(t)
	center := c.store.Bounds(WarpTime(t)).Center()
	return dragon.Point{X: -center.X, Y: -center.Y}
}

func (c *Camera) Scale(t float64) float64 {
	mustValidTime(t)
	return c.scale.scaleAt(t)
}

func (c *Camera) Translate(t float64) dragon.Point {
	mustValidTime(t)
	return c.translate.translateAt(t)
}

// Apply returns the view for frame time t using the active functions.
func (c *Camera) Apply(t float64) View {
	return View{Scale: c.Scale(t), Translate: c.Translate(t)}
}

// LineWidth thins the stroke as the view zooms out: 1 − 9/(9 + s(t)/s(0)).
func (c *Camera) LineWidth(t float64) float64 {
	return 1 - 9/(9+c.Scale(t)/c.Scale(0))
}

func (c *Camera) ScaleKind() Kind {
	if _, ok := c.scale.(fittedScale); ok {
		return Fitted
	}
	return Raw
}

func (c *Camera) TranslateKind() Kind {
	if _, ok := c.translate.(fittedTranslate); ok {
		return Fitted
	}
	return Raw
}

// Seal fixes the active scale and translate functions. Later fits and
// installs return ErrSealed. Sealing twice is harmless.
func (c *Camera) Seal() { c.sealed.Store(true) }

func (c *Camera) Sealed() bool { return c.sealed.Load() }

func (c *Camera) checkOpen() error {
	if c.sealed.Load() {
		return ErrSealed
	}
	return nil
}

// SetScaleFit installs previously fitted scale coefficients. Like
// FitScale, it selects the active scale function and must happen before
// the Camera is shared with rendering goroutines.
func (c *Camera) SetScaleFit(f *ScaleFit) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.scale = fittedScale{coeffs: f.Coeffs, floor: c.floor}
	return nil
}

// SetTranslateFit installs previously fitted translate coefficients. The
// same once-before-rendering rule as SetScaleFit applies.
func (c *Camera) SetTranslateFit(f *TranslateFit) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.translate = fittedTranslate{coeffs: f.Coeffs}
	return nil
}

func mustValidTime(t float64) {
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		panic(fmt.Sprintf("camera: invalid animation time %v", t))
	}
}
