package camera

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/dragonzoom/internal/dragon"
)

func hdSettings() Settings {
	return Settings{
		ScreenWidth:  1920,
		ScreenHeight: 1080,
		Margin:       0.1,
		MinScale:     1.0,
		Duration:     40,
	}
}

func newCamera(t *testing.T, s Settings, opts ...Option) *Camera {
	t.Helper()
	c, err := New(dragon.New(), s, opts...)
	if err != nil {
		t.Fatalf("new camera: %v", err)
	}
	return c
}

func TestWarpTime(t *testing.T) {
	tests := []struct {
		t, expected float64
	}{
		{0, 0},
		{2, 1},
		{4, 3},
		{1, math.Sqrt2 - 1},
		{40, 1<<20 - 1},
	}

	for _, tt := range tests {
		if got := WarpTime(tt.t); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("WarpTime(%v) = %v, want %v", tt.t, got, tt.expected)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Settings)
		valid bool
	}{
		{"default", func(*Settings) {}, true},
		{"zero margin", func(s *Settings) { s.Margin = 0 }, true},
		{"zero width", func(s *Settings) { s.ScreenWidth = 0 }, false},
		{"negative height", func(s *Settings) { s.ScreenHeight = -1 }, false},
		{"margin half", func(s *Settings) { s.Margin = 0.5 }, false},
		{"negative margin", func(s *Settings) { s.Margin = -0.1 }, false},
		{"zero min scale", func(s *Settings) { s.MinScale = 0 }, false},
		{"negative duration", func(s *Settings) { s.Duration = -5 }, false},
		{"NaN width", func(s *Settings) { s.ScreenWidth = math.NaN() }, false},
		{"infinite duration", func(s *Settings) { s.Duration = math.Inf(1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := hdSettings()
			tt.mod(&s)
			err := s.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	s := hdSettings()
	s.ScreenWidth = 0

	c, err := New(dragon.New(), s)
	if c != nil || !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected nil camera and ErrInvalidSettings, got %v, %v", c, err)
	}
}

func TestConcreteScenario(t *testing.T) {
	g := NewWithT(t)
	c := newCamera(t, hdSettings())

	g.Expect(c.MinScale()).To(BeNumerically("~", 1.0/1080, 1e-15))
	g.Expect(c.RawScale(0)).To(Equal(c.MinScale()))
	g.Expect(c.RawTranslate(0)).To(Equal(dragon.Pt(-0.5, 0)))

	g.Expect(c.Store().PointAt(0)).To(Equal(dragon.Pt(0, 0)))
	g.Expect(c.Store().PointAt(1)).To(Equal(dragon.Pt(1, 0)))
	g.Expect(c.Store().PointAt(0.5)).To(Equal(dragon.Pt(0.5, 0)))
}

func TestRawScale_Clamp(t *testing.T) {
	c := newCamera(t, hdSettings())

	for tt := 0.0; tt <= 40; tt += 0.25 {
		if s := c.RawScale(tt); s < c.MinScale() {
			t.Fatalf("RawScale(%v) = %g below floor %g", tt, s, c.MinScale())
		}
	}
}

func TestRawScale_FramesCurve(t *testing.T) {
	s := hdSettings()
	c := newCamera(t, s)

	for tt := 0.0; tt <= 30; tt += 0.5 {
		box := c.Store().Bounds(WarpTime(tt))
		scale := c.RawScale(tt)
		tr := c.RawTranslate(tt)

		usableW := s.ScreenWidth * (1 - 2*s.Margin)
		usableH := s.ScreenHeight * (1 - 2*s.Margin)
		if box.Width()/scale > usableW+1e-6 || box.Height()/scale > usableH+1e-6 {
			t.Fatalf("t=%v: box %+v does not fit at scale %g", tt, box, scale)
		}

		center := box.Center().Add(tr)
		if math.Abs(center.X) > 1e-9 || math.Abs(center.Y) > 1e-9 {
			t.Fatalf("t=%v: translated centre %v not at origin", tt, center)
		}
	}
}

func TestRawScale_NonDecreasing(t *testing.T) {
	c := newCamera(t, hdSettings())

	prev := c.RawScale(0)
	for tt := 0.1; tt <= 36; tt += 0.1 {
		s := c.RawScale(tt)
		if s < prev {
			t.Fatalf("RawScale decreased at t=%v: %g < %g", tt, s, prev)
		}
		prev = s
	}
}

func TestApply_Raw(t *testing.T) {
	c := newCamera(t, hdSettings())

	if c.ScaleKind() != Raw || c.TranslateKind() != Raw {
		t.Fatalf("expected raw functions, got %v/%v", c.ScaleKind(), c.TranslateKind())
	}

	for _, tt := range []float64{0, 3.3, 12, 25.5} {
		v := c.Apply(tt)
		if v.Scale != c.RawScale(tt) {
			t.Errorf("t=%v: scale %g, raw %g", tt, v.Scale, c.RawScale(tt))
		}
		if v.Translate != c.RawTranslate(tt) {
			t.Errorf("t=%v: translate %v, raw %v", tt, v.Translate, c.RawTranslate(tt))
		}
	}
}

func TestLineWidth(t *testing.T) {
	c := newCamera(t, hdSettings())

	if w := c.LineWidth(0); math.Abs(w-0.1) > 1e-12 {
		t.Errorf("expected line width 0.1 at t=0, got %f", w)
	}

	prev := c.LineWidth(0)
	for tt := 1.0; tt <= 30; tt++ {
		w := c.LineWidth(tt)
		if w < prev || w >= 1 {
			t.Fatalf("line width at t=%v = %f, previous %f", tt, w, prev)
		}
		prev = w
	}
}

func TestSetScaleFit_ClampsToFloor(t *testing.T) {
	c := newCamera(t, hdSettings())

	if err := c.SetScaleFit(&ScaleFit{Coeffs: ScaleCoeffs{-100, 0, 0}}); err != nil {
		t.Fatal(err)
	}

	if c.ScaleKind() != Fitted {
		t.Fatalf("expected fitted scale, got %v", c.ScaleKind())
	}
	if s := c.Scale(10); s != c.MinScale() {
		t.Errorf("expected clamped scale %g, got %g", c.MinScale(), s)
	}
}

func TestSetTranslateFit(t *testing.T) {
	c := newCamera(t, hdSettings())

	var k TranslateCoeffs
	k[0], k[5], k[8] = 2, 3, math.Pi/2
	if err := c.SetTranslateFit(&TranslateFit{Coeffs: k}); err != nil {
		t.Fatal(err)
	}

	got := c.Translate(0)
	if math.Abs(got.X-2) > 1e-12 || math.Abs(got.Y-3) > 1e-12 {
		t.Errorf("expected (2,3), got %v", got)
	}
	if c.TranslateKind() != Fitted {
		t.Errorf("expected fitted translate, got %v", c.TranslateKind())
	}
}

func TestSeal_FixesActiveFunctions(t *testing.T) {
	c := newCamera(t, hdSettings())
	if err := c.SetScaleFit(&ScaleFit{Coeffs: ScaleCoeffs{-3, 0.1, 0}}); err != nil {
		t.Fatal(err)
	}
	before := c.Apply(12)

	c.Seal()
	c.Seal()
	if !c.Sealed() {
		t.Fatal("expected sealed camera")
	}

	if err := c.SetScaleFit(&ScaleFit{Coeffs: ScaleCoeffs{-100, 0, 0}}); !errors.Is(err, ErrSealed) {
		t.Errorf("SetScaleFit after Seal: expected ErrSealed, got %v", err)
	}
	if err := c.SetTranslateFit(&TranslateFit{}); !errors.Is(err, ErrSealed) {
		t.Errorf("SetTranslateFit after Seal: expected ErrSealed, got %v", err)
	}
	if _, err := c.FitScale(context.Background(), 10); !errors.Is(err, ErrSealed) {
		t.Errorf("FitScale after Seal: expected ErrSealed, got %v", err)
	}
	if _, err := c.FitTranslate(context.Background(), 10); !errors.Is(err, ErrSealed) {
		t.Errorf("FitTranslate after Seal: expected ErrSealed, got %v", err)
	}

	if c.Apply(12) != before {
		t.Error("active functions changed after Seal")
	}
	if c.TranslateKind() != Raw {
		t.Errorf("expected raw translate, got %v", c.TranslateKind())
	}
}

func TestInvalidTimePanics(t *testing.T) {
	c := newCamera(t, hdSettings())

	for _, tt := range []float64{-1, math.NaN(), math.Inf(1)} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for t=%v", tt)
				}
			}()
			c.Apply(tt)
		}()
	}
}

func TestKindString(t *testing.T) {
	if Raw.String() != "raw" || Fitted.String() != "fitted" {
		t.Errorf("unexpected names: %s, %s", Raw, Fitted)
	}
	if Kind(7).String() != "Kind(7)" {
		t.Errorf("unexpected name for unknown kind: %s", Kind(7))
	}
}

func TestSamples(t *testing.T) {
	s := hdSettings()
	s.Duration = 10
	c := newCamera(t, s)

	samples := c.Samples(20)

	if len(samples) != 21 {
		t.Fatalf("expected 21 samples, got %d", len(samples))
	}
	if samples[0].T != 0 || samples[20].T != 10 {
		t.Errorf("expected samples over [0, 10], got %v..%v", samples[0].T, samples[20].T)
	}
	for _, smp := range samples {
		if smp.Scale != smp.RawScale {
			t.Errorf("t=%v: raw camera should report identical scales", smp.T)
		}
	}
}
