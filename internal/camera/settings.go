package camera

import (
	"fmt"
	"math"
)

// Settings are the screen and timing inputs of the camera.
type Settings struct {
	ScreenWidth  float64
	ScreenHeight float64
	// Margin is the fraction of each screen edge kept blank, in [0, 0.5).
	Margin float64
	// MinScale bounds the zoom: one curve unit never spans more than
	// min(ScreenWidth, ScreenHeight)/MinScale pixels.
	MinScale float64
	// Duration bounds the fit sample range, in seconds.
	Duration float64
}

func (s Settings) Validate() error {
	for _, v := range []float64{s.ScreenWidth, s.ScreenHeight, s.Margin, s.MinScale, s.Duration} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidSettings, s)
		}
	}
	if s.ScreenWidth <= 0 || s.ScreenHeight <= 0 {
		return fmt.Errorf("%w: screen must be positive, got %gx%g", ErrInvalidSettings, s.ScreenWidth, s.ScreenHeight)
	}
	if s.Margin < 0 || s.Margin >= 0.5 {
		return fmt.Errorf("%w: margin must be in [0, 0.5), got %g", ErrInvalidSettings, s.Margin)
	}
	if s.MinScale <= 0 {
		return fmt.Errorf("%w: min scale must be positive, got %g", ErrInvalidSettings, s.MinScale)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidSettings, s.Duration)
	}
	return nil
}

// scaleFloor is the minimum scale in curve units per pixel.
func (s Settings) scaleFloor() float64 {
	return s.MinScale / math.Min(s.ScreenWidth, s.ScreenHeight)
}
