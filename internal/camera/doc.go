// Package camera derives a smooth zoom and pan for the growing dragon curve.
//
// Animation time t is warped to parametric time τ = 2^(t/2) − 1 so that the
// geometric growth of the curve looks roughly uniform on screen. The raw
// camera frames the bounding box at τ exactly; the fitted camera replaces
// it with closed forms regressed against samples of the raw one:
//
//	scale(t)     = exp(a + b·t + c·√t)
//	translate(t) = ((a + b·t + c·√t)·cos(d + e·t), (f + g·t + h·√t)·sin(i + j·t))
//
// Fitting, or installing stored coefficients with [Camera.SetScaleFit] and
// [Camera.SetTranslateFit], is an explicit step done once before rendering.
// After that the active functions do not change, and [Camera.Apply] is
// read-only and safe to call from many goroutines.
package camera
