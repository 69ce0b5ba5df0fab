package camera

import "errors"

var (
	// ErrInvalidSettings indicates screen, margin, scale or duration values
	// outside their valid range.
	ErrInvalidSettings = errors.New("camera: invalid settings")

	// ErrInvalidSampleCount indicates a fit was asked for fewer than one
	// sample interval.
	ErrInvalidSampleCount = errors.New("camera: sample count must be positive")

	// ErrSealed is returned when a fit or install is attempted after Seal.
	ErrSealed = errors.New("camera: active functions are sealed")
)
