package dsp

import "errors"

var (
	// ErrInvalidBuffer reports a pixel buffer whose length is not
	// Width*Height*4, or whose dimensions are negative.
	ErrInvalidBuffer = errors.New("invalid pixel buffer")

	// ErrInvalidConfiguration reports a parameter that would make a stage
	// undefined, such as a contrast level of 259 or a non-positive step.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInsufficientSignal reports an empty sampling window.
	ErrInsufficientSignal = errors.New("insufficient signal")
)
