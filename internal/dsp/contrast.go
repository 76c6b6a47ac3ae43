package dsp

import "fmt"

// DefaultContrastLevel is the contrast level applied when none is configured.
const DefaultContrastLevel = 40

// Contrast levels must lie strictly inside (MinContrastLevel, MaxContrastLevel).
// At 259 the factor divides by zero; at -255 it collapses every value to 128.
const (
	MinContrastLevel = -255
	MaxContrastLevel = 259
)

// ContrastFactor returns the stretch factor for contrast level c:
//
//	factor = (259 * (c + 255)) / (255 * (259 - c))
//
// A level of 0 yields exactly 1.0 (identity).
//
// # Errors
//
// Returns an error wrapping ErrInvalidConfiguration when c is outside
// (MinContrastLevel, MaxContrastLevel).
func ContrastFactor(c int) (float64, error) {
	if err := ValidateContrastLevel(c); err != nil {
		return 0, err
	}
	level := float64(c)
	return (259 * (level + 255)) / (255 * (259 - level)), nil
}

// ValidateContrastLevel checks that c produces a defined, non-degenerate factor.
func ValidateContrastLevel(c int) error {
	if c <= MinContrastLevel || c >= MaxContrastLevel {
		return fmt.Errorf("%w: contrast level %d outside (%d, %d)", ErrInvalidConfiguration, c, MinContrastLevel, MaxContrastLevel)
	}
	return nil
}

// Enhance applies a linear contrast stretch to the R, G and B channels in place:
//
//	v' = clamp(round(factor * (v - 128) + 128), 0, 255)
//
// Alpha is left untouched. Values that overshoot the 8-bit range near the
// extremes saturate at 0 or 255.
//
// # Errors
//
//   - ErrInvalidBuffer if the buffer fails Validate
//   - ErrInvalidConfiguration if c is out of range
//
// The buffer is not modified when an error is returned.
func Enhance(buf *PixelBuffer, c int) error {
	return EnhanceParallel(buf, c, 1)
}

// EnhanceParallel is Enhance with the rows partitioned across workers.
func EnhanceParallel(buf *PixelBuffer, c, workers int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	lut, err := contrastTable(c)
	if err != nil {
		return err
	}
	return ForEachRows(buf.Height, workers, func(_, start, end int) error {
		rowBytes := buf.Width * ChannelStride
		pix := buf.Pix[start*rowBytes : end*rowBytes]
		for i := 0; i < len(pix); i += ChannelStride {
			pix[i] = lut[pix[i]]
			pix[i+1] = lut[pix[i+1]]
			pix[i+2] = lut[pix[i+2]]
		}
		return nil
	})
}

// contrastTable precomputes the transform for all 256 input values.
func contrastTable(c int) (*[256]uint8, error) {
	factor, err := ContrastFactor(c)
	if err != nil {
		return nil, err
	}
	var lut [256]uint8
	for v := range lut {
		lut[v] = saturate(factor*(float64(v)-128) + 128)
	}
	return &lut, nil
}
