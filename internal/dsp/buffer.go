package dsp

import (
	"fmt"
	"math"
)

// ChannelStride is the number of interleaved samples per pixel (R, G, B, A).
const ChannelStride = 4

// PixelBuffer is a rectangular array of interleaved 8-bit RGBA samples.
//
// The buffer is owned by the caller and mutated in place by Normalize and
// Enhance. Pix must hold exactly Width*Height*4 bytes; Validate checks this
// before any stage touches the data.
type PixelBuffer struct {
	// Width is the buffer width in pixels.
	Width int

	// Height is the buffer height in pixels.
	Height int

	// Pix holds the samples in row-major order, R G B A per pixel.
	Pix []uint8
}

// NewPixelBuffer wraps pix as a PixelBuffer after validating its length.
//
// The slice is not copied.
func NewPixelBuffer(width, height int, pix []uint8) (*PixelBuffer, error) {
	buf := &PixelBuffer{Width: width, Height: height, Pix: pix}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Validate checks the buffer invariant len(Pix) == Width*Height*4.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidBuffer, b.Width, b.Height)
	}
	if len(b.Pix)%ChannelStride != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidBuffer, len(b.Pix), ChannelStride)
	}
	if want := b.Width * b.Height * ChannelStride; len(b.Pix) != want {
		return fmt.Errorf("%w: length %d does not match %dx%d (want %d)", ErrInvalidBuffer, len(b.Pix), b.Width, b.Height, want)
	}
	return nil
}

// Index returns the offset of channel c of pixel (x, y).
// The result is only meaningful when InBounds(x, y) holds.
func (b *PixelBuffer) Index(x, y, c int) int {
	return (y*b.Width+x)*ChannelStride + c
}

// InBounds reports whether (x, y) addresses a pixel of the buffer.
func (b *PixelBuffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Luminance returns the mean of the R, G and B samples at (x, y).
//
// After Normalize all three channels hold the same value, so this equals the
// stored luma. Callers must check InBounds first.
func (b *PixelBuffer) Luminance(x, y int) float64 {
	i := b.Index(x, y, 0)
	return (float64(b.Pix[i]) + float64(b.Pix[i+1]) + float64(b.Pix[i+2])) / 3
}

// Clone returns a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// saturate rounds v to the nearest integer (ties to even) and clamps it to
// the 8-bit range, matching the behavior of a clamped canvas byte array.
func saturate(v float64) uint8 {
	v = math.RoundToEven(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
