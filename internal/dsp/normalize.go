package dsp

// Luma returns the ITU-R BT.601 weighted intensity of an RGB triple,
// Y = 0.299*R + 0.587*G + 0.114*B, before rounding. No gamma correction is
// applied.
func Luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Normalize reduces the buffer to a grayscale signal in place.
//
// For every pixel the luma of R, G and B is rounded to the nearest integer
// and written into all three color channels. Alpha is left untouched.
//
// # Errors
//
// Returns an error wrapping ErrInvalidBuffer if the buffer fails Validate.
// Nothing is written in that case.
func Normalize(buf *PixelBuffer) error {
	return NormalizeParallel(buf, 1)
}

// NormalizeParallel is Normalize with the rows partitioned across workers.
// The output is identical to Normalize for any worker count.
func NormalizeParallel(buf *PixelBuffer, workers int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	return ForEachRows(buf.Height, workers, func(_, start, end int) error {
		normalizeRows(buf, start, end)
		return nil
	})
}

func normalizeRows(buf *PixelBuffer, start, end int) {
	rowBytes := buf.Width * ChannelStride
	pix := buf.Pix[start*rowBytes : end*rowBytes]
	for i := 0; i < len(pix); i += ChannelStride {
		y := saturate(Luma(pix[i], pix[i+1], pix[i+2]))
		pix[i], pix[i+1], pix[i+2] = y, y, y
	}
}
