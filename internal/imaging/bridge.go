package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
)

// ToPixelBuffer copies img into a new, engine-owned pixel buffer with its
// origin at (0, 0). The source image is never aliased, so cached images
// survive in-place enhancement.
func ToPixelBuffer(img image.Image) *dsp.PixelBuffer {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	rowBytes := w * dsp.ChannelStride

	pix := make([]uint8, h*rowBytes)
	for y := 0; y < h; y++ {
		src := rgba.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*rowBytes:(y+1)*rowBytes], rgba.Pix[src:src+rowBytes])
	}
	return &dsp.PixelBuffer{Width: w, Height: h, Pix: pix}
}

// FromPixelBuffer copies buf into a new RGBA image.
func FromPixelBuffer(buf *dsp.PixelBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	copy(img.Pix, buf.Pix)
	return img
}

// Prepare downsizes img so neither side exceeds maxDimension, keeping the
// aspect ratio. Images already within bounds, or maxDimension <= 0, are
// returned as is.
func Prepare(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	if maxDimension <= 0 || (b.Dx() <= maxDimension && b.Dy() <= maxDimension) {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}
