package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ZoomResult is a crop centered on a point of interest.
type ZoomResult struct {
	EncodedImage

	// Region is the cropped rectangle in source coordinates.
	Region image.Rectangle `json:"region"`

	// Scale is the applied enlargement.
	Scale float64 `json:"scale"`
}

// Crop extracts the rectangle r from img and optionally rescales it with a
// Lanczos filter. r must lie within the image and be non-empty.
func Crop(img image.Image, r image.Rectangle, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region %v: must be non-empty", r)
	}

	cropped := imaging.Crop(img, r)
	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}

// AroundRegion returns the square of half-size radius centered on (cx, cy),
// clipped to bounds.
func AroundRegion(bounds image.Rectangle, cx, cy, radius int) image.Rectangle {
	return image.Rect(cx-radius, cy-radius, cx+radius, cy+radius).Intersect(bounds)
}

// CropAround zooms on (cx, cy): it crops AroundRegion and scales it by scale,
// returning PNG data.
func CropAround(img image.Image, cx, cy, radius int, scale float64) (*ZoomResult, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("radius must be > 0 (got %d)", radius)
	}
	if !(image.Point{X: cx, Y: cy}).In(img.Bounds()) {
		return nil, fmt.Errorf("point (%d,%d) outside image bounds %v", cx, cy, img.Bounds())
	}
	if scale <= 0 {
		scale = 1.0
	}

	region := AroundRegion(img.Bounds(), cx, cy, radius)
	cropped, err := Crop(img, region, scale)
	if err != nil {
		return nil, err
	}
	enc, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}
	return &ZoomResult{EncodedImage: *enc, Region: region, Scale: scale}, nil
}
