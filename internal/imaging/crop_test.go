package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func TestCrop(t *testing.T) {
	img := createGradientImage(100, 100)

	got, err := Crop(img, image.Rect(10, 20, 30, 50), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if b := got.Bounds(); b.Dx() != 20 || b.Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 20x30", b.Dx(), b.Dy())
	}

	scaled, err := Crop(img, image.Rect(0, 0, 50, 50), 2.0)
	if err != nil {
		t.Fatalf("Crop with scale failed: %v", err)
	}
	if b := scaled.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("scaled dimensions: got %dx%d, want 100x100", b.Dx(), b.Dy())
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)

	tests := []struct {
		name string
		r    image.Rectangle
	}{
		{"outside", image.Rect(40, 40, 60, 60)},
		{"negative", image.Rect(-5, 0, 10, 10)},
		{"empty", image.Rect(10, 10, 10, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.r, 1.0); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCropAround(t *testing.T) {
	img := createGradientImage(100, 100)

	tests := []struct {
		name         string
		cx, cy, r    int
		scale        float64
		wantRegion   image.Rectangle
		wantW, wantH int
	}{
		{"centered", 50, 50, 10, 1, image.Rect(40, 40, 60, 60), 20, 20},
		{"clipped at corner", 0, 0, 10, 1, image.Rect(0, 0, 10, 10), 10, 10},
		{"clipped at edge", 95, 50, 10, 1, image.Rect(85, 40, 100, 60), 15, 20},
		{"zoomed", 50, 50, 10, 3, image.Rect(40, 40, 60, 60), 60, 60},
		{"default scale", 50, 50, 5, 0, image.Rect(45, 45, 55, 55), 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CropAround(img, tt.cx, tt.cy, tt.r, tt.scale)
			if err != nil {
				t.Fatalf("CropAround failed: %v", err)
			}
			if res.Region != tt.wantRegion {
				t.Errorf("region: got %v, want %v", res.Region, tt.wantRegion)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
			if res.MimeType != "image/png" {
				t.Errorf("MimeType: got %s", res.MimeType)
			}
		})
	}
}

func TestCropAround_Errors(t *testing.T) {
	img := createInMemoryImage(20, 20, color.White)
	if _, err := CropAround(img, 25, 5, 4, 1); err == nil {
		t.Error("expected error for a point outside the image")
	}
	if _, err := CropAround(img, 5, 5, 0, 1); err == nil {
		t.Error("expected error for zero radius")
	}
}

func TestEncodePNG(t *testing.T) {
	img := createGradientImage(7, 3)

	enc, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if enc.Width != 7 || enc.Height != 3 || enc.MimeType != "image/png" {
		t.Errorf("got %+v", enc)
	}
	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if r, g, _, _ := decoded.At(4, 2).RGBA(); r>>8 != 4 || g>>8 != 2 {
		t.Errorf("pixel (4,2): got r=%d g=%d", r>>8, g>>8)
	}
}

func TestMeasureIntensity(t *testing.T) {
	uniform := MeasureIntensity(createInMemoryImage(10, 10, color.RGBA{100, 100, 100, 255}))
	if math.Abs(uniform.Mean-100) > 1e-9 || uniform.StdDev > 1e-9 || uniform.Samples != 100 {
		t.Errorf("uniform: got %+v", uniform)
	}
	if math.Abs(uniform.Min-100) > 1e-9 || math.Abs(uniform.Max-100) > 1e-9 {
		t.Errorf("uniform range: got %v..%v", uniform.Min, uniform.Max)
	}

	split := createInMemoryImage(10, 10, color.RGBA{0, 0, 0, 255})
	for y := 5; y < 10; y++ {
		for x := 0; x < 10; x++ {
			split.SetRGBA(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	got := MeasureIntensity(split)
	if got.Min != 0 || math.Abs(got.Max-200) > 1e-9 || math.Abs(got.Mean-100) > 1e-9 {
		t.Errorf("split: got %+v", got)
	}
	// Even count: the lower middle value.
	if got.Median != 0 {
		t.Errorf("median: got %v, want 0", got.Median)
	}

	if empty := MeasureIntensity(image.NewRGBA(image.Rect(0, 0, 0, 0))); empty.Samples != 0 {
		t.Errorf("empty: got %+v", empty)
	}
	if one := MeasureIntensity(createInMemoryImage(1, 1, color.White)); one.StdDev != 0 || one.Samples != 1 {
		t.Errorf("single pixel: got %+v", one)
	}
}

func TestMeasureIntensity_SamplesLargeImages(t *testing.T) {
	got := MeasureIntensity(image.NewRGBA(image.Rect(0, 0, 1000, 1000)))
	if got.Samples > maxIntensitySamples {
		t.Errorf("samples: got %d, want <= %d", got.Samples, maxIntensitySamples)
	}
}
