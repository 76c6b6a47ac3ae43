package dsp

import (
	"errors"
	"math/rand"
	"testing"
)

// newUniformBuffer creates a width x height buffer filled with one RGBA value.
func newUniformBuffer(t *testing.T, width, height int, r, g, b, a uint8) *PixelBuffer {
	t.Helper()
	pix := make([]uint8, width*height*ChannelStride)
	for i := 0; i < len(pix); i += ChannelStride {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, a
	}
	buf, err := NewPixelBuffer(width, height, pix)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	return buf
}

// newRandomBuffer creates a buffer with pseudo-random samples from a fixed seed.
func newRandomBuffer(t *testing.T, width, height int, seed int64) *PixelBuffer {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	pix := make([]uint8, width*height*ChannelStride)
	rng.Read(pix)
	buf, err := NewPixelBuffer(width, height, pix)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}
	return buf
}

func TestNewPixelBuffer_Validation(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		length        int
		wantErr       bool
	}{
		{"valid 2x3", 2, 3, 24, false},
		{"valid empty", 0, 0, 0, false},
		{"length not multiple of 4", 2, 2, 15, true},
		{"length mismatch", 2, 2, 12, true},
		{"negative width", -1, 2, 0, true},
		{"oversized slice", 1, 1, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPixelBuffer(tt.width, tt.height, make([]uint8, tt.length))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidBuffer) {
					t.Errorf("error %v does not wrap ErrInvalidBuffer", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPixelBuffer_NilValidate(t *testing.T) {
	var buf *PixelBuffer
	if err := buf.Validate(); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Validate on nil: got %v, want ErrInvalidBuffer", err)
	}
}

func TestPixelBuffer_Index(t *testing.T) {
	buf := newUniformBuffer(t, 10, 5, 0, 0, 0, 255)

	tests := []struct {
		x, y, c int
		want    int
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 4},
		{0, 1, 0, 40},
		{3, 2, 2, (2*10+3)*4 + 2},
		{9, 4, 3, len(buf.Pix) - 1},
	}

	for _, tt := range tests {
		if got := buf.Index(tt.x, tt.y, tt.c); got != tt.want {
			t.Errorf("Index(%d,%d,%d): got %d, want %d", tt.x, tt.y, tt.c, got, tt.want)
		}
	}
}

func TestPixelBuffer_InBounds(t *testing.T) {
	buf := newUniformBuffer(t, 4, 3, 0, 0, 0, 255)

	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{3, 2, true},
		{4, 0, false},
		{0, 3, false},
		{-1, 0, false},
		{0, -1, false},
	}

	for _, tt := range tests {
		if got := buf.InBounds(tt.x, tt.y); got != tt.want {
			t.Errorf("InBounds(%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPixelBuffer_Luminance(t *testing.T) {
	buf := newUniformBuffer(t, 2, 2, 30, 60, 90, 255)
	if got := buf.Luminance(1, 1); got != 60 {
		t.Errorf("Luminance: got %v, want 60", got)
	}
}

func TestPixelBuffer_Clone(t *testing.T) {
	buf := newUniformBuffer(t, 2, 2, 1, 2, 3, 4)
	clone := buf.Clone()
	clone.Pix[0] = 99

	if buf.Pix[0] != 1 {
		t.Error("Clone shares pixel storage with the original")
	}
	if clone.Width != 2 || clone.Height != 2 {
		t.Errorf("Clone dimensions: got %dx%d, want 2x2", clone.Width, clone.Height)
	}
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-20, 0},
		{0, 0},
		{18.85, 19},
		{127.5, 128},
		{128.5, 128},
		{254.6, 255},
		{300, 255},
	}

	for _, tt := range tests {
		if got := saturate(tt.in); got != tt.want {
			t.Errorf("saturate(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
