package dsp

import (
	"errors"
	"math"
	"testing"
)

func TestContrastFactor(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  float64
	}{
		{"identity", 0, 1.0},
		{"default", 40, (259.0 * 295.0) / (255.0 * 219.0)},
		{"negative", -100, (259.0 * 155.0) / (255.0 * 359.0)},
		{"near max", 258, (259.0 * 513.0) / 255.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContrastFactor(tt.level)
			if err != nil {
				t.Fatalf("ContrastFactor(%d) failed: %v", tt.level, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ContrastFactor(%d): got %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestContrastFactor_Default(t *testing.T) {
	got, err := ContrastFactor(DefaultContrastLevel)
	if err != nil {
		t.Fatalf("ContrastFactor failed: %v", err)
	}
	// 76405 / 55845
	if math.Abs(got-1.3682) > 1e-4 {
		t.Errorf("ContrastFactor(40): got %.6f, want ~1.3682", got)
	}
}

func TestContrastFactor_Invalid(t *testing.T) {
	for _, level := range []int{259, 300, -255, -1000} {
		if _, err := ContrastFactor(level); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("ContrastFactor(%d): got %v, want ErrInvalidConfiguration", level, err)
		}
	}
}

func TestEnhance_IdentityAtZero(t *testing.T) {
	pix := make([]uint8, 256*ChannelStride)
	for v := 0; v < 256; v++ {
		pix[v*4], pix[v*4+1], pix[v*4+2], pix[v*4+3] = uint8(v), uint8(v), uint8(v), 255
	}
	buf, err := NewPixelBuffer(256, 1, pix)
	if err != nil {
		t.Fatalf("NewPixelBuffer failed: %v", err)
	}

	if err := Enhance(buf, 0); err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	for v := 0; v < 256; v++ {
		if buf.Pix[v*4] != uint8(v) {
			t.Errorf("value %d: got %d after identity stretch", v, buf.Pix[v*4])
		}
	}
}

func TestEnhance_Clamped(t *testing.T) {
	tests := []struct {
		name  string
		in    uint8
		level int
		want  uint8
	}{
		{"bright saturates high", 250, 40, 255},
		{"dark saturates low", 5, 40, 0},
		{"midpoint fixed", 128, 40, 128},
		{"moderate bright", 150, 40, 158}, // 1.3682*22+128 = 158.1
		{"moderate dark", 100, 40, 90},    // 128-1.3682*28 = 89.7
		{"strong contrast", 200, 200, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := newUniformBuffer(t, 2, 2, tt.in, tt.in, tt.in, 77)
			if err := Enhance(buf, tt.level); err != nil {
				t.Fatalf("Enhance failed: %v", err)
			}
			for p := 0; p < len(buf.Pix); p += ChannelStride {
				for c := 0; c < 3; c++ {
					if buf.Pix[p+c] != tt.want {
						t.Fatalf("channel %d: got %d, want %d", c, buf.Pix[p+c], tt.want)
					}
				}
				if buf.Pix[p+3] != 77 {
					t.Fatalf("alpha: got %d, want 77", buf.Pix[p+3])
				}
			}
		})
	}
}

func TestEnhance_RejectsInvalidLevel(t *testing.T) {
	buf := newUniformBuffer(t, 2, 2, 100, 100, 100, 255)
	err := Enhance(buf, 259)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Enhance(259): got %v, want ErrInvalidConfiguration", err)
	}
	if buf.Pix[0] != 100 {
		t.Error("Enhance mutated buffer despite invalid level")
	}
}

func TestEnhance_RejectsInvalidBuffer(t *testing.T) {
	buf := &PixelBuffer{Width: 3, Height: 3, Pix: make([]uint8, 8)}
	if err := Enhance(buf, 40); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Enhance: got %v, want ErrInvalidBuffer", err)
	}
}

func TestEnhanceParallel_MatchesSequential(t *testing.T) {
	seq := newRandomBuffer(t, 50, 41, 7)
	par := seq.Clone()

	if err := Enhance(seq, 40); err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if err := EnhanceParallel(par, 40, 6); err != nil {
		t.Fatalf("EnhanceParallel failed: %v", err)
	}
	for i := range seq.Pix {
		if seq.Pix[i] != par.Pix[i] {
			t.Fatalf("byte %d: sequential %d, parallel %d", i, seq.Pix[i], par.Pix[i])
		}
	}
}
