package terminal

import (
	"errors"
	"testing"
)

// TestRGBTo256 verifies cube and gray ramp selection
func TestRGBTo256(t *testing.T) {
	tests := []struct {
		name string
		in   RGB
		want uint8
	}{
		{"black", RGB{0, 0, 0}, 16},
		{"white", RGB{255, 255, 255}, 231},
		{"pure red", RGB{255, 0, 0}, 196},
		{"mid gray prefers ramp", RGB{128, 128, 128}, 244},
		{"exact cube point", RGB{95, 135, 175}, 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RGBTo256(tt.in); got != tt.want {
				t.Errorf("RGBTo256(%v): expected %d, got %d", tt.in, tt.want, got)
			}
		})
	}
}

// TestIndex256RGB verifies the palette layout in every range
func TestIndex256RGB(t *testing.T) {
	tests := []struct {
		idx  uint8
		want RGB
	}{
		{0, RGB{0, 0, 0}},
		{9, RGB{255, 0, 0}},
		{16, RGB{0, 0, 0}},
		{196, RGB{255, 0, 0}},
		{67, RGB{95, 135, 175}},
		{232, RGB{8, 8, 8}},
		{255, RGB{238, 238, 238}},
	}
	for _, tt := range tests {
		if got := Index256RGB(tt.idx); !got.Equal(tt.want) {
			t.Errorf("Index256RGB(%d): expected %v, got %v", tt.idx, tt.want, got)
		}
	}
}

// TestCubeRoundTrip verifies cube coordinates survive index conversion
func TestCubeRoundTrip(t *testing.T) {
	for r := uint8(0); r < 6; r++ {
		for g := uint8(0); g < 6; g++ {
			for b := uint8(0); b < 6; b++ {
				gr, gg, gb := CubeRGB256(Cube256(r, g, b))
				if gr != r || gg != g || gb != b {
					t.Fatalf("Cube(%d,%d,%d) came back as (%d,%d,%d)", r, g, b, gr, gg, gb)
				}
			}
		}
	}
	if got := Cube256(9, 9, 9); got != 231 {
		t.Errorf("Expected clamped cube index 231, got %d", got)
	}
	if got := Gray256(40); got != 255 {
		t.Errorf("Expected clamped gray index 255, got %d", got)
	}
}

// TestNearestPalette verifies downsampling to the base palette
func TestNearestPalette(t *testing.T) {
	tests := []struct {
		in   RGB
		want uint8
	}{
		{RGB{0, 0, 0}, 0},
		{RGB{255, 255, 255}, 15},
		{RGB{250, 5, 5}, 9},
		{RGB{0, 0, 230}, 4},
	}
	for _, tt := range tests {
		if got := nearestPalette(tt.in); got != tt.want {
			t.Errorf("nearestPalette(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

// TestGrayStep verifies the lightness endpoints and ordering
func TestGrayStep(t *testing.T) {
	if got := grayStep(RGB{0, 0, 0}); got != 0 {
		t.Errorf("Expected step 0 for black, got %d", got)
	}
	if got := grayStep(RGB{255, 255, 255}); got != 23 {
		t.Errorf("Expected step 23 for white, got %d", got)
	}
	dark := grayStep(RGB{60, 60, 60})
	light := grayStep(RGB{190, 190, 190})
	if dark >= light {
		t.Errorf("Expected darker input to map lower, got %d >= %d", dark, light)
	}
}

// TestParseOutputMode verifies names and aliases
func TestParseOutputMode(t *testing.T) {
	tests := map[string]OutputMode{
		"":            OutputNormal,
		"normal":      OutputNormal,
		"Grayscale":   OutputGrayscale,
		"grey":        OutputGrayscale,
		"256":         Output256,
		" truecolor ": OutputTruecolor,
		"24bit":       OutputTruecolor,
	}
	for in, want := range tests {
		got, err := ParseOutputMode(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputMode(%q): expected %v, got %v err=%v", in, want, got, err)
		}
	}

	for _, m := range []OutputMode{OutputNormal, OutputGrayscale, Output256, OutputTruecolor} {
		if back, err := ParseOutputMode(m.String()); err != nil || back != m {
			t.Errorf("String round trip for %v gave %v err=%v", m, back, err)
		}
	}

	if _, err := ParseOutputMode("sixel"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if s := OutputMode(42).String(); s != "unknown" {
		t.Errorf("Expected unknown, got %q", s)
	}
}

// TestDetectTruecolor verifies environment probing
func TestDetectTruecolor(t *testing.T) {
	clearColorEnv(t)
	if detectTruecolor() {
		t.Fatal("Expected no truecolor with a clean environment")
	}
	t.Setenv("COLORTERM", "24bit")
	if !detectTruecolor() {
		t.Error("Expected COLORTERM=24bit to enable truecolor")
	}
	t.Setenv("COLORTERM", "")
	t.Setenv("TERM", "xterm-direct")
	if !detectTruecolor() {
		t.Error("Expected TERM=xterm-direct to enable truecolor")
	}
}
