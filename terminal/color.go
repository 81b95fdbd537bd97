package terminal

import (
	"math"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// OutputMode selects how attribute colours are encoded on the wire
type OutputMode uint8

const (
	OutputNormal    OutputMode = iota // 8/16 palette colours
	OutputGrayscale                   // 24-step gray ramp (232-255)
	Output256                         // xterm-256 palette
	OutputTruecolor                   // 24-bit RGB
)

var outputModeNames = map[OutputMode]string{
	OutputNormal:    "normal",
	OutputGrayscale: "grayscale",
	Output256:       "256",
	OutputTruecolor: "truecolor",
}

func (m OutputMode) String() string {
	if s, ok := outputModeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseOutputMode resolves a mode name
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "16", "8":
		return OutputNormal, nil
	case "grayscale", "greyscale", "gray", "grey":
		return OutputGrayscale, nil
	case "256", "xterm256":
		return Output256, nil
	case "truecolor", "true", "24bit", "rgb":
		return OutputTruecolor, nil
	}
	return OutputNormal, newError(CodeUnsupported, "parse output mode", errors.Errorf("unknown mode %q", s))
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Equal returns true if colors match
func (c RGB) Equal(other RGB) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// paletteRGB holds the xterm defaults for the 16 base colours
var paletteRGB = [16]RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// paletteLab caches paletteRGB in colorful space for nearest-colour search
var paletteLab [16]colorful.Color

// Color cube values for 6x6x6 palette (indices 16-231)
// Levels: 0, 95, 135, 175, 215, 255
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps 0-255 to nearest cube index 0-5
var cubeIndex [256]uint8

// grayscaleStart is the first grayscale index (232-255 = 24 shades)
const grayscaleStart = 232

func init() {
	for i := 0; i < 256; i++ {
		best := 0
		bestDist := abs(i - int(cubeValues[0]))
		for j := 1; j < 6; j++ {
			d := abs(i - int(cubeValues[j]))
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		cubeIndex[i] = uint8(best)
	}

	for i, c := range paletteRGB {
		paletteLab[i] = c.colorful()
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// RGBTo256 converts RGB to nearest 256-color palette index, preferring the gray ramp
// for near-neutral colours when it is closer than the cube
func RGBTo256(c RGB) uint8 {
	r, g, b := c.R, c.G, c.B
	gray := (int(r) + int(g) + int(b)) / 3
	maxDiff := max(abs(int(r)-gray), abs(int(g)-gray), abs(int(b)-gray))

	if maxDiff < 10 {
		if gray < 4 {
			return 16
		}
		if gray > 243 {
			return 231
		}
		grayIdx := grayscaleStart + (gray-8)/10
		if grayIdx > 255 {
			grayIdx = 255
		}
		if grayIdx < grayscaleStart {
			grayIdx = grayscaleStart
		}

		grayLevel := 8 + (grayIdx-grayscaleStart)*10
		grayDist := abs(int(r)-grayLevel) + abs(int(g)-grayLevel) + abs(int(b)-grayLevel)

		cubeDist := abs(int(r)-int(cubeValues[cubeIndex[r]])) +
			abs(int(g)-int(cubeValues[cubeIndex[g]])) +
			abs(int(b)-int(cubeValues[cubeIndex[b]]))

		if grayDist < cubeDist {
			return uint8(grayIdx)
		}
	}

	return Cube256(cubeIndex[r], cubeIndex[g], cubeIndex[b])
}

// nearestPalette returns the base palette slot (0-15) closest to c in CIE Lab
func nearestPalette(c RGB) uint8 {
	target := c.colorful()
	best := 0
	bestDist := math.MaxFloat64
	for i := range paletteLab {
		d := target.DistanceLab(paletteLab[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}

// grayStep maps perceived lightness to a 0-23 step on the gray ramp
func grayStep(c RGB) uint8 {
	l, _, _ := c.colorful().Lab()
	step := math.Round(l * 23)
	if step < 0 {
		step = 0
	}
	if step > 23 {
		step = 23
	}
	return uint8(step)
}

// detectTruecolor determines truecolor capability from environment
func detectTruecolor() bool {
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	if colorterm == "truecolor" || colorterm == "24bit" {
		return true
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" ||
		os.Getenv("KONSOLE_VERSION") != "" ||
		os.Getenv("ITERM_SESSION_ID") != "" ||
		os.Getenv("ALACRITTY_WINDOW_ID") != "" ||
		os.Getenv("WEZTERM_PANE") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit") ||
		strings.Contains(term, "direct")
}
