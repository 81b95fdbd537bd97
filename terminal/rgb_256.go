package terminal

// xterm 256-colour palette layout
//
// 0-15:    base palette (paletteRGB)
// 16-231:  color cube, index = 16 + 36*r + 6*g + b where r,g,b ∈ [0,5]
// 232-255: grayscale ramp, level = 8 + 10*(index-232)

// Cube256 returns the xterm 256-palette index for an RGB cube coordinate.
// r, g, b must be in [0,5]. Values outside that range are clamped.
func Cube256(r, g, b uint8) uint8 {
	if r > 5 {
		r = 5
	}
	if g > 5 {
		g = 5
	}
	if b > 5 {
		b = 5
	}
	return 16 + 36*r + 6*g + b
}

// CubeRGB256 returns the (r, g, b) cube coordinates for a 256-palette color cube index.
// Index must be in [16,231]. Returns (0,0,0) for out-of-range indices.
func CubeRGB256(index uint8) (r, g, b uint8) {
	if index < 16 || index > 231 {
		return 0, 0, 0
	}
	n := index - 16
	return n / 36, (n % 36) / 6, n % 6
}

// Gray256 returns the xterm 256-palette index for a grayscale step.
// step must be in [0,23] (maps to indices 232-255, levels 8-238).
func Gray256(step uint8) uint8 {
	if step > 23 {
		step = 23
	}
	return grayscaleStart + step
}

// Index256RGB returns the RGB value xterm displays for a palette index
func Index256RGB(index uint8) RGB {
	switch {
	case index < 16:
		return paletteRGB[index]
	case index < grayscaleStart:
		r, g, b := CubeRGB256(index)
		return RGB{R: cubeValues[r], G: cubeValues[g], B: cubeValues[b]}
	default:
		level := 8 + 10*(index-grayscaleStart)
		return RGB{R: level, G: level, B: level}
	}
}
