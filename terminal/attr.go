// @focus: #terminal { attr, color }
package terminal

// Attribute packs a colour and style bits into 64 bits.
//
// Colour occupies the low 25 bits and is interpreted by range:
//
//	0               default colour
//	1..16           8/16-colour palette (ColorBlack..ColorBrightWhite)
//	0x100..0x1ff    xterm 256-colour index (Color256)
//	1<<24|0xRRGGBB  24-bit truecolor (ColorRGB)
//
// Style bits start at bit 32. Foreground and background each carry a full Attribute;
// style bits from both are applied to the cell.
type Attribute uint64

// Palette colours
const (
	ColorDefault Attribute = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightBlack
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
)

const (
	colorIndexed Attribute = 0x100
	colorRGB     Attribute = 1 << 24
	colorMask    Attribute = colorRGB | 0xffffff
)

// Style bits
const (
	AttrBold Attribute = 1 << (32 + iota)
	AttrUnderline
	AttrReverse
	AttrItalic
	AttrBlink
	AttrDim
	AttrStrikeout
)

// AttrStyle masks only the style bits
const AttrStyle = AttrBold | AttrUnderline | AttrReverse | AttrItalic | AttrBlink | AttrDim | AttrStrikeout

// colorClass is the range a colour value falls in
type colorClass uint8

const (
	classDefault colorClass = iota
	classPalette
	classIndexed
	classRGB
)

// Color256 returns the attribute for xterm palette index n
func Color256(n uint8) Attribute {
	return colorIndexed | Attribute(n)
}

// ColorRGB returns a truecolor attribute
func ColorRGB(r, g, b uint8) Attribute {
	return colorRGB | Attribute(r)<<16 | Attribute(g)<<8 | Attribute(b)
}

// ColorHex returns a truecolor attribute from 0xRRGGBB
func ColorHex(v uint32) Attribute {
	return colorRGB | Attribute(v&0xffffff)
}

// Color strips style bits
func (a Attribute) Color() Attribute {
	return a & colorMask
}

// Style strips colour bits
func (a Attribute) Style() Attribute {
	return a & AttrStyle
}

// class reports the colour range; out-of-range values behave as default
func (a Attribute) class() colorClass {
	c := a.Color()
	switch {
	case c == ColorDefault:
		return classDefault
	case c <= ColorBrightWhite:
		return classPalette
	case c&colorRGB != 0:
		return classRGB
	case c >= colorIndexed && c < colorIndexed+256:
		return classIndexed
	}
	return classDefault
}

// IsRGB reports whether the colour is a truecolor value
func (a Attribute) IsRGB() bool {
	return a.class() == classRGB
}

// Index256 returns the xterm index equivalent of palette and indexed colours
func (a Attribute) Index256() (uint8, bool) {
	switch a.class() {
	case classPalette:
		return uint8(a.Color() - ColorBlack), true
	case classIndexed:
		return uint8(a.Color() - colorIndexed), true
	}
	return 0, false
}

// RGB resolves any non-default colour to its RGB value using the xterm default palette
func (a Attribute) RGB() (RGB, bool) {
	switch a.class() {
	case classRGB:
		c := a.Color()
		return RGB{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c)}, true
	case classPalette, classIndexed:
		idx, _ := a.Index256()
		return Index256RGB(idx), true
	}
	return RGB{}, false
}
