package terminal

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// Bridge for callers migrating from tcell: colours, styles and W3C colour names

var tcellAttrs = [...]struct {
	tc tcell.AttrMask
	a  Attribute
}{
	{tcell.AttrBold, AttrBold},
	{tcell.AttrBlink, AttrBlink},
	{tcell.AttrReverse, AttrReverse},
	{tcell.AttrDim, AttrDim},
	{tcell.AttrItalic, AttrItalic},
	{tcell.AttrStrikeThrough, AttrStrikeout},
}

// FromTcellColor converts a tcell colour; unset and special colours become ColorDefault
func FromTcellColor(c tcell.Color) Attribute {
	if !c.Valid() || c&tcell.ColorSpecial != 0 {
		return ColorDefault
	}
	if c.IsRGB() {
		r, g, b := c.RGB()
		return ColorRGB(uint8(r), uint8(g), uint8(b))
	}
	idx := int(c &^ tcell.ColorValid)
	switch {
	case idx < 16:
		return Attribute(idx + 1)
	case idx < 256:
		return Color256(uint8(idx))
	}
	// Named colours outside the palette carry a known RGB value
	if hex := c.Hex(); hex >= 0 {
		return ColorHex(uint32(hex))
	}
	return ColorDefault
}

// ToTcellColor converts the colour part of an attribute
func ToTcellColor(a Attribute) tcell.Color {
	switch a.class() {
	case classDefault:
		return tcell.ColorDefault
	case classPalette, classIndexed:
		idx, _ := a.Index256()
		return tcell.PaletteColor(int(idx))
	default:
		rgb, _ := a.RGB()
		return tcell.NewRGBColor(int32(rgb.R), int32(rgb.G), int32(rgb.B))
	}
}

// FromTcellStyle splits a tcell style into foreground (colour and style bits) and background
func FromTcellStyle(s tcell.Style) (fg, bg Attribute) {
	tfg, tbg, attrs := s.Decompose()
	fg = FromTcellColor(tfg)
	bg = FromTcellColor(tbg)
	for _, m := range tcellAttrs {
		if attrs&m.tc != 0 {
			fg |= m.a
		}
	}
	if s.GetUnderlineStyle() != tcell.UnderlineStyleNone {
		fg |= AttrUnderline
	}
	return fg, bg
}

// ToTcellStyle builds a tcell style from a foreground/background pair
func ToTcellStyle(fg, bg Attribute) tcell.Style {
	s := tcell.StyleDefault.
		Foreground(ToTcellColor(fg)).
		Background(ToTcellColor(bg))

	style := (fg | bg).Style()
	var mask tcell.AttrMask
	for _, m := range tcellAttrs {
		if style&m.a != 0 {
			mask |= m.tc
		}
	}
	s = s.Attributes(mask)
	if style&AttrUnderline != 0 {
		s = s.Underline(true)
	}
	return s
}

// ParseColor resolves "default", a palette or 256-colour index ("9", "208"),
// a W3C colour name ("teal") or "#rrggbb"
func ParseColor(s string) (Attribute, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == "default" {
		return ColorDefault, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n > 255 {
			return ColorDefault, errors.Errorf("colour index %d out of range", n)
		}
		return FromTcellColor(tcell.PaletteColor(n)), nil
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return ColorDefault, errors.Errorf("unknown colour %q", s)
	}
	return FromTcellColor(c), nil
}
