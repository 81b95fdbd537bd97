// @focus: #terminal { grid }
package terminal

import (
	"slices"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/rivo/uniseg"
)

// CellEmpty is the codepoint of a cell that was never written
const CellEmpty rune = 0

// blankRune fills cleared cells
const blankRune = ' '

// Cell represents a single terminal cell
type Cell struct {
	Ch  rune   // Base codepoint or CellEmpty
	Ech []rune // Trailing combining codepoints, never mutated in place
	Fg  Attribute
	Bg  Attribute
}

// Equal compares codepoints and attributes
func (c Cell) Equal(o Cell) bool {
	return c.Ch == o.Ch && c.Fg == o.Fg && c.Bg == o.Bg && slices.Equal(c.Ech, o.Ech)
}

// Width returns the column span of the cell's cluster (1 or 2)
func (c Cell) Width() int {
	var w int
	switch {
	case len(c.Ech) > 0:
		// VS16 and regional indicator pairs widen the base
		buf := make([]rune, 0, len(c.Ech)+1)
		w = uniseg.StringWidth(string(append(append(buf, c.Ch), c.Ech...)))
	case c.Ch < 0x80:
		return 1
	default:
		w = runewidth.RuneWidth(c.Ch)
	}
	if w > 1 {
		return 2
	}
	return 1
}

// Valid reports whether every codepoint is a Unicode scalar value
func (c Cell) Valid() bool {
	if !utf8.ValidRune(c.Ch) {
		return false
	}
	for _, r := range c.Ech {
		if !utf8.ValidRune(r) {
			return false
		}
	}
	return true
}

// Grid is a row-major buffer of cells, cells[y*width+x]
type Grid struct {
	cells  []Cell
	width  int
	height int
}

// NewGrid returns a blank grid filled with the given attributes
func NewGrid(width, height int, fg, bg Attribute) *Grid {
	g := &Grid{}
	g.Resize(width, height, fg, bg)
	return g
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// InBounds reports whether (x, y) addresses a cell
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Set stores c at (x, y); the grid is untouched on error
func (g *Grid) Set(x, y int, c Cell) error {
	if !g.InBounds(x, y) {
		return newError(CodeOutOfBounds, "set cell", nil)
	}
	if !c.Valid() {
		return newError(CodeInvalidEncoding, "set cell", errors.Errorf("invalid codepoint in %U %U", c.Ch, c.Ech))
	}
	g.cells[y*g.width+x] = c
	return nil
}

// Get returns the cell at (x, y)
func (g *Grid) Get(x, y int) (Cell, error) {
	if !g.InBounds(x, y) {
		return Cell{}, newError(CodeOutOfBounds, "get cell", nil)
	}
	return g.cells[y*g.width+x], nil
}

// Clear resets every cell to a blank with the given attributes
func (g *Grid) Clear(fg, bg Attribute) {
	blank := Cell{Ch: blankRune, Fg: fg, Bg: bg}
	for i := range g.cells {
		g.cells[i] = blank
	}
}

// Resize reallocates to w×h blank cells; no content survives
func (g *Grid) Resize(width, height int, fg, bg Attribute) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g.cells = make([]Cell, width*height)
	g.width = width
	g.height = height
	g.Clear(fg, bg)
}

// Cells exposes the backing slice
func (g *Grid) Cells() []Cell {
	return g.cells
}
