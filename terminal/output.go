// @lixen: #focus{sys[term,io,output]}
// @lixen: #interact{trigger[output,ansi]}
package terminal

import (
	"bufio"
	"io"
	"slices"
)

// staleRune marks a snapshot cell whose on-screen content is unknown; it always compares unequal
const staleRune rune = -1

// PresentStats describes the output of one Present
type PresentStats struct {
	Cells int // Cells rewritten
	Bytes int // Bytes written to the terminal
}

// countingWriter tallies bytes reaching the terminal
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// renderer diffs the back grid against its frame snapshot and emits minimal output
type renderer struct {
	front     *Grid
	sink      *countingWriter
	writer    *bufio.Writer
	colorMode OutputMode

	// Physical cursor as last positioned by output
	cursorX     int
	cursorY     int
	cursorValid bool

	// Cursor as last requested to be shown
	shownX       int
	shownY       int
	shownVisible bool

	// Style state for coalescing
	lastFg    Attribute
	lastBg    Attribute
	lastValid bool

	needClear bool
}

// newRenderer creates a renderer for a width×height screen
func newRenderer(w io.Writer, mode OutputMode, width, height int) *renderer {
	sink := &countingWriter{w: w}
	r := &renderer{
		front:     NewGrid(width, height, ColorDefault, ColorDefault),
		sink:      sink,
		writer:    bufio.NewWriterSize(sink, 64*1024),
		colorMode: mode,
		shownX:    -1,
		shownY:    -1,
	}
	r.invalidate()
	return r
}

// resize reallocates the snapshot and forces a full redraw
func (r *renderer) resize(width, height int) {
	r.front.Resize(width, height, ColorDefault, ColorDefault)
	r.invalidate()
}

// invalidate forces the next present to clear the screen and rewrite every cell
func (r *renderer) invalidate() {
	stale := Cell{Ch: staleRune}
	for i := range r.front.cells {
		r.front.cells[i] = stale
	}
	r.needClear = true
	r.lastValid = false
	r.cursorValid = false
}

// setMode switches colour encoding; every cell is redrawn in the new encoding
func (r *renderer) setMode(mode OutputMode) {
	r.colorMode = mode
	r.invalidate()
}

// present writes the difference between back and the snapshot, then records back as the snapshot.
// cx < 0 or cy < 0 hides the cursor.
func (r *renderer) present(back *Grid, cx, cy int) (PresentStats, error) {
	if back.width != r.front.width || back.height != r.front.height {
		r.resize(back.width, back.height)
	}

	w := r.writer
	start := r.sink.n
	cells := 0
	wrote := false

	if r.needClear {
		w.Write(csiSGR0)
		w.Write(csiClear)
		r.needClear = false
		r.lastValid = false
		r.cursorValid = false
		wrote = true
	}

	width, height := back.width, back.height
	for y := 0; y < height; y++ {
		rowStart := y * width
		x := 0
		for x < width {
			idx := rowStart + x
			c := back.cells[idx]
			cw := c.Width()
			if cw == 2 && x+1 >= width {
				// No room for the second column
				c = Cell{Ch: blankRune, Fg: c.Fg, Bg: c.Bg}
				cw = 1
			}

			if prev := r.front.cells[idx]; prev.Ch != staleRune && c.Equal(prev) {
				x += cw
				continue
			}

			if !r.cursorValid || x != r.cursorX || y != r.cursorY {
				if r.cursorValid && y == r.cursorY && x > r.cursorX {
					writeCursorForward(w, x-r.cursorX)
				} else {
					writeCursorPos(w, x, y)
				}
				r.cursorX = x
				r.cursorY = y
				r.cursorValid = true
			}

			r.writeStyleCoalesced(w, c.Fg, c.Bg)
			writeGlyph(w, c)

			if len(c.Ech) > 0 {
				c.Ech = slices.Clone(c.Ech)
			}
			r.front.cells[idx] = c
			if cw == 2 {
				r.front.cells[idx+1] = Cell{Ch: staleRune}
			}
			r.cursorX += cw
			x += cw
			cells++
			wrote = true
		}
	}

	if wrote {
		w.Write(csiSGR0)
		r.lastValid = false
	}

	visible := cx >= 0 && cy >= 0
	if visible {
		if wrote || !r.shownVisible || cx != r.shownX || cy != r.shownY {
			writeCursorPos(w, cx, cy)
			r.cursorX, r.cursorY, r.cursorValid = cx, cy, true
			if !r.shownVisible {
				w.Write(csiCursorShow)
			}
		}
	} else if r.shownVisible {
		w.Write(csiCursorHide)
	}
	r.shownX, r.shownY, r.shownVisible = cx, cy, visible

	err := w.Flush()
	stats := PresentStats{Cells: cells, Bytes: r.sink.n - start}
	if err != nil {
		r.invalidate()
		return stats, wrapSys(CodeIO, "present", err, "write")
	}
	return stats, nil
}

// send writes raw bytes; the physical cursor and style are unknown afterwards
func (r *renderer) send(p []byte) error {
	r.writer.Write(p)
	r.cursorValid = false
	r.lastValid = false
	if err := r.writer.Flush(); err != nil {
		return wrapSys(CodeIO, "send", err, "write")
	}
	return nil
}

// writeGlyph emits the cell's codepoints; empty and control codepoints render as a space
func writeGlyph(w *bufio.Writer, c Cell) {
	r := c.Ch
	if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
		w.WriteByte(' ')
		return
	}
	if r < 0x80 {
		w.WriteByte(byte(r))
	} else {
		w.WriteRune(r)
	}
	for _, e := range c.Ech {
		w.WriteRune(e)
	}
}

// writeStyleCoalesced emits a single combined SGR sequence when style changes
func (r *renderer) writeStyleCoalesced(w *bufio.Writer, fg, bg Attribute) {
	style := (fg | bg).Style()
	fgChanged := !r.lastValid || fg.Color() != r.lastFg.Color()
	bgChanged := !r.lastValid || bg.Color() != r.lastBg.Color()
	attrChanged := !r.lastValid || style != (r.lastFg|r.lastBg).Style()

	if !fgChanged && !bgChanged && !attrChanged {
		return
	}

	w.Write(csi)
	if attrChanged {
		// Style bits can only be cleared by a reset, so rebuild the full state
		w.WriteByte('0')
		writeStyleParams(w, style)
		r.writeColor(w, fg, false)
		r.writeColor(w, bg, true)
	} else {
		first := true
		if fgChanged {
			r.writeColorParam(w, fg, false, first)
			first = false
		}
		if bgChanged {
			r.writeColorParam(w, bg, true, first)
		}
	}
	w.WriteByte('m')

	r.lastFg = fg
	r.lastBg = bg
	r.lastValid = true
}

var styleSGR = [...]struct {
	attr Attribute
	code byte
}{
	{AttrBold, '1'},
	{AttrDim, '2'},
	{AttrItalic, '3'},
	{AttrUnderline, '4'},
	{AttrBlink, '5'},
	{AttrReverse, '7'},
	{AttrStrikeout, '9'},
}

// writeStyleParams appends ";n" for each style bit
func writeStyleParams(w *bufio.Writer, style Attribute) {
	for _, s := range styleSGR {
		if style&s.attr != 0 {
			w.WriteByte(';')
			w.WriteByte(s.code)
		}
	}
}

// writeColor appends ";params" for one colour
func (r *renderer) writeColor(w *bufio.Writer, a Attribute, bg bool) {
	r.writeColorParam(w, a, bg, false)
}

// writeColorParam writes colour parameters in the configured output mode (no CSI prefix, no 'm')
func (r *renderer) writeColorParam(w *bufio.Writer, a Attribute, bg, first bool) {
	if !first {
		w.WriteByte(';')
	}
	base := 30
	if bg {
		base = 40
	}

	class := a.class()
	if class == classDefault {
		writeInt(w, base+9)
		return
	}

	switch r.colorMode {
	case OutputGrayscale:
		rgb, _ := a.RGB()
		writeIndexed(w, base, Gray256(grayStep(rgb)))

	case OutputNormal:
		var slot uint8
		if class == classPalette {
			slot, _ = a.Index256()
		} else {
			rgb, _ := a.RGB()
			slot = nearestPalette(rgb)
		}
		writeBasic(w, base, slot)

	case Output256:
		switch class {
		case classPalette:
			slot, _ := a.Index256()
			writeBasic(w, base, slot)
		case classIndexed:
			idx, _ := a.Index256()
			writeIndexed(w, base, idx)
		default:
			rgb, _ := a.RGB()
			writeIndexed(w, base, RGBTo256(rgb))
		}

	default: // OutputTruecolor
		switch class {
		case classPalette:
			slot, _ := a.Index256()
			writeBasic(w, base, slot)
		case classIndexed:
			idx, _ := a.Index256()
			writeIndexed(w, base, idx)
		default:
			rgb, _ := a.RGB()
			writeInt(w, base+8)
			w.WriteString(";2;")
			writeInt(w, int(rgb.R))
			w.WriteByte(';')
			writeInt(w, int(rgb.G))
			w.WriteByte(';')
			writeInt(w, int(rgb.B))
		}
	}
}

// writeBasic writes 30-37/90-97 (or 40-47/100-107) for a 0-15 palette slot
func writeBasic(w *bufio.Writer, base int, slot uint8) {
	if slot < 8 {
		writeInt(w, base+int(slot))
		return
	}
	writeInt(w, base+60+int(slot-8))
}

// writeIndexed writes 38;5;n or 48;5;n
func writeIndexed(w *bufio.Writer, base int, idx uint8) {
	writeInt(w, base+8)
	w.WriteString(";5;")
	writeInt(w, int(idx))
}
