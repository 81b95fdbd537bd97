package terminal

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
)

// presentOnce renders a fresh renderer once and discards the setup output
func presentOnce(t *testing.T, mode OutputMode, g *Grid) (*renderer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	r := newRenderer(&buf, mode, g.Width(), g.Height())
	if _, err := r.present(g, -1, -1); err != nil {
		t.Fatalf("Initial present failed: %v", err)
	}
	buf.Reset()
	return r, &buf
}

// TestPresentFirstFrameWritesEverything verifies a fresh renderer clears and writes every cell
func TestPresentFirstFrameWritesEverything(t *testing.T) {
	g := NewGrid(4, 3, ColorDefault, ColorDefault)
	var buf bytes.Buffer
	r := newRenderer(&buf, OutputNormal, 4, 3)

	stats, err := r.present(g, -1, -1)
	if err != nil {
		t.Fatalf("present failed: %v", err)
	}
	if stats.Cells != 12 {
		t.Errorf("Expected 12 cells, got %d", stats.Cells)
	}
	if stats.Bytes != buf.Len() {
		t.Errorf("Expected Bytes %d to match output length %d", stats.Bytes, buf.Len())
	}
	if !strings.HasPrefix(buf.String(), "\x1b[0m\x1b[2J\x1b[H") {
		t.Errorf("Expected output to start with reset and clear, got %q", buf.String())
	}
}

// TestPresentIdempotent verifies a second present without changes emits zero bytes
func TestPresentIdempotent(t *testing.T) {
	g := NewGrid(8, 4, ColorDefault, ColorDefault)
	g.Set(2, 1, Cell{Ch: 'q', Fg: ColorCyan})
	r, buf := presentOnce(t, OutputNormal, g)

	stats, err := r.present(g, -1, -1)
	if err != nil {
		t.Fatalf("present failed: %v", err)
	}
	if buf.Len() != 0 || stats.Bytes != 0 || stats.Cells != 0 {
		t.Errorf("Expected no output, got %d bytes %q (stats %+v)", buf.Len(), buf.String(), stats)
	}
}

// TestPresentSingleCellDiff verifies the exact sequence for one changed cell
func TestPresentSingleCellDiff(t *testing.T) {
	g := NewGrid(4, 2, ColorDefault, ColorDefault)
	r, buf := presentOnce(t, OutputNormal, g)

	g.Set(1, 0, Cell{Ch: 'x', Fg: ColorRed})
	stats, err := r.present(g, -1, -1)
	if err != nil {
		t.Fatalf("present failed: %v", err)
	}

	want := "\x1b[1;2H\x1b[0;31;49mx\x1b[0m"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
	if stats.Cells != 1 {
		t.Errorf("Expected 1 cell, got %d", stats.Cells)
	}
}

// TestPresentCursorForwardAndStyleCoalescing verifies CUF on the same row and a single SGR per style run
func TestPresentCursorForwardAndStyleCoalescing(t *testing.T) {
	g := NewGrid(5, 1, ColorDefault, ColorDefault)
	r, buf := presentOnce(t, OutputNormal, g)

	g.Set(0, 0, Cell{Ch: 'a', Fg: ColorRed})
	g.Set(3, 0, Cell{Ch: 'b', Fg: ColorRed})
	if _, err := r.present(g, -1, -1); err != nil {
		t.Fatalf("present failed: %v", err)
	}

	want := "\x1b[1;1H\x1b[0;31;49ma\x1b[2Cb\x1b[0m"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

// TestPresentSnapshotIsCopy verifies mutating the grid after present is detected on the next present
func TestPresentSnapshotIsCopy(t *testing.T) {
	g := NewGrid(3, 1, ColorDefault, ColorDefault)
	g.Set(0, 0, Cell{Ch: 'a'})
	r, buf := presentOnce(t, OutputNormal, g)

	g.Set(0, 0, Cell{Ch: 'b'})
	stats, _ := r.present(g, -1, -1)
	if stats.Cells != 1 || !strings.Contains(buf.String(), "b") {
		t.Errorf("Expected one rewritten cell containing 'b', got %d cells %q", stats.Cells, buf.String())
	}
}

// TestInvalidateRewritesAllCells verifies invalidate forces exactly width*height updates
func TestInvalidateRewritesAllCells(t *testing.T) {
	g := NewGrid(6, 3, ColorDefault, ColorDefault)
	g.Set(1, 1, Cell{Ch: 'k', Fg: ColorGreen, Bg: ColorBlack})
	r, buf := presentOnce(t, OutputNormal, g)

	r.invalidate()
	stats, err := r.present(g, -1, -1)
	if err != nil {
		t.Fatalf("present failed: %v", err)
	}
	if stats.Cells != 18 {
		t.Errorf("Expected 18 cell updates, got %d", stats.Cells)
	}
	if !strings.HasPrefix(buf.String(), "\x1b[0m\x1b[2J\x1b[H") {
		t.Errorf("Expected clear after invalidate, got %q", buf.String())
	}
}

// TestInvalidateRewritesStaleLookalike verifies a cell holding the stale marker is still redrawn
func TestInvalidateRewritesStaleLookalike(t *testing.T) {
	g := NewGrid(3, 1, ColorDefault, ColorDefault)
	g.Cells()[1] = Cell{Ch: staleRune}
	r, _ := presentOnce(t, OutputNormal, g)

	r.invalidate()
	stats, _ := r.present(g, -1, -1)
	if stats.Cells != 3 {
		t.Errorf("Expected 3 cell updates, got %d", stats.Cells)
	}
}

// TestPresentSnapshotOwnsCombining verifies in-place edits of Ech are seen by the next diff
func TestPresentSnapshotOwnsCombining(t *testing.T) {
	g := NewGrid(2, 1, ColorDefault, ColorDefault)
	g.Set(0, 0, Cell{Ch: 'a', Ech: []rune{0x301}})
	r, buf := presentOnce(t, OutputNormal, g)

	g.Cells()[0].Ech[0] = 0x308
	stats, _ := r.present(g, -1, -1)
	if stats.Cells != 1 || !strings.Contains(buf.String(), "a\u0308") {
		t.Errorf("Expected the edited cluster rewritten, got %d cells %q", stats.Cells, buf.String())
	}
}

// TestPresentWideCells verifies wide glyphs cover two columns and clip at the right edge
func TestPresentWideCells(t *testing.T) {
	t.Run("covers next column", func(t *testing.T) {
		g := NewGrid(4, 1, ColorDefault, ColorDefault)
		g.Set(0, 0, Cell{Ch: '世'})
		var buf bytes.Buffer
		r := newRenderer(&buf, OutputNormal, 4, 1)

		stats, _ := r.present(g, -1, -1)
		if stats.Cells != 3 {
			t.Errorf("Expected 3 cell updates, got %d", stats.Cells)
		}
		if !strings.Contains(buf.String(), "世") {
			t.Errorf("Expected wide glyph in output, got %q", buf.String())
		}

		// Narrowing the glyph must redraw the covered column
		buf.Reset()
		g.Set(0, 0, Cell{Ch: 'a'})
		stats, _ = r.present(g, -1, -1)
		if stats.Cells != 2 {
			t.Errorf("Expected 2 cell updates after narrowing, got %d", stats.Cells)
		}
	})

	t.Run("last column", func(t *testing.T) {
		g := NewGrid(3, 1, ColorDefault, ColorDefault)
		g.Set(2, 0, Cell{Ch: '世'})
		var buf bytes.Buffer
		r := newRenderer(&buf, OutputNormal, 3, 1)

		r.present(g, -1, -1)
		if strings.Contains(buf.String(), "世") {
			t.Errorf("Expected wide glyph in last column to be replaced, got %q", buf.String())
		}
	})
}

// TestPresentCombining verifies trailing codepoints follow the base
func TestPresentCombining(t *testing.T) {
	g := NewGrid(2, 1, ColorDefault, ColorDefault)
	g.Set(0, 0, Cell{Ch: 'e', Ech: []rune{0x301}})
	var buf bytes.Buffer
	r := newRenderer(&buf, OutputNormal, 2, 1)
	r.present(g, -1, -1)

	if !strings.Contains(buf.String(), "e\u0301") {
		t.Errorf("Expected combined grapheme, got %q", buf.String())
	}
}

// TestPresentControlCodepoint verifies control characters never reach the terminal
func TestPresentControlCodepoint(t *testing.T) {
	g := NewGrid(1, 1, ColorDefault, ColorDefault)
	r, buf := presentOnce(t, OutputNormal, g)

	g.Set(0, 0, Cell{Ch: 0x07})
	r.present(g, -1, -1)
	if strings.ContainsRune(buf.String(), 0x07) {
		t.Errorf("Expected BEL to be replaced, got %q", buf.String())
	}
}

// TestPresentCursor verifies cursor sequences are emitted only on change
func TestPresentCursor(t *testing.T) {
	g := NewGrid(4, 4, ColorDefault, ColorDefault)
	r, buf := presentOnce(t, OutputNormal, g)

	r.present(g, 1, 2)
	if want := "\x1b[3;2H\x1b[?25h"; buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	r.present(g, 1, 2)
	if buf.Len() != 0 {
		t.Errorf("Expected no output for unchanged cursor, got %q", buf.String())
	}

	buf.Reset()
	r.present(g, -1, -1)
	if want := "\x1b[?25l"; buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

// TestPresentStyles verifies style bits in the rebuilt SGR sequence
func TestPresentStyles(t *testing.T) {
	g := NewGrid(1, 1, ColorDefault, ColorDefault)
	r, buf := presentOnce(t, OutputNormal, g)

	g.Set(0, 0, Cell{Ch: 's', Fg: AttrBold | AttrUnderline, Bg: ColorDefault | AttrReverse})
	r.present(g, -1, -1)

	if want := "\x1b[0;1;4;7;39;49m"; !strings.Contains(buf.String(), want) {
		t.Errorf("Expected %q in %q", want, buf.String())
	}
}

// TestPresentOutputModes verifies colour encodings per output mode
func TestPresentOutputModes(t *testing.T) {
	orange := RGB{R: 255, G: 128, B: 0}

	tests := []struct {
		name string
		mode OutputMode
		fg   Attribute
		bg   Attribute
		want string
	}{
		{"normal palette", OutputNormal, ColorRed, ColorBlue, "31;44"},
		{"normal bright", OutputNormal, ColorBrightRed, ColorBrightBlack, "91;100"},
		{"normal rgb quantized", OutputNormal, ColorRGB(255, 0, 0), ColorDefault, "91;49"},
		{"256 palette", Output256, ColorGreen, ColorDefault, "32;49"},
		{"256 indexed", Output256, Color256(200), ColorDefault, "38;5;200;49"},
		{"256 rgb", Output256, ColorRGB(255, 128, 0), ColorDefault, "38;5;" + strconv.Itoa(int(RGBTo256(orange))) + ";49"},
		{"truecolor rgb", OutputTruecolor, ColorRGB(255, 128, 0), ColorHex(0x102030), "38;2;255;128;0;48;2;16;32;48"},
		{"truecolor indexed", OutputTruecolor, Color256(17), ColorDefault, "38;5;17;49"},
		{"grayscale", OutputGrayscale, ColorRGB(255, 128, 0), ColorDefault, "38;5;" + strconv.Itoa(int(Gray256(grayStep(orange)))) + ";49"},
		{"grayscale white", OutputGrayscale, ColorRGB(255, 255, 255), ColorDefault, "38;5;255;49"},
		{"default", OutputTruecolor, ColorDefault, ColorDefault, "39;49"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(1, 1, ColorDefault, ColorDefault)
			r, buf := presentOnce(t, tt.mode, g)

			g.Set(0, 0, Cell{Ch: 'c', Fg: tt.fg, Bg: tt.bg})
			r.present(g, -1, -1)

			want := "\x1b[0;" + tt.want + "mc"
			if !strings.Contains(buf.String(), want) {
				t.Errorf("Expected %q in %q", want, buf.String())
			}
		})
	}
}

// TestSetModeInvalidates verifies switching output mode redraws every cell
func TestSetModeInvalidates(t *testing.T) {
	g := NewGrid(3, 2, ColorRGB(10, 20, 30), ColorDefault)
	r, _ := presentOnce(t, OutputNormal, g)

	r.setMode(OutputTruecolor)
	stats, _ := r.present(g, -1, -1)
	if stats.Cells != 6 {
		t.Errorf("Expected 6 cell updates, got %d", stats.Cells)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

// TestPresentWriteError verifies write failures surface as IO errors and force a redraw
func TestPresentWriteError(t *testing.T) {
	g := NewGrid(2, 2, ColorDefault, ColorDefault)
	r := newRenderer(failingWriter{}, OutputNormal, 2, 2)

	_, err := r.present(g, -1, -1)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Expected ErrIO, got %v", err)
	}
	if !r.needClear {
		t.Error("Expected renderer to be invalidated after write failure")
	}
}
