package terminal

import (
	"io"
	"testing"
)

func fillXOR(g *Grid, frame int) {
	cells := g.Cells()
	w := g.Width()
	for i := range cells {
		val := i%w + i/w + frame
		cells[i] = Cell{Ch: '█', Fg: ColorRGB(uint8(val), uint8(val>>1), uint8(255-val)), Bg: ColorBlack}
	}
}

// BenchmarkPresentFullFrame rewrites every cell each frame
func BenchmarkPresentFullFrame(b *testing.B) {
	for _, mode := range []OutputMode{OutputNormal, Output256, OutputTruecolor} {
		b.Run(mode.String(), func(b *testing.B) {
			g := NewGrid(200, 60, ColorDefault, ColorDefault)
			r := newRenderer(io.Discard, mode, 200, 60)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				fillXOR(g, i)
				if _, err := r.present(g, -1, -1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPresentSingleCell measures diff skipping when one cell changes per frame
func BenchmarkPresentSingleCell(b *testing.B) {
	g := NewGrid(200, 60, ColorDefault, ColorDefault)
	fillXOR(g, 0)
	r := newRenderer(io.Discard, OutputTruecolor, 200, 60)
	r.present(g, -1, -1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.cells[0].Fg = ColorRGB(uint8(i), 0, 0)
		if _, err := r.present(g, -1, -1); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecodeMixed decodes a stream of keys, escape sequences, mouse reports and UTF-8
func BenchmarkDecodeMixed(b *testing.B) {
	stream := []byte("abc\x1b[A\x1b[1;5C\x1b[<0;10;5M\x1b[<0;10;5m世界\x1bOP\r")
	d := newDecoder(InputEscape|InputMouse, nil, nil, nil)

	b.ReportAllocs()
	b.SetBytes(int64(len(stream)))
	for i := 0; i < b.N; i++ {
		d.feed(stream)
		for {
			if _, ok, _ := d.next(false); !ok {
				break
			}
		}
	}
}
