package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"github.com/lixenwraith/termcell/terminal"
)

var (
	duration   = pflag.Duration("duration", 10*time.Second, "Benchmark duration")
	pattern    = pflag.String("pattern", "xor", "Pattern: xor|static")
	outputMode = pflag.String("output-mode", "truecolor", "Output mode: normal, grayscale, 256, truecolor")
)

// results collects per-run totals
type results struct {
	w, h       int
	mode       terminal.OutputMode
	frames     int64
	cells      int64
	bytes      int64
	presentDur time.Duration
	elapsed    time.Duration
}

// fill writes one frame of the pattern straight into the cell buffer
func fill(cells []terminal.Cell, w, h int, frame int64, xor bool) {
	if !xor {
		// Static: change the top-left cell only to measure diff skipping
		cells[0].Fg = terminal.ColorRGB(uint8(frame), 0, 0)
		return
	}
	offset := int(frame)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			val := x + y + offset
			cells[y*w+x] = terminal.Cell{
				Ch: '█',
				Fg: terminal.ColorRGB(uint8(val), uint8(val>>1), uint8(255-val)),
				Bg: terminal.ColorBlack,
			}
		}
	}
}

// quitRequested drains pending input without blocking; Ctrl+C, Esc and q stop the run
func quitRequested(e *terminal.Engine) (bool, error) {
	for {
		ev, err := e.PeekEvent(0)
		if err != nil {
			return true, err
		}
		switch {
		case ev.Type == terminal.EventNone:
			return false, nil
		case ev.Key == terminal.KeyCtrlC || ev.Key == terminal.KeyEscape:
			return true, nil
		case ev.Key == terminal.KeyRune && ev.Rune == 'q':
			return true, nil
		}
	}
}

func bench(e *terminal.Engine, res *results) error {
	mode, err := terminal.ParseOutputMode(*outputMode)
	if err != nil {
		return err
	}
	if err := e.SetOutputMode(mode); errors.Is(err, terminal.ErrUnsupported) {
		mode = terminal.Output256
		if err := e.SetOutputMode(mode); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	res.mode = mode
	res.w, res.h = e.Width(), e.Height()
	xor := *pattern == "xor"

	start := time.Now()
	for time.Since(start) < *duration {
		frameStart := time.Now()

		// Re-fetched every frame: a resize replaces the buffer
		w, h := e.Width(), e.Height()
		fill(e.CellBuffer(), w, h, res.frames, xor)

		t0 := time.Now()
		if err := e.Present(); err != nil {
			return err
		}
		res.presentDur += time.Since(t0)

		stats := e.LastPresentStats()
		res.cells += int64(stats.Cells)
		res.bytes += int64(stats.Bytes)
		res.frames++

		if quit, err := quitRequested(e); quit || err != nil {
			res.elapsed = time.Since(start)
			return err
		}

		// Cap at ~1000 FPS to prevent pure spin loop if too fast
		if time.Since(frameStart) < time.Millisecond {
			time.Sleep(time.Millisecond)
		}
	}
	res.elapsed = time.Since(start)
	return nil
}

func (r *results) print() {
	if r.frames == 0 {
		fmt.Println("No frames rendered")
		return
	}
	fmt.Printf("Benchmark Results:\n")
	fmt.Printf("  Resolution:   %dx%d (%d cells)\n", r.w, r.h, r.w*r.h)
	fmt.Printf("  Output Mode:  %s\n", r.mode)
	fmt.Printf("  Total Frames: %d\n", r.frames)
	fmt.Printf("  Total Time:   %v\n", r.elapsed)
	fmt.Printf("  Avg FPS:      %.2f\n", float64(r.frames)/r.elapsed.Seconds())
	fmt.Printf("  Avg Present:  %v\n", r.presentDur/time.Duration(r.frames))
	fmt.Printf("  Avg Cells:    %d\n", r.cells/r.frames)
	fmt.Printf("  Avg Bytes:    %d\n", r.bytes/r.frames)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("  Total Alloc:  %d bytes\n", m.TotalAlloc)
	fmt.Printf("  Mallocs:      %d\n", m.Mallocs)
}

func main() {
	pflag.Parse()

	res := &results{}
	err := terminal.Run(terminal.DefaultOptions(), func(e *terminal.Engine) error {
		return bench(e, res)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "benchmark: %v\n", err)
		os.Exit(1)
	}
	res.print()
}
