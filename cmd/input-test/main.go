package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/pflag"

	"github.com/lixenwraith/termcell/terminal"
)

const maxLog = 10

var (
	bgColor     = terminal.ColorRGB(20, 20, 30)
	titleFg     = terminal.ColorRGB(200, 200, 200) | terminal.AttrBold
	titleBg     = terminal.ColorRGB(40, 40, 60)
	lineColor   = terminal.ColorRGB(60, 60, 80)
	logColor    = terminal.ColorRGB(180, 180, 180)
	statusColor = terminal.ColorRGB(140, 140, 160)
	objColor    = terminal.ColorRGB(100, 255, 100) | terminal.AttrBold
	dragColor   = terminal.ColorRGB(255, 255, 100) | terminal.AttrBold
)

// inspector holds the draggable object and the scrolling event log
type inspector struct {
	w, h       int
	objX, objY int
	dragging   bool
	eventLog   []string
}

func newInspector(w, h int) *inspector {
	return &inspector{w: w, h: h, objX: w / 2, objY: h / 2, eventLog: make([]string, 0, maxLog)}
}

func (in *inspector) addLog(s string) {
	if len(in.eventLog) >= maxLog {
		copy(in.eventLog, in.eventLog[1:])
		in.eventLog = in.eventLog[:maxLog-1]
	}
	in.eventLog = append(in.eventLog, s)
}

// handle applies one event; returns false on quit
func (in *inspector) handle(ev terminal.Event) bool {
	switch ev.Type {
	case terminal.EventKey:
		if ev.Key == terminal.KeyCtrlC || ev.Key == terminal.KeyCtrlQ {
			return false
		}
		in.addLog(formatKeyEvent(ev))

	case terminal.EventMouse:
		in.addLog(formatMouseEvent(ev))

		switch ev.MouseAction {
		case terminal.MouseActionPress:
			if ev.MouseBtn == terminal.MouseBtnLeft &&
				ev.MouseX >= in.objX && ev.MouseX < in.objX+3 && ev.MouseY == in.objY {
				in.dragging = true
			}
		case terminal.MouseActionRelease:
			in.dragging = false
		case terminal.MouseActionDrag:
			if in.dragging {
				in.objX = max(0, min(ev.MouseX, in.w-3))
				in.objY = max(0, min(ev.MouseY, in.h-1))
			}
		}

	case terminal.EventResize:
		in.w, in.h = ev.Width, ev.Height
		in.addLog(fmt.Sprintf("RESIZE: %dx%d", in.w, in.h))
	}
	return true
}

func hline(e *terminal.Engine, y, w int) {
	e.Print(0, y, lineColor, bgColor, strings.Repeat("─", w))
}

func (in *inspector) render(e *terminal.Engine) error {
	if err := e.Clear(terminal.ColorDefault, bgColor); err != nil {
		return err
	}

	title := "Input Test - Press keys, move mouse, drag the [X] - Press Ctrl+C to quit"
	e.Print(0, 0, titleFg, titleBg, strings.Repeat(" ", in.w))
	e.Print(max(0, (in.w-len(title))/2), 0, titleFg, titleBg, title)
	hline(e, 1, in.w)

	for i, entry := range in.eventLog {
		y := 2 + i
		if y >= in.h-3 {
			break
		}
		e.Print(1, y, logColor, bgColor, entry)
	}

	if in.objX >= 0 && in.objX < in.w-2 && in.objY >= 0 && in.objY < in.h {
		fg := objColor
		if in.dragging {
			fg = dragColor
		}
		e.Print(in.objX, in.objY, fg, titleBg, "[X]")
	}

	hline(e, in.h-2, in.w)
	status := fmt.Sprintf("Size: %dx%d | Object: (%d,%d) | Dragging: %v | Output: %s",
		in.w, in.h, in.objX, in.objY, in.dragging, e.OutputMode())
	e.Print(1, in.h-1, statusColor, bgColor, status)

	return e.Present()
}

func formatKeyEvent(ev terminal.Event) string {
	keyName := terminal.KeyName(ev.Key)
	if ev.Key == terminal.KeyRune {
		if ev.Rune >= 0x20 && ev.Rune < 0x7f {
			keyName = fmt.Sprintf("'%c'", ev.Rune)
		} else {
			keyName = fmt.Sprintf("U+%04X", ev.Rune)
		}
	}
	if keyName == "" {
		keyName = fmt.Sprintf("Key(%d)", ev.Key)
	}
	if ev.Err != nil {
		return fmt.Sprintf("KEY: %s%s (%v)", ev.Modifiers, keyName, ev.Err)
	}
	return fmt.Sprintf("KEY: %s%s", ev.Modifiers, keyName)
}

func formatMouseEvent(ev terminal.Event) string {
	return fmt.Sprintf("MOUSE: %s%s %s @ (%d,%d)",
		ev.Modifiers, ev.MouseBtn, ev.MouseAction, ev.MouseX, ev.MouseY)
}

func run(e *terminal.Engine) error {
	in := newInspector(e.Width(), e.Height())
	if err := in.render(e); err != nil {
		return err
	}
	for {
		ev, err := e.PollEvent()
		if err != nil {
			return err
		}
		if !in.handle(ev) {
			return nil
		}
		if err := in.render(e); err != nil {
			return err
		}
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mINPUT TEST CRASHED: %v\x1b[0m\r\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	inputMode := pflag.StringP("input-mode", "i", "escape|mouse", "Input mode: escape, alt, mouse, combined with |")
	outputMode := pflag.StringP("output-mode", "o", "truecolor", "Output mode: normal, grayscale, 256, truecolor")
	pflag.Parse()

	opts := terminal.DefaultOptions()
	var err error
	if opts.InputMode, err = terminal.ParseInputMode(*inputMode); err != nil {
		fmt.Fprintf(os.Stderr, "input-test: %v\n", err)
		os.Exit(2)
	}
	wantOutput, err := terminal.ParseOutputMode(*outputMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "input-test: %v\n", err)
		os.Exit(2)
	}

	err = terminal.Run(opts, func(e *terminal.Engine) error {
		// Falls back to the 256 palette when the terminal does not advertise truecolor
		err := e.SetOutputMode(wantOutput)
		if errors.Is(err, terminal.ErrUnsupported) {
			err = e.SetOutputMode(terminal.Output256)
		}
		if err != nil {
			return err
		}
		return run(e)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "input-test: %v\n", err)
		os.Exit(1)
	}
}
