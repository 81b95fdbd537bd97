// @lixen: #focus{sys[term,lifecycle]}
package terminal

import (
	"io"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/rivo/uniseg"
)

// Version of the engine's public API
const Version = "1.0.0"

// Forever makes Poll block until an event arrives
const Forever time.Duration = -1

// engineState tracks the terminal mode lifecycle
type engineState uint8

const (
	stateUninitialized engineState = iota
	stateRaw
	stateShutdown
)

// Engine owns the terminal: cell grid, renderer, decoder and mode state.
// Not safe for concurrent use; one goroutine drives it.
type Engine struct {
	opts   Options
	logger *log.Logger
	state  engineState

	tty    *tty
	resize *resizeNotifier
	dec    *decoder
	rend   *renderer
	back   *Grid

	// Attributes applied by Clear and on resize
	clearFg Attribute
	clearBg Attribute

	cursorX int
	cursorY int

	inputMode  InputMode
	outputMode OutputMode
	truecolor  bool

	lastErr   error
	lastStats PresentStats

	// When the decoder first reported an incomplete prefix
	pendingSince time.Time
	readBuf      []byte

	// Window size query, replaced in tests
	sizeFn func() (int, int)
}

// New creates an uninitialized engine; call one of the Init methods before use
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:    opts,
		logger:  opts.Logger,
		cursorX: -1,
		cursorY: -1,
		readBuf: make([]byte, 4096),
	}
}

// Init opens /dev/tty and takes control of it
func (e *Engine) Init() error {
	return e.InitFile(defaultTTYPath)
}

// InitFile opens a terminal device by path and takes control of it
func (e *Engine) InitFile(path string) error {
	if err := e.checkInitable("init"); err != nil {
		return err
	}
	t, err := openTTY(path)
	if err != nil {
		return e.track(err)
	}
	return e.attach(t)
}

// InitFD takes control of an open terminal descriptor used for both input and output
func (e *Engine) InitFD(fd int) error {
	if err := e.checkInitable("init fd"); err != nil {
		return err
	}
	t, err := ttyFromFD(fd)
	if err != nil {
		return e.track(err)
	}
	return e.attach(t)
}

// InitRWFD uses separate input and output descriptors. Non-terminal descriptors are
// accepted: raw mode is skipped and the size falls back to Options.FallbackWidth/Height.
func (e *Engine) InitRWFD(rfd, wfd int) error {
	if err := e.checkInitable("init rwfd"); err != nil {
		return err
	}
	t, err := ttyFromRWFD(rfd, wfd)
	if err != nil {
		return e.track(err)
	}
	return e.attach(t)
}

func (e *Engine) checkInitable(op string) error {
	if e.state == stateRaw {
		return e.track(newError(CodeInit, op, errors.New("already initialized")))
	}
	return nil
}

// attach puts t into raw mode and builds the engine state around it; on failure
// everything acquired so far is released
func (e *Engine) attach(t *tty) (err error) {
	var rn *resizeNotifier
	defer func() {
		if err == nil {
			return
		}
		if rn != nil {
			rn.stop()
		}
		t.restore()
		t.close()
		e.track(err)
	}()

	if err := t.makeRaw(); err != nil {
		return err
	}
	if rn, err = newResizeNotifier(); err != nil {
		return err
	}
	rn.start()

	e.tty = t
	e.resize = rn
	e.sizeFn = func() (int, int) {
		return t.size(e.opts.FallbackWidth, e.opts.FallbackHeight)
	}
	w, h := e.sizeFn()

	e.truecolor = e.opts.ForceTruecolor || detectTruecolor()
	e.outputMode = e.opts.OutputMode
	if e.outputMode > OutputTruecolor {
		e.logger.Printf("terminal: unknown output mode %d, using normal", e.outputMode)
		e.outputMode = OutputNormal
	}
	if e.outputMode == OutputTruecolor && !e.truecolor {
		e.logger.Printf("terminal: truecolor not detected, using 256 colours")
		e.outputMode = Output256
	}
	e.inputMode = e.opts.InputMode.effective()

	e.clearFg, e.clearBg = ColorDefault, ColorDefault
	e.back = NewGrid(w, h, e.clearFg, e.clearBg)
	e.rend = newRenderer(t, e.outputMode, w, h)
	e.dec = newDecoder(e.inputMode, e.opts.PreExtract, e.opts.PostExtract, e.logger)
	e.cursorX, e.cursorY = -1, -1
	e.pendingSince = time.Time{}
	e.lastStats = PresentStats{}

	setup := make([]byte, 0, 64)
	setup = append(setup, csiAltScreenEnter...)
	setup = append(setup, csiKeypadXmit...)
	setup = append(setup, csiCursorHide...)
	setup = append(setup, csiAutoWrapOff...)
	setup = append(setup, csiSGR0...)
	setup = append(setup, csiClear...)
	if e.inputMode&InputMouse != 0 {
		setup = append(setup, csiMouseOn...)
	}
	if err := e.rend.send(setup); err != nil {
		return newError(CodeInit, "init", err)
	}

	e.state = stateRaw
	e.logger.Printf("terminal: init %dx%d input=%s output=%s raw=%t", w, h, e.inputMode, e.outputMode, t.isTerm)
	return nil
}

// Shutdown restores the terminal. Every step is attempted even when an earlier one
// fails; the first failure is returned. A second call returns ErrAlreadyShutdown.
func (e *Engine) Shutdown() error {
	switch e.state {
	case stateUninitialized:
		return e.track(newError(CodeNotInitialized, "shutdown", nil))
	case stateShutdown:
		return e.track(newError(CodeAlreadyShutdown, "shutdown", nil))
	}
	e.state = stateShutdown

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	restore := make([]byte, 0, 64)
	if e.inputMode&InputMouse != 0 {
		restore = append(restore, csiMouseOff...)
	}
	restore = append(restore, csiSGR0...)
	restore = append(restore, csiClear...)
	restore = append(restore, csiCursorShow...)
	restore = append(restore, csiKeypadLocal...)
	restore = append(restore, csiAltScreenExit...)
	// Wrap re-enabled after leaving the alternate screen so the main buffer gets it
	restore = append(restore, csiAutoWrapOn...)
	keep(e.rend.send(restore))

	keep(e.resize.stop())
	keep(e.tty.restore())
	keep(e.tty.close())

	e.logger.Printf("terminal: shutdown")
	if first != nil {
		return e.track(first)
	}
	return nil
}

// check gates operations that need raw mode
func (e *Engine) check(op string) error {
	if e.state != stateRaw {
		return e.track(newError(CodeNotInitialized, op, nil))
	}
	return nil
}

// track records err as the last error
func (e *Engine) track(err error) error {
	if err != nil {
		e.lastErr = err
	}
	return err
}

// LastError returns the most recent error reported by any operation
func (e *Engine) LastError() error {
	return e.lastErr
}

// Width returns the grid width, 0 when not initialized
func (e *Engine) Width() int {
	if e.check("width") != nil {
		return 0
	}
	return e.back.width
}

// Height returns the grid height, 0 when not initialized
func (e *Engine) Height() int {
	if e.check("height") != nil {
		return 0
	}
	return e.back.height
}

// Clear fills the grid with blanks in fg/bg; the attributes are reused after resizes
func (e *Engine) Clear(fg, bg Attribute) error {
	if err := e.check("clear"); err != nil {
		return err
	}
	e.clearFg, e.clearBg = fg, bg
	e.back.Clear(fg, bg)
	return nil
}

// SetCell writes one codepoint
func (e *Engine) SetCell(x, y int, ch rune, fg, bg Attribute) error {
	if err := e.check("set cell"); err != nil {
		return err
	}
	return e.track(e.back.Set(x, y, Cell{Ch: ch, Fg: fg, Bg: bg}))
}

// SetCellEx writes a grapheme: base codepoint plus combining codepoints
func (e *Engine) SetCellEx(x, y int, ch []rune, fg, bg Attribute) error {
	if err := e.check("set cell"); err != nil {
		return err
	}
	c := Cell{Fg: fg, Bg: bg}
	if len(ch) > 0 {
		c.Ch = ch[0]
		if len(ch) > 1 {
			c.Ech = append([]rune(nil), ch[1:]...)
		}
	}
	return e.track(e.back.Set(x, y, c))
}

// ExtendCell appends a combining codepoint to the cell at (x, y)
func (e *Engine) ExtendCell(x, y int, r rune) error {
	if err := e.check("extend cell"); err != nil {
		return err
	}
	c, err := e.back.Get(x, y)
	if err != nil {
		return e.track(err)
	}
	ech := make([]rune, len(c.Ech)+1)
	copy(ech, c.Ech)
	ech[len(c.Ech)] = r
	c.Ech = ech
	return e.track(e.back.Set(x, y, c))
}

// Cell returns the cell at (x, y) as last written
func (e *Engine) Cell(x, y int) (Cell, error) {
	if err := e.check("get cell"); err != nil {
		return Cell{}, err
	}
	c, err := e.back.Get(x, y)
	return c, e.track(err)
}

// CellBuffer exposes the grid, row-major cells[y*Width()+x]; invalid after a resize.
// Writes bypass codepoint validation, and Ech must be replaced rather than edited in place.
func (e *Engine) CellBuffer() []Cell {
	if e.check("cell buffer") != nil {
		return nil
	}
	return e.back.cells
}

// Print lays out s from (x, y) one grapheme cluster per cell, wide clusters taking two.
// '\n' continues at column x on the next row. Text past the edges is clipped and
// ErrOutOfBounds returned after the visible part is drawn. The returned width is that
// of the widest line.
func (e *Engine) Print(x, y int, fg, bg Attribute, s string) (int, error) {
	if err := e.check("print"); err != nil {
		return 0, err
	}

	col, row := x, y
	widest := 0
	clipped := false

	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		runes := gr.Runes()
		if str := gr.Str(); str == "\n" || str == "\r\n" {
			widest = max(widest, col-x)
			col = x
			row++
			continue
		}

		c := Cell{Ch: runes[0], Fg: fg, Bg: bg}
		if len(runes) > 1 {
			c.Ech = runes[1:]
		}
		w := c.Width()

		if !e.back.InBounds(col, row) || col+w > e.back.width {
			clipped = true
			col += w
			continue
		}

		e.back.cells[row*e.back.width+col] = c
		col += w
	}
	widest = max(widest, col-x)

	if clipped {
		return widest, e.track(newError(CodeOutOfBounds, "print", nil))
	}
	return widest, nil
}

// SetCursor shows the cursor at (x, y) on the next Present
func (e *Engine) SetCursor(x, y int) error {
	if err := e.check("set cursor"); err != nil {
		return err
	}
	if !e.back.InBounds(x, y) {
		return e.track(newError(CodeOutOfBounds, "set cursor", nil))
	}
	e.cursorX, e.cursorY = x, y
	return nil
}

// HideCursor hides the cursor on the next Present
func (e *Engine) HideCursor() error {
	if err := e.check("hide cursor"); err != nil {
		return err
	}
	e.cursorX, e.cursorY = -1, -1
	return nil
}

// Present writes the cells that changed since the previous Present
func (e *Engine) Present() error {
	if err := e.check("present"); err != nil {
		return err
	}
	stats, err := e.rend.present(e.back, e.cursorX, e.cursorY)
	e.lastStats = stats
	if err != nil {
		return e.track(err)
	}
	return nil
}

// Invalidate makes the next Present clear the screen and redraw every cell
func (e *Engine) Invalidate() error {
	if err := e.check("invalidate"); err != nil {
		return err
	}
	e.rend.invalidate()
	return nil
}

// LastPresentStats reports the output of the most recent Present
func (e *Engine) LastPresentStats() PresentStats {
	return e.lastStats
}

// SetInputMode changes ESC interpretation and mouse reporting
func (e *Engine) SetInputMode(mode InputMode) error {
	if err := e.check("set input mode"); err != nil {
		return err
	}
	mode = mode.effective()
	if (mode^e.inputMode)&InputMouse != 0 {
		seq := csiMouseOff
		if mode&InputMouse != 0 {
			seq = csiMouseOn
		}
		if err := e.rend.send(seq); err != nil {
			return e.track(err)
		}
	}
	e.inputMode = mode
	e.dec.setMode(mode)
	e.logger.Printf("terminal: input mode %s", mode)
	return nil
}

// InputMode returns the effective input mode
func (e *Engine) InputMode() InputMode {
	return e.inputMode
}

// SetOutputMode changes colour encoding and forces a full redraw
func (e *Engine) SetOutputMode(mode OutputMode) error {
	if err := e.check("set output mode"); err != nil {
		return err
	}
	if mode > OutputTruecolor {
		return e.track(newError(CodeUnsupported, "set output mode", errors.Errorf("unknown output mode %d", mode)))
	}
	if mode == OutputTruecolor && !e.truecolor {
		return e.track(newError(CodeUnsupported, "set output mode", errors.New("terminal does not advertise truecolor")))
	}
	if mode != e.outputMode {
		e.outputMode = mode
		e.rend.setMode(mode)
		e.logger.Printf("terminal: output mode %s", mode)
	}
	return nil
}

// OutputMode returns the active output mode
func (e *Engine) OutputMode() OutputMode {
	return e.outputMode
}

// HasTruecolor reports whether OutputTruecolor may be selected
func (e *Engine) HasTruecolor() bool {
	return e.truecolor
}

// HasEGC reports support for extended grapheme clusters in cells
func (e *Engine) HasEGC() bool {
	return true
}

// AttrWidth is the bit width of Attribute
func (e *Engine) AttrWidth() int {
	return 64
}

// Send writes raw bytes to the terminal, bypassing the grid
func (e *Engine) Send(p []byte) error {
	if err := e.check("send"); err != nil {
		return err
	}
	return e.track(e.rend.send(p))
}

// Fds returns the input descriptor and the resize notification descriptor for
// callers multiplexing the terminal with other sources
func (e *Engine) Fds() (ttyFd, resizeFd int, err error) {
	if err := e.check("fds"); err != nil {
		return -1, -1, err
	}
	return e.tty.rfd, e.resize.rfd, nil
}

// PollEvent blocks until an event arrives
func (e *Engine) PollEvent() (Event, error) {
	return e.Poll(Forever)
}

// PeekEvent waits at most timeout for an event
func (e *Engine) PeekEvent(timeout time.Duration) (Event, error) {
	return e.Poll(timeout)
}

// Poll waits for the next event. timeout < 0 blocks indefinitely, 0 returns
// immediately; an event of type EventNone means the timeout expired. End of input
// shuts the engine down and returns an error wrapping io.EOF.
func (e *Engine) Poll(timeout time.Duration) (Event, error) {
	if err := e.check("poll"); err != nil {
		return Event{}, err
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for first := true; ; first = false {
		ev, ok, err := e.decodeBuffered()
		if err != nil {
			return Event{}, err
		}
		if ok {
			return ev, nil
		}

		wait := Forever
		if timeout >= 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				if !first {
					return Event{Type: EventNone}, nil
				}
				wait = 0
			}
		}
		if !e.pendingSince.IsZero() {
			escLeft := max(time.Until(e.pendingSince.Add(e.opts.EscapeTimeout)), 0)
			if wait < 0 || escLeft < wait {
				wait = escLeft
			}
		}

		input, resized, err := waitReadable(e.tty.rfd, e.resize.rfd, wait)
		if err != nil {
			return Event{}, e.track(err)
		}

		if resized {
			if ev, ok := e.applyResize(); ok {
				return ev, nil
			}
		}
		if input {
			if err := e.readInput(); err != nil {
				return Event{}, err
			}
		}
	}
}

// decodeBuffered yields the next buffered event. An incomplete prefix is flushed once its
// escape timeout has expired and no continuation is already waiting on the descriptor.
func (e *Engine) decodeBuffered() (Event, bool, error) {
	for {
		ev, ok, partial := e.dec.next(false)
		if ok {
			e.pendingSince = time.Time{}
			return ev, true, nil
		}
		if !partial {
			e.pendingSince = time.Time{}
			return Event{}, false, nil
		}

		if e.pendingSince.IsZero() {
			e.pendingSince = time.Now()
			return Event{}, false, nil
		}
		if time.Since(e.pendingSince) < e.opts.EscapeTimeout {
			return Event{}, false, nil
		}

		// Bytes may have arrived while the caller was not polling
		input, _, err := waitReadable(e.tty.rfd, -1, 0)
		if err != nil {
			return Event{}, false, e.track(err)
		}
		if input {
			before := len(e.dec.buf)
			if err := e.readInput(); err != nil {
				return Event{}, false, err
			}
			if len(e.dec.buf) > before {
				e.pendingSince = time.Now()
				continue
			}
		}

		e.pendingSince = time.Time{}
		ev, ok, _ = e.dec.next(true)
		return ev, ok, nil
	}
}

// readInput reads available bytes into the decoder; end of input is fatal
func (e *Engine) readInput() error {
	n, err := e.tty.read(e.readBuf)
	if err == errAgain {
		return nil
	}
	if err != nil {
		e.logger.Printf("terminal: %v", err)
		e.Shutdown()
		return e.track(err)
	}
	if n == 0 {
		e.logger.Printf("terminal: input closed")
		e.Shutdown()
		return e.track(newError(CodeIO, "poll", errors.Wrap(io.EOF, "read")))
	}
	e.dec.feed(e.readBuf[:n])
	return nil
}

// applyResize coalesces pending notifications into one resize to the current size
func (e *Engine) applyResize() (Event, bool) {
	if !e.resize.drain() {
		return Event{}, false
	}
	w, h := e.sizeFn()
	e.back.Resize(w, h, e.clearFg, e.clearBg)
	e.rend.resize(w, h)
	if !e.back.InBounds(e.cursorX, e.cursorY) {
		e.cursorX, e.cursorY = -1, -1
	}
	e.logger.Printf("terminal: resize %dx%d", w, h)
	return Event{Type: EventResize, Width: w, Height: h}, true
}
