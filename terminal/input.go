// @lixen: #focus{sys[term,io,input]}
package terminal

import (
	"fmt"
	"io"
	"log"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// EventType distinguishes input event categories
type EventType uint8

const (
	EventNone EventType = iota // Poll timed out
	EventKey
	EventResize
	EventMouse
)

func (t EventType) String() string {
	switch t {
	case EventKey:
		return "Key"
	case EventResize:
		return "Resize"
	case EventMouse:
		return "Mouse"
	default:
		return "None"
	}
}

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier
	Width     int   // For EventResize
	Height    int   // For EventResize
	Err       error // Set with Rune U+FFFD when input bytes were malformed

	// Mouse event fields, 0-based cell coordinates
	MouseX      int
	MouseY      int
	MouseBtn    MouseButton
	MouseAction MouseAction
}

// String renders the event for diagnostics
func (e Event) String() string {
	switch e.Type {
	case EventKey:
		if e.Key == KeyRune {
			return fmt.Sprintf("key %s%q", e.Modifiers, e.Rune)
		}
		return fmt.Sprintf("key %s%s", e.Modifiers, KeyName(e.Key))
	case EventResize:
		return fmt.Sprintf("resize %dx%d", e.Width, e.Height)
	case EventMouse:
		return fmt.Sprintf("mouse %s%s %s at %d,%d", e.Modifiers, e.MouseBtn, e.MouseAction, e.MouseX, e.MouseY)
	default:
		return "none"
	}
}

// Limits for sequences without a terminator in sight
const (
	maxCSILen   = 32
	maxMouseLen = 32
)

// parseResult classifies what parse found at the head of the buffer
type parseResult uint8

const (
	parseEvent   parseResult = iota // Event decoded, n bytes
	parseDrop                       // n bytes consumed silently
	parseUnknown                    // Well-formed but unrecognised escape sequence of n bytes
	parsePartial                    // Prefix of something longer; wait
	parseInvalid                    // Not a sequence; caller falls back to ESC handling
)

// decoder turns raw input bytes into events. Not safe for concurrent use.
type decoder struct {
	// Persistent buffer for stream assembly, keeps partial UTF-8 and escape sequences across reads
	buf    []byte
	mode   InputMode
	pre    Extractor
	post   Extractor
	logger *log.Logger
}

func newDecoder(mode InputMode, pre, post Extractor, logger *log.Logger) *decoder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &decoder{
		buf:    make([]byte, 0, 256),
		mode:   mode.effective(),
		pre:    pre,
		post:   post,
		logger: logger,
	}
}

// feed appends raw input
func (d *decoder) feed(p []byte) {
	d.buf = append(d.buf, p...)
}

func (d *decoder) setMode(mode InputMode) {
	d.mode = mode.effective()
}

// consume drops n bytes from the head of the buffer
func (d *decoder) consume(n int) {
	if n >= len(d.buf) {
		d.buf = d.buf[:0]
		return
	}
	copy(d.buf, d.buf[n:])
	d.buf = d.buf[:len(d.buf)-n]
}

// next decodes one event. partial reports that the head of the buffer is an incomplete
// prefix; with final set (timeout expired) incomplete prefixes are flushed instead.
func (d *decoder) next(final bool) (ev Event, ok bool, partial bool) {
	for len(d.buf) > 0 {
		if ev, n, ok := runExtractor(d.pre, d.buf); ok {
			d.consume(n)
			return ev, true, false
		}

		n, ev, res := d.parse(d.buf, final)
		switch res {
		case parseEvent:
			d.consume(n)
			if ev.Err != nil {
				d.logger.Printf("terminal: %v", ev.Err)
			}
			return ev, true, false
		case parseUnknown:
			if ev, m, ok := runExtractor(d.post, d.buf); ok {
				d.consume(m)
				return ev, true, false
			}
			d.logger.Printf("terminal: dropped unknown sequence %q", d.buf[:n])
			d.consume(n)
		case parseDrop:
			d.consume(n)
		case parsePartial:
			return Event{}, false, true
		default:
			// parse never reports invalid at the top level; drop one byte to guarantee progress
			d.consume(1)
		}
	}
	return Event{}, false, false
}

// parse decodes the head of data
func (d *decoder) parse(data []byte, final bool) (int, Event, parseResult) {
	b := data[0]
	switch {
	case b == 0x1b:
		return d.parseEscape(data, final)
	case b >= 0x20 && b < 0x7f:
		return 1, keyRune(rune(b)), parseEvent
	case b < 0x20 || b == 0x7f:
		return 1, Event{Type: EventKey, Key: controlKey(b)}, parseEvent
	default:
		return parseUTF8(data, final)
	}
}

func keyRune(r rune) Event {
	return Event{Type: EventKey, Key: KeyRune, Rune: r}
}

// parseEscape resolves an ESC-led buffer
func (d *decoder) parseEscape(data []byte, final bool) (int, Event, parseResult) {
	if len(data) == 1 {
		if final {
			return 1, Event{Type: EventKey, Key: KeyEscape}, parseEvent
		}
		return 0, Event{}, parsePartial
	}

	var (
		n   int
		ev  Event
		res = parseInvalid
	)
	switch data[1] {
	case '[':
		n, ev, res = d.parseCSI(data, final)
	case 'O':
		n, ev, res = parseSS3(data, final)
	}
	if res != parseInvalid {
		return n, ev, res
	}

	// Not a sequence: ESC is either a key of its own or an Alt prefix
	if d.mode&InputAlt == 0 {
		return 1, Event{Type: EventKey, Key: KeyEscape}, parseEvent
	}
	if data[1] == 0x1b {
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}, parseEvent
	}
	n, ev, res = d.parse(data[1:], final)
	switch res {
	case parseEvent:
		if ev.Type == EventKey && ev.Err == nil {
			ev.Modifiers |= ModAlt
			return n + 1, ev, parseEvent
		}
		// Malformed payload: report it without the prefix
		return 1, Event{Type: EventKey, Key: KeyEscape}, parseEvent
	case parsePartial:
		return 0, Event{}, parsePartial
	default:
		return 1, Event{Type: EventKey, Key: KeyEscape}, parseEvent
	}
}

// parseCSI parses ESC [ sequences: keys, mouse, and unknown sequences to drop
func (d *decoder) parseCSI(data []byte, final bool) (int, Event, parseResult) {
	if len(data) < 3 {
		return incomplete(final)
	}

	switch data[2] {
	case '<':
		return d.parseSGRMouse(data, final)
	case 'M':
		// X10 mouse: ESC [ M Cb Cx Cy
		if len(data) < 6 {
			return incomplete(final)
		}
		if ev, ok := decodeX10Mouse(data[3], data[4], data[5]); ok && d.mode&InputMouse != 0 {
			return 6, ev, parseEvent
		}
		return 6, Event{}, parseDrop
	case '[':
		// Linux console F1-F5: ESC [ [ A..E
		if len(data) < 4 {
			return incomplete(final)
		}
		if key, ok := linuxConsoleKeys[data[3]]; ok {
			return 4, Event{Type: EventKey, Key: key}, parseEvent
		}
		return 4, Event{}, parseUnknown
	}

	end := 2
	for ; end < len(data); end++ {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		if b < 0x20 || b > 0x7e || end >= maxCSILen {
			return 0, Event{}, parseInvalid
		}
	}
	if end >= len(data) {
		return incomplete(final)
	}

	params, term := data[2:end], data[end]
	n := end + 1

	if term == 'M' && len(params) > 0 {
		// urxvt mouse: ESC [ Cb ; Cx ; Cy M
		if ev, ok := decodeURXVTMouse(params); ok {
			if d.mode&InputMouse == 0 {
				return n, Event{}, parseDrop
			}
			return n, ev, parseEvent
		}
	}

	if key, mod, ok := lookupCSI(params, term); ok {
		return n, Event{Type: EventKey, Key: key, Modifiers: mod}, parseEvent
	}
	return n, Event{}, parseUnknown
}

// parseSGRMouse parses ESC [ < Btn ; X ; Y M/m
func (d *decoder) parseSGRMouse(data []byte, final bool) (int, Event, parseResult) {
	end := 3
	for ; end < len(data); end++ {
		b := data[end]
		if b == 'M' || b == 'm' {
			break
		}
		if ((b < '0' || b > '9') && b != ';') || end >= maxMouseLen {
			return 0, Event{}, parseInvalid
		}
	}
	if end >= len(data) {
		return incomplete(final)
	}

	n := end + 1
	ev, ok := decodeSGRMouse(data[3:end], data[end])
	if !ok || d.mode&InputMouse == 0 {
		return n, Event{}, parseDrop
	}
	return n, ev, parseEvent
}

// parseSS3 parses ESC O <final>
func parseSS3(data []byte, final bool) (int, Event, parseResult) {
	if len(data) < 3 {
		return incomplete(final)
	}
	b := data[2]
	if b < 0x40 || b > 0x7e {
		return 0, Event{}, parseInvalid
	}
	k, ok := ss3Keys[b]
	if !ok {
		return 3, Event{}, parseUnknown
	}
	if k.key == KeyRune {
		return 3, keyRune(k.ch), parseEvent
	}
	return 3, Event{Type: EventKey, Key: k.key}, parseEvent
}

// incomplete waits for more bytes, or gives up on the sequence once the timeout expired
func incomplete(final bool) (int, Event, parseResult) {
	if final {
		return 0, Event{}, parseInvalid
	}
	return 0, Event{}, parsePartial
}

// utf8SeqLen returns expected UTF-8 sequence length from start byte, 0 if invalid
func utf8SeqLen(b byte) int {
	if b < 0x80 {
		return 1
	}
	if b&0xe0 == 0xc0 {
		return 2
	}
	if b&0xf0 == 0xe0 {
		return 3
	}
	if b&0xf8 == 0xf0 {
		return 4
	}
	return 0
}

// parseUTF8 decodes a multibyte codepoint or reports malformed input as a replacement event
func parseUTF8(data []byte, final bool) (int, Event, parseResult) {
	seqLen := utf8SeqLen(data[0])
	if seqLen == 0 {
		return 1, invalidEncoding(data[:1]), parseEvent
	}

	avail := min(len(data), seqLen)
	for i := 1; i < avail; i++ {
		if data[i]&0xc0 != 0x80 {
			return 1, invalidEncoding(data[:1]), parseEvent
		}
	}
	if avail < seqLen {
		if final {
			return avail, invalidEncoding(data[:avail]), parseEvent
		}
		return 0, Event{}, parsePartial
	}

	r, size := decodeRune(data[:seqLen])
	if r == utf8.RuneError && size == 1 {
		return 1, invalidEncoding(data[:seqLen]), parseEvent
	}
	return size, keyRune(r), parseEvent
}

func invalidEncoding(raw []byte) Event {
	return Event{
		Type: EventKey,
		Key:  KeyRune,
		Rune: utf8.RuneError,
		Err:  newError(CodeInvalidEncoding, "decode", errors.Errorf("malformed utf-8 % x", raw)),
	}
}

// decodeRune decodes a complete UTF-8 sequence; overlong, surrogate and out-of-range
// encodings return (RuneError, 1)
func decodeRune(data []byte) (rune, int) {
	if len(data) == 0 {
		return utf8.RuneError, 1
	}

	b := data[0]
	if b < 0x80 {
		return rune(b), 1
	}

	var size int
	var lo rune
	var r rune

	switch {
	case b&0xe0 == 0xc0:
		size = 2
		lo = 0x80
		r = rune(b & 0x1f)
	case b&0xf0 == 0xe0:
		size = 3
		lo = 0x800
		r = rune(b & 0x0f)
	case b&0xf8 == 0xf0:
		size = 4
		lo = 0x10000
		r = rune(b & 0x07)
	default:
		return utf8.RuneError, 1
	}

	if len(data) < size {
		return utf8.RuneError, 1
	}

	for i := 1; i < size; i++ {
		if data[i]&0xc0 != 0x80 {
			return utf8.RuneError, 1
		}
		r = r<<6 | rune(data[i]&0x3f)
	}

	if r < lo || r > utf8.MaxRune || (r >= 0xd800 && r <= 0xdfff) {
		return utf8.RuneError, 1
	}
	return r, size
}
