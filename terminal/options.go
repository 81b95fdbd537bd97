package terminal

import (
	"io"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// InputMode selects how ESC-prefixed input is interpreted (bitmask)
type InputMode uint8

const (
	InputNormal InputMode = 0      // Same as InputEscape
	InputEscape InputMode = 1 << 0 // ESC + key yields KeyEscape then key
	InputAlt    InputMode = 1 << 1 // ESC + key yields key with ModAlt
	InputMouse  InputMode = 1 << 2 // Enable mouse reporting and decoding
)

// effective resolves Normal to Escape and lets Escape win over Alt
func (m InputMode) effective() InputMode {
	if m&InputEscape != 0 {
		m &^= InputAlt
	}
	if m&(InputEscape|InputAlt) == 0 {
		m |= InputEscape
	}
	return m
}

var inputModeNames = [...]struct {
	mode InputMode
	name string
}{
	{InputEscape, "escape"},
	{InputAlt, "alt"},
	{InputMouse, "mouse"},
}

// String returns "escape|mouse" style names, "normal" for zero
func (m InputMode) String() string {
	if m == InputNormal {
		return "normal"
	}
	parts := make([]string, 0, 3)
	for _, n := range inputModeNames {
		if m&n.mode != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseInputMode parses "escape|mouse" style strings; "normal" or empty yields InputNormal
func ParseInputMode(s string) (InputMode, error) {
	var m InputMode
	for _, part := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '|' || r == ',' || r == '+' || r == ' '
	}) {
		if part == "normal" {
			continue
		}
		found := false
		for _, n := range inputModeNames {
			if part == n.name {
				m |= n.mode
				found = true
				break
			}
		}
		if !found {
			return InputNormal, errors.Errorf("unknown input mode %q", part)
		}
	}
	return m, nil
}

const (
	// DefaultEscapeTimeout is the wait after an ambiguous prefix before it is flushed
	DefaultEscapeTimeout = 50 * time.Millisecond

	defaultFallbackWidth  = 80
	defaultFallbackHeight = 24
)

// Options configures an Engine; the zero value is usable and equals DefaultOptions
type Options struct {
	InputMode  InputMode
	OutputMode OutputMode

	// EscapeTimeout bounds the wait for the rest of an ESC or UTF-8 prefix; <= 0 uses the default
	EscapeTimeout time.Duration

	// Size used when the output is not a terminal or the size query fails
	FallbackWidth  int
	FallbackHeight int

	// ForceTruecolor permits OutputTruecolor without environment detection
	ForceTruecolor bool

	// Logger receives diagnostics; nil discards. Never the controlled terminal.
	Logger *log.Logger

	PreExtract  Extractor
	PostExtract Extractor
}

// DefaultOptions returns the options Init uses when none are given
func DefaultOptions() Options {
	return Options{
		InputMode:      InputEscape,
		OutputMode:     OutputNormal,
		EscapeTimeout:  DefaultEscapeTimeout,
		FallbackWidth:  defaultFallbackWidth,
		FallbackHeight: defaultFallbackHeight,
	}
}

// withDefaults fills zero fields
func (o Options) withDefaults() Options {
	if o.EscapeTimeout <= 0 {
		o.EscapeTimeout = DefaultEscapeTimeout
	}
	if o.FallbackWidth <= 0 {
		o.FallbackWidth = defaultFallbackWidth
	}
	if o.FallbackHeight <= 0 {
		o.FallbackHeight = defaultFallbackHeight
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
	return o
}
