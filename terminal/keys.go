// @focus: #sys { io } #input { keys }
package terminal

// Key represents a parsed input key
type Key uint16

const (
	KeyNone Key = iota
	KeyRune     // Printable character (check Event.Rune)

	// Control keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBacktab // Shift+Tab
	KeyBackspace
	KeyDelete
	KeySpace

	// Navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Ctrl+letter (Ctrl+A = 0x01, Ctrl+Z = 0x1A)
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH // Often same as Backspace
	KeyCtrlI // Often same as Tab
	KeyCtrlJ // Often same as Enter
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM // Often same as Enter
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ

	// Ctrl+special
	KeyCtrlSpace
	KeyCtrlBackslash
	KeyCtrlBracketLeft
	KeyCtrlBracketRight
	KeyCtrlCaret
	KeyCtrlUnderscore
)

// Modifier flags, laid out as xterm's modifier parameter minus one
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << 0
	ModAlt   Modifier = 1 << 1
	ModCtrl  Modifier = 1 << 2
)

// csiFinalKeys: ESC [ <final> and ESC [ 1 ; <mod> <final>
var csiFinalKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'P': KeyF1,
	'Q': KeyF2,
	'R': KeyF3,
	'S': KeyF4,
	'Z': KeyBacktab,
}

// csiTildeKeys: ESC [ <code> ~ and ESC [ <code> ; <mod> ~
var csiTildeKeys = map[int]Key{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	7:  KeyHome,
	8:  KeyEnd,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
}

// linuxConsoleKeys: ESC [ [ <final> (Linux console F1-F5)
var linuxConsoleKeys = map[byte]Key{
	'A': KeyF1,
	'B': KeyF2,
	'C': KeyF3,
	'D': KeyF4,
	'E': KeyF5,
}

// ss3Key is a key or, for the application keypad, a printable rune
type ss3Key struct {
	key Key
	ch  rune
}

// ss3Keys: ESC O <final>
var ss3Keys = map[byte]ss3Key{
	'A': {key: KeyUp},
	'B': {key: KeyDown},
	'C': {key: KeyRight},
	'D': {key: KeyLeft},
	'H': {key: KeyHome},
	'F': {key: KeyEnd},
	'P': {key: KeyF1},
	'Q': {key: KeyF2},
	'R': {key: KeyF3},
	'S': {key: KeyF4},

	// Numeric keypad (application mode)
	'M': {key: KeyEnter},
	'X': {key: KeyRune, ch: '='},
	'j': {key: KeyRune, ch: '*'},
	'k': {key: KeyRune, ch: '+'},
	'l': {key: KeyRune, ch: ','},
	'm': {key: KeyRune, ch: '-'},
	'n': {key: KeyRune, ch: '.'},
	'o': {key: KeyRune, ch: '/'},
	'p': {key: KeyRune, ch: '0'},
	'q': {key: KeyRune, ch: '1'},
	'r': {key: KeyRune, ch: '2'},
	's': {key: KeyRune, ch: '3'},
	't': {key: KeyRune, ch: '4'},
	'u': {key: KeyRune, ch: '5'},
	'v': {key: KeyRune, ch: '6'},
	'w': {key: KeyRune, ch: '7'},
	'x': {key: KeyRune, ch: '8'},
	'y': {key: KeyRune, ch: '9'},
}

// modifierFromParam converts an xterm modifier parameter (1 + bitmask) to Modifier
func modifierFromParam(p int) Modifier {
	if p < 2 {
		return ModNone
	}
	m := p - 1
	var mod Modifier
	if m&1 != 0 {
		mod |= ModShift
	}
	if m&(2|8) != 0 { // Alt or Meta
		mod |= ModAlt
	}
	if m&4 != 0 {
		mod |= ModCtrl
	}
	return mod
}

// parseCSIParams reads up to 3 numeric parameters, rejecting private markers
func parseCSIParams(params []byte) (vals [3]int, count int, ok bool) {
	if len(params) == 0 {
		return vals, 0, true
	}
	count = 1
	for _, b := range params {
		switch {
		case b >= '0' && b <= '9':
			if vals[count-1] > 9999 {
				return vals, 0, false
			}
			vals[count-1] = vals[count-1]*10 + int(b-'0')
		case b == ';':
			if count == len(vals) {
				return vals, 0, false
			}
			count++
		default:
			return vals, 0, false
		}
	}
	return vals, count, true
}

// lookupCSI resolves a CSI key sequence from its parameter bytes and final byte
func lookupCSI(params []byte, final byte) (Key, Modifier, bool) {
	vals, count, ok := parseCSIParams(params)
	if !ok || count > 2 {
		return KeyNone, ModNone, false
	}
	mod := ModNone
	if count == 2 {
		mod = modifierFromParam(vals[1])
	}

	if final == '~' {
		if count == 0 {
			return KeyNone, ModNone, false
		}
		key, ok := csiTildeKeys[vals[0]]
		return key, mod, ok
	}

	key, ok := csiFinalKeys[final]
	if !ok {
		return KeyNone, ModNone, false
	}
	if key == KeyBacktab {
		mod |= ModShift
	}
	return key, mod, true
}

// controlKeys maps C0 bytes that are not plain Ctrl+letter
var controlKeys = map[byte]Key{
	0x00: KeyCtrlSpace,
	0x08: KeyBackspace,
	0x09: KeyTab,
	0x0a: KeyEnter,
	0x0d: KeyEnter,
	0x1b: KeyEscape,
	0x1c: KeyCtrlBackslash,
	0x1d: KeyCtrlBracketRight,
	0x1e: KeyCtrlCaret,
	0x1f: KeyCtrlUnderscore,
	0x7f: KeyBackspace,
}

// controlKey maps a C0 byte or DEL to its key
func controlKey(b byte) Key {
	if k, ok := controlKeys[b]; ok {
		return k
	}
	if b >= 0x01 && b <= 0x1a {
		return KeyCtrlA + Key(b-0x01)
	}
	return KeyNone
}
