package terminal

// MouseButton represents mouse button identity
type MouseButton uint8

const (
	MouseBtnNone MouseButton = iota
	MouseBtnLeft
	MouseBtnMiddle
	MouseBtnRight
	MouseBtnWheelUp
	MouseBtnWheelDown
	MouseBtnBack    // Button 8 (if supported)
	MouseBtnForward // Button 9 (if supported)
)

// MouseAction represents the type of mouse event
type MouseAction uint8

const (
	MouseActionNone MouseAction = iota
	MouseActionPress
	MouseActionRelease
	MouseActionMove
	MouseActionDrag
)

// String returns human-readable button name
func (b MouseButton) String() string {
	switch b {
	case MouseBtnLeft:
		return "Left"
	case MouseBtnMiddle:
		return "Middle"
	case MouseBtnRight:
		return "Right"
	case MouseBtnWheelUp:
		return "WheelUp"
	case MouseBtnWheelDown:
		return "WheelDown"
	case MouseBtnBack:
		return "Back"
	case MouseBtnForward:
		return "Forward"
	default:
		return "None"
	}
}

// String returns human-readable action name
func (a MouseAction) String() string {
	switch a {
	case MouseActionPress:
		return "Press"
	case MouseActionRelease:
		return "Release"
	case MouseActionMove:
		return "Move"
	case MouseActionDrag:
		return "Drag"
	default:
		return "None"
	}
}

// mouseEvent builds an event from an xterm button code and 1-based coordinates.
// Bits 0-1: button (0=left, 1=middle, 2=right, 3=release)
// Bits 2-4: shift, meta, ctrl
// Bit 5 (32): motion
// Bit 6 (64): wheel
// Bit 7 (128): extra buttons
// release is set for SGR 'm' terminators; legacy encodings signal release through button 3.
func mouseEvent(btn, x, y int, release bool) Event {
	ev := Event{Type: EventMouse, MouseX: x - 1, MouseY: y - 1}
	if ev.MouseX < 0 {
		ev.MouseX = 0
	}
	if ev.MouseY < 0 {
		ev.MouseY = 0
	}

	buttonID := btn & 0x03
	isMotion := btn&32 != 0

	switch {
	case btn&64 != 0:
		if buttonID == 0 {
			ev.MouseBtn = MouseBtnWheelUp
		} else {
			ev.MouseBtn = MouseBtnWheelDown
		}
		// Wheel has no release
		ev.MouseAction = MouseActionPress

	default:
		if btn&128 != 0 {
			switch buttonID {
			case 0:
				ev.MouseBtn = MouseBtnBack
			case 1:
				ev.MouseBtn = MouseBtnForward
			}
		} else {
			switch buttonID {
			case 0:
				ev.MouseBtn = MouseBtnLeft
			case 1:
				ev.MouseBtn = MouseBtnMiddle
			case 2:
				ev.MouseBtn = MouseBtnRight
			}
		}

		switch {
		case release:
			ev.MouseAction = MouseActionRelease
		case isMotion && ev.MouseBtn != MouseBtnNone:
			ev.MouseAction = MouseActionDrag
		case isMotion:
			ev.MouseAction = MouseActionMove
		case buttonID == 3:
			ev.MouseAction = MouseActionRelease
		default:
			ev.MouseAction = MouseActionPress
		}
	}

	if btn&4 != 0 {
		ev.Modifiers |= ModShift
	}
	if btn&8 != 0 {
		ev.Modifiers |= ModAlt
	}
	if btn&16 != 0 {
		ev.Modifiers |= ModCtrl
	}
	return ev
}

// parseMouseParams extracts btn, x, y from "Btn;X;Y"
func parseMouseParams(data []byte) (btn, x, y int, ok bool) {
	vals, count, ok := parseCSIParams(data)
	if !ok || count != 3 {
		return 0, 0, 0, false
	}
	return vals[0], vals[1], vals[2], true
}

// decodeX10Mouse decodes the three payload bytes of ESC [ M Cb Cx Cy
func decodeX10Mouse(cb, cx, cy byte) (Event, bool) {
	if cb < 32 || cx < 33 || cy < 33 {
		return Event{}, false
	}
	return mouseEvent(int(cb-32), int(cx-32), int(cy-32), false), true
}

// decodeURXVTMouse decodes ESC [ Cb ; Cx ; Cy M, where Cb carries the X10 offset of 32
func decodeURXVTMouse(params []byte) (Event, bool) {
	btn, x, y, ok := parseMouseParams(params)
	if !ok || btn < 32 {
		return Event{}, false
	}
	return mouseEvent(btn-32, x, y, false), true
}

// decodeSGRMouse decodes the parameter bytes of ESC [ < Btn ; X ; Y M/m
func decodeSGRMouse(params []byte, final byte) (Event, bool) {
	btn, x, y, ok := parseMouseParams(params)
	if !ok {
		return Event{}, false
	}
	return mouseEvent(btn, x, y, final == 'm'), true
}
