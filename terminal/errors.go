package terminal

import (
	"github.com/pkg/errors"
)

// Code classifies engine errors
type Code uint8

const (
	CodeOK Code = iota
	CodeInit
	CodeNotInitialized
	CodeAlreadyShutdown
	CodeOutOfBounds
	CodeInvalidEncoding
	CodeUnsupported
	CodeIO
)

var codeText = [...]string{
	CodeOK:              "success",
	CodeInit:            "terminal initialization failed",
	CodeNotInitialized:  "engine not initialized",
	CodeAlreadyShutdown: "engine already shut down",
	CodeOutOfBounds:     "coordinates out of bounds",
	CodeInvalidEncoding: "invalid encoding",
	CodeUnsupported:     "unsupported mode or feature",
	CodeIO:              "terminal i/o failure",
}

// String returns the human-readable description of the code
func (c Code) String() string {
	if int(c) < len(codeText) {
		return codeText[c]
	}
	return "unknown error"
}

// Error is the concrete error returned by every engine operation
type Error struct {
	Code Code
	Op   string // Operation that failed, empty for sentinels
	Err  error  // Underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so errors.Is(err, ErrOutOfBounds) works
// regardless of Op and cause
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrInit            = &Error{Code: CodeInit}
	ErrNotInitialized  = &Error{Code: CodeNotInitialized}
	ErrAlreadyShutdown = &Error{Code: CodeAlreadyShutdown}
	ErrOutOfBounds     = &Error{Code: CodeOutOfBounds}
	ErrInvalidEncoding = &Error{Code: CodeInvalidEncoding}
	ErrUnsupported     = &Error{Code: CodeUnsupported}
	ErrIO              = &Error{Code: CodeIO}
)

func newError(code Code, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}

// wrapSys wraps a syscall failure with the call name before classifying it
func wrapSys(code Code, op string, err error, call string) *Error {
	return &Error{Code: code, Op: op, Err: errors.Wrap(err, call)}
}

// CodeOf extracts the Code from err, CodeOK for nil and CodeIO for foreign errors
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeIO
}
