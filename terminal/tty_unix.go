//go:build unix

package terminal

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// defaultTTYPath is opened by Init; it reaches the controlling terminal even when stdio is redirected
const defaultTTYPath = "/dev/tty"

// tty owns the terminal descriptors and the saved line discipline
type tty struct {
	file   *os.File // Set when the engine opened the device itself
	rfd    int
	wfd    int
	isTerm bool
	saved  *term.State
}

// openTTY opens a terminal device by path; the path must name a terminal
func openTTY(path string) (*tty, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, newError(CodeInit, "open", errors.Wrapf(err, "open %s", path))
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		f.Close()
		return nil, newError(CodeInit, "open", errors.Errorf("%s is not a terminal", path))
	}
	return &tty{file: f, rfd: fd, wfd: fd, isTerm: true}, nil
}

// ttyFromFD wraps a caller-owned terminal descriptor
func ttyFromFD(fd int) (*tty, error) {
	if !term.IsTerminal(fd) {
		return nil, newError(CodeInit, "init fd", errors.Errorf("fd %d is not a terminal", fd))
	}
	return &tty{rfd: fd, wfd: fd, isTerm: true}, nil
}

// ttyFromRWFD wraps caller-owned input and output descriptors; non-terminals stay in their current mode
func ttyFromRWFD(rfd, wfd int) (*tty, error) {
	if rfd < 0 || wfd < 0 {
		return nil, newError(CodeInit, "init rwfd", errors.Errorf("invalid descriptors %d/%d", rfd, wfd))
	}
	return &tty{rfd: rfd, wfd: wfd, isTerm: term.IsTerminal(rfd)}, nil
}

// makeRaw saves the current attributes and disables echo, canonical mode and signal keys
func (t *tty) makeRaw() error {
	if !t.isTerm {
		return nil
	}
	st, err := term.MakeRaw(t.rfd)
	if err != nil {
		return wrapSys(CodeInit, "raw mode", err, "tcsetattr")
	}
	t.saved = st
	return nil
}

// restore puts back the attributes saved by makeRaw
func (t *tty) restore() error {
	if t.saved == nil {
		return nil
	}
	st := t.saved
	t.saved = nil
	if err := term.Restore(t.rfd, st); err != nil {
		return wrapSys(CodeIO, "restore", err, "tcsetattr")
	}
	return nil
}

// close releases a device opened by openTTY; caller descriptors are left open
func (t *tty) close() error {
	if t.file == nil {
		return nil
	}
	f := t.file
	t.file = nil
	if err := f.Close(); err != nil {
		return wrapSys(CodeIO, "close", err, "close")
	}
	return nil
}

// size queries the window size from the output, then the input, descriptor
func (t *tty) size(fallbackW, fallbackH int) (int, int) {
	for _, fd := range [2]int{t.wfd, t.rfd} {
		ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
		if err == nil && ws.Col > 0 && ws.Row > 0 {
			return int(ws.Col), int(ws.Row)
		}
	}
	return fallbackW, fallbackH
}

// read performs one read on the input descriptor; 0 bytes with nil error means end of input
func (t *tty) read(p []byte) (int, error) {
	for {
		n, err := unix.Read(t.rfd, p)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, errAgain
		}
		if err != nil {
			return 0, wrapSys(CodeIO, "read", err, "read")
		}
		return n, nil
	}
}

// errAgain reports a spurious wakeup on a non-blocking descriptor
var errAgain = errors.New("resource temporarily unavailable")

// Write writes all of p to the output descriptor
func (t *tty) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(t.wfd, p[written:])
		if n > 0 {
			written += n
		}
		switch err {
		case nil:
			if n == 0 {
				return written, errors.Wrap(unix.EIO, "write")
			}
		case unix.EINTR:
		case unix.EAGAIN:
			fds := []unix.PollFd{{Fd: int32(t.wfd), Events: unix.POLLOUT}}
			if _, perr := unix.Poll(fds, -1); perr != nil && perr != unix.EINTR {
				return written, errors.Wrap(perr, "poll")
			}
		default:
			return written, errors.Wrap(err, "write")
		}
	}
	return written, nil
}
