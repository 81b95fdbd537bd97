//go:build linux || darwin

package terminal

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// openPTY returns a pseudo-terminal pair with the given size; output is drained in the background
func openPTY(t *testing.T, cols, rows uint16) (ptmx, tty *os.File) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		t.Fatalf("Setsize failed: %v", err)
	}
	go io.Copy(io.Discard, ptmx)
	t.Cleanup(func() {
		tty.Close()
		ptmx.Close()
	})
	return ptmx, tty
}

func lflag(t *testing.T, fd int) uint64 {
	t.Helper()
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		t.Fatalf("tcgetattr: %v", err)
	}
	return uint64(termios.Lflag)
}

// TestInitFDRawModeRestored verifies raw mode is applied on init and undone on shutdown
func TestInitFDRawModeRestored(t *testing.T) {
	clearColorEnv(t)
	_, tty := openPTY(t, 100, 30)
	fd := int(tty.Fd())

	before := lflag(t, fd)
	if before&unix.ECHO == 0 || before&unix.ICANON == 0 {
		t.Fatalf("Expected cooked pty before init, lflag=%#x", before)
	}

	e := New(Options{})
	if err := e.InitFD(fd); err != nil {
		t.Fatalf("InitFD failed: %v", err)
	}
	raw := lflag(t, fd)
	if raw&(unix.ECHO|unix.ICANON|unix.ISIG) != 0 {
		t.Errorf("Expected echo, canonical mode and signals off, lflag=%#x", raw)
	}
	if e.Width() != 100 || e.Height() != 30 {
		t.Errorf("Expected 100x30 from the pty, got %dx%d", e.Width(), e.Height())
	}

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if after := lflag(t, fd); after != before {
		t.Errorf("Expected lflag restored to %#x, got %#x", before, after)
	}
}

// TestInitFileByPath verifies opening a terminal device by name and reading keys through it
func TestInitFileByPath(t *testing.T) {
	clearColorEnv(t)
	ptmx, tty := openPTY(t, 90, 20)

	e := New(Options{})
	if err := e.InitFile(tty.Name()); err != nil {
		t.Fatalf("InitFile failed: %v", err)
	}
	defer e.Shutdown()

	if _, err := ptmx.Write([]byte("\x1b[1;5B")); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev, err := e.Poll(time.Second)
	if err != nil || ev.Key != KeyDown || ev.Modifiers != ModCtrl {
		t.Errorf("Expected Ctrl+Down, got %+v err=%v", ev, err)
	}
}

// TestResizeFromWinsize verifies a resize notification re-reads the pty size
func TestResizeFromWinsize(t *testing.T) {
	clearColorEnv(t)
	ptmx, tty := openPTY(t, 80, 24)

	e := New(Options{})
	if err := e.InitFD(int(tty.Fd())); err != nil {
		t.Fatalf("InitFD failed: %v", err)
	}
	defer e.Shutdown()

	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: 132, Rows: 43}); err != nil {
		t.Fatalf("Setsize failed: %v", err)
	}
	// The test process is not the pty's foreground group, so raise the notification directly
	e.resize.notify()

	ev, err := e.Poll(time.Second)
	if err != nil || ev.Type != EventResize {
		t.Fatalf("Expected resize event, got %+v err=%v", ev, err)
	}
	if ev.Width != 132 || ev.Height != 43 {
		t.Errorf("Expected 132x43, got %dx%d", ev.Width, ev.Height)
	}
}

// TestInitRejectsNonTerminal verifies the terminal-only entry points refuse other files
func TestInitRejectsNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "plain")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	defer f.Close()

	if err := New(Options{}).InitFile(f.Name()); !errors.Is(err, ErrInit) {
		t.Errorf("InitFile: expected ErrInit, got %v", err)
	}
	if err := New(Options{}).InitFD(int(f.Fd())); !errors.Is(err, ErrInit) {
		t.Errorf("InitFD: expected ErrInit, got %v", err)
	}
	if err := New(Options{}).InitFile("/nonexistent/tty"); !errors.Is(err, ErrInit) {
		t.Errorf("InitFile missing: expected ErrInit, got %v", err)
	}
}
