//go:build unix

package terminal

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// resizeNotifier turns SIGWINCH into readability of a non-blocking pipe so the
// event loop can wait on input and resizes with one poll
type resizeNotifier struct {
	rfd    int
	wfd    int
	sigCh  chan os.Signal
	stopCh chan struct{}
	doneCh chan struct{}
}

// newResizeNotifier creates the self-pipe; start must be called to receive signals
func newResizeNotifier() (*resizeNotifier, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, wrapSys(CodeInit, "resize pipe", err, "pipe")
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, wrapSys(CodeInit, "resize pipe", err, "fcntl")
		}
	}
	return &resizeNotifier{
		rfd:    p[0],
		wfd:    p[1],
		sigCh:  make(chan os.Signal, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// start begins forwarding SIGWINCH to the pipe
func (r *resizeNotifier) start() {
	signal.Notify(r.sigCh, syscall.SIGWINCH)
	go r.forward()
}

// forward writes one byte per signal and touches nothing else
func (r *resizeNotifier) forward() {
	defer close(r.doneCh)
	for {
		select {
		case <-r.stopCh:
			return
		case <-r.sigCh:
			r.notify()
		}
	}
}

// notify marks a resize as pending; a full pipe already carries one
func (r *resizeNotifier) notify() {
	var b = [1]byte{'w'}
	for {
		_, err := unix.Write(r.wfd, b[:])
		if err != unix.EINTR {
			return
		}
	}
}

// drain empties the pipe and reports whether any notification was pending
func (r *resizeNotifier) drain() bool {
	var buf [64]byte
	pending := false
	for {
		n, err := unix.Read(r.rfd, buf[:])
		if n > 0 {
			pending = true
			continue
		}
		if err == unix.EINTR {
			continue
		}
		return pending
	}
}

// stop unsubscribes, waits for the forwarder and closes the pipe
func (r *resizeNotifier) stop() error {
	signal.Stop(r.sigCh)
	close(r.stopCh)
	<-r.doneCh

	var first error
	for _, fd := range [2]int{r.rfd, r.wfd} {
		if err := unix.Close(fd); err != nil && first == nil {
			first = wrapSys(CodeIO, "resize pipe", err, "close")
		}
	}
	return first
}
