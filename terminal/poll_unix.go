//go:build unix

package terminal

import (
	"time"

	"golang.org/x/sys/unix"
)

// waitReadable blocks until the input or resize descriptor is readable or the timeout
// expires. timeout < 0 waits indefinitely; 0 only checks readiness.
func waitReadable(inFd, resizeFd int, timeout time.Duration) (input, resize bool, err error) {
	fds := []unix.PollFd{
		{Fd: int32(inFd), Events: unix.POLLIN},
		{Fd: int32(resizeFd), Events: unix.POLLIN},
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		ms := -1
		if timeout >= 0 {
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			// Round up so a sub-millisecond wait does not become a busy loop
			ms = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			if timeout >= 0 && !time.Now().Before(deadline) {
				return false, false, nil
			}
			continue
		}
		if err != nil {
			return false, false, wrapSys(CodeIO, "poll", err, "poll")
		}
		if n == 0 {
			return false, false, nil
		}

		if fds[0].Revents&unix.POLLNVAL != 0 {
			return false, false, wrapSys(CodeIO, "poll", unix.EBADF, "poll")
		}
		input = fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
		resize = fds[1].Revents&unix.POLLIN != 0
		return input, resize, nil
	}
}
