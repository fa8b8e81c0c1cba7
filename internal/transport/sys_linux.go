//go:build linux

package transport

import (
	"errors"

	"golang.org/x/sys/unix"
)

// dial opens a connected stream socket to the unix path and switches
// it to non-blocking once the connect completes.
func dial(path string) (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, err
	}
	// Best effort: sends pass MSG_DONTWAIT regardless.
	_ = unix.SetNonblock(fd, true)
	return fd, nil
}

// sendNonblock writes p once without blocking and without raising
// SIGPIPE in the host process.
func sendNonblock(fd int, p []byte) (int, error) {
	return unix.SendmsgN(fd, p, nil, nil, unix.MSG_DONTWAIT|unix.MSG_NOSIGNAL)
}

func closeFD(fd int) {
	_ = unix.Close(fd)
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
