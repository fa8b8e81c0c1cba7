//go:build !linux

package transport

import "errors"

// Collector sessions only exist on linux; elsewhere every session
// stays disconnected and hooks remain pure pass-through.

var errUnsupported = errors.New("collector transport requires linux")

func dial(path string) (int, error) { return -1, errUnsupported }

func sendNonblock(fd int, p []byte) (int, error) { return 0, errUnsupported }

func closeFD(fd int) {}

func isWouldBlock(err error) bool { return false }
