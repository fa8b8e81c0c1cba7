//go:build linux

package shim

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// RealFuncs resolves entry points to the host's implementations:
// direct system calls where one exists, /bin/sh for the shell entry
// points.
type RealFuncs struct{}

// NewRealFuncs returns the production resolver.
func NewRealFuncs() Resolver { return RealFuncs{} }

// Resolve maps an entry-point name to its host implementation.
func (RealFuncs) Resolve(name string) (any, error) {
	switch name {
	case "execve":
		return ExecveFunc(unix.Exec), nil
	case "system":
		return SystemFunc(realSystem), nil
	case "popen":
		return PopenFunc(realPopen), nil
	case "socket":
		return SocketFunc(unix.Socket), nil
	case "connect":
		return ConnectFunc(unix.Connect), nil
	case "bind":
		return BindFunc(unix.Bind), nil
	case "open":
		return OpenFunc(unix.Open), nil
	case "fopen":
		return FopenFunc(realFopen), nil
	case "unlink":
		return UnlinkFunc(unix.Unlink), nil
	case "remove":
		return RemoveFunc(realRemove), nil
	case "ptrace":
		return PtraceFunc(realPtrace), nil
	case "chmod":
		return ChmodFunc(unix.Chmod), nil
	case "chown":
		return ChownFunc(unix.Chown), nil
	case "setuid":
		return SetuidFunc(unix.Setuid), nil
	case "setgid":
		return SetgidFunc(unix.Setgid), nil
	case "fork":
		return ForkFunc(realFork), nil
	}
	return nil, fmt.Errorf("unknown entry point %q", name)
}

// realSystem runs command through /bin/sh -c with inherited stdio and
// returns the shell's exit code, or -1 when the shell cannot start.
func realSystem(command string) (int, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), nil
	}
	return -1, err
}

// realPopen starts /bin/sh -c command with one piped stream: the
// child's stdout for mode "r", its stdin for mode "w".
func realPopen(command, mode string) (*Pipe, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	switch {
	case strings.HasPrefix(mode, "r"):
		rd, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return NewPipe(rd, nil, waitExit(cmd)), nil
	case strings.HasPrefix(mode, "w"):
		wr, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return NewPipe(nil, wr, waitExit(cmd)), nil
	}
	return nil, unix.EINVAL
}

func waitExit(cmd *exec.Cmd) func() (int, error) {
	return func() (int, error) {
		err := cmd.Wait()
		if err == nil {
			return 0, nil
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return ee.ExitCode(), nil
		}
		return -1, err
	}
}

// realFopen opens path with stdio mode semantics and 0666 create
// permissions, umask applying as usual.
func realFopen(path, mode string) (*os.File, error) {
	flags, err := stdioFlags(mode)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, flags, 0666)
}

// stdioFlags translates an fopen mode string to open flags. The first
// byte picks the base mode; +, x and e refine it; b is accepted and
// ignored.
func stdioFlags(mode string) (int, error) {
	if mode == "" {
		return 0, unix.EINVAL
	}
	var flags int
	switch mode[0] {
	case 'r':
		flags = unix.O_RDONLY
	case 'w':
		flags = unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC
	case 'a':
		flags = unix.O_WRONLY | unix.O_CREAT | unix.O_APPEND
	default:
		return 0, unix.EINVAL
	}
	for _, c := range mode[1:] {
		switch c {
		case '+':
			flags = flags&^unix.O_ACCMODE | unix.O_RDWR
		case 'x':
			flags |= unix.O_EXCL
		case 'e':
			flags |= unix.O_CLOEXEC
		}
	}
	return flags, nil
}

// realRemove unlinks path, falling back to rmdir for directories.
func realRemove(path string) error {
	err := unix.Unlink(path)
	if errors.Is(err, unix.EISDIR) {
		return unix.Rmdir(path)
	}
	return err
}

// realPtrace issues the raw system call. Peek requests follow kernel
// conventions: the result is written through data, not returned.
func realPtrace(request, pid int, addr, data uintptr) (int64, error) {
	r1, _, errno := unix.Syscall6(unix.SYS_PTRACE,
		uintptr(request), uintptr(pid), addr, data, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int64(r1), nil
}

// realFork clones the process with fork semantics. The child returns
// holding only the calling thread; it must confine itself to exec or
// exit.
func realFork() (int, error) {
	r1, _, errno := unix.Syscall6(unix.SYS_CLONE,
		uintptr(unix.SIGCHLD), 0, 0, 0, 0, 0)
	if errno != 0 {
		return -1, errno
	}
	return int(r1), nil
}
