package probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/callwatch/callwatch/internal/shim"
)

// Probe is one self-check: a real call made through the shim plus the
// functions it should report. Negative probes expect silence. The
// battery never calls the execve or fork entry points; shell probes
// spawn /bin/sh through the process API instead.
type Probe struct {
	Name    string
	Purpose string
	Expect  []string

	run func(sh *shim.Shim, scratch string) error
}

// Battery returns the built-in probes in execution order.
func Battery() []Probe {
	return []Probe{
		{
			Name:    "system-shell",
			Purpose: "system() reports every command",
			Expect:  []string{"system"},
			run: func(sh *shim.Shim, _ string) error {
				code, err := sh.System("exit 0")
				if err != nil {
					return fmt.Errorf("system: %w", err)
				}
				if code != 0 {
					return fmt.Errorf("system exited %d", code)
				}
				return nil
			},
		},
		{
			Name:    "popen-read",
			Purpose: "popen() reports and still pipes output",
			Expect:  []string{"popen"},
			run: func(sh *shim.Shim, _ string) error {
				p, err := sh.Popen("printf callwatch", "r")
				if err != nil {
					return fmt.Errorf("popen: %w", err)
				}
				out, rerr := io.ReadAll(p.Reader)
				code, cerr := p.Close()
				if rerr != nil {
					return fmt.Errorf("popen read: %w", rerr)
				}
				if cerr != nil || code != 0 {
					return fmt.Errorf("popen close = %d, %v", code, cerr)
				}
				if string(out) != "callwatch" {
					return fmt.Errorf("popen piped %q", out)
				}
				return nil
			},
		},
		{
			Name:    "socket-inet",
			Purpose: "internet sockets report",
			Expect:  []string{"socket"},
			run: func(sh *shim.Shim, _ string) error {
				fd, err := sh.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
				if err != nil {
					return fmt.Errorf("socket: %w", err)
				}
				unix.Close(fd)
				return nil
			},
		},
		{
			Name:    "socket-unix-quiet",
			Purpose: "local sockets stay quiet",
			Expect:  nil,
			run: func(sh *shim.Shim, _ string) error {
				fd, err := sh.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
				if err != nil {
					return fmt.Errorf("socket: %w", err)
				}
				unix.Close(fd)
				return nil
			},
		},
		{
			Name:    "bind-loopback",
			Purpose: "binding an internet address reports",
			Expect:  []string{"bind"},
			run: func(sh *shim.Shim, _ string) error {
				fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
				if err != nil {
					return fmt.Errorf("setup socket: %w", err)
				}
				defer unix.Close(fd)
				sa := &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}
				if err := sh.Bind(fd, sa); err != nil {
					return fmt.Errorf("bind: %w", err)
				}
				return nil
			},
		},
		{
			Name:    "connect-refused",
			Purpose: "outbound connects report even when refused",
			Expect:  []string{"connect"},
			run: func(sh *shim.Shim, _ string) error {
				fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
				if err != nil {
					return fmt.Errorf("setup socket: %w", err)
				}
				defer unix.Close(fd)
				sa := &unix.SockaddrInet4{Port: 1, Addr: [4]byte{127, 0, 0, 1}}
				// Refusal is the point; the report precedes the result.
				_ = sh.Connect(fd, sa)
				return nil
			},
		},
		{
			Name:    "connect-unix-quiet",
			Purpose: "local connects stay quiet",
			Expect:  nil,
			run: func(sh *shim.Shim, scratch string) error {
				fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
				if err != nil {
					return fmt.Errorf("setup socket: %w", err)
				}
				defer unix.Close(fd)
				sa := &unix.SockaddrUnix{Name: filepath.Join(scratch, "nobody.sock")}
				_ = sh.Connect(fd, sa)
				return nil
			},
		},
		{
			Name:    "open-passwd-write-intent",
			Purpose: "write-intent opens of watched paths report",
			Expect:  []string{"open"},
			run: func(sh *shim.Shim, _ string) error {
				// No O_TRUNC and nothing written; only the intent matters.
				fd, err := sh.Open("/etc/passwd", unix.O_WRONLY, 0)
				if err == nil {
					unix.Close(fd)
				}
				return nil
			},
		},
		{
			Name:    "open-scratch-write-quiet",
			Purpose: "writes outside the watchlist stay quiet",
			Expect:  nil,
			run: func(sh *shim.Shim, scratch string) error {
				fd, err := sh.Open(filepath.Join(scratch, "scratch.txt"), unix.O_WRONLY|unix.O_CREAT, 0o644)
				if err != nil {
					return fmt.Errorf("open scratch: %w", err)
				}
				unix.Close(fd)
				return nil
			},
		},
		{
			Name:    "open-etc-read-quiet",
			Purpose: "reads of watched paths stay quiet",
			Expect:  nil,
			run: func(sh *shim.Shim, _ string) error {
				fd, err := sh.Open("/etc/hostname", unix.O_RDONLY, 0)
				if err == nil {
					unix.Close(fd)
				}
				return nil
			},
		},
		{
			Name:    "fopen-hosts-append",
			Purpose: "stream appends to watched paths report",
			Expect:  []string{"fopen"},
			run: func(sh *shim.Shim, _ string) error {
				// Append mode never truncates and nothing is written.
				f, err := sh.Fopen("/etc/hosts", "a")
				if err == nil {
					f.Close()
				}
				return nil
			},
		},
		{
			Name:    "fopen-scratch-write-quiet",
			Purpose: "stream writes outside the watchlist stay quiet",
			Expect:  nil,
			run: func(sh *shim.Shim, scratch string) error {
				f, err := sh.Fopen(filepath.Join(scratch, "quiet.txt"), "w")
				if err != nil {
					return fmt.Errorf("fopen scratch: %w", err)
				}
				f.Close()
				return nil
			},
		},
		{
			Name:    "unlink-scratch",
			Purpose: "every unlink reports",
			Expect:  []string{"unlink"},
			run: func(sh *shim.Shim, scratch string) error {
				path := filepath.Join(scratch, "victim.txt")
				if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
					return err
				}
				if err := sh.Unlink(path); err != nil {
					return fmt.Errorf("unlink: %w", err)
				}
				return nil
			},
		},
		{
			Name:    "remove-scratch-dir",
			Purpose: "remove() reports and handles directories",
			Expect:  []string{"remove"},
			run: func(sh *shim.Shim, scratch string) error {
				dir := filepath.Join(scratch, "victim-dir")
				if err := os.Mkdir(dir, 0o755); err != nil {
					return err
				}
				if err := sh.Remove(dir); err != nil {
					return fmt.Errorf("remove: %w", err)
				}
				return nil
			},
		},
		{
			Name:    "chmod-scratch",
			Purpose: "every chmod reports with the new mode",
			Expect:  []string{"chmod"},
			run: func(sh *shim.Shim, scratch string) error {
				path := filepath.Join(scratch, "mode.txt")
				if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
					return err
				}
				if err := sh.Chmod(path, 0o600); err != nil {
					return fmt.Errorf("chmod: %w", err)
				}
				return nil
			},
		},
		{
			Name:    "chown-self",
			Purpose: "every chown reports with the new owner",
			Expect:  []string{"chown"},
			run: func(sh *shim.Shim, scratch string) error {
				path := filepath.Join(scratch, "owner.txt")
				if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
					return err
				}
				if err := sh.Chown(path, os.Getuid(), os.Getgid()); err != nil {
					return fmt.Errorf("chown: %w", err)
				}
				return nil
			},
		},
		{
			Name:    "setuid-self",
			Purpose: "identity changes report",
			Expect:  []string{"setuid"},
			run: func(sh *shim.Shim, _ string) error {
				if err := sh.Setuid(os.Getuid()); err != nil {
					return fmt.Errorf("setuid: %w", err)
				}
				return nil
			},
		},
		{
			Name:    "setgid-self",
			Purpose: "group changes report",
			Expect:  []string{"setgid"},
			run: func(sh *shim.Shim, _ string) error {
				if err := sh.Setgid(os.Getgid()); err != nil {
					return fmt.Errorf("setgid: %w", err)
				}
				return nil
			},
		},
		{
			Name:    "ptrace-invalid",
			Purpose: "ptrace reports even for rejected requests",
			Expect:  []string{"ptrace"},
			run: func(sh *shim.Shim, _ string) error {
				if _, err := sh.Ptrace(-1, 0, 0, 0); err == nil {
					return errors.New("ptrace accepted an invalid request")
				}
				return nil
			},
		},
	}
}

// Exercise fires the probe's real calls through sh, using scratch for
// file targets. Expectation checking is the Runner's job; Exercise
// alone suits sessions pointed at an external collector.
func (p Probe) Exercise(sh *shim.Shim, scratch string) error {
	return p.run(sh, scratch)
}

// findProbe looks a battery probe up by name.
func findProbe(name string) (Probe, bool) {
	for _, p := range Battery() {
		if p.Name == name {
			return p, true
		}
	}
	return Probe{}, false
}
