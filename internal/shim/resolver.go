package shim

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Resolver finds the real implementation behind an entry-point name.
// RealFuncs answers with the host's implementations; tests inject
// recording fakes. A Resolver is consulted at most once per entry.
type Resolver interface {
	Resolve(name string) (any, error)
}

// Typed shapes a Resolver must return per entry point.
type (
	ExecveFunc func(path string, argv, envv []string) error
	SystemFunc func(command string) (int, error)
	PopenFunc  func(command, mode string) (*Pipe, error)
	SocketFunc func(domain, typ, proto int) (int, error)
	// ConnectFunc and BindFunc take an optional target address; nil
	// mirrors a caller passing no address at all.
	ConnectFunc func(fd int, sa unix.Sockaddr) error
	BindFunc    func(fd int, sa unix.Sockaddr) error
	OpenFunc    func(path string, flags int, mode uint32) (int, error)
	FopenFunc   func(path, mode string) (*os.File, error)
	UnlinkFunc  func(path string) error
	RemoveFunc  func(path string) error
	PtraceFunc  func(request, pid int, addr, data uintptr) (int64, error)
	ChmodFunc   func(path string, mode uint32) error
	ChownFunc   func(path string, uid, gid int) error
	SetuidFunc  func(uid int) error
	SetgidFunc  func(gid int) error
	ForkFunc    func() (int, error)
)

// Pipe is one end of a shell pipeline opened by Popen: the parent's
// side of the child's stdout (mode "r") or stdin (mode "w"), plus the
// reaper for the child's exit status.
type Pipe struct {
	Reader io.ReadCloser
	Writer io.WriteCloser
	wait   func() (int, error)
}

// NewPipe assembles a Pipe around an open stream and a wait function.
func NewPipe(r io.ReadCloser, w io.WriteCloser, wait func() (int, error)) *Pipe {
	return &Pipe{Reader: r, Writer: w, wait: wait}
}

// Close closes the stream and reaps the child, returning its exit
// status. Call it exactly once.
func (p *Pipe) Close() (int, error) {
	if p.Reader != nil {
		p.Reader.Close()
	}
	if p.Writer != nil {
		p.Writer.Close()
	}
	if p.wait == nil {
		return 0, nil
	}
	return p.wait()
}

// ResolveError reports an entry point whose real implementation could
// not be found; the call was observed but never executed.
type ResolveError struct {
	Name string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Name, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// resolveAs memoizes the entry's resolution and checks the shape.
func resolveAs[T any](e *Entry, r Resolver) (T, error) {
	var zero T
	raw, err := e.resolveWith(r)
	if err != nil {
		return zero, err
	}
	fn, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("resolver returned %T for %s", raw, e.Name)
	}
	return fn, nil
}
