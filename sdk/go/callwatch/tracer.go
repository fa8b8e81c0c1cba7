package callwatch

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/callwatch/callwatch/internal/policy"
	"github.com/callwatch/callwatch/internal/shim"
	"github.com/callwatch/callwatch/internal/transport"
)

// Tracer reports the calls a process makes through it. Every method
// executes the real operation and returns its result untouched; the
// report, when the call is interesting, goes to the collector on a
// best-effort basis. Safe for concurrent use.
type Tracer struct {
	sh *shim.Shim
}

// New creates a Tracer. Construction cannot fail: a missing or dead
// collector only means silence.
func New(opts ...Option) *Tracer {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	shimOpts := make([]shim.Option, 0, 3)
	if cfg.socket != "" {
		shimOpts = append(shimOpts, shim.WithSession(transport.NewWithEndpoint(cfg.socket)))
	}
	if cfg.watchlist != nil {
		shimOpts = append(shimOpts, shim.WithPolicy(policy.New(policy.Watchlist{
			OpenPaths:  cfg.watchlist.OpenPaths,
			FopenPaths: cfg.watchlist.FopenPaths,
		})))
	}
	if cfg.noAutoDial {
		shimOpts = append(shimOpts, shim.WithDeferredConnect())
	}

	return &Tracer{sh: shim.New(shimOpts...)}
}

// Execve replaces the process image. It returns only on failure.
func (t *Tracer) Execve(path string, argv, envv []string) error {
	return t.sh.Execve(path, argv, envv)
}

// System runs command through /bin/sh -c and returns its exit code.
func (t *Tracer) System(command string) (int, error) {
	return t.sh.System(command)
}

// Popen starts command through /bin/sh -c with one piped stream:
// the child's stdout for mode "r", its stdin for mode "w".
func (t *Tracer) Popen(command, mode string) (*Pipe, error) {
	return t.sh.Popen(command, mode)
}

// Socket creates a socket.
func (t *Tracer) Socket(domain, typ, proto int) (int, error) {
	return t.sh.Socket(domain, typ, proto)
}

// Connect connects fd to sa.
func (t *Tracer) Connect(fd int, sa unix.Sockaddr) error {
	return t.sh.Connect(fd, sa)
}

// Bind binds fd to sa.
func (t *Tracer) Bind(fd int, sa unix.Sockaddr) error {
	return t.sh.Bind(fd, sa)
}

// Open opens path with open(2) semantics.
func (t *Tracer) Open(path string, flags int, mode uint32) (int, error) {
	return t.sh.Open(path, flags, mode)
}

// Fopen opens path with stdio mode-string semantics.
func (t *Tracer) Fopen(path, mode string) (*os.File, error) {
	return t.sh.Fopen(path, mode)
}

// Unlink removes a file.
func (t *Tracer) Unlink(path string) error {
	return t.sh.Unlink(path)
}

// Remove removes a file or an empty directory.
func (t *Tracer) Remove(path string) error {
	return t.sh.Remove(path)
}

// Ptrace issues a raw ptrace request.
func (t *Tracer) Ptrace(request, pid int, addr, data uintptr) (int64, error) {
	return t.sh.Ptrace(request, pid, addr, data)
}

// Chmod changes path's permission bits.
func (t *Tracer) Chmod(path string, mode uint32) error {
	return t.sh.Chmod(path, mode)
}

// Chown changes path's owner and group.
func (t *Tracer) Chown(path string, uid, gid int) error {
	return t.sh.Chown(path, uid, gid)
}

// Setuid changes the process uid.
func (t *Tracer) Setuid(uid int) error {
	return t.sh.Setuid(uid)
}

// Setgid changes the process gid.
func (t *Tracer) Setgid(gid int) error {
	return t.sh.Setgid(gid)
}

// Fork clones the process. The child's collector session resets
// automatically; its next interesting call dials a fresh connection.
func (t *Tracer) Fork() (int, error) {
	return t.sh.Fork()
}

// OnForkChild resets the collector session after a fork made outside
// the Fork method.
func (t *Tracer) OnForkChild() {
	t.sh.OnForkChild()
}

// Hooks lists the wrapped entry points.
func (t *Tracer) Hooks() []Hook {
	entries := t.sh.Registry().Entries()
	hooks := make([]Hook, len(entries))
	for i, e := range entries {
		hooks[i] = Hook{
			Name:     e.Name,
			Category: string(e.Category),
			Filter:   e.Filter,
		}
	}
	return hooks
}

// State reports the collector session state: "connected",
// "send-failed" or "disconnected".
func (t *Tracer) State() string {
	return t.sh.State().String()
}

// Stats reports delivery counters since creation or the last fork.
func (t *Tracer) Stats() Stats {
	return toStats(t.sh.Stats())
}

// Close releases the collector session. Calls made afterwards still
// execute; they just stop reporting.
func (t *Tracer) Close() {
	t.sh.Close()
}
