package shim

import (
	"os"

	"golang.org/x/sys/unix"
)

// Every wrapper follows the same sequence: memoize the real
// implementation, report the call if its filter fires, execute the
// real call, return its result verbatim. Resolution failure is the one
// case with nothing to execute; the call is still reported before the
// error comes back.

// Execve reports the exec attempt, then replaces the process image.
// It returns only on failure.
func (sh *Shim) Execve(path string, argv, envv []string) error {
	e := sh.registry.mustLookup("execve")
	fn, err := resolveAs[ExecveFunc](e, sh.resolver)
	sh.observe(e, Call{Path: path})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(path, argv, envv)
}

// System runs command through the shell and returns its exit code.
func (sh *Shim) System(command string) (int, error) {
	e := sh.registry.mustLookup("system")
	fn, err := resolveAs[SystemFunc](e, sh.resolver)
	sh.observe(e, Call{Command: command})
	if err != nil {
		return -1, &ResolveError{Name: e.Name, Err: err}
	}
	return fn(command)
}

// Popen starts a piped shell command; mode "r" reads its stdout, "w"
// feeds its stdin.
func (sh *Shim) Popen(command, mode string) (*Pipe, error) {
	e := sh.registry.mustLookup("popen")
	fn, err := resolveAs[PopenFunc](e, sh.resolver)
	sh.observe(e, Call{Command: command})
	if err != nil {
		return nil, &ResolveError{Name: e.Name, Err: err}
	}
	return fn(command, mode)
}

// Socket creates a socket. Only non-local domains are reported.
func (sh *Shim) Socket(domain, typ, proto int) (int, error) {
	e := sh.registry.mustLookup("socket")
	fn, err := resolveAs[SocketFunc](e, sh.resolver)
	sh.observe(e, Call{Domain: domain, Type: typ})
	if err != nil {
		return -1, &ResolveError{Name: e.Name, Err: err}
	}
	return fn(domain, typ, proto)
}

// Connect connects fd to sa. A nil sa mirrors a caller passing no
// address; it is forwarded untouched.
func (sh *Shim) Connect(fd int, sa unix.Sockaddr) error {
	e := sh.registry.mustLookup("connect")
	family, has := sockaddrFamily(sa)
	fn, err := resolveAs[ConnectFunc](e, sh.resolver)
	sh.observe(e, Call{Family: family, HasAddr: has})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(fd, sa)
}

// Bind binds fd to sa.
func (sh *Shim) Bind(fd int, sa unix.Sockaddr) error {
	e := sh.registry.mustLookup("bind")
	family, has := sockaddrFamily(sa)
	fn, err := resolveAs[BindFunc](e, sh.resolver)
	sh.observe(e, Call{Family: family, HasAddr: has})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(fd, sa)
}

// Open opens path. Reported only for write-intent opens of watched
// paths.
func (sh *Shim) Open(path string, flags int, mode uint32) (int, error) {
	e := sh.registry.mustLookup("open")
	fn, err := resolveAs[OpenFunc](e, sh.resolver)
	sh.observe(e, Call{Path: path, Flags: flags})
	if err != nil {
		return -1, &ResolveError{Name: e.Name, Err: err}
	}
	return fn(path, flags, mode)
}

// Fopen opens path with stdio mode semantics. Reported only for write
// modes on watched paths.
func (sh *Shim) Fopen(path, mode string) (*os.File, error) {
	e := sh.registry.mustLookup("fopen")
	fn, err := resolveAs[FopenFunc](e, sh.resolver)
	sh.observe(e, Call{Path: path, Mode: mode})
	if err != nil {
		return nil, &ResolveError{Name: e.Name, Err: err}
	}
	return fn(path, mode)
}

// Unlink removes a name from the filesystem.
func (sh *Shim) Unlink(path string) error {
	e := sh.registry.mustLookup("unlink")
	fn, err := resolveAs[UnlinkFunc](e, sh.resolver)
	sh.observe(e, Call{Path: path})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(path)
}

// Remove removes a file or an empty directory.
func (sh *Shim) Remove(path string) error {
	e := sh.registry.mustLookup("remove")
	fn, err := resolveAs[RemoveFunc](e, sh.resolver)
	sh.observe(e, Call{Path: path})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(path)
}

// Ptrace issues a ptrace request.
func (sh *Shim) Ptrace(request, pid int, addr, data uintptr) (int64, error) {
	e := sh.registry.mustLookup("ptrace")
	fn, err := resolveAs[PtraceFunc](e, sh.resolver)
	sh.observe(e, Call{Request: request})
	if err != nil {
		return 0, &ResolveError{Name: e.Name, Err: err}
	}
	return fn(request, pid, addr, data)
}

// Chmod changes the permissions of path.
func (sh *Shim) Chmod(path string, mode uint32) error {
	e := sh.registry.mustLookup("chmod")
	fn, err := resolveAs[ChmodFunc](e, sh.resolver)
	sh.observe(e, Call{Path: path, FileMode: mode})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(path, mode)
}

// Chown changes the ownership of path.
func (sh *Shim) Chown(path string, uid, gid int) error {
	e := sh.registry.mustLookup("chown")
	fn, err := resolveAs[ChownFunc](e, sh.resolver)
	sh.observe(e, Call{Path: path, UID: uid, GID: gid})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(path, uid, gid)
}

// Setuid sets the real user id.
func (sh *Shim) Setuid(uid int) error {
	e := sh.registry.mustLookup("setuid")
	fn, err := resolveAs[SetuidFunc](e, sh.resolver)
	sh.observe(e, Call{UID: uid})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(uid)
}

// Setgid sets the real group id.
func (sh *Shim) Setgid(gid int) error {
	e := sh.registry.mustLookup("setgid")
	fn, err := resolveAs[SetgidFunc](e, sh.resolver)
	sh.observe(e, Call{GID: gid})
	if err != nil {
		return &ResolveError{Name: e.Name, Err: err}
	}
	return fn(gid)
}

// Fork clones the process. The parent's event is emitted before the
// clone; the child's inherited session is reset on the way out, so its
// first interesting call dials a connection of its own.
func (sh *Shim) Fork() (int, error) {
	e := sh.registry.mustLookup("fork")
	fn, err := resolveAs[ForkFunc](e, sh.resolver)
	sh.observe(e, Call{})
	if err != nil {
		return -1, &ResolveError{Name: e.Name, Err: err}
	}
	pid, err := fn()
	if err == nil && pid == 0 {
		sh.OnForkChild()
	}
	return pid, err
}

// sockaddrFamily classifies a target address. Unknown concrete types
// still count as present; only AF_UNIX is quiet, so an unclassified
// family reports.
func sockaddrFamily(sa unix.Sockaddr) (int, bool) {
	switch sa.(type) {
	case nil:
		return unix.AF_UNSPEC, false
	case *unix.SockaddrInet4:
		return unix.AF_INET, true
	case *unix.SockaddrInet6:
		return unix.AF_INET6, true
	case *unix.SockaddrUnix:
		return unix.AF_UNIX, true
	default:
		return unix.AF_UNSPEC, true
	}
}
