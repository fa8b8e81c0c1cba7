package transport

import (
	"fmt"
	"os"
	"sync"
)

// EnvSocket is the environment variable naming the collector's unix
// stream socket. Unset or empty disables telemetry for the whole
// process lifetime.
const EnvSocket = "SANDBOX_SOCKET"

// Session owns the process's collector connection: one descriptor, one
// connect attempt, non-blocking sends, loss always tolerated. Methods
// are safe for concurrent use. The zero value is not usable; call New.
type Session struct {
	mu         sync.Mutex
	fd         int
	state      State
	armed      bool
	noEndpoint bool
	endpoint   string
	pinned     bool
	stats      Stats
}

// New returns an unarmed session. The endpoint is read from EnvSocket
// on the first Connect or Send.
func New() *Session {
	return &Session{fd: -1}
}

// NewWithEndpoint pins the endpoint path, bypassing EnvSocket. An
// empty path behaves like an unset variable.
func NewWithEndpoint(path string) *Session {
	return &Session{fd: -1, endpoint: path, pinned: true}
}

// Connect arms the session and makes its single connect attempt.
// Calling it again is a no-op: the outcome, success or failure, sticks
// until OnForkChild. The error is diagnostic only; the session is
// usable (and merely silent) either way.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked()
}

func (s *Session) connectLocked() error {
	if s.armed {
		return nil
	}
	s.armed = true

	path := s.endpoint
	if !s.pinned {
		path = os.Getenv(EnvSocket)
	}
	if path == "" {
		s.noEndpoint = true
		return nil
	}

	fd, err := dial(path)
	if err != nil {
		return fmt.Errorf("dial %s: %w", path, err)
	}
	s.fd = fd
	s.state = StateConnected
	return nil
}

// Send attempts one non-blocking write of line. It never blocks,
// retries, or queues; on any failure the line is gone. The result is
// advisory and callers discard it.
func (s *Session) Send(line []byte) SendResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fd < 0 {
		_ = s.connectLocked()
		if s.fd < 0 {
			reason := DropNotConnected
			if s.noEndpoint {
				reason = DropNoEndpoint
			}
			return s.finish(Dropped(reason))
		}
	}

	n, err := sendNonblock(s.fd, line)
	switch {
	case isWouldBlock(err):
		s.state = StateSendFailed
		return s.finish(Dropped(DropWouldBlock))
	case err != nil || n < len(line):
		// Descriptor kept; a later send may still land.
		s.state = StateSendFailed
		return s.finish(Dropped(DropSendFailed))
	}
	s.state = StateConnected
	return s.finish(Delivered())
}

func (s *Session) finish(r SendResult) SendResult {
	s.stats.count(r)
	return r
}

// RecordDrop counts a drop decided before the session was involved (an
// oversize encode, for example) so Stats covers every produced event.
func (s *Session) RecordDrop(reason DropReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.count(Dropped(reason))
}

// OnForkChild resets the child's copy of an inherited session: the
// inherited descriptor is closed and the session disarms, so the
// child's next interesting call dials its own connection. Call this in
// the child only; the parent's session is untouched by fork.
func (s *Session) OnForkChild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fd >= 0 {
		closeFD(s.fd)
		s.fd = -1
	}
	s.state = StateDisconnected
	s.armed = false
	s.noEndpoint = false
	s.stats = Stats{}
}

// Close releases the descriptor at process exit. Errors are ignored;
// telemetry stays best-effort to the end. The session remains armed: a
// closed session never reconnects.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fd >= 0 {
		closeFD(s.fd)
		s.fd = -1
	}
	s.state = StateDisconnected
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the delivery counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
