package collector

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/callwatch/callwatch/internal/event"
)

// eventBuffer bounds the decoded-event channel. When the consumer
// falls behind, the listener keeps draining sockets and counts the
// overflow instead of stalling senders.
const eventBuffer = 256

// maxLineBytes bounds the per-connection scanner. Well-formed senders
// stay under the event line budget; anything longer is not ours.
const maxLineBytes = 4096

// ListenerStats counts what a listener has seen.
type ListenerStats struct {
	Connections int
	Lines       int
	Malformed   int
	Overflow    int
}

// Listener accepts shim connections on a unix socket and decodes the
// newline-delimited events they send. Decoded events come out of
// Events; malformed input is counted and dropped, never fatal.
type Listener struct {
	path   string
	ln     net.Listener
	events chan event.Event

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	stats   ListenerStats
	closing bool

	wg sync.WaitGroup
}

// Listen binds a unix socket at path and starts accepting. A stale
// socket file with no listener behind it is removed and rebound; a
// live listener is an error.
func Listen(path string) (*Listener, error) {
	ln, err := net.Listen("unix", path)
	if err != nil && errors.Is(err, unix.EADDRINUSE) {
		if conn, derr := net.Dial("unix", path); derr == nil {
			conn.Close()
			return nil, fmt.Errorf("collector: %s already has a listener", path)
		}
		if rerr := os.Remove(path); rerr != nil {
			return nil, fmt.Errorf("collector: remove stale socket %s: %w", path, rerr)
		}
		ln, err = net.Listen("unix", path)
	}
	if err != nil {
		return nil, fmt.Errorf("collector: listen %s: %w", path, err)
	}

	l := &Listener{
		path:   path,
		ln:     ln,
		events: make(chan event.Event, eventBuffer),
		conns:  make(map[net.Conn]struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l, nil
}

// Path returns the socket path the listener is bound to.
func (l *Listener) Path() string { return l.path }

// Events returns the decoded-event stream. The channel closes after
// Close once every connection has drained.
func (l *Listener) Events() <-chan event.Event { return l.events }

// Stats returns a snapshot of the listener counters.
func (l *Listener) Stats() ListenerStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Close stops accepting, closes open connections and waits for the
// readers to finish, then closes the event channel.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return nil
	}
	l.closing = true
	open := make([]net.Conn, 0, len(l.conns))
	for c := range l.conns {
		open = append(open, c)
	}
	l.mu.Unlock()

	err := l.ln.Close()
	for _, c := range open {
		c.Close()
	}
	l.wg.Wait()
	close(l.events)
	return err
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return
		}
		l.mu.Lock()
		if l.closing {
			l.mu.Unlock()
			conn.Close()
			return
		}
		l.conns[conn] = struct{}{}
		l.stats.Connections++
		l.mu.Unlock()

		l.wg.Add(1)
		go l.serve(conn)
	}
}

func (l *Listener) serve(conn net.Conn) {
	defer l.wg.Done()
	defer func() {
		conn.Close()
		l.mu.Lock()
		delete(l.conns, conn)
		l.mu.Unlock()
	}()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, maxLineBytes), maxLineBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev event.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			l.mu.Lock()
			l.stats.Malformed++
			l.mu.Unlock()
			continue
		}
		l.mu.Lock()
		l.stats.Lines++
		l.mu.Unlock()

		select {
		case l.events <- ev:
		default:
			l.mu.Lock()
			l.stats.Overflow++
			l.mu.Unlock()
		}
	}
}
