package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/callwatch/callwatch/internal/event"
)

// Mirror is an append-only JSONL record of observed events. Lines are
// re-encoded from the decoded events, so a mirror file holds exactly
// the wire format regardless of how the input arrived.
type Mirror struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// OpenMirror opens (or creates) a mirror file for appending.
func OpenMirror(path string) (*Mirror, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("mirror: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("mirror: open file: %w", err)
	}
	return &Mirror{path: path, file: file}, nil
}

// Record appends one event and syncs. Events too large for the wire
// format are rejected, matching what a sender could ever deliver.
func (m *Mirror) Record(ev event.Event) error {
	line, err := event.Line(ev)
	if err != nil {
		return fmt.Errorf("mirror: encode event: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.file.Write(line); err != nil {
		return fmt.Errorf("mirror: write entry: %w", err)
	}
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("mirror: sync: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
