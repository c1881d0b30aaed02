// Package filestore owns the generated report files: collision-free
// naming, traversal-safe resolution for download, and idempotent
// deferred deletion.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidFilename rejects names the generator could not have
	// produced, before any filesystem access.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrNotFound covers missing and already-deleted files alike.
	ErrNotFound = errors.New("file not found")
)

// namePattern matches the generator's own output and nothing else.
var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:_[a-z0-9]+)*_\d{8}_\d{6}(?:_\d+)?\.xlsx$`)

type fileState int

const (
	stateCreated fileState = iota
	stateAvailable
	stateDeleted // terminal
)

// Manager tracks every generated file through
// created -> available-for-download -> deleted.
type Manager struct {
	dir    string
	logger zerolog.Logger

	mu      sync.Mutex
	states  map[string]fileState
	lastSec int64
	seq     int
	closed  bool

	sweep chan string
	done  chan struct{}
}

// NewManager creates the output directory if needed and starts the
// deletion sweep.
func NewManager(dir string, logger zerolog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &Manager{
		dir:    dir,
		logger: logger.With().Str("component", "filestore").Logger(),
		states: make(map[string]fileState),
		sweep:  make(chan string, 64),
		done:   make(chan struct{}),
	}
	go m.sweepLoop()
	return m, nil
}

// Close stops the background sweep after draining pending deletions.
// Deletions scheduled after Close run inline. Safe to call twice.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	close(m.sweep)
	<-m.done
}

// NewReportName returns a unique filename for tag, embedding the
// generation timestamp at second resolution. Two names generated within
// the same second differ by a monotonic suffix.
func (m *Manager) NewReportName(tag string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if sec := now.Unix(); sec == m.lastSec {
		m.seq++
	} else {
		m.lastSec = sec
		m.seq = 0
	}

	name := fmt.Sprintf("%s_%s", tag, now.Format("20060102_150405"))
	if m.seq > 0 {
		name = fmt.Sprintf("%s_%d", name, m.seq)
	}
	name += ".xlsx"

	m.states[name] = stateCreated
	return name
}

// Publish writes data under name and makes it available for download.
// The write goes through a temp file and rename so a half-written
// workbook is never resolvable.
func (m *Manager) Publish(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	tmp := filepath.Join(m.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(m.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish report file: %w", err)
	}

	m.mu.Lock()
	m.states[name] = stateAvailable
	m.mu.Unlock()

	m.logger.Info().Str("file", name).Int("bytes", len(data)).Msg("report file published")
	return nil
}

// Resolve validates name and returns the absolute path of an available
// file. Validation happens before any filesystem access; deleted names
// never resurrect.
func (m *Manager) Resolve(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	m.mu.Lock()
	state, known := m.states[name]
	m.mu.Unlock()
	if known && state == stateDeleted {
		return "", ErrNotFound
	}

	path := filepath.Join(m.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// ScheduleDelete marks name as deleted and hands the file to the
// background sweep. Deleting an unknown, missing or already-deleted
// file is a no-op acknowledgement, never an error.
func (m *Manager) ScheduleDelete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	already := m.states[name] == stateDeleted
	m.states[name] = stateDeleted
	if !already && !m.closed {
		select {
		case m.sweep <- name:
			m.mu.Unlock()
			return nil
		default:
			// Sweep backlog full; fall through to the inline delete.
		}
	}
	m.mu.Unlock()

	if !already {
		m.remove(name)
	}
	return nil
}

func (m *Manager) sweepLoop() {
	defer close(m.done)
	for name := range m.sweep {
		m.remove(name)
	}
}

func (m *Manager) remove(name string) {
	path := filepath.Join(m.dir, name)
	err := os.Remove(path)
	switch {
	case err == nil:
		m.logger.Info().Str("file", name).Msg("report file deleted")
	case os.IsNotExist(err):
		m.logger.Debug().Str("file", name).Msg("report file already gone")
	default:
		m.logger.Error().Err(err).Str("file", name).Msg("failed to delete report file")
	}
}

// validateName is the traversal defense: separators and parent
// references are rejected outright, then the name must match the
// generator's pattern.
func validateName(name string) error {
	if name == "" ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") {
		return ErrInvalidFilename
	}
	if !namePattern.MatchString(name) {
		return ErrInvalidFilename
	}
	return nil
}
