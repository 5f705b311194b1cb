package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/roach88/dumpsplit/internal/sink"
)

// MemoryOpener is an in-memory sink.Opener.
//
// It records every artifact written and tracks how many table sinks are open
// at once, so tests can assert the single-open-table invariant. Table sinks
// are the ones whose path has a directory component ("db/table.sql");
// database artifacts live at the root ("db.sql").
//
// Failures can be injected per path with FailOpen and FailWrite.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type MemoryOpener struct {
	mu sync.Mutex

	files map[string]*bytes.Buffer
	dirs  map[string]bool
	opens map[string]int

	openTables    int
	MaxOpenTables int

	// FailOpen makes Open(path) return the mapped error.
	FailOpen map[string]error

	// FailWrite makes writes to path return the mapped error.
	FailWrite map[string]error
}

// NewMemoryOpener creates an empty MemoryOpener.
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{
		files:     map[string]*bytes.Buffer{},
		dirs:      map[string]bool{},
		opens:     map[string]int{},
		FailOpen:  map[string]error{},
		FailWrite: map[string]error{},
	}
}

// EnsureDir records rel as created.
func (m *MemoryOpener) EnsureDir(rel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[rel] = true
	return nil
}

// Open creates or truncates the in-memory artifact at rel.
func (m *MemoryOpener) Open(rel string) (sink.Sink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailOpen[rel]; err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	m.files[rel] = buf
	m.opens[rel]++

	table := path.Dir(rel) != "."
	if table {
		m.openTables++
		if m.openTables > m.MaxOpenTables {
			m.MaxOpenTables = m.openTables
		}
	}
	return &memorySink{opener: m, path: rel, buf: buf, table: table}, nil
}

// Files returns a copy of every artifact's content keyed by path.
func (m *MemoryOpener) Files() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.files))
	for p, buf := range m.files {
		out[p] = buf.String()
	}
	return out
}

// Paths returns the artifact paths in sorted order.
func (m *MemoryOpener) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// File returns the content written to rel and whether it exists.
func (m *MemoryOpener) File(rel string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.files[rel]
	if !ok {
		return "", false
	}
	return buf.String(), true
}

// Dirs returns the directories created through EnsureDir, sorted.
func (m *MemoryOpener) Dirs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	dirs := make([]string, 0, len(m.dirs))
	for d := range m.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// OpenCount returns how many times rel was opened.
func (m *MemoryOpener) OpenCount(rel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[rel]
}

// OpenTables returns how many table sinks are currently open.
func (m *MemoryOpener) OpenTables() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openTables
}

type memorySink struct {
	opener *MemoryOpener
	path   string
	buf    *bytes.Buffer
	table  bool
	closed bool
}

func (s *memorySink) Write(p []byte) (int, error) {
	s.opener.mu.Lock()
	defer s.opener.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("write %s: %w", s.path, os.ErrClosed)
	}
	if err := s.opener.FailWrite[s.path]; err != nil {
		return 0, err
	}
	return s.buf.Write(p)
}

func (s *memorySink) Close() error {
	s.opener.mu.Lock()
	defer s.opener.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.table {
		s.opener.openTables--
	}
	return nil
}

func (s *memorySink) Path() string { return s.path }
