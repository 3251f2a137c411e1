// Package history implements the on-disk query history log: one JSON object
// per line, appended as each query executes and read back through All and
// SearchPrefix. No key binding reads the store: Ctrl-R and the up/down
// arrows in Command mode do not consult it.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gridwalk-cli/gridwalk"
	"go.uber.org/zap"
)

// Entry is one executed query, recorded in arrival order.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Source    string    `json:"source,omitempty"` // the buffer's file path, if any
}

// Store is the append-only JSONL history log for one engine session.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// Open loads the existing history file (if any) and prepares it for
// appending. A corrupt file (one with an unparsable line) is renamed aside
// with a ".corrupt.<unix-nanoseconds>" suffix and the store restarts empty, rather than
// blocking startup on a bad log.
func Open(cfg gridwalk.HistoryConfig) (*Store, error) {
	if !cfg.Enabled {
		return &Store{}, nil
	}
	dir := cfg.Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, gridwalk.NewRuntimeError("history_dir_unavailable", err.Error()).WithCause(err)
		}
		dir = filepath.Join(base, "gridwalk")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, gridwalk.NewRuntimeError("history_dir_create_failed", err.Error()).WithCause(err)
	}

	path := filepath.Join(dir, "history.jsonl")
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return gridwalk.NewRuntimeError("history_open_failed", err.Error()).WithCause(err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			zap.S().Warnw("corrupt history entry, quarantining file", "path", s.path, "err", err)
			return s.quarantine()
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		zap.S().Warnw("error reading history file, quarantining", "path", s.path, "err", err)
		return s.quarantine()
	}
	s.entries = entries
	return nil
}

func (s *Store) quarantine() error {
	corrupt := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UnixNano())
	if err := os.Rename(s.path, corrupt); err != nil && !os.IsNotExist(err) {
		return gridwalk.NewRuntimeError("history_quarantine_failed", err.Error()).WithCause(err)
	}
	s.entries = nil
	return nil
}

// Append records one query, both in memory and on disk.
func (s *Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if s.path == "" {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return gridwalk.NewRuntimeError("history_append_failed", err.Error()).WithCause(err)
	}
	defer f.Close()
	line, err := json.Marshal(e)
	if err != nil {
		return gridwalk.NewInternalError("history_marshal_failed", err.Error())
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return gridwalk.NewRuntimeError("history_write_failed", err.Error()).WithCause(err)
	}
	return nil
}

// All returns every recorded entry, oldest first.
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// SearchPrefix returns entries (newest first) whose query contains pattern,
// compared case-insensitively.
func (s *Store) SearchPrefix(pattern string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(s.entries[i].Query), strings.ToLower(pattern)) {
			out = append(out, s.entries[i])
		}
	}
	return out
}
