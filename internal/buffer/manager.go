package buffer

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/dispatch"
	"github.com/gridwalk-cli/gridwalk/internal/loader"
	"github.com/gridwalk-cli/gridwalk/internal/table"
	"go.uber.org/zap"
)

// Manager holds an ordered list of Buffers, an active index, and the shared
// DuckDB handle every Buffer's DataTable is backed by. It satisfies
// internal/dispatch.Buffers.
type Manager struct {
	cfg     gridwalk.Config
	db      *sql.DB
	buffers []*Buffer
	active  int
}

// NewManager builds an empty BufferManager sharing one in-memory DuckDB
// instance across every Buffer it opens (DataTable already scopes each
// buffer to its own table name, so one connection pool is sufficient).
func NewManager(cfg gridwalk.Config, db *sql.DB) *Manager {
	return &Manager{cfg: cfg, db: db}
}

// Active returns the current Buffer as a dispatch.Target, or nil if no
// buffer has been opened yet.
func (m *Manager) Active() dispatch.Target {
	if len(m.buffers) == 0 {
		return nil
	}
	return m.buffers[m.active]
}

// ActiveBuffer returns the concrete current Buffer, for callers (the render
// loop, cmd/gridwalk) that need more than the dispatch.Target surface.
func (m *Manager) ActiveBuffer() *Buffer {
	if len(m.buffers) == 0 {
		return nil
	}
	return m.buffers[m.active]
}

// Count returns the number of open buffers.
func (m *Manager) Count() int { return len(m.buffers) }

// Next switches to the following buffer, wrapping around.
func (m *Manager) Next() {
	if len(m.buffers) == 0 {
		return
	}
	m.active = (m.active + 1) % len(m.buffers)
}

// Prev switches to the preceding buffer, wrapping around.
func (m *Manager) Prev() {
	if len(m.buffers) == 0 {
		return
	}
	m.active = (m.active - 1 + len(m.buffers)) % len(m.buffers)
}

// Goto switches to buffer index n. Returns false (a no-op) if n is out of range.
func (m *Manager) Goto(n int) bool {
	if n < 0 || n >= len(m.buffers) {
		return false
	}
	m.active = n
	return true
}

// Open loads path (a local file or an http(s)/s3 URL) into a new Buffer and
// makes it active. A format or content error leaves the current buffer set
// untouched.
func (m *Manager) Open(ctx context.Context, path string) error {
	header, rows, err := m.decode(ctx, path)
	if err != nil {
		return err
	}
	dt, err := table.Load(ctx, m.db, m.cfg, header, rows)
	if err != nil {
		return err
	}
	b := New(m.cfg, path, dt)
	if active := m.ActiveBuffer(); active != nil {
		b.SetTerminalSize(active.termRows, active.termCols)
	}
	m.buffers = append(m.buffers, b)
	m.active = len(m.buffers) - 1
	zap.S().Infow("opened buffer", "path", path, "rows", dt.RowCount(), "columns", dt.ColumnCount())
	return nil
}

// decode dispatches path to the remote fetcher or a local file, then to the
// CSV or JSON decoder chosen by the path's extension.
func (m *Manager) decode(ctx context.Context, path string) ([]string, [][]string, error) {
	isRemote := strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "s3://")
	if isRemote {
		rc, err := loader.FetchRemote(ctx, path, m.cfg.Query.DefaultTimeout)
		if err != nil {
			return nil, nil, err
		}
		defer rc.Close()
		return decodeByExtension(path, rc)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, gridwalk.NewLoadError("file_open_failed", err.Error()).WithCause(err)
	}
	defer f.Close()
	return decodeByExtension(path, f)
}

func decodeByExtension(path string, r io.Reader) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loader.DecodeJSON(r)
	case ".csv", "":
		return loader.DecodeCSV(r)
	default:
		return nil, nil, gridwalk.NewLoadError("unsupported_extension", "unsupported file extension: "+filepath.Ext(path))
	}
}

// Close closes the active buffer. Reports true when that was the last
// buffer, signalling the application should quit.
func (m *Manager) Close() bool {
	if len(m.buffers) == 0 {
		return true
	}
	m.buffers = append(m.buffers[:m.active], m.buffers[m.active+1:]...)
	if len(m.buffers) == 0 {
		m.active = 0
		return true
	}
	if m.active >= len(m.buffers) {
		m.active = len(m.buffers) - 1
	}
	return false
}
