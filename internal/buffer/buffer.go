// Package buffer implements Buffer, the unit BufferManager switches between:
// one loaded DataTable plus its DataView, ViewportManager, StateManager, and
// command-line input/edit state. Buffer is the concrete type that satisfies
// internal/dispatch.Target.
package buffer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/queryengine"
	"github.com/gridwalk-cli/gridwalk/internal/sqlparse"
	"github.com/gridwalk-cli/gridwalk/internal/state"
	"github.com/gridwalk-cli/gridwalk/internal/table"
	"github.com/gridwalk-cli/gridwalk/internal/view"
	"github.com/gridwalk-cli/gridwalk/internal/viewport"
)

// Buffer owns one DataTable and every piece of per-tab UI state that must
// survive a buffer switch: view, viewport, state machine, input text and
// cursor, and an undo/redo stack over input edits only (not data mutations
// — DataTable itself is immutable once loaded).
type Buffer struct {
	cfg   gridwalk.Config
	path  string
	table *table.DataTable

	view *view.DataView
	vp   *viewport.Manager
	sm   *state.Manager

	termRows, termCols int
	lineNumbers        bool

	inputText   string
	inputCursor int
	undo        []string
	redo        []string

	lastStatus string
}

// New builds a Buffer over an already-loaded DataTable, starting with an
// identity view (no filter, sort, hidden, or pinned columns).
func New(cfg gridwalk.Config, path string, t *table.DataTable) *Buffer {
	v := view.NewIdentityView(t)
	vp := viewport.New(v, cfg.Viewport)
	return &Buffer{
		cfg:   cfg,
		path:  path,
		table: t,
		view:  v,
		vp:    vp,
		sm:    state.New(),
	}
}

// Path returns the source path (file, or a synthetic label for stdin/API buffers).
func (b *Buffer) Path() string { return b.path }

// View returns the active DataView. Part of internal/dispatch.Target.
func (b *Buffer) View() *view.DataView { return b.view }

// Viewport returns the active ViewportManager. Part of internal/dispatch.Target.
func (b *Buffer) Viewport() *viewport.Manager { return b.vp }

// State returns the Buffer's StateManager. Part of internal/dispatch.Target.
func (b *Buffer) State() *state.Manager { return b.sm }

// LineNumbers reports whether the gutter shows row numbers.
func (b *Buffer) LineNumbers() bool { return b.lineNumbers }

// SetLineNumbers toggles the row-number gutter.
func (b *Buffer) SetLineNumbers(v bool) { b.lineNumbers = v }

// InputText returns the current command-line / search input buffer contents.
func (b *Buffer) InputText() string { return b.inputText }

// SetInputText replaces the input buffer, pushing the previous contents onto
// the undo stack (bounded to 50 entries) and clearing the redo stack, the
// same one-level-deeper-on-edit / flush-on-diverge convention as a typical
// line editor's undo history.
func (b *Buffer) SetInputText(s string) {
	if s == b.inputText {
		return
	}
	b.undo = append(b.undo, b.inputText)
	if len(b.undo) > 50 {
		b.undo = b.undo[len(b.undo)-50:]
	}
	b.redo = nil
	b.inputText = s
	b.inputCursor = len(s)
}

// UndoInput reverts to the previous input-buffer contents, if any.
func (b *Buffer) UndoInput() bool {
	if len(b.undo) == 0 {
		return false
	}
	prev := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]
	b.redo = append(b.redo, b.inputText)
	b.inputText = prev
	b.inputCursor = len(prev)
	return true
}

// RedoInput re-applies an input-buffer edit undone by UndoInput, if any.
func (b *Buffer) RedoInput() bool {
	if len(b.redo) == 0 {
		return false
	}
	next := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]
	b.undo = append(b.undo, b.inputText)
	b.inputText = next
	b.inputCursor = len(next)
	return true
}

// SetTerminalSize propagates terminal geometry to the viewport.
func (b *Buffer) SetTerminalSize(rows, cols int) {
	b.termRows, b.termCols = rows, cols
	b.vp.SetTerminalSize(rows, cols)
}

// LastStatus returns the most recent status-line message left on this buffer
// (BufferManager restores it verbatim when switching back).
func (b *Buffer) LastStatus() string { return b.lastStatus }

// SetLastStatus records a status-line message against this buffer.
func (b *Buffer) SetLastStatus(msg string) { b.lastStatus = msg }

// ExecuteQuery parses and evaluates text against this buffer's DataTable,
// replacing View and Viewport only on success: the result is materialised
// into both visible_rows and base_rows of a fresh DataView. A parse or
// evaluation failure leaves the existing view untouched.
func (b *Buffer) ExecuteQuery(ctx context.Context, text string) error {
	plan, _, err := sqlparse.Parse(text)
	if err != nil {
		return err
	}
	result, err := queryengine.Evaluate(ctx, b.table, plan)
	if err != nil {
		return err
	}
	newView := view.NewFromQueryResult(b.table, result)
	newViewport := viewport.New(newView, b.cfg.Viewport)
	newViewport.SetTerminalSize(b.termRows, b.termCols)
	newViewport.SetCompact(b.vp.Compact())

	b.view = newView
	b.vp = newViewport
	return nil
}

// Export writes the current view's visible rows and columns to path in the
// given format, returning the resolved path (a timestamped default under the
// working directory when path is empty).
func (b *Buffer) Export(ctx context.Context, kind gridwalk.ExportKind, path string) (string, error) {
	if path == "" {
		path = defaultExportPath(kind)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", gridwalk.NewRuntimeError("export_create_failed", err.Error()).WithCause(err)
	}
	defer f.Close()

	names := b.view.ColumnNames()
	rowCount := b.view.RowCount()
	rows := make([]gridwalk.Row, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		row, err := b.view.GetRow(ctx, i)
		if err != nil {
			return "", err
		}
		rows = append(rows, row)
	}

	switch kind {
	case gridwalk.ExportCSV:
		if err := writeCSV(f, names, rows); err != nil {
			return "", err
		}
	case gridwalk.ExportJSON:
		if err := writeJSON(f, names, rows); err != nil {
			return "", err
		}
	default:
		return "", gridwalk.NewRuntimeError("export_kind_unsupported", fmt.Sprintf("unsupported export kind %q", kind))
	}
	return path, nil
}

func defaultExportPath(kind gridwalk.ExportKind) string {
	ext := "csv"
	if kind == gridwalk.ExportJSON {
		ext = "json"
	}
	return fmt.Sprintf("gridwalk-export-%d.%s", time.Now().UnixNano(), ext)
}

func writeCSV(f *os.File, names []string, rows []gridwalk.Row) error {
	w := csv.NewWriter(f)
	if err := w.Write(names); err != nil {
		return gridwalk.NewRuntimeError("export_csv_header_failed", err.Error()).WithCause(err)
	}
	for _, row := range rows {
		record := make([]string, len(row.Values))
		for i, v := range row.Values {
			record[i] = v.String()
		}
		if err := w.Write(record); err != nil {
			return gridwalk.NewRuntimeError("export_csv_row_failed", err.Error()).WithCause(err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(f *os.File, names []string, rows []gridwalk.Row) error {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		obj := make(map[string]string, len(names))
		for c, name := range names {
			obj[name] = row.Values[c].String()
		}
		out[i] = obj
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return gridwalk.NewRuntimeError("export_json_failed", err.Error()).WithCause(err)
	}
	return nil
}
