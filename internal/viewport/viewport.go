// Package viewport implements ViewportManager: the sole owner of column
// width computation, the visible row window, and crosshair movement,
// computed from (DataView, terminal size, lock flags, crosshair). Column
// widths are cached until SetTerminalSize, SetPackingMode, SetCompact or
// Invalidate clears the cache; moving the crosshair or scrolling the row
// window does not recompute them.
package viewport

import (
	"context"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/view"
)

// PackingMode controls how slack horizontal space is distributed across
// rendered columns.
type PackingMode string

const (
	PackDataFocus   PackingMode = "data_focus"
	PackHeaderFocus PackingMode = "header_focus"
	PackBalanced    PackingMode = "balanced"
)

// Axis mirrors gridwalk.Axis for crosshair movement, kept as a local alias
// so this package reads standalone.
type Axis = gridwalk.Axis

// Manager is the single owner of viewport geometry for one Buffer.
type Manager struct {
	view *view.DataView

	termRows, termCols int
	packing            PackingMode
	compact            bool

	crosshairRow int
	crosshairCol int // index into view.DisplayColumns()

	cursorLocked   bool
	viewportLocked bool

	rowOffset int
	colOffset int // scroll offset into the non-pinned tail of DisplayColumns()

	chromeLines  int
	columnCap    int
	compactCap   int
	prefetchRows int

	widthsValid bool
	widths      map[int]int

	// lastVisibleWindow caches the most recent Resolve() rendered-column
	// count, so MoveCrosshair can scroll the non-pinned column window
	// without recomputing widths on every keystroke.
	lastVisibleWindow int
}

// New builds a Manager for v using the geometry defaults in cfg.
func New(v *view.DataView, cfg gridwalk.ViewportConfig) *Manager {
	return &Manager{
		view:         v,
		packing:      PackBalanced,
		chromeLines:  cfg.ChromeLines,
		columnCap:    cfg.ColumnCap,
		compactCap:   cfg.CompactCap,
		prefetchRows: cfg.PrefetchRows,
	}
}

// SetTerminalSize updates terminal geometry and invalidates cached widths.
func (m *Manager) SetTerminalSize(rows, cols int) {
	if rows == m.termRows && cols == m.termCols {
		return
	}
	m.termRows, m.termCols = rows, cols
	m.widthsValid = false
	m.clampRowOffset()
}

// SetPackingMode changes slack distribution and invalidates cached widths.
func (m *Manager) SetPackingMode(mode PackingMode) {
	m.packing = mode
	m.widthsValid = false
}

// SetCompact toggles the lower column-width cap and invalidates cached widths.
func (m *Manager) SetCompact(compact bool) {
	m.compact = compact
	m.widthsValid = false
}

// Compact reports whether compact mode is active.
func (m *Manager) Compact() bool { return m.compact }

// ToggleCursorLock flips cursor-lock mode.
func (m *Manager) ToggleCursorLock() { m.cursorLocked = !m.cursorLocked }

// ToggleViewportLock flips viewport-lock mode.
func (m *Manager) ToggleViewportLock() { m.viewportLocked = !m.viewportLocked }

// CursorLocked reports whether cursor-lock mode is active.
func (m *Manager) CursorLocked() bool { return m.cursorLocked }

// ViewportLocked reports whether viewport-lock mode is active.
func (m *Manager) ViewportLocked() bool { return m.viewportLocked }

// Invalidate must be called whenever the DataView's row or column set
// changes (filter, sort, hide, pin, reorder) so cached widths are recomputed
// and the crosshair/window are re-clamped to the new dimensions.
func (m *Manager) Invalidate() {
	m.widthsValid = false
	m.clampRowOffset()
	m.clampCrosshair()
}

func cap0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ViewportRows returns the number of data rows the terminal has room to draw.
func (m *Manager) ViewportRows() int {
	return cap0(m.termRows - m.chromeLines)
}

// RowWindow returns the currently visible [start, end) row range, clipped to
// the DataView's row count.
func (m *Manager) RowWindow() (int, int) {
	rowCount := m.view.RowCount()
	start := m.rowOffset
	if start > rowCount {
		start = rowCount
	}
	if start < 0 {
		start = 0
	}
	end := start + m.ViewportRows()
	if end > rowCount {
		end = rowCount
	}
	return start, end
}

// Crosshair returns the current (display_row, display_col) position.
// display_col indexes into view.DisplayColumns().
func (m *Manager) Crosshair() (int, int) {
	return m.crosshairRow, m.crosshairCol
}

func (m *Manager) clampRowOffset() {
	rowCount := m.view.RowCount()
	maxOffset := cap0(rowCount - m.ViewportRows())
	if m.rowOffset > maxOffset {
		m.rowOffset = maxOffset
	}
	if m.rowOffset < 0 {
		m.rowOffset = 0
	}
}

func (m *Manager) clampCrosshair() {
	rowCount := m.view.RowCount()
	colCount := len(m.view.DisplayColumns())
	if rowCount == 0 {
		m.crosshairRow = 0
	} else if m.crosshairRow >= rowCount {
		m.crosshairRow = rowCount - 1
	}
	if m.crosshairRow < 0 {
		m.crosshairRow = 0
	}
	if colCount == 0 {
		m.crosshairCol = 0
	} else if m.crosshairCol >= colCount {
		m.crosshairCol = colCount - 1
	}
	if m.crosshairCol < 0 {
		m.crosshairCol = 0
	}
}

// widthCap returns the per-column width cap for the current compact setting.
func (m *Manager) widthCap() int {
	if m.compact {
		return m.compactCap
	}
	return m.columnCap
}

// ColumnWidths returns the cached (or freshly computed) display width for
// every column in view.DisplayColumns() order, sampled over the current row
// window plus a small prefetch.
func (m *Manager) ColumnWidths(ctx context.Context) (map[int]int, error) {
	if m.widthsValid {
		return m.widths, nil
	}
	if err := m.recomputeWidths(ctx); err != nil {
		return nil, err
	}
	return m.widths, nil
}

func (m *Manager) recomputeWidths(ctx context.Context) error {
	disp := m.view.DisplayColumns()
	cols := m.view.Source().Columns()
	widths := make(map[int]int, len(disp))
	for _, idx := range disp {
		widths[idx] = len(cols[idx].Name)
	}

	start, end := m.RowWindow()
	sampleEnd := end + m.prefetchRows
	if rc := m.view.RowCount(); sampleEnd > rc {
		sampleEnd = rc
	}
	seqs := m.view.VisibleRows()[start:sampleEnd]
	if len(seqs) > 0 {
		rows, err := m.view.Source().FetchRows(ctx, seqs)
		if err != nil {
			return err
		}
		for _, row := range rows {
			for _, idx := range disp {
				if n := len(row.Values[idx].String()); n > widths[idx] {
					widths[idx] = n
				}
			}
		}
	}

	wcap := m.widthCap()
	for idx, w := range widths {
		if w > wcap {
			widths[idx] = wcap
		}
	}
	m.widths = widths
	m.widthsValid = true
	return nil
}

// RenderPlan is what ViewportManager resolves for one frame: which pinned
// columns are drawn (always, left-anchored), which non-pinned visible
// columns fit in the remaining width, and each column's resolved width.
type RenderPlan struct {
	PinnedColumns  []int
	RenderedRange  []int // non-pinned columns actually fitting on screen
	Widths         map[int]int
	PinnedOverflow bool
}

// Resolve computes the current frame's column layout: pinned columns take
// their widths first (and may overflow the terminal), then as many leading
// non-pinned visible columns as fit are included, with Balanced packing
// distributing remaining slack evenly up to the cap.
func (m *Manager) Resolve(ctx context.Context) (RenderPlan, error) {
	widths, err := m.ColumnWidths(ctx)
	if err != nil {
		return RenderPlan{}, err
	}
	pinned := m.view.PinnedColumns()
	visible := m.view.VisibleColumns()

	used := 0
	overflow := false
	for _, idx := range pinned {
		used += widths[idx]
	}
	if used > m.termCols {
		overflow = true
	}

	remaining := m.termCols - used
	var rendered []int
	start := m.colOffset
	if start > len(visible) {
		start = len(visible)
	}
	for i := start; i < len(visible); i++ {
		w := widths[visible[i]]
		if remaining-w < 0 && len(rendered) > 0 {
			break
		}
		rendered = append(rendered, visible[i])
		remaining -= w
	}

	if m.packing == PackBalanced && len(rendered) > 0 && remaining > 0 {
		share := remaining / len(rendered)
		if share > 0 {
			wcap := m.widthCap()
			for _, idx := range rendered {
				if widths[idx]+share <= wcap {
					widths[idx] += share
				}
			}
		}
	}

	if len(rendered) > 0 {
		m.lastVisibleWindow = len(rendered)
	}

	return RenderPlan{
		PinnedColumns:  append([]int(nil), pinned...),
		RenderedRange:  rendered,
		Widths:         widths,
		PinnedOverflow: overflow,
	}, nil
}
