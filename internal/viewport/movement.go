package viewport

import "github.com/gridwalk-cli/gridwalk"

// MoveCrosshair moves the crosshair along axis by delta*count, where count
// is the vim-style count prefix KeyMapper carries in Action.Count, honouring
// cursor_locked / viewport_locked semantics.
func (m *Manager) MoveCrosshair(axis gridwalk.Axis, delta, count int) {
	effective := delta * count
	if effective == 0 {
		return
	}
	if axis == gridwalk.AxisRow {
		m.moveRow(effective)
		return
	}
	m.moveCol(effective)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m *Manager) moveRow(delta int) {
	rowCount := m.view.RowCount()
	if rowCount == 0 {
		return
	}
	viewportRows := m.ViewportRows()

	switch {
	case m.viewportLocked:
		// The window never scrolls; the crosshair stops at its edge.
		lo, hi := m.rowOffset, m.rowOffset+viewportRows-1
		m.crosshairRow = clamp(m.crosshairRow+delta, clamp(lo, 0, rowCount-1), clamp(hi, 0, rowCount-1))
	case m.cursorLocked:
		m.crosshairRow = clamp(m.crosshairRow+delta, 0, rowCount-1)
		m.centerRowOffset()
	default:
		m.crosshairRow = clamp(m.crosshairRow+delta, 0, rowCount-1)
		m.scrollRowToCrosshair()
	}
}

// centerRowOffset keeps the crosshair pinned to the window centre; data
// scrolls under it (cursor_locked semantics).
func (m *Manager) centerRowOffset() {
	viewportRows := m.ViewportRows()
	rowCount := m.view.RowCount()
	offset := m.crosshairRow - viewportRows/2
	maxOffset := cap0(rowCount - viewportRows)
	m.rowOffset = clamp(offset, 0, maxOffset)
}

// scrollRowToCrosshair scrolls the window by the minimum amount needed to
// keep the crosshair inside it (0-line margin), the default (unlocked) mode.
func (m *Manager) scrollRowToCrosshair() {
	viewportRows := m.ViewportRows()
	if m.crosshairRow < m.rowOffset {
		m.rowOffset = m.crosshairRow
	} else if m.crosshairRow >= m.rowOffset+viewportRows {
		m.rowOffset = m.crosshairRow - viewportRows + 1
	}
	m.clampRowOffset()
}

func (m *Manager) moveCol(delta int) {
	disp := m.view.DisplayColumns()
	total := len(disp)
	if total == 0 {
		return
	}
	pinnedCount := m.view.PinnedCount()
	window := m.lastVisibleWindow
	if window <= 0 {
		window = total - pinnedCount
	}

	switch {
	case m.viewportLocked:
		lo := pinnedCount + m.colOffset
		hi := lo + window - 1
		if pinnedCount > 0 {
			lo = 0
		}
		m.crosshairCol = clamp(m.crosshairCol+delta, clamp(lo, 0, total-1), clamp(hi, 0, total-1))
	default:
		m.crosshairCol = clamp(m.crosshairCol+delta, 0, total-1)
		m.scrollColToCrosshair(pinnedCount, window, total)
	}
}

// scrollColToCrosshair scrolls the non-pinned portion to keep the crosshair
// visible. The pinned block (positions < pinnedCount) is always rendered and
// never itself scrolled; moving left past the first unpinned column enters
// it, and moving right past the last pinned column exits it.
func (m *Manager) scrollColToCrosshair(pinnedCount, window, total int) {
	if m.crosshairCol < pinnedCount {
		return // inside the always-rendered pinned block
	}
	posInVisible := m.crosshairCol - pinnedCount
	if posInVisible < m.colOffset {
		m.colOffset = posInVisible
	} else if posInVisible >= m.colOffset+window {
		m.colOffset = posInVisible - window + 1
	}
	maxOffset := cap0(total - pinnedCount - window)
	m.colOffset = clamp(m.colOffset, 0, maxOffset)
}

// PageMove moves the crosshair by viewportRows-1 rows (one-line overlap),
// count times, in the given direction (+1 down, -1 up); the row window then
// follows the crosshair as the lock mode dictates (by default scrolling only
// as far as needed to keep it visible).
func (m *Manager) PageMove(direction, count int) {
	step := (m.ViewportRows() - 1) * direction * count
	if step == 0 {
		return
	}
	m.moveRow(step)
}

// JumpTo resolves the fixed-destination navigation actions.
func (m *Manager) JumpTo(target gridwalk.JumpTarget, row int) {
	rowCount := m.view.RowCount()
	disp := m.view.DisplayColumns()
	switch target {
	case gridwalk.JumpFirst:
		m.crosshairRow = 0
	case gridwalk.JumpLast:
		if rowCount > 0 {
			m.crosshairRow = rowCount - 1
		} else {
			m.crosshairRow = 0
		}
	case gridwalk.JumpRow:
		m.crosshairRow = clamp(row, 0, cap0(rowCount-1))
	case gridwalk.JumpColFirst:
		m.crosshairCol = 0
	case gridwalk.JumpColLast:
		if len(disp) > 0 {
			m.crosshairCol = len(disp) - 1
		} else {
			m.crosshairCol = 0
		}
	}
	m.scrollRowToCrosshair()
	pinnedCount := m.view.PinnedCount()
	window := m.lastVisibleWindow
	if window <= 0 {
		window = len(disp) - pinnedCount
	}
	m.scrollColToCrosshair(pinnedCount, window, len(disp))
}
