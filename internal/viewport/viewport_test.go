package viewport

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/table"
	"github.com/gridwalk-cli/gridwalk/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManager(t *testing.T, rows int) (*view.DataView, *Manager) {
	t.Helper()
	ctx := context.Background()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	header := []string{"id", "name", "price"}
	data := make([][]string, rows)
	for i := range data {
		data[i] = []string{"1", "row", "1.0"}
	}
	dt, err := table.Load(ctx, db, cfg, header, data)
	require.NoError(t, err)
	v := view.NewIdentityView(dt)
	m := New(v, cfg.Viewport)
	m.SetTerminalSize(14, 80) // chrome=4 -> viewportRows=10
	return v, m
}

func TestEmptyTableNavigationStaysAtOrigin(t *testing.T) {
	_, m := sampleManager(t, 0)
	m.MoveCrosshair(gridwalk.AxisRow, 1, 5)
	row, col := m.Crosshair()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
}

func TestCrosshairStaysWithinBoundsUnlocked(t *testing.T) {
	_, m := sampleManager(t, 50)
	for i := 0; i < 200; i++ {
		m.MoveCrosshair(gridwalk.AxisRow, 1, 3)
	}
	row, _ := m.Crosshair()
	assert.Equal(t, 49, row)
	for i := 0; i < 200; i++ {
		m.MoveCrosshair(gridwalk.AxisRow, -1, 7)
	}
	row, _ = m.Crosshair()
	assert.Equal(t, 0, row)
}

func TestPageMoveOneLineOverlap(t *testing.T) {
	_, m := sampleManager(t, 100)
	m.PageMove(1, 1)
	row, _ := m.Crosshair()
	assert.Equal(t, m.ViewportRows()-1, row)
}

func TestRowCountEqualsViewportRowsPagingNoop(t *testing.T) {
	_, m := sampleManager(t, m0ViewportRows(t))
	start, end := m.RowWindow()
	m.PageMove(1, 1)
	newStart, newEnd := m.RowWindow()
	assert.Equal(t, start, newStart)
	assert.Equal(t, end, newEnd)
}

func m0ViewportRows(t *testing.T) int {
	t.Helper()
	cfg := gridwalk.DefaultConfig()
	return 14 - cfg.Viewport.ChromeLines
}

func TestJumpToFirstLast(t *testing.T) {
	_, m := sampleManager(t, 30)
	m.JumpTo(gridwalk.JumpLast, 0)
	row, _ := m.Crosshair()
	assert.Equal(t, 29, row)
	m.JumpTo(gridwalk.JumpFirst, 0)
	row, _ = m.Crosshair()
	assert.Equal(t, 0, row)
}

func TestSingleColumnTableEndEqualsHome(t *testing.T) {
	ctx := context.Background()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	dt, err := table.Load(ctx, db, cfg, []string{"only"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)
	v := view.NewIdentityView(dt)
	m := New(v, cfg.Viewport)
	m.SetTerminalSize(14, 80)
	m.JumpTo(gridwalk.JumpColLast, 0)
	_, col := m.Crosshair()
	m.JumpTo(gridwalk.JumpColFirst, 0)
	_, col2 := m.Crosshair()
	assert.Equal(t, col, col2)
}
