package view

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSampleTable(t *testing.T) *table.DataTable {
	t.Helper()
	ctx := context.Background()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	header := []string{"id", "name", "price", "active"}
	rows := [][]string{
		{"1", "Apple", "2.50", "true"},
		{"2", "Banana", "1.25", "true"},
		{"3", "Carrot", "0.75", "false"},
		{"4", "Apricot", "3.10", "true"},
	}
	dt, err := table.Load(ctx, db, cfg, header, rows)
	require.NoError(t, err)
	return dt
}

func TestSortThenFilterThenClearPreservesSort(t *testing.T) {
	ctx := context.Background()
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)

	priceIdx, ok := dt.ColumnIndex("price")
	require.True(t, ok)
	require.NoError(t, v.ApplySort(ctx, priceIdx, true))

	sortedOrder := append([]int64(nil), v.VisibleRows()...)

	require.NoError(t, v.ApplyTextFilter(ctx, "pri", true))
	assert.Len(t, v.VisibleRows(), 1)

	v.ClearFilter()
	assert.Equal(t, sortedOrder, v.VisibleRows())
}

func TestHideColumnThenUnhideAllRestoresBaseColumns(t *testing.T) {
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	base := append([]int(nil), v.VisibleColumns()...)

	v.HideColumn(1)
	assert.NotContains(t, v.VisibleColumns(), 1)

	v.UnhideAll()
	assert.Equal(t, base, v.VisibleColumns())
}

func TestPinThenUnpinRestoresSets(t *testing.T) {
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)

	v.PinColumn(1)
	assert.Contains(t, v.PinnedColumns(), 1)
	assert.NotContains(t, v.VisibleColumns(), 1)

	v.UnpinColumn(1)
	assert.NotContains(t, v.PinnedColumns(), 1)
	assert.Contains(t, v.VisibleColumns(), 1)
}

func TestPinnedColumnsExcludedFromVisible(t *testing.T) {
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	v.PinColumn(0)
	v.PinColumn(2)
	for _, idx := range v.PinnedColumns() {
		assert.NotContains(t, v.VisibleColumns(), idx)
	}
}

func TestApplySortThenClearSortRestoresInsertionOrder(t *testing.T) {
	ctx := context.Background()
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	original := append([]int64(nil), v.VisibleRows()...)

	priceIdx, _ := dt.ColumnIndex("price")
	require.NoError(t, v.ApplySort(ctx, priceIdx, true))
	require.NoError(t, v.ClearSort(ctx))
	assert.Equal(t, original, v.VisibleRows())
}

func TestFuzzyFilterEmptyPatternIsNoop(t *testing.T) {
	ctx := context.Background()
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	original := append([]int64(nil), v.VisibleRows()...)
	require.NoError(t, v.ApplyFuzzyFilter(ctx, "", true))
	assert.Equal(t, original, v.VisibleRows())
}

func TestFuzzyFilterLeadingQuoteForcesExactMode(t *testing.T) {
	ctx := context.Background()
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	require.NoError(t, v.ApplyFuzzyFilter(ctx, "'pri", true))
	assert.Equal(t, FilterSubstring, v.Filter().Mode)
	assert.Len(t, v.VisibleRows(), 1)
}

func TestRegexFilterMatchesPattern(t *testing.T) {
	ctx := context.Background()
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	require.NoError(t, v.ApplyRegexFilter(ctx, `Ap\w*`, true))
	assert.Len(t, v.VisibleRows(), 2)
	assert.Equal(t, FilterRegex, v.Filter().Mode)
}

func TestRegexFilterEmptyPatternIsNoop(t *testing.T) {
	ctx := context.Background()
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	original := append([]int64(nil), v.VisibleRows()...)
	require.NoError(t, v.ApplyRegexFilter(ctx, "", true))
	assert.Equal(t, original, v.VisibleRows())
}

func TestRegexFilterInvalidPatternReturnsQueryError(t *testing.T) {
	ctx := context.Background()
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	err := v.ApplyRegexFilter(ctx, "(unterminated", true)
	require.Error(t, err)
	gerr, ok := err.(*gridwalk.GridError)
	require.True(t, ok)
	assert.Equal(t, gridwalk.ErrorTypeQuery, gerr.Type)
}

func TestSearchColumnsCycleWraparound(t *testing.T) {
	dt := loadSampleTable(t)
	v := NewIdentityView(dt)
	v.SearchColumns("a")
	require.NotNil(t, v.ColumnSearch())
	n := len(v.ColumnSearch().Matches)
	require.Greater(t, n, 1)

	v.NextColumnMatch()
	assert.Equal(t, 1, v.ColumnSearch().Current)
	v.PrevColumnMatch()
	v.PrevColumnMatch()
	assert.Equal(t, n-1, v.ColumnSearch().Current)
}
