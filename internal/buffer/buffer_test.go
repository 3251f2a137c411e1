package buffer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, rows [][]string) *Buffer {
	t.Helper()
	ctx := context.Background()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dt, err := table.Load(ctx, db, cfg, []string{"id", "name", "price"}, rows)
	require.NoError(t, err)
	return New(cfg, "test.csv", dt)
}

func TestExecuteQuerySwapsViewOnSuccess(t *testing.T) {
	b := newTestBuffer(t, [][]string{
		{"1", "alpha", "10"},
		{"2", "beta", "20"},
		{"3", "gamma", "30"},
	})
	oldView := b.View()

	err := b.ExecuteQuery(context.Background(), "SELECT name FROM data WHERE price > 15 ORDER BY price")
	require.NoError(t, err)
	assert.NotSame(t, oldView, b.View())
	assert.Equal(t, 2, b.View().RowCount())
	assert.Equal(t, []string{"name"}, b.View().ColumnNames())
}

func TestExecuteQueryParseFailureLeavesViewUnchanged(t *testing.T) {
	b := newTestBuffer(t, [][]string{{"1", "alpha", "10"}})
	oldView := b.View()
	oldVp := b.Viewport()

	err := b.ExecuteQuery(context.Background(), "NOT VALID SQL ((((")
	require.Error(t, err)
	assert.Same(t, oldView, b.View())
	assert.Same(t, oldVp, b.Viewport())
}

func TestExecuteQueryEvaluationFailureLeavesViewUnchanged(t *testing.T) {
	b := newTestBuffer(t, [][]string{{"1", "alpha", "10"}})
	oldView := b.View()

	err := b.ExecuteQuery(context.Background(), "SELECT nonexistent_column FROM data")
	require.Error(t, err)
	assert.Same(t, oldView, b.View())
}

func TestExportCSVWritesHeaderAndRows(t *testing.T) {
	b := newTestBuffer(t, [][]string{
		{"1", "alpha", "10"},
		{"2", "beta", "20"},
	})
	path := t.TempDir() + "/out.csv"
	resolved, err := b.Export(context.Background(), gridwalk.ExportCSV, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "name", "price"}, records[0])
}

func TestExportJSONWritesArrayOfObjects(t *testing.T) {
	b := newTestBuffer(t, [][]string{{"1", "alpha", "10"}})
	path := t.TempDir() + "/out.json"
	_, err := b.Export(context.Background(), gridwalk.ExportJSON, path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []map[string]string
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "alpha", out[0]["name"])
}

func TestExportDefaultPathUsesKindExtension(t *testing.T) {
	b := newTestBuffer(t, [][]string{{"1", "alpha", "10"}})
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Chdir(t.TempDir())
	defer t.Chdir(wd)

	resolved, err := b.Export(context.Background(), gridwalk.ExportCSV, "")
	require.NoError(t, err)
	assert.Contains(t, resolved, ".csv")
	_, statErr := os.Stat(resolved)
	assert.NoError(t, statErr)
}

func TestSetInputTextPushesUndoAndClearsRedo(t *testing.T) {
	b := newTestBuffer(t, [][]string{{"1", "alpha", "10"}})
	b.SetInputText("SELECT *")
	b.SetInputText("SELECT name")
	assert.True(t, b.UndoInput())
	assert.Equal(t, "SELECT *", b.InputText())
	assert.True(t, b.RedoInput())
	assert.Equal(t, "SELECT name", b.InputText())
	assert.False(t, b.RedoInput())
}
