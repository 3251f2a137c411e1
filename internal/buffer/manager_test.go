package buffer

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gridwalk-cli/gridwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewManager(cfg, db)
}

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	path := t.TempDir() + "/data.csv"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestManagerOpenCSVMakesItActive(t *testing.T) {
	m := newTestManager(t)
	path := writeTempCSV(t, "id,name\n1,alpha\n2,beta\n")

	require.NoError(t, m.Open(context.Background(), path))
	assert.Equal(t, 1, m.Count())
	active := m.ActiveBuffer()
	require.NotNil(t, active)
	assert.Equal(t, path, active.Path())
	assert.Equal(t, 2, active.View().RowCount())
}

func TestManagerOpenJSONDispatchesByExtension(t *testing.T) {
	m := newTestManager(t)
	path := t.TempDir() + "/data.json"
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"1","name":"alpha"}]`), 0o644))

	require.NoError(t, m.Open(context.Background(), path))
	active := m.ActiveBuffer()
	require.NotNil(t, active)
	assert.Equal(t, 1, active.View().RowCount())
}

func TestManagerOpenUnsupportedExtensionFails(t *testing.T) {
	m := newTestManager(t)
	path := t.TempDir() + "/data.txt"
	require.NoError(t, os.WriteFile(path, []byte("irrelevant"), 0o644))

	err := m.Open(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, 0, m.Count())
}

func TestManagerOpenMissingFileLeavesBuffersUntouched(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n1\n")))

	err := m.Open(context.Background(), "/no/such/file.csv")
	require.Error(t, err)
	assert.Equal(t, 1, m.Count())
}

func TestManagerNextPrevWrapAround(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n1\n")))
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n2\n")))
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n3\n")))

	assert.Equal(t, 2, m.active)
	m.Next()
	assert.Equal(t, 0, m.active)
	m.Prev()
	assert.Equal(t, 2, m.active)
}

func TestManagerGotoOutOfRangeIsNoop(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n1\n")))
	assert.False(t, m.Goto(5))
	assert.Equal(t, 0, m.active)
	assert.True(t, m.Goto(0))
}

func TestManagerCloseLastBufferReportsQuit(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n1\n")))
	assert.True(t, m.Close())
	assert.Equal(t, 0, m.Count())
}

func TestManagerCloseNonLastBufferDoesNotQuit(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n1\n")))
	require.NoError(t, m.Open(context.Background(), writeTempCSV(t, "id\n2\n")))
	assert.False(t, m.Close())
	assert.Equal(t, 1, m.Count())
}
