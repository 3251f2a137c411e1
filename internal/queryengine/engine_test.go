package queryengine

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

func openTestTable(t *testing.T) (*sql.DB, *table.DataTable) {
	t.Helper()
	ctx := context.Background()
	cfg := gridwalk.DefaultConfig()
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	header := []string{"name", "age", "city"}
	rows := [][]string{
		{"alice", "30", "nyc"},
		{"bob", "25", "sf"},
		{"carol", "", "nyc"},
	}
	dt, err := table.Load(ctx, db, cfg, header, rows)
	require.NoError(t, err)
	return db, dt
}

func TestEvaluateComparisonFilter(t *testing.T) {
	_, dt := openTestTable(t)
	plan := gridwalk.QueryPlan{
		Projection: []string{gridwalk.ProjectionAll},
		Where: &gridwalk.Comparison{
			Left:  &gridwalk.ColumnRef{Name: "city"},
			Op:    gridwalk.OpEquals,
			Right: &gridwalk.Literal{Value: gridwalk.StringValue("nyc")},
		},
	}
	res, err := Evaluate(context.Background(), dt, plan)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{0, 2}, res.Seqs)
}

func TestEvaluateNullComparisonIsUnknown(t *testing.T) {
	_, dt := openTestTable(t)
	plan := gridwalk.QueryPlan{
		Projection: []string{gridwalk.ProjectionAll},
		Where: &gridwalk.Comparison{
			Left:  &gridwalk.ColumnRef{Name: "age"},
			Op:    gridwalk.OpGreater,
			Right: &gridwalk.Literal{Value: gridwalk.IntValue(0)},
		},
	}
	res, err := Evaluate(context.Background(), dt, plan)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{0, 1}, res.Seqs)
}

func TestEvaluateOrderByNullsLast(t *testing.T) {
	_, dt := openTestTable(t)
	plan := gridwalk.QueryPlan{
		Projection: []string{gridwalk.ProjectionAll},
		OrderBy:    []gridwalk.OrderTerm{{Column: "age", Ascending: true}},
	}
	res, err := Evaluate(context.Background(), dt, plan)
	require.NoError(t, err)
	require.Len(t, res.Seqs, 3)
	assert.Equal(t, int64(2), res.Seqs[len(res.Seqs)-1])
}

func TestEvaluateOrderByNullsFirstDescending(t *testing.T) {
	_, dt := openTestTable(t)
	plan := gridwalk.QueryPlan{
		Projection: []string{gridwalk.ProjectionAll},
		OrderBy:    []gridwalk.OrderTerm{{Column: "age", Ascending: false}},
	}
	res, err := Evaluate(context.Background(), dt, plan)
	require.NoError(t, err)
	require.Len(t, res.Seqs, 3)
	assert.Equal(t, int64(2), res.Seqs[0])
}

func TestEvaluateUnknownColumnIsQueryError(t *testing.T) {
	_, dt := openTestTable(t)
	plan := gridwalk.QueryPlan{
		Projection: []string{"nope"},
	}
	_, err := Evaluate(context.Background(), dt, plan)
	require.Error(t, err)
	gerr, ok := err.(*gridwalk.GridError)
	require.True(t, ok)
	assert.Equal(t, gridwalk.ErrorTypeQuery, gerr.Type)
}
