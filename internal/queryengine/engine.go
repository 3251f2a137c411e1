package queryengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/table"
)

// Result is the _seq vector and resolved column order a QueryPlan evaluates
// to; internal/view builds a DataView's visible_rows/base_rows directly from
// Seqs, never copying cell data.
type Result struct {
	Seqs    []int64
	Columns []int // resolved column indices, in projection order
}

// tableResolver adapts a *table.DataTable to the compiler's resolver interface.
type tableResolver struct {
	t *table.DataTable
}

func (r tableResolver) ColumnIndex(name string) (int, bool) { return r.t.ColumnIndex(name) }
func (r tableResolver) columnQuoted(idx int) string         { return r.t.ColumnQuoted(idx) }
func (r tableResolver) columnType(idx int) gridwalk.ColumnType { return r.t.ColumnType(idx) }

// Evaluate compiles and runs a QueryPlan against t, returning the matching
// row identities in requested order plus the resolved projection.
func Evaluate(ctx context.Context, t *table.DataTable, plan gridwalk.QueryPlan) (Result, error) {
	r := tableResolver{t: t}

	cols, err := resolveProjection(t, plan.Projection)
	if err != nil {
		return Result{}, err
	}

	where, err := compileWhere(plan.Where, r)
	if err != nil {
		return Result{}, err
	}

	orderClause, err := compileOrderBy(t, plan.OrderBy)
	if err != nil {
		return Result{}, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", t.SeqColumnQuoted(), t.QuotedTableName(), where.clause)
	if orderClause != "" {
		query += " ORDER BY " + orderClause
	}
	args := where.args
	if plan.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *plan.Limit)
	}
	if plan.Offset != nil {
		query += " OFFSET ?"
		args = append(args, *plan.Offset)
	}

	rows, err := t.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, gridwalk.NewQueryError("duckdb_query_failed", "query execution failed").WithCause(err)
	}
	defer rows.Close()

	var seqs []int64
	for rows.Next() {
		var s int64
		if err := rows.Scan(&s); err != nil {
			return Result{}, gridwalk.NewRuntimeError("duckdb_scan_failed", "failed to scan query result").WithCause(err)
		}
		seqs = append(seqs, s)
	}
	if err := rows.Err(); err != nil {
		return Result{}, gridwalk.NewRuntimeError("duckdb_rows_failed", "error iterating query results").WithCause(err)
	}

	return Result{Seqs: seqs, Columns: cols}, nil
}

func resolveProjection(t *table.DataTable, projection []string) ([]int, error) {
	if len(projection) == 0 || (len(projection) == 1 && projection[0] == gridwalk.ProjectionAll) {
		cols := make([]int, t.ColumnCount())
		for i := range cols {
			cols[i] = i
		}
		return cols, nil
	}
	cols := make([]int, 0, len(projection))
	for _, name := range projection {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			return nil, gridwalk.NewQueryError("unknown_column", fmt.Sprintf("unknown column %q in projection", name)).WithField(name)
		}
		cols = append(cols, idx)
	}
	return cols, nil
}

func compileOrderBy(t *table.DataTable, terms []gridwalk.OrderTerm) (string, error) {
	if len(terms) == 0 {
		return "", nil
	}
	parts := make([]string, len(terms))
	for i, term := range terms {
		idx, ok := t.ColumnIndex(term.Column)
		if !ok {
			return "", gridwalk.NewQueryError("unknown_column", fmt.Sprintf("unknown sort column %q", term.Column)).WithField(term.Column)
		}
		dir := "ASC"
		if !term.Ascending {
			dir = "DESC"
		}
		// Nulls sort last for ascending, first for descending, matching
		// internal/view's ApplySort ordering for the same columns.
		nulls := "NULLS LAST"
		if !term.Ascending {
			nulls = "NULLS FIRST"
		}
		parts[i] = fmt.Sprintf("%s %s %s", t.ColumnQuoted(idx), dir, nulls)
	}
	return strings.Join(parts, ", "), nil
}
