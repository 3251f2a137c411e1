package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/gridwalk-cli/gridwalk"
)

// DataTable is the immutable columnar store for one loaded snapshot. Rows are
// held in a single in-memory DuckDB table alongside a dense "_seq" identity
// column; DataView never copies cell data, only vectors of _seq values.
type DataTable struct {
	db        *sql.DB
	tableName string
	columns   []gridwalk.ColumnMeta
	colIndex  map[string]int
	rowCount  int
}

// seqColumn is the identity column every loaded table carries.
const seqColumn = "_seq"

var tableSeq int

// nextTableName returns a fresh, process-unique DuckDB table identifier so
// multiple buffers never collide within one shared in-memory database.
func nextTableName() string {
	tableSeq++
	return fmt.Sprintf("grid_%d", tableSeq)
}

// Load type-infers header/rows and materializes them into a fresh DuckDB
// table. rows[i] must have len(header) cells or Load returns a Load-category
// GridError naming the offending row.
func Load(ctx context.Context, db *sql.DB, cfg gridwalk.Config, header []string, rows [][]string) (*DataTable, error) {
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, gridwalk.NewLoadError("row_width_mismatch",
				fmt.Sprintf("row %d has %d fields, expected %d", i, len(row), len(header))).
				WithDetail("row", i)
		}
	}

	sampleN := cfg.Query.TypeInferenceRows
	if sampleN <= 0 {
		sampleN = 1024
	}
	types := inferColumnTypes(header, rows, sampleN)

	tableName := nextTableName()
	if err := createTable(ctx, db, tableName, header, types); err != nil {
		return nil, err
	}

	t := &DataTable{
		db:        db,
		tableName: tableName,
		columns:   make([]gridwalk.ColumnMeta, len(header)),
		colIndex:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		t.columns[i] = gridwalk.ColumnMeta{Name: name, Type: types[i]}
		key := canonicalColumnName(name)
		if _, exists := t.colIndex[key]; !exists {
			t.colIndex[key] = i
		}
	}

	batchSize := cfg.Query.LoadBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	if err := t.insertRows(ctx, rows, batchSize); err != nil {
		return nil, err
	}
	t.rowCount = len(rows)
	return t, nil
}

// widen joins two inferred scalar types into the narrowest common type that
// can hold both, falling back to String when no numeric widening applies.
func widen(a, b gridwalk.ColumnType) gridwalk.ColumnType {
	if a == gridwalk.ColumnNull {
		return b
	}
	if b == gridwalk.ColumnNull {
		return a
	}
	if a == b {
		return a
	}
	if (a == gridwalk.ColumnInteger && b == gridwalk.ColumnFloat) ||
		(a == gridwalk.ColumnFloat && b == gridwalk.ColumnInteger) {
		return gridwalk.ColumnFloat
	}
	return gridwalk.ColumnString
}

// inferColumnTypes samples the first sampleN rows to decide a candidate type
// per column (Integer -> Float -> Boolean -> DateTime -> String precedence,
// widened across the sample); any later row that fails to coerce against the
// candidate retroactively widens that column to String.
func inferColumnTypes(header []string, rows [][]string, sampleN int) []gridwalk.ColumnType {
	types := make([]gridwalk.ColumnType, len(header))
	sample := rows
	if len(sample) > sampleN {
		sample = sample[:sampleN]
	}
	for col := range header {
		t := gridwalk.ColumnNull
		for _, row := range sample {
			raw := row[col]
			if raw == "" {
				continue
			}
			t = widen(t, gridwalk.InferScalar(raw).Type)
		}
		if t == gridwalk.ColumnNull {
			t = gridwalk.ColumnString
		}
		types[col] = t
	}

	for col := range header {
		if types[col] == gridwalk.ColumnString {
			continue
		}
		for _, row := range rows {
			raw := row[col]
			if raw == "" {
				continue
			}
			if _, ok := gridwalk.CoerceTo(raw, types[col]); !ok {
				types[col] = gridwalk.ColumnString
				break
			}
		}
	}
	return types
}

// quoteIdent wraps an identifier in DuckDB double-quote escaping so arbitrary
// CSV/JSON header names are safe as column/table identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func createTable(ctx context.Context, db *sql.DB, tableName string, header []string, types []gridwalk.ColumnType) error {
	cols := make([]string, 0, len(header)+1)
	cols = append(cols, quoteIdent(seqColumn)+" BIGINT")
	for i, name := range header {
		cols = append(cols, quoteIdent(name)+" "+duckDBType(types[i]))
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return gridwalk.NewRuntimeError("duckdb_create_table_failed", "failed to create backing table").WithCause(err)
	}
	return nil
}

func (t *DataTable) insertRows(ctx context.Context, rows [][]string, batchSize int) error {
	placeholders := make([]string, len(t.columns)+1)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	rowPlaceholder := "(" + strings.Join(placeholders, ", ") + ")"
	insertPrefix := fmt.Sprintf("INSERT INTO %s VALUES ", quoteIdent(t.tableName))

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		rowParts := make([]string, len(batch))
		args := make([]any, 0, len(batch)*(len(t.columns)+1))
		for i, row := range batch {
			rowParts[i] = rowPlaceholder
			args = append(args, int64(start+i))
			for c, raw := range row {
				v, ok := gridwalk.CoerceTo(raw, t.columns[c].Type)
				if !ok {
					v = gridwalk.StringValue(raw)
				}
				param, err := nativeParam(v)
				if err != nil {
					return gridwalk.NewLoadError("value_coercion_failed", err.Error()).
						WithField(t.columns[c].Name).WithDetail("row", start+i)
				}
				args = append(args, param)
			}
		}
		query := insertPrefix + strings.Join(rowParts, ", ")
		if err := execBatch(ctx, t.db, query, args); err != nil {
			return gridwalk.NewRuntimeError("duckdb_insert_failed", "failed to insert loaded rows").WithCause(err)
		}
	}
	return nil
}

// Columns returns the table's column metadata in declared order.
func (t *DataTable) Columns() []gridwalk.ColumnMeta { return t.columns }

// ColumnCount returns the number of data columns (excluding _seq).
func (t *DataTable) ColumnCount() int { return len(t.columns) }

// RowCount returns the total number of loaded rows.
func (t *DataTable) RowCount() int { return t.rowCount }

// canonicalColumnName folds a column name to a case- and
// delimiter-insensitive key so that "userName", "user_name", and
// "USER_NAME" all resolve to the same column.
func canonicalColumnName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch r {
		case '_', '-', ' ':
			continue
		default:
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// ColumnIndex resolves a column name case-insensitively and tolerant of
// camelCase/snake_case variants (userName and user_name both resolve to the
// same stored column).
func (t *DataTable) ColumnIndex(name string) (int, bool) {
	i, ok := t.colIndex[canonicalColumnName(name)]
	return i, ok
}

// TableName returns the backing DuckDB table identifier, for use by
// internal/queryengine when compiling a QueryPlan.
func (t *DataTable) TableName() string { return t.tableName }

// QuotedTableName returns the table identifier as a safe SQL fragment.
func (t *DataTable) QuotedTableName() string { return quoteIdent(t.tableName) }

// DB returns the shared DuckDB handle, for use by internal/queryengine.
func (t *DataTable) DB() *sql.DB { return t.db }

// ColumnQuoted returns the quoted SQL identifier for column i, for use by
// internal/queryengine when compiling a QueryPlan's WHERE/ORDER BY clauses.
func (t *DataTable) ColumnQuoted(i int) string { return quoteIdent(t.columns[i].Name) }

// ColumnType returns the declared type of column i.
func (t *DataTable) ColumnType(i int) gridwalk.ColumnType { return t.columns[i].Type }

// SeqColumnQuoted returns the quoted identifier of the _seq identity column.
func (t *DataTable) SeqColumnQuoted() string { return quoteIdent(seqColumn) }

// RowAt materializes a single row by its _seq identity.
func (t *DataTable) RowAt(ctx context.Context, seq int64) (gridwalk.Row, error) {
	rows, err := t.FetchRows(ctx, []int64{seq})
	if err != nil {
		return gridwalk.Row{}, err
	}
	if len(rows) == 0 {
		return gridwalk.Row{}, gridwalk.NewRuntimeError("row_not_found", fmt.Sprintf("no row with seq %d", seq))
	}
	return rows[0], nil
}

// FetchRows materializes rows for the given _seq values, preserving the
// requested order (which may differ from storage order after a sort).
func (t *DataTable) FetchRows(ctx context.Context, seqs []int64) ([]gridwalk.Row, error) {
	if len(seqs) == 0 {
		return nil, nil
	}
	colNames := make([]string, len(t.columns)+1)
	colNames[0] = quoteIdent(seqColumn)
	for i, c := range t.columns {
		colNames[i+1] = quoteIdent(c.Name)
	}
	placeholders := make([]string, len(seqs))
	args := make([]any, len(seqs))
	for i, s := range seqs {
		placeholders[i] = "?"
		args[i] = s
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		strings.Join(colNames, ", "), quoteIdent(t.tableName), quoteIdent(seqColumn), strings.Join(placeholders, ", "))

	rs, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, gridwalk.NewRuntimeError("duckdb_fetch_failed", "failed to fetch rows").WithCause(err)
	}
	defer rs.Close()

	byseq := make(map[int64]gridwalk.Row, len(seqs))
	scanDest := make([]any, len(t.columns)+1)
	raw := make([]any, len(t.columns)+1)
	for i := range scanDest {
		scanDest[i] = &raw[i]
	}
	for rs.Next() {
		if err := rs.Scan(scanDest...); err != nil {
			return nil, gridwalk.NewRuntimeError("duckdb_scan_failed", "failed to scan row").WithCause(err)
		}
		seq := raw[0].(int64)
		values := make([]gridwalk.Value, len(t.columns))
		for i, c := range t.columns {
			values[i] = valueFromScan(c.Type, raw[i+1])
		}
		byseq[seq] = gridwalk.Row{Seq: seq, Values: values}
	}
	if err := rs.Err(); err != nil {
		return nil, gridwalk.NewRuntimeError("duckdb_rows_failed", "error iterating rows").WithCause(err)
	}

	out := make([]gridwalk.Row, 0, len(seqs))
	for _, s := range seqs {
		if row, ok := byseq[s]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}
