// Package table implements DataTable: the immutable columnar store backing
// every loaded snapshot, realized as a single in-memory DuckDB table plus a
// dense "_seq" identity column.
package table

import (
	"fmt"
	"time"

	"github.com/gridwalk-cli/gridwalk"
)

// duckDBType maps a gridwalk.ColumnType to the DuckDB column type used in
// CREATE TABLE.
func duckDBType(t gridwalk.ColumnType) string {
	switch t {
	case gridwalk.ColumnInteger:
		return "BIGINT"
	case gridwalk.ColumnFloat:
		return "DOUBLE"
	case gridwalk.ColumnBoolean:
		return "BOOLEAN"
	case gridwalk.ColumnDateTime:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

// nativeParam converts a Value into the Go representation the DuckDB driver
// expects when binding a parameter for a column declared as v.Type.
func nativeParam(v gridwalk.Value) (any, error) {
	if !v.Valid {
		return nil, nil
	}
	switch v.Type {
	case gridwalk.ColumnInteger:
		return v.Int, nil
	case gridwalk.ColumnFloat:
		return v.Float, nil
	case gridwalk.ColumnBoolean:
		return v.Bool, nil
	case gridwalk.ColumnDateTime:
		return v.Time.UTC(), nil
	case gridwalk.ColumnString:
		return v.Str, nil
	default:
		return nil, fmt.Errorf("table: cannot bind value of type %s", v.Type)
	}
}

// valueFromScan converts a database/sql scan result back into a Value for a
// column declared with type t.
func valueFromScan(t gridwalk.ColumnType, raw any) gridwalk.Value {
	if raw == nil {
		return gridwalk.NullValue(t)
	}
	switch t {
	case gridwalk.ColumnInteger:
		switch n := raw.(type) {
		case int64:
			return gridwalk.IntValue(n)
		case int32:
			return gridwalk.IntValue(int64(n))
		case float64:
			return gridwalk.IntValue(int64(n))
		}
	case gridwalk.ColumnFloat:
		switch n := raw.(type) {
		case float64:
			return gridwalk.FloatValue(n)
		case float32:
			return gridwalk.FloatValue(float64(n))
		}
	case gridwalk.ColumnBoolean:
		if b, ok := raw.(bool); ok {
			return gridwalk.BoolValue(b)
		}
	case gridwalk.ColumnDateTime:
		if tm, ok := raw.(time.Time); ok {
			return gridwalk.DateTimeValue(tm)
		}
	case gridwalk.ColumnString:
		switch s := raw.(type) {
		case string:
			return gridwalk.StringValue(s)
		case []byte:
			return gridwalk.StringValue(string(s))
		}
	}
	return gridwalk.NullValue(t)
}
