package gridwalk

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the declared type of a DataTable column. Any cell may be Null
// regardless of its column's declared type.
type ColumnType string

const (
	ColumnInteger  ColumnType = "integer"
	ColumnFloat    ColumnType = "float"
	ColumnString   ColumnType = "string"
	ColumnBoolean  ColumnType = "boolean"
	ColumnDateTime ColumnType = "datetime"
	ColumnNull     ColumnType = "null"
)

// ColumnMeta describes one column of a DataTable.
type ColumnMeta struct {
	Name string
	Type ColumnType
}

// Value is a single typed cell. A Null cell has Valid == false regardless of Type.
type Value struct {
	Type  ColumnType
	Valid bool
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Time  time.Time
}

// NullValue returns a Null cell tagged with the given column type.
func NullValue(t ColumnType) Value { return Value{Type: t, Valid: false} }

// IntValue builds a valid Integer cell.
func IntValue(v int64) Value { return Value{Type: ColumnInteger, Valid: true, Int: v} }

// FloatValue builds a valid Float cell.
func FloatValue(v float64) Value { return Value{Type: ColumnFloat, Valid: true, Float: v} }

// StringValue builds a valid String cell.
func StringValue(v string) Value { return Value{Type: ColumnString, Valid: true, Str: v} }

// BoolValue builds a valid Boolean cell.
func BoolValue(v bool) Value { return Value{Type: ColumnBoolean, Valid: true, Bool: v} }

// DateTimeValue builds a valid DateTime cell.
func DateTimeValue(v time.Time) Value { return Value{Type: ColumnDateTime, Valid: true, Time: v} }

// String renders the cell for display and for substring/fuzzy matching.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	switch v.Type {
	case ColumnInteger:
		return strconv.FormatInt(v.Int, 10)
	case ColumnFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case ColumnString:
		return v.Str
	case ColumnBoolean:
		return strconv.FormatBool(v.Bool)
	case ColumnDateTime:
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Row is one display-order row of values aligned to a DataView's column order.
type Row struct {
	Seq    int64
	Values []Value
}

// dateLayouts are tried in order during type inference and CSV/JSON coercion.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseDateTime tries each accepted layout in turn.
func ParseDateTime(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferScalar infers a Value from a raw string field: Integer, else Float,
// else Boolean, else DateTime, else String; empty string is Null.
func InferScalar(raw string) Value {
	if raw == "" {
		return NullValue(ColumnNull)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return FloatValue(f)
	}
	lower := strings.ToLower(raw)
	if lower == "true" || lower == "false" {
		return BoolValue(lower == "true")
	}
	if t, ok := ParseDateTime(raw); ok {
		return DateTimeValue(t)
	}
	return StringValue(raw)
}

// CoerceTo converts raw into the given declared column type, falling back to
// Null on failure (the caller decides whether that failure should widen the
// column's declared type to String).
func CoerceTo(raw string, t ColumnType) (Value, bool) {
	if raw == "" {
		return NullValue(t), true
	}
	switch t {
	case ColumnInteger:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, false
		}
		return IntValue(i), true
	case ColumnFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, false
		}
		return FloatValue(f), true
	case ColumnBoolean:
		lower := strings.ToLower(raw)
		if lower != "true" && lower != "false" {
			return Value{}, false
		}
		return BoolValue(lower == "true"), true
	case ColumnDateTime:
		t2, ok := ParseDateTime(raw)
		if !ok {
			return Value{}, false
		}
		return DateTimeValue(t2), true
	case ColumnString:
		return StringValue(raw), true
	default:
		return StringValue(raw), true
	}
}

// Compare orders two values of the same declared column type the way
// QueryEngine's ORDER BY comparator does: Nulls sort last ascending, first
// descending (handled by the caller), otherwise by native type ordering.
func Compare(a, b Value) int {
	if !a.Valid && !b.Valid {
		return 0
	}
	if !a.Valid {
		return 1
	}
	if !b.Valid {
		return -1
	}
	switch a.Type {
	case ColumnInteger:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	case ColumnFloat:
		switch {
		case a.Float < b.Float:
			return -1
		case a.Float > b.Float:
			return 1
		default:
			return 0
		}
	case ColumnBoolean:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case ColumnDateTime:
		switch {
		case a.Time.Before(b.Time):
			return -1
		case a.Time.After(b.Time):
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(a.Str, b.Str)
	}
}

// Describe renders a Value for debug/error output.
func (v Value) Describe() string {
	if !v.Valid {
		return fmt.Sprintf("null(%s)", v.Type)
	}
	return fmt.Sprintf("%s(%s)", v.Type, v.String())
}
