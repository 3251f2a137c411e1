// Package queryengine compiles an already-parsed gridwalk.QueryPlan into a
// parameterized DuckDB query and evaluates it against an internal/table
// DataTable, producing the _seq vector a DataView is built from.
package queryengine

import (
	"fmt"
	"strings"

	"github.com/gridwalk-cli/gridwalk"
)

// compiled is a SQL fragment plus the positional arguments it references.
type compiled struct {
	clause string
	args   []any
}

// resolver looks up a column's declared type and quoted SQL identifier.
type resolver interface {
	ColumnIndex(name string) (int, bool)
	columnQuoted(idx int) string
	columnType(idx int) gridwalk.ColumnType
}

// compileWhere recursively lowers an Expr into a SQL boolean expression
// without a hand-rolled ternary evaluator (only the string-method predicates
// add IS NOT NULL guards): any comparison against a NULL operand must
// evaluate to Unknown (excluded), which is exactly what SQL NULL comparison
// semantics already give us, so the compiler leans on the database's native
// three-valued logic instead of re-deriving it in Go.
func compileWhere(e gridwalk.Expr, r resolver) (compiled, error) {
	switch n := e.(type) {
	case nil:
		return compiled{clause: "TRUE"}, nil
	case *gridwalk.Literal:
		return compileLiteral(n)
	case *gridwalk.ColumnRef:
		return compileColumnRef(n, r)
	case *gridwalk.Comparison:
		return compileComparison(n, r)
	case *gridwalk.Logical:
		return compileLogical(n, r)
	case *gridwalk.In:
		return compileIn(n, r)
	case *gridwalk.Between:
		return compileBetween(n, r)
	case *gridwalk.StringMethod:
		return compileStringMethod(n, r)
	case *gridwalk.DateTimeLiteral:
		return compileDateTimeLiteral(n)
	default:
		return compiled{}, gridwalk.NewQueryError("unsupported_expr", fmt.Sprintf("unsupported expression node %T", e))
	}
}

func compileLiteral(n *gridwalk.Literal) (compiled, error) {
	return compiled{clause: "?", args: []any{literalParam(n.Value)}}, nil
}

func literalParam(v gridwalk.Value) any {
	if !v.Valid {
		return nil
	}
	switch v.Type {
	case gridwalk.ColumnInteger:
		return v.Int
	case gridwalk.ColumnFloat:
		return v.Float
	case gridwalk.ColumnBoolean:
		return v.Bool
	case gridwalk.ColumnDateTime:
		return v.Time
	default:
		return v.Str
	}
}

func compileColumnRef(n *gridwalk.ColumnRef, r resolver) (compiled, error) {
	idx, ok := r.ColumnIndex(n.Name)
	if !ok {
		return compiled{}, gridwalk.NewQueryError("unknown_column", fmt.Sprintf("unknown column %q", n.Name)).WithField(n.Name)
	}
	return compiled{clause: r.columnQuoted(idx)}, nil
}

func compileComparison(n *gridwalk.Comparison, r resolver) (compiled, error) {
	left, err := compileWhere(n.Left, r)
	if err != nil {
		return compiled{}, err
	}
	right, err := compileWhere(n.Right, r)
	if err != nil {
		return compiled{}, err
	}
	op, err := sqlCompareOp(n.Op)
	if err != nil {
		return compiled{}, err
	}
	// Equality/inequality of NULL already yields SQL Unknown (false) here,
	// matching three-valued-logic semantics (Unknown excludes the row).
	args := append(append([]any{}, left.args...), right.args...)
	return compiled{clause: fmt.Sprintf("(%s %s %s)", left.clause, op, right.clause), args: args}, nil
}

func sqlCompareOp(op gridwalk.CompareOp) (string, error) {
	switch op {
	case gridwalk.OpEquals:
		return "=", nil
	case gridwalk.OpNotEquals:
		return "!=", nil
	case gridwalk.OpLess:
		return "<", nil
	case gridwalk.OpLessEq:
		return "<=", nil
	case gridwalk.OpGreater:
		return ">", nil
	case gridwalk.OpGreaterEq:
		return ">=", nil
	default:
		return "", gridwalk.NewQueryError("unknown_operator", fmt.Sprintf("unknown comparison operator %q", op))
	}
}

func compileLogical(n *gridwalk.Logical, r resolver) (compiled, error) {
	if n.Op == gridwalk.LogicNot {
		if len(n.Children) != 1 {
			return compiled{}, gridwalk.NewQueryError("bad_not", "NOT requires exactly one child")
		}
		child, err := compileWhere(n.Children[0], r)
		if err != nil {
			return compiled{}, err
		}
		return compiled{clause: fmt.Sprintf("(NOT %s)", child.clause), args: child.args}, nil
	}

	joiner := " AND "
	if n.Op == gridwalk.LogicOr {
		joiner = " OR "
	}
	parts := make([]string, 0, len(n.Children))
	var args []any
	for _, c := range n.Children {
		cc, err := compileWhere(c, r)
		if err != nil {
			return compiled{}, err
		}
		parts = append(parts, cc.clause)
		args = append(args, cc.args...)
	}
	return compiled{clause: "(" + strings.Join(parts, joiner) + ")", args: args}, nil
}

func compileIn(n *gridwalk.In, r resolver) (compiled, error) {
	col, err := compileWhere(n.Column, r)
	if err != nil {
		return compiled{}, err
	}
	placeholders := make([]string, len(n.List))
	var args []any
	args = append(args, col.args...)
	for i, item := range n.List {
		ic, err := compileWhere(item, r)
		if err != nil {
			return compiled{}, err
		}
		placeholders[i] = ic.clause
		args = append(args, ic.args...)
	}
	not := ""
	if n.Negate {
		not = "NOT "
	}
	clause := fmt.Sprintf("(%s %sIN (%s))", col.clause, not, strings.Join(placeholders, ", "))
	return compiled{clause: clause, args: args}, nil
}

func compileBetween(n *gridwalk.Between, r resolver) (compiled, error) {
	col, err := compileWhere(n.Column, r)
	if err != nil {
		return compiled{}, err
	}
	low, err := compileWhere(n.Low, r)
	if err != nil {
		return compiled{}, err
	}
	high, err := compileWhere(n.High, r)
	if err != nil {
		return compiled{}, err
	}
	not := ""
	if n.Negate {
		not = "NOT "
	}
	args := append(append(append([]any{}, col.args...), low.args...), high.args...)
	clause := fmt.Sprintf("(%s %sBETWEEN %s AND %s)", col.clause, not, low.clause, high.clause)
	return compiled{clause: clause, args: args}, nil
}

func compileStringMethod(n *gridwalk.StringMethod, r resolver) (compiled, error) {
	col, err := compileWhere(n.Column, r)
	if err != nil {
		return compiled{}, err
	}
	colExpr := col.clause
	if n.IgnoreCase {
		colExpr = fmt.Sprintf("lower(%s)", colExpr)
	}
	arg := n.Arg
	if n.IgnoreCase {
		arg = strings.ToLower(arg)
	}
	switch n.Kind {
	case gridwalk.StringStartsWith:
		return compiled{clause: fmt.Sprintf("(%s IS NOT NULL AND %s LIKE ?)", col.clause, colExpr), args: append(col.args, arg+"%")}, nil
	case gridwalk.StringEndsWith:
		return compiled{clause: fmt.Sprintf("(%s IS NOT NULL AND %s LIKE ?)", col.clause, colExpr), args: append(col.args, "%"+arg)}, nil
	case gridwalk.StringContains:
		return compiled{clause: fmt.Sprintf("(%s IS NOT NULL AND %s LIKE ?)", col.clause, colExpr), args: append(col.args, "%"+arg+"%")}, nil
	case gridwalk.StringIsNullOrEmpty:
		return compiled{clause: fmt.Sprintf("(%s IS NULL OR %s = '')", col.clause, col.clause), args: col.args}, nil
	default:
		return compiled{}, gridwalk.NewQueryError("unknown_string_method", fmt.Sprintf("unknown string method %q", n.Kind))
	}
}

func compileDateTimeLiteral(n *gridwalk.DateTimeLiteral) (compiled, error) {
	lit := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", n.Year, n.Month, n.Day, n.Hour, n.Minute, n.Second)
	return compiled{clause: "CAST(? AS TIMESTAMP)", args: []any{lit}}, nil
}
