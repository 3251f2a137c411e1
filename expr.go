package gridwalk

// Expr is a node of an already-parsed WHERE expression tree. QueryEngine
// compiles an Expr into a parameterized predicate; it never parses SQL text
// itself.
type Expr interface {
	exprNode()
}

// Literal is a constant value node.
type Literal struct {
	Value Value
}

func (*Literal) exprNode() {}

// ColumnRef references a column by name. Resolution is case-insensitive and
// tolerant of camelCase/snake_case variants; QueryEngine re-resolves the name
// against the target table on every Evaluate call since a QueryPlan is
// rebuilt fresh for each parsed query and never evaluated twice.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) exprNode() {}

// CompareOp enumerates the comparison operators a Comparison node supports.
type CompareOp string

const (
	OpEquals     CompareOp = "="
	OpNotEquals  CompareOp = "!="
	OpLess       CompareOp = "<"
	OpLessEq     CompareOp = "<="
	OpGreater    CompareOp = ">"
	OpGreaterEq  CompareOp = ">="
)

// Comparison is a binary comparison node. Three-valued logic applies: if
// either side evaluates to Null the comparison is Unknown (excluded at the
// top level), never an error.
type Comparison struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

func (*Comparison) exprNode() {}

// LogicOp enumerates the boolean connectives.
type LogicOp string

const (
	LogicAnd LogicOp = "AND"
	LogicOr  LogicOp = "OR"
	LogicNot LogicOp = "NOT"
)

// Logical is an AND/OR/NOT node with short-circuit evaluation semantics.
type Logical struct {
	Op       LogicOp
	Children []Expr // one child for NOT, two+ for AND/OR
}

func (*Logical) exprNode() {}

// In tests a column against a literal list.
type In struct {
	Column Expr
	List   []Expr
	Negate bool
}

func (*In) exprNode() {}

// Between tests a column against an inclusive [Low, High] range.
type Between struct {
	Column Expr
	Low    Expr
	High   Expr
	Negate bool
}

func (*Between) exprNode() {}

// StringMethodKind enumerates the string predicate methods a StringMethod
// node supports.
type StringMethodKind string

const (
	StringStartsWith   StringMethodKind = "StartsWith"
	StringEndsWith     StringMethodKind = "EndsWith"
	StringContains     StringMethodKind = "Contains"
	StringIsNullOrEmpty StringMethodKind = "IsNullOrEmpty"
)

// StringMethod is a string predicate node with an ignore-case flag.
type StringMethod struct {
	Column     Expr
	Kind       StringMethodKind
	Arg        string
	IgnoreCase bool
}

func (*StringMethod) exprNode() {}

// DateTimeLiteral constructs a DateTime value from discrete components.
type DateTimeLiteral struct {
	Year, Month, Day      int
	Hour, Minute, Second  int
}

func (*DateTimeLiteral) exprNode() {}

// OrderTerm is one ORDER BY term.
type OrderTerm struct {
	Column    string
	Ascending bool
}

// ProjectionAll marks a QueryPlan projection as `SELECT *`.
const ProjectionAll = "*"

// QueryPlan is the already-parsed query this engine consumes; it is produced
// by an external SQL-to-plan parser, never constructed by parsing SQL text
// inside the core engine. cmd/gridwalk's --query flag is serviced by
// internal/sqlparse, a small hand-rolled front end for a SELECT subset,
// kept separate from this core type.
type QueryPlan struct {
	Projection []string // column names, or [ProjectionAll]
	Where      Expr     // nil means "match everything"
	OrderBy    []OrderTerm
	Limit      *int
	Offset     *int
}
