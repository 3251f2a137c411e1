package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gridwalk-cli/gridwalk"
)

type parser struct {
	tokens []token
	pos    int
}

// Parse lexes and parses a query string into a gridwalk.QueryPlan. It
// returns the FROM clause's table identifier alongside the plan; its caller,
// Buffer.ExecuteQuery, discards it and queries the buffer's own DataTable.
// QueryEngine itself has no notion of table names, only a DataTable handle.
func Parse(query string) (plan gridwalk.QueryPlan, table string, err error) {
	toks, err := tokenize(query)
	if err != nil {
		return plan, "", gridwalk.NewQueryError("parse_error", err.Error())
	}
	p := &parser{tokens: toks}
	plan, table, err = p.parseStatement()
	if err != nil {
		return gridwalk.QueryPlan{}, "", gridwalk.NewQueryError("parse_error", err.Error())
	}
	if !p.atEnd() {
		return gridwalk.QueryPlan{}, "", gridwalk.NewQueryError("parse_error",
			fmt.Sprintf("unexpected trailing input at position %d", p.peek().pos))
	}
	return plan, table, nil
}

func tokenize(query string) ([]token, error) {
	l := newLexer(query)
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (p *parser) peek() token  { return p.tokens[p.pos] }
func (p *parser) atEnd() bool  { return p.peek().kind == tokEOF }
func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// keyword matches an IDENT token case-insensitively against kw and consumes
// it if it matches.
func (p *parser) keyword(kw string) bool {
	tok := p.peek()
	if tok.kind == tokIdent && strings.EqualFold(tok.text, kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectPunct(text string) error {
	tok := p.peek()
	if tok.kind == tokPunct && tok.text == text {
		p.advance()
		return nil
	}
	return fmt.Errorf("sqlparse: expected %q at position %d, found %q", text, tok.pos, tok.text)
}

func (p *parser) expectKeyword(kw string) error {
	if !p.keyword(kw) {
		tok := p.peek()
		return fmt.Errorf("sqlparse: expected %q at position %d, found %q", kw, tok.pos, tok.text)
	}
	return nil
}

func (p *parser) parseStatement() (gridwalk.QueryPlan, string, error) {
	var plan gridwalk.QueryPlan

	if err := p.expectKeyword("SELECT"); err != nil {
		return plan, "", err
	}
	projection, err := p.parseProjection()
	if err != nil {
		return plan, "", err
	}
	plan.Projection = projection

	if err := p.expectKeyword("FROM"); err != nil {
		return plan, "", err
	}
	tableTok := p.peek()
	if tableTok.kind != tokIdent {
		return plan, "", fmt.Errorf("sqlparse: expected table identifier at position %d", tableTok.pos)
	}
	p.advance()
	table := tableTok.text

	if p.keyword("WHERE") {
		where, err := p.parseOr()
		if err != nil {
			return plan, "", err
		}
		plan.Where = where
	}

	if p.keyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return plan, "", err
		}
		terms, err := p.parseOrderBy()
		if err != nil {
			return plan, "", err
		}
		plan.OrderBy = terms
	}

	if p.keyword("LIMIT") {
		n, err := p.parseIntLiteral()
		if err != nil {
			return plan, "", err
		}
		plan.Limit = &n
		if p.keyword("OFFSET") {
			m, err := p.parseIntLiteral()
			if err != nil {
				return plan, "", err
			}
			plan.Offset = &m
		}
	}

	return plan, table, nil
}

func (p *parser) parseProjection() ([]string, error) {
	if p.peek().kind == tokPunct && p.peek().text == "*" {
		p.advance()
		return []string{gridwalk.ProjectionAll}, nil
	}
	var cols []string
	for {
		tok := p.peek()
		if tok.kind != tokIdent {
			return nil, fmt.Errorf("sqlparse: expected column name at position %d", tok.pos)
		}
		p.advance()
		cols = append(cols, tok.text)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	return cols, nil
}

func (p *parser) parseOrderBy() ([]gridwalk.OrderTerm, error) {
	var terms []gridwalk.OrderTerm
	for {
		tok := p.peek()
		if tok.kind != tokIdent {
			return nil, fmt.Errorf("sqlparse: expected column name at position %d", tok.pos)
		}
		p.advance()
		term := gridwalk.OrderTerm{Column: tok.text, Ascending: true}
		if p.keyword("DESC") {
			term.Ascending = false
		} else {
			p.keyword("ASC")
		}
		terms = append(terms, term)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	return terms, nil
}

func (p *parser) parseIntLiteral() (int, error) {
	tok := p.peek()
	if tok.kind != tokNumber {
		return 0, fmt.Errorf("sqlparse: expected integer at position %d", tok.pos)
	}
	p.advance()
	n, err := strconv.Atoi(tok.text)
	if err != nil {
		return 0, fmt.Errorf("sqlparse: invalid integer %q at position %d", tok.text, tok.pos)
	}
	return n, nil
}

// parseOr / parseAnd / parseNot implement OR < AND < NOT precedence.
func (p *parser) parseOr() (gridwalk.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []gridwalk.Expr{left}
	for p.keyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &gridwalk.Logical{Op: gridwalk.LogicOr, Children: children}, nil
}

func (p *parser) parseAnd() (gridwalk.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	children := []gridwalk.Expr{left}
	for p.keyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &gridwalk.Logical{Op: gridwalk.LogicAnd, Children: children}, nil
}

func (p *parser) parseNot() (gridwalk.Expr, error) {
	if p.keyword("NOT") {
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &gridwalk.Logical{Op: gridwalk.LogicNot, Children: []gridwalk.Expr{child}}, nil
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (gridwalk.Expr, error) {
	if p.peek().kind == tokPunct && p.peek().text == "(" {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, isStringMethod := left.(*gridwalk.StringMethod); isStringMethod {
		return left, nil
	}
	return p.parseComparisonOrSpecial(left)
}

func (p *parser) parseComparisonOrSpecial(left gridwalk.Expr) (gridwalk.Expr, error) {
	tok := p.peek()

	if tok.kind == tokPunct {
		if op, ok := comparisonOps[tok.text]; ok {
			p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			return &gridwalk.Comparison{Left: left, Op: op, Right: right}, nil
		}
	}

	if tok.kind == tokIdent && strings.EqualFold(tok.text, "IN") {
		p.advance()
		list, err := p.parseLiteralList()
		if err != nil {
			return nil, err
		}
		return &gridwalk.In{Column: left, List: list}, nil
	}

	if tok.kind == tokIdent && strings.EqualFold(tok.text, "BETWEEN") {
		p.advance()
		low, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		high, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &gridwalk.Between{Column: left, Low: low, High: high}, nil
	}

	return nil, fmt.Errorf("sqlparse: expected comparison operator, IN, or BETWEEN at position %d, found %q", tok.pos, tok.text)
}

var comparisonOps = map[string]gridwalk.CompareOp{
	"=":  gridwalk.OpEquals,
	"!=": gridwalk.OpNotEquals,
	"<":  gridwalk.OpLess,
	"<=": gridwalk.OpLessEq,
	">":  gridwalk.OpGreater,
	">=": gridwalk.OpGreaterEq,
}

func (p *parser) parseLiteralList() ([]gridwalk.Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var list []gridwalk.Expr
	for {
		item, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return list, nil
}

// parseTerm parses a literal, a bare column reference, or a column reference
// followed by a dotted string-method call (`col.StartsWith('x')`).
func (p *parser) parseTerm() (gridwalk.Expr, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokNumber:
		p.advance()
		return numberLiteral(tok.text)
	case tok.kind == tokString:
		p.advance()
		return &gridwalk.Literal{Value: gridwalk.StringValue(tok.text)}, nil
	case tok.kind == tokIdent:
		upper := strings.ToUpper(tok.text)
		switch upper {
		case "TRUE", "FALSE":
			p.advance()
			return &gridwalk.Literal{Value: gridwalk.BoolValue(upper == "TRUE")}, nil
		case "NULL":
			p.advance()
			return &gridwalk.Literal{Value: gridwalk.NullValue(gridwalk.ColumnNull)}, nil
		case "DATETIME":
			return p.parseDateTimeLiteral()
		default:
			p.advance()
			col := &gridwalk.ColumnRef{Name: tok.text}
			return p.maybeStringMethod(col)
		}
	default:
		return nil, fmt.Errorf("sqlparse: expected value or column at position %d, found %q", tok.pos, tok.text)
	}
}

func numberLiteral(text string) (gridwalk.Expr, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &gridwalk.Literal{Value: gridwalk.IntValue(i)}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("sqlparse: invalid numeric literal %q", text)
	}
	return &gridwalk.Literal{Value: gridwalk.FloatValue(f)}, nil
}

var stringMethods = map[string]gridwalk.StringMethodKind{
	"STARTSWITH":    gridwalk.StringStartsWith,
	"ENDSWITH":      gridwalk.StringEndsWith,
	"CONTAINS":      gridwalk.StringContains,
	"ISNULLOREMPTY": gridwalk.StringIsNullOrEmpty,
}

// maybeStringMethod consumes an optional `.Method(arg[, ignoreCase])` suffix
// on a column reference.
func (p *parser) maybeStringMethod(col *gridwalk.ColumnRef) (gridwalk.Expr, error) {
	if !(p.peek().kind == tokPunct && p.peek().text == ".") {
		return col, nil
	}
	p.advance()
	nameTok := p.peek()
	if nameTok.kind != tokIdent {
		return nil, fmt.Errorf("sqlparse: expected method name at position %d", nameTok.pos)
	}
	kind, ok := stringMethods[strings.ToUpper(nameTok.text)]
	if !ok {
		return nil, fmt.Errorf("sqlparse: unknown string method %q at position %d", nameTok.text, nameTok.pos)
	}
	p.advance()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	method := &gridwalk.StringMethod{Column: col, Kind: kind}
	if !(p.peek().kind == tokPunct && p.peek().text == ")") {
		argTok := p.peek()
		if argTok.kind != tokString {
			return nil, fmt.Errorf("sqlparse: expected string argument at position %d", argTok.pos)
		}
		p.advance()
		method.Arg = argTok.text

		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			flagTok := p.peek()
			if flagTok.kind != tokIdent {
				return nil, fmt.Errorf("sqlparse: expected boolean ignore-case flag at position %d", flagTok.pos)
			}
			p.advance()
			method.IgnoreCase = strings.EqualFold(flagTok.text, "true")
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return method, nil
}

func (p *parser) parseDateTimeLiteral() (gridwalk.Expr, error) {
	p.advance() // consume "DateTime"
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	parts := make([]int, 0, 6)
	for {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
		if p.peek().kind == tokPunct && p.peek().text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if len(parts) != 3 && len(parts) != 6 {
		return nil, fmt.Errorf("sqlparse: DateTime() expects 3 (y,m,d) or 6 (y,m,d,h,mi,s) arguments, got %d", len(parts))
	}
	lit := &gridwalk.DateTimeLiteral{Year: parts[0], Month: parts[1], Day: parts[2]}
	if len(parts) == 6 {
		lit.Hour, lit.Minute, lit.Second = parts[3], parts[4], parts[5]
	}
	return lit, nil
}
