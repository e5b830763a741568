package query

import (
	"fmt"
	"strings"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/schema"
)

// Clause is one predicate of a WHERE condition. The set of clauses is
// closed: ColumnCompare, ColumnIn, Logical, Negate and Manual.
//
// A clause binds exactly the values it renders placeholders for, in the same
// order. Callers must invoke bind and render on the same traversal.
type Clause interface {
	// bind appends the values of the clause to dst in placeholder order.
	bind(dst []arg) []arg
	// render writes the clause for the table alias. It reports false when
	// the clause has nothing to contribute.
	render(s dialect.Syntax, alias string, p *dialect.NextParam) (string, bool)
	// validate checks the clause against the table it is applied to.
	validate(t *schema.Table) error
}

// arg is one bound value and the column it was bound for.
type arg struct {
	column string
	value  any
}

// Logical operators.
const (
	OpAnd = "AND"
	OpOr  = "OR"
)

type (
	// ColumnCompare compares a column with a single value. When NullClause is
	// set the value is ignored and the clause renders IS NULL (IS NOT NULL
	// with Negate) without binding anything.
	ColumnCompare struct {
		Column     string
		Op         string
		Value      any
		NullClause bool
		Negate     bool
	}

	// ColumnIn tests a column for membership in a list of values.
	ColumnIn struct {
		Column string
		Op     string // IN or NOT IN
		Values []any
	}

	// Logical joins two clauses with AND or OR.
	Logical struct {
		Left  Clause
		Op    string
		Right Clause
	}

	// Negate wraps a clause in NOT.
	Negate struct {
		Inner Clause
	}

	// Manual is a hand written fragment. Each ? is replaced by the next
	// placeholder and each $ by the table alias. When Column is set the
	// fragment is written after the aliased column.
	Manual struct {
		Column string
		SQL    string
		Params []any
	}
)

var (
	_ Clause = (*ColumnCompare)(nil)
	_ Clause = (*ColumnIn)(nil)
	_ Clause = (*Logical)(nil)
	_ Clause = (*Negate)(nil)
	_ Clause = (*Manual)(nil)
)

func (c *ColumnCompare) bind(dst []arg) []arg {
	if c.NullClause {
		return dst
	}
	return append(dst, arg{column: c.Column, value: c.Value})
}

func (c *ColumnCompare) render(s dialect.Syntax, alias string, p *dialect.NextParam) (string, bool) {
	col := alias + "." + c.Column
	if c.NullClause {
		if c.Negate {
			return col + " IS NOT NULL", true
		}
		return col + " IS NULL", true
	}
	op := c.Op
	if s == dialect.SQLite {
		switch op {
		case "ilike":
			op = "like"
		case "not ilike":
			op = "not like"
		}
	}
	return col + " " + op + " " + p.Next(), true
}

func (c *ColumnCompare) validate(t *schema.Table) error {
	return checkColumn(t, c.Column)
}

func (c *ColumnIn) bind(dst []arg) []arg {
	for _, v := range c.Values {
		dst = append(dst, arg{column: c.Column, value: v})
	}
	return dst
}

func (c *ColumnIn) render(_ dialect.Syntax, alias string, p *dialect.NextParam) (string, bool) {
	if len(c.Values) == 0 {
		// Nothing is in an empty list.
		if c.Op == "NOT IN" {
			return "1=1", true
		}
		return "1=0", true
	}
	var b strings.Builder
	b.WriteString(alias + "." + c.Column + " " + c.Op + " (")
	for i := range c.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Next())
	}
	b.WriteByte(')')
	return b.String(), true
}

func (c *ColumnIn) validate(t *schema.Table) error {
	return checkColumn(t, c.Column)
}

func (c *Logical) bind(dst []arg) []arg {
	if c.Left != nil {
		dst = c.Left.bind(dst)
	}
	if c.Right != nil {
		dst = c.Right.bind(dst)
	}
	return dst
}

func (c *Logical) render(s dialect.Syntax, alias string, p *dialect.NextParam) (string, bool) {
	var (
		left, right       string
		hasLeft, hasRight bool
	)
	if c.Left != nil {
		left, hasLeft = c.Left.render(s, alias, p)
	}
	if c.Right != nil {
		right, hasRight = c.Right.render(s, alias, p)
	}
	switch {
	case hasLeft && hasRight:
		return "(" + left + " " + c.Op + " " + right + ")", true
	case hasLeft:
		return left, true
	case hasRight:
		return right, true
	}
	return "", false
}

func (c *Logical) validate(t *schema.Table) error {
	var errs []error
	for _, cl := range []Clause{c.Left, c.Right} {
		if cl != nil {
			errs = append(errs, cl.validate(t))
		}
	}
	return weld.NewAggregateError(errs...)
}

func (c *Negate) bind(dst []arg) []arg {
	if c.Inner == nil {
		return dst
	}
	return c.Inner.bind(dst)
}

func (c *Negate) render(s dialect.Syntax, alias string, p *dialect.NextParam) (string, bool) {
	if c.Inner == nil {
		return "", false
	}
	inner, ok := c.Inner.render(s, alias, p)
	if !ok {
		return "", false
	}
	return "(NOT (" + inner + "))", true
}

func (c *Negate) validate(t *schema.Table) error {
	if c.Inner == nil {
		return nil
	}
	return c.Inner.validate(t)
}

func (c *Manual) bind(dst []arg) []arg {
	for _, v := range c.Params {
		dst = append(dst, arg{column: c.Column, value: v})
	}
	return dst
}

func (c *Manual) render(_ dialect.Syntax, alias string, p *dialect.NextParam) (string, bool) {
	var b strings.Builder
	if c.Column != "" {
		b.WriteString(alias + "." + c.Column + " ")
	}
	b.WriteString(expand(c.SQL, alias, p))
	return b.String(), true
}

func (c *Manual) validate(t *schema.Table) error {
	if n := strings.Count(c.SQL, "?"); n != len(c.Params) {
		return fmt.Errorf("query: fragment %q has %d placeholders for %d params", c.SQL, n, len(c.Params))
	}
	if c.Column == "" {
		return nil
	}
	return checkColumn(t, c.Column)
}

// expand replaces ? with placeholders and $ with the alias.
func expand(sql, alias string, p *dialect.NextParam) string {
	var b strings.Builder
	for _, r := range sql {
		switch r {
		case '?':
			b.WriteString(p.Next())
		case '$':
			b.WriteString(alias)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func checkColumn(t *schema.Table, column string) error {
	if t == nil || t.HasColumn(column) {
		return nil
	}
	return weld.NewValidationError(t.String()+"."+column, weld.ErrUnknownColumn)
}

// And returns a clause matching rows that match both clauses.
func And(left, right Clause) Clause {
	return &Logical{Left: left, Op: OpAnd, Right: right}
}

// Or returns a clause matching rows that match either clause.
func Or(left, right Clause) Clause {
	return &Logical{Left: left, Op: OpOr, Right: right}
}

// Not negates a clause.
func Not(c Clause) Clause {
	return &Negate{Inner: c}
}

// Raw returns a hand written where fragment:
//
//	query.Raw("$.price * $.qty > ?", 100)
func Raw(sql string, params ...any) Clause {
	return &Manual{SQL: sql, Params: params}
}

// RawColumn returns a hand written fragment applied to a column:
//
//	query.RawColumn("price", "BETWEEN ? AND ?", 1, 10)
func RawColumn(column, sql string, params ...any) Clause {
	return &Manual{Column: column, SQL: sql, Params: params}
}

// operators accepted by Compare, keyed by their normalized spelling.
var operators = map[string]string{
	"=":         "=",
	"==":        "=",
	"eq":        "=",
	"!=":        "!=",
	"<>":        "!=",
	"ne":        "!=",
	">":         ">",
	"gt":        ">",
	">=":        ">=",
	"gte":       ">=",
	"<":         "<",
	"lt":        "<",
	"<=":        "<=",
	"lte":       "<=",
	"like":      "like",
	"not like":  "not like",
	"ilike":     "ilike",
	"not ilike": "not ilike",
}

// Compare returns a clause for an operator given by name, for callers that
// read predicates from configuration. A nil value with = or != renders
// IS NULL or IS NOT NULL.
func Compare(column, op string, v any) (Clause, error) {
	norm, ok := operators[strings.Join(strings.Fields(strings.ToLower(op)), " ")]
	if !ok {
		return nil, fmt.Errorf("query: unknown operator %q", op)
	}
	if v == nil {
		switch norm {
		case "=":
			return &ColumnCompare{Column: column, Op: norm, NullClause: true}, nil
		case "!=":
			return &ColumnCompare{Column: column, Op: norm, NullClause: true, Negate: true}, nil
		}
		return nil, fmt.Errorf("query: operator %q needs a value", op)
	}
	if vs, ok := v.([]any); ok {
		switch norm {
		case "=":
			return &ColumnIn{Column: column, Op: "IN", Values: vs}, nil
		case "!=":
			return &ColumnIn{Column: column, Op: "NOT IN", Values: vs}, nil
		}
	}
	return &ColumnCompare{Column: column, Op: norm, Value: v}, nil
}
