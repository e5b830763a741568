package query

import (
	"fmt"
	"strings"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
)

// compiler holds the state of one compilation. Allocators are created per
// compilation and never shared, so builders compile concurrently.
type compiler struct {
	syntax  dialect.Syntax
	aliases *dialect.TableAlias
	params  *dialect.NextParam
	args    []arg
}

func newCompiler(s dialect.Syntax) *compiler {
	return &compiler{
		syntax:  s,
		aliases: dialect.NewTableAlias(),
		params:  dialect.NewNextParam(s),
	}
}

// clause binds and renders a where clause.
func (c *compiler) clause(cl Clause, alias string) (string, bool) {
	c.args = cl.bind(c.args)
	return cl.render(c.syntax, alias, c.params)
}

// exist binds and renders a relation subquery.
func (c *compiler) exist(e *ExistIn, outer string, sc *scope) string {
	c.args = e.bind(c.args)
	return e.render(c.syntax, outer, sc, c.params)
}

// whereClauses renders the filters of b: its clauses, then its relation
// subqueries.
func (c *compiler) whereClauses(b *Builder, sc *scope, dst []string) []string {
	for _, w := range b.wheres {
		if sql, ok := c.clause(w, sc.alias); ok {
			dst = append(dst, sql)
		}
	}
	for i, e := range b.exists {
		dst = append(dst, c.exist(e, sc.alias, sc.exists[i]))
	}
	return dst
}

// joinClauses renders the filters of joined queries under their aliases.
func (c *compiler) joinClauses(b *Builder, sc *scope, dst []string) []string {
	for i, j := range b.joins {
		dst = c.whereClauses(j.Inner, sc.joins[i], dst)
		dst = c.joinClauses(j.Inner, sc.joins[i], dst)
	}
	return dst
}

func writeWhere(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE ( " + strings.Join(clauses, " AND ") + " )"
}

// joinParts joins the non empty parts of a statement with a space.
func joinParts(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// writeSelect writes the SELECT statement of b for an assigned scope.
func (c *compiler) writeSelect(b *Builder, sc *scope) string {
	s := c.syntax
	clauses := c.whereClauses(b, sc, nil)
	clauses = c.joinClauses(b, sc, clauses)
	var group string
	if cols := b.collectGroupBy(s, sc, nil); len(cols) > 0 {
		group = "GROUP BY " + strings.Join(cols, ", ")
	}
	tail, _ := writeTail(s, b.limit, b.offset, b.orders, sc.alias)
	// Paging clauses may end with a space; the statement does not.
	return strings.TrimSpace(joinParts(
		b.writeHead(s, sc),
		strings.Join(b.writeJoins(s, sc, nil), " "),
		writeWhere(clauses),
		group,
		tail,
	))
}

func (b *Builder) selectStmt(c *compiler) (string, error) {
	if err := b.checkGroupBy(); err != nil {
		return "", err
	}
	return c.writeSelect(b, plan(b, c.aliases, "")), nil
}

// countStmt counts the rows the query selects. Paged or grouped queries are
// counted through a derived table, so the count honors LIMIT and OFFSET.
func (b *Builder) countStmt(c *compiler) (string, error) {
	s := c.syntax
	sc := plan(b, c.aliases, "")
	count := s.Count("*")
	if b.limit != nil || b.offset != nil || len(b.groupBy) > 0 {
		if err := b.checkGroupBy(); err != nil {
			return "", err
		}
		inner := c.writeSelect(b, sc)
		return fmt.Sprintf("SELECT %s FROM ( %s ) AS %s", count, inner, c.aliases.Next()), nil
	}
	clauses := c.whereClauses(b, sc, nil)
	clauses = c.joinClauses(b, sc, clauses)
	return joinParts(
		"SELECT "+count+" FROM "+b.table.Ident.Write(s)+" "+sc.alias,
		strings.Join(b.writeJoins(s, sc, nil), " "),
		writeWhere(clauses),
	), nil
}

// compile runs a statement writer with fresh allocators. Errors returned
// here are structural (the statement can not be written at all).
func (b *Builder) compile(s dialect.Syntax, stmt func(*compiler) (string, error)) (string, []arg, error) {
	if b.table == nil {
		return "", nil, fmt.Errorf("query: nil table")
	}
	c := newCompiler(s)
	sql, err := stmt(c)
	if err != nil {
		return "", nil, err
	}
	if n := c.params.Count(); n != len(c.args) {
		return "", nil, fmt.Errorf("query: %d values bound for %d placeholders in %q", len(c.args), n, sql)
	}
	return sql, c.args, nil
}

// build compiles the statement and encodes its arguments for the dialect.
func (b *Builder) build(s dialect.Syntax, stmt func(*compiler) (string, error)) (string, []any, error) {
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	sql, args, err := b.compile(s, stmt)
	if err != nil {
		return "", nil, err
	}
	values, err := encode(s, args)
	if err != nil {
		return "", nil, err
	}
	return sql, values, nil
}

func (b *Builder) text(s dialect.Syntax, stmt func(*compiler) (string, error)) string {
	sql, _, _ := b.compile(s, stmt)
	return sql
}

// encode converts bound values for the dialect. Values the dialect can not
// bind are reported before anything is sent to the database.
func encode(s dialect.Syntax, args []arg) ([]any, error) {
	var (
		errs   []error
		values = make([]any, len(args))
	)
	for i, a := range args {
		v, err := s.Encode(a.value)
		if err != nil {
			errs = append(errs, &weld.EncodingError{Dialect: s.String(), Column: a.column, Value: a.value, Err: err})
			continue
		}
		values[i] = v
	}
	if err := weld.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return values, nil
}

// ToSQL returns the SELECT statement of the query. The text of a query that
// can not be compiled is empty; Build reports why.
func (b *Builder) ToSQL(s dialect.Syntax) string {
	return b.text(s, b.selectStmt)
}

// Build returns the SELECT statement and its arguments in placeholder order.
func (b *Builder) Build(s dialect.Syntax) (string, []any, error) {
	return b.build(s, b.selectStmt)
}

// ToSQLCount returns the statement counting the rows of the query.
func (b *Builder) ToSQLCount(s dialect.Syntax) string {
	return b.text(s, b.countStmt)
}

// BuildCount returns the counting statement and its arguments.
func (b *Builder) BuildCount(s dialect.Syntax) (string, []any, error) {
	return b.build(s, b.countStmt)
}
