package query

import (
	"strings"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
)

// SelectKind is the kind of a selected column.
type SelectKind uint8

// Select kinds.
const (
	SelectPlain SelectKind = iota
	SelectCount
	SelectMax
	SelectMin
	SelectAll
)

// SelectColumn is one column of the SELECT head.
type SelectColumn struct {
	Column string
	As     string
	Kind   SelectKind
}

func (c SelectColumn) aggregate() bool {
	switch c.Kind {
	case SelectCount, SelectMax, SelectMin:
		return true
	}
	return false
}

func (c SelectColumn) write(s dialect.Syntax, alias string) string {
	if c.Kind == SelectAll {
		return alias + ".*"
	}
	col := "*"
	if c.Column != "*" {
		col = s.WriteColumn(alias, c.Column)
	}
	expr := col
	switch c.Kind {
	case SelectCount:
		expr = s.Count(col)
	case SelectMax:
		expr = "MAX(" + col + ")"
	case SelectMin:
		expr = "MIN(" + col + ")"
	}
	if c.As != "" && (c.Kind != SelectPlain || c.As != c.Column) {
		expr += " AS " + s.QuoteIdentifier(c.As)
	}
	return expr
}

// JoinKind is the kind of a join.
type JoinKind uint8

// Join kinds.
const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	CrossJoin
)

// String returns the SQL keyword of the join.
func (k JoinKind) String() string {
	switch k {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

// Join joins the query of a related table. The selected columns, filters and
// groupings of Inner are merged into the enclosing statement under the
// join's alias.
type Join struct {
	Kind     JoinKind
	OuterKey string
	InnerKey string
	Inner    *Builder
}

func (b *Builder) addSelect(cols ...SelectColumn) *Builder {
	nb := b.Clone()
	for _, c := range cols {
		if c.Kind != SelectAll && c.Column != "*" {
			nb.checkColumns(c.Column)
		}
		nb.selects = append(nb.selects, c)
	}
	return nb
}

// Select selects only the given columns.
func (b *Builder) Select(columns ...string) *Builder {
	cols := make([]SelectColumn, len(columns))
	for i, c := range columns {
		cols[i] = SelectColumn{Column: c}
	}
	return b.addSelect(cols...)
}

// SelectAs selects a column under another name.
func (b *Builder) SelectAs(column, as string) *Builder {
	return b.addSelect(SelectColumn{Column: column, As: as})
}

// SelectCount selects the number of non-null values of a column ("*" counts
// rows).
func (b *Builder) SelectCount(column, as string) *Builder {
	return b.addSelect(SelectColumn{Column: column, As: asOr(as, column), Kind: SelectCount})
}

// SelectMax selects the largest value of a column.
func (b *Builder) SelectMax(column, as string) *Builder {
	return b.addSelect(SelectColumn{Column: column, As: asOr(as, column), Kind: SelectMax})
}

// SelectMin selects the smallest value of a column.
func (b *Builder) SelectMin(column, as string) *Builder {
	return b.addSelect(SelectColumn{Column: column, As: asOr(as, column), Kind: SelectMin})
}

// SelectAll selects every column of the table (alias.*).
func (b *Builder) SelectAll() *Builder {
	return b.addSelect(SelectColumn{Kind: SelectAll})
}

// asOr names an aggregate after its column when no name is given.
func asOr(as, column string) string {
	switch {
	case as != "":
		return as
	case column == "*":
		return "count"
	}
	return column
}

// GroupBy groups the rows by the given columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	nb := b.Clone()
	nb.checkColumns(columns...)
	nb.groupBy = append(nb.groupBy, columns...)
	return nb
}

// Join inner joins the query of the table reached through the named relation.
func (b *Builder) Join(name string, inner *Builder) *Builder {
	return b.JoinWith(InnerJoin, name, inner)
}

// LeftJoin left joins the query of the table reached through the named relation.
func (b *Builder) LeftJoin(name string, inner *Builder) *Builder {
	return b.JoinWith(LeftJoin, name, inner)
}

// RightJoin right joins the query of the table reached through the named relation.
func (b *Builder) RightJoin(name string, inner *Builder) *Builder {
	return b.JoinWith(RightJoin, name, inner)
}

// CrossJoin cross joins the query of the table reached through the named
// relation. The relation keys are not used.
func (b *Builder) CrossJoin(name string, inner *Builder) *Builder {
	return b.JoinWith(CrossJoin, name, inner)
}

// JoinWith joins the query of the table reached through the named relation
// with the given kind of join.
func (b *Builder) JoinWith(kind JoinKind, name string, inner *Builder) *Builder {
	nb := b.Clone()
	my, their, rel, err := b.relation(name, inner)
	if err != nil {
		nb.fail(err)
		return nb
	}
	if inner == nil {
		inner = New(rel.Related)
	}
	nb.joins = append(nb.joins, &Join{Kind: kind, OuterKey: my, InnerKey: their, Inner: inner})
	return nb
}

// selectMode reports whether the head is made of explicitly selected columns.
func (b *Builder) selectMode() bool {
	return len(b.selects) > 0 || len(b.joins) > 0
}

func (b *Builder) collectSelects(s dialect.Syntax, sc *scope, dst []string) []string {
	for _, c := range b.selects {
		dst = append(dst, c.write(s, sc.alias))
	}
	for i, j := range b.joins {
		dst = j.Inner.collectSelects(s, sc.joins[i], dst)
	}
	return dst
}

func (b *Builder) defaultColumns(s dialect.Syntax, alias string) []string {
	cols := make([]string, len(b.table.Columns))
	for i, c := range b.table.Columns {
		cols[i] = s.WriteColumn(alias, c.Name)
	}
	return cols
}

func (b *Builder) writeHead(s dialect.Syntax, sc *scope) string {
	var cols []string
	if b.selectMode() {
		cols = b.collectSelects(s, sc, nil)
	}
	if len(cols) == 0 {
		cols = b.defaultColumns(s, sc.alias)
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + b.table.Ident.Write(s) + " " + sc.alias
}

func (b *Builder) writeJoins(s dialect.Syntax, sc *scope, dst []string) []string {
	for i, j := range b.joins {
		inner := sc.joins[i]
		sql := j.Kind.String() + " " + j.Inner.table.Ident.String() + " " + inner.alias
		if j.Kind != CrossJoin {
			sql += " ON " + s.WriteColumn(sc.alias, j.OuterKey) + " = " + s.WriteColumn(inner.alias, j.InnerKey)
		}
		dst = append(dst, sql)
		dst = j.Inner.writeJoins(s, inner, dst)
	}
	return dst
}

func (b *Builder) collectGroupBy(s dialect.Syntax, sc *scope, dst []string) []string {
	for _, c := range b.groupBy {
		dst = append(dst, s.WriteColumn(sc.alias, c))
	}
	for i, j := range b.joins {
		dst = j.Inner.collectGroupBy(s, sc.joins[i], dst)
	}
	return dst
}

// checkGroupBy reports aggregate and plain columns selected together
// without a grouping.
func (b *Builder) checkGroupBy() error {
	var agg, plain, grouped bool
	var walk func(*Builder)
	walk = func(q *Builder) {
		for _, c := range q.selects {
			if c.aggregate() {
				agg = true
			} else {
				plain = true
			}
		}
		grouped = grouped || len(q.groupBy) > 0
		for _, j := range q.joins {
			walk(j.Inner)
		}
	}
	walk(b)
	if agg && plain && !grouped {
		return weld.ErrColumnMissingFromGroupBy
	}
	return nil
}
