package query

import (
	"fmt"
	"strings"

	"github.com/syssam/weld/dialect"
)

// ExistIn filters the rows of an enclosing query by a correlated subquery
// over a related table. It renders as
//
//	EXISTS ( SELECT inner FROM table tN WHERE ... AND tN.inner = outer.col )
//
// or, when the inner query carries a LIMIT or OFFSET, as
//
//	outer.col IN (SELECT tN.inner FROM table tN WHERE ... ORDER BY ... LIMIT ...)
//
// since only IN can restrict the match to the first N related rows. The
// inner alias is assigned per compilation and nested subqueries correlate
// to their immediate parent.
type ExistIn struct {
	OuterColumn string
	InnerColumn string
	Inner       *Builder

	// mapped is set for the subquery MapQuery builds over the previous root.
	// Its alias is allocated before the alias of the new root.
	mapped bool
}

func (e *ExistIn) usingIn() bool {
	return e.Inner.limit != nil || e.Inner.offset != nil
}

func (e *ExistIn) bind(dst []arg) []arg {
	for _, w := range e.Inner.wheres {
		dst = w.bind(dst)
	}
	for _, sub := range e.Inner.exists {
		dst = sub.bind(dst)
	}
	return dst
}

// render writes the subquery for the enclosing alias. sc holds the aliases
// assigned to the inner query.
func (e *ExistIn) render(s dialect.Syntax, outer string, sc *scope, p *dialect.NextParam) string {
	var (
		inner = e.Inner
		alias = sc.alias
		parts []string
	)
	for _, w := range inner.wheres {
		if sql, ok := w.render(s, alias, p); ok {
			parts = append(parts, sql)
		}
	}
	if !e.usingIn() {
		parts = append(parts, fmt.Sprintf("%s.%s = %s.%s", alias, e.InnerColumn, outer, e.OuterColumn))
	}
	for i, sub := range inner.exists {
		parts = append(parts, sub.render(s, alias, sc.exists[i], p))
	}
	clauses := strings.Join(parts, " AND ")
	table := inner.table.Ident.String()
	if !e.usingIn() {
		// Order means nothing inside EXISTS and SQL Server rejects it.
		return fmt.Sprintf("EXISTS ( SELECT %s FROM %s %s WHERE %s )", e.InnerColumn, table, alias, clauses)
	}
	tail, _ := writeTail(s, inner.limit, inner.offset, inner.orders, alias)
	sub := []string{"SELECT " + alias + "." + e.InnerColumn, "FROM", table, alias}
	if clauses != "" {
		sub = append(sub, "WHERE "+clauses)
	}
	if tail != "" {
		sub = append(sub, tail)
	}
	return fmt.Sprintf("%s.%s IN (%s)", outer, e.OuterColumn, strings.Join(sub, " "))
}

// scope holds the aliases assigned to a builder tree for one compilation.
// exists and joins are parallel to the builder's own slices.
type scope struct {
	alias  string
	exists []*scope
	joins  []*scope
}

// plan assigns the aliases of a builder tree. Subqueries created by MapQuery
// are allocated first, then the builder itself, then its relation filters
// and finally its joins. A non empty force is used as the builder alias
// without consuming the allocator; mutations address their table by name.
func plan(b *Builder, a *dialect.TableAlias, force string) *scope {
	sc := &scope{
		exists: make([]*scope, len(b.exists)),
		joins:  make([]*scope, len(b.joins)),
	}
	for i, e := range b.exists {
		if e.mapped {
			sc.exists[i] = plan(e.Inner, a, "")
		}
	}
	if force != "" {
		sc.alias = force
	} else {
		sc.alias = a.Next()
	}
	for i, e := range b.exists {
		if !e.mapped {
			sc.exists[i] = plan(e.Inner, a, "")
		}
	}
	for i, j := range b.joins {
		sc.joins[i] = plan(j.Inner, a, "")
	}
	return sc
}

// aliases returns every alias of the scope tree, outer first.
func (sc *scope) aliases() []string {
	names := []string{sc.alias}
	for _, sub := range sc.exists {
		names = append(names, sub.aliases()...)
	}
	for _, sub := range sc.joins {
		names = append(names, sub.aliases()...)
	}
	return names
}
