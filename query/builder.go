package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/weld"
	"github.com/syssam/weld/schema"
)

// Builder is an unexecuted query over one table. Builders are immutable:
// every shaping call returns a new Builder and leaves the receiver as it was,
// so a builder can be shared, extended in several directions and compiled
// any number of times.
//
// Mistakes such as unknown columns or relations are collected while shaping
// and reported by Build and the execution methods.
type Builder struct {
	table   *schema.Table
	wheres  []Clause
	exists  []*ExistIn
	joins   []*Join
	groupBy []string
	orders  []OrderBy
	limit   *int64
	offset  *int64
	selects []SelectColumn
	sets    []Assignment
	errs    []error
}

// New returns an empty query over the table.
func New(t *schema.Table) *Builder {
	b := &Builder{table: t}
	if t == nil {
		b.errs = append(b.errs, fmt.Errorf("query: nil table"))
	}
	return b
}

// Table returns the table the query selects from.
func (b *Builder) Table() *schema.Table {
	return b.table
}

// Clone returns a copy of the builder.
func (b *Builder) Clone() *Builder {
	return &Builder{
		table:   b.table,
		wheres:  slices.Clone(b.wheres),
		exists:  slices.Clone(b.exists),
		joins:   slices.Clone(b.joins),
		groupBy: slices.Clone(b.groupBy),
		orders:  slices.Clone(b.orders),
		limit:   b.limit,
		offset:  b.offset,
		selects: slices.Clone(b.selects),
		sets:    slices.Clone(b.sets),
		errs:    slices.Clone(b.errs),
	}
}

// Err returns the configuration errors of the query and of every query
// nested in it.
func (b *Builder) Err() error {
	return weld.NewAggregateError(b.collectErrs(nil)...)
}

func (b *Builder) collectErrs(dst []error) []error {
	dst = append(dst, b.errs...)
	for _, e := range b.exists {
		dst = e.Inner.collectErrs(dst)
	}
	for _, j := range b.joins {
		dst = j.Inner.collectErrs(dst)
	}
	return dst
}

func (b *Builder) fail(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

func (b *Builder) checkColumns(columns ...string) {
	for _, c := range columns {
		b.fail(checkColumn(b.table, c))
	}
}

// Where filters the query by the given clauses. Clauses are joined by AND.
func (b *Builder) Where(cs ...Clause) *Builder {
	nb := b.Clone()
	for _, c := range cs {
		if c == nil {
			continue
		}
		nb.fail(c.validate(b.table))
		nb.wheres = append(nb.wheres, c)
	}
	return nb
}

// relation resolves a named relation of the table, checking that the other
// query targets the related table.
func (b *Builder) relation(name string, other *Builder) (myKey, theirKey string, rel schema.Relation, err error) {
	if b.table == nil {
		return "", "", rel, fmt.Errorf("query: relation %q on nil table", name)
	}
	rel, err = b.table.Relation(name)
	if err != nil {
		return "", "", rel, err
	}
	if other != nil && other.table != nil && other.table.Ident != rel.Related.Ident {
		return "", "", rel, weld.NewValidationError(b.table.String()+"."+name,
			fmt.Errorf("relation targets %s, query targets %s", rel.Related, other.table))
	}
	myKey, theirKey, err = rel.Keys(b.table)
	return myKey, theirKey, rel, err
}

// subqueryErr reports the parts of inner a relation subquery can not render.
// A subquery only carries filters, nested relations, order and paging.
func (b *Builder) subqueryErr(name string, inner *Builder) error {
	var parts []string
	if len(inner.joins) > 0 {
		parts = append(parts, "joins")
	}
	if len(inner.selects) > 0 {
		parts = append(parts, "selected columns")
	}
	if len(inner.groupBy) > 0 {
		parts = append(parts, "GROUP BY")
	}
	if len(parts) == 0 {
		return nil
	}
	return weld.NewValidationError(b.table.String()+"."+name,
		fmt.Errorf("relation subquery over %s can not carry %s", inner.table, strings.Join(parts, ", ")))
}

// WhereRelation keeps the rows that have at least one related row, through
// the named relation, matching filter.
//
//	products := query.New(products).Where(Name.Equal("tea"))
//	orders := query.New(orders).WhereRelation("product", products)
func (b *Builder) WhereRelation(name string, filter *Builder) *Builder {
	nb := b.Clone()
	my, their, rel, err := b.relation(name, filter)
	if err != nil {
		nb.fail(err)
		return nb
	}
	if filter == nil {
		filter = New(rel.Related)
	}
	if err := b.subqueryErr(name, filter); err != nil {
		nb.fail(err)
		return nb
	}
	nb.exists = append(nb.exists, &ExistIn{OuterColumn: my, InnerColumn: their, Inner: filter})
	return nb
}

// MapQuery turns the query into a query over the table reached through the
// named relation: the result selects the related rows of the rows this query
// selects.
func (b *Builder) MapQuery(name string) *Builder {
	return b.mapOnto(name, nil)
}

// mapOnto is MapQuery with a starting query over the related table.
func (b *Builder) mapOnto(name string, onto *Builder) *Builder {
	my, their, rel, err := b.relation(name, onto)
	if err == nil {
		err = b.subqueryErr(name, b)
	}
	if err != nil {
		nb := b.Clone()
		nb.fail(err)
		return nb
	}
	var nb *Builder
	if onto == nil {
		nb = New(rel.Related)
	} else {
		nb = onto.Clone()
	}
	nb.exists = append(nb.exists, &ExistIn{OuterColumn: their, InnerColumn: my, Inner: b, mapped: true})
	return nb
}

// Limit limits the number of rows returned, updated or deleted.
func (b *Builder) Limit(n int64) *Builder {
	nb := b.Clone()
	nb.limit = &n
	return nb
}

// Offset skips the first n rows.
func (b *Builder) Offset(n int64) *Builder {
	nb := b.Clone()
	nb.offset = &n
	return nb
}

// OrderByAsc sorts by the column in ascending order. Multiple calls sort by
// multiple columns.
func (b *Builder) OrderByAsc(column string) *Builder {
	nb := b.Clone()
	nb.checkColumns(column)
	nb.orders = append(nb.orders, OrderBy{Expr: column, Dir: Asc})
	return nb
}

// OrderByDesc sorts by the column in descending order.
func (b *Builder) OrderByDesc(column string) *Builder {
	nb := b.Clone()
	nb.checkColumns(column)
	nb.orders = append(nb.orders, OrderBy{Expr: column, Dir: Desc})
	return nb
}

// OrderByManual sorts by an expression. Each $ is replaced with the table
// alias:
//
//	q.OrderByManual("$.price * $.qty DESC")
func (b *Builder) OrderByManual(expr string) *Builder {
	nb := b.Clone()
	nb.orders = append(nb.orders, OrderBy{Expr: expr, Manual: true})
	return nb
}
