// Package query builds and runs SQL statements over declared tables.
//
// A Builder describes a query over one schema.Table: its filters, the
// relations it traverses, ordering, paging, selected columns and, for
// updates, its assignments. Builders are immutable and compile to the text
// of any supported dialect:
//
//	var (
//		price = query.Numeric[float64]("price")
//		name  = query.Text[string]("name")
//	)
//	q := query.New(products).
//		Where(price.GT(10), name.Like("%tea%")).
//		OrderByDesc("price").
//		Limit(10)
//	text, args, err := q.Build(dialect.Postgres)
//
// # Relations
//
// WhereRelation keeps rows that have a related row matching another query.
// MapQuery moves a query across a relation, selecting the related rows of
// the rows it selected. Both compile to correlated EXISTS subqueries, or to
// IN subqueries when the related query is paged. Join merges a related query
// into the same statement.
//
// # Mutations
//
// Delete and Update act on the rows a query selects. A paged mutation is
// rewritten to match the primary keys of the paged SELECT, so LIMIT works
// on every dialect.
//
// # Errors
//
// Shaping calls never fail; mistakes such as unknown columns are collected
// and reported by Err, Build and every execution method. Failures of the
// database are returned as *weld.QueryError carrying the statement text.
package query
