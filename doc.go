// Package weld holds the errors and the cache contract shared by the weld
// packages.
//
// Statements are built with package query against tables declared with
// package schema, compiled for one of the dialects of package dialect and
// run through the drivers of package dialect/sql:
//
//	products := schema.NewTable("products",
//	    schema.Col("pid", "BIGINT").Key(),
//	    schema.Col("name", "TEXT"),
//	)
//	q := query.New(products).Where(query.Text[string]("name").Like("%tea%")).Limit(10)
//	text, args, err := q.Build(dialect.Postgres)
//
// Errors returned by every package can be inspected with the helpers of
// this package, such as IsNotFound, IsValidationError and IsConstraintError.
package weld
