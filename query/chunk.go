package query

import (
	"context"
	"fmt"

	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
)

// Chunk splits items into groups small enough for one statement of the
// dialect, when every item binds perItem parameters.
func Chunk[T any](s dialect.Syntax, items []T, perItem int) [][]T {
	return chunk(items, s.MaxParams()/max(perItem, 1))
}

func chunk[T any](items []T, size int) [][]T {
	size = max(size, 1)
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// RunIn runs the query once per group of values, filtering column by
// "IN (values)", and concatenates the rows. Groups are sized so each
// statement stays within the parameter limit of the dialect. A LIMIT on the
// query applies to each statement, not to the concatenated rows.
func (b *Builder) RunIn(ctx context.Context, c dialect.Client, column string, values []any) ([]sql.Row, error) {
	s := c.Syntax()
	if err := checkColumn(b.table, column); err != nil {
		return nil, err
	}
	_, args, err := b.compile(s, b.selectStmt)
	if err != nil {
		return nil, err
	}
	budget := s.MaxParams() - len(args)
	if budget < 1 {
		return nil, fmt.Errorf("query: %d parameters leave no room for %s values", len(args), column)
	}
	var out []sql.Row
	for _, group := range chunk(values, budget) {
		rows, err := b.Where(&ColumnIn{Column: column, Op: "IN", Values: group}).Run(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}
