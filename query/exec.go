package query

import (
	"context"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
)

// Operations reported in weld.QueryError.
const (
	OpSelect = "select"
	OpCount  = "count"
	OpUpdate = "update"
	OpDelete = "delete"
)

func (b *Builder) queryError(op, text string, err error) error {
	return weld.NewQueryError(b.table.String(), op, text, sql.Constraint(err))
}

// query builds a statement and runs it on c.
func (b *Builder) query(ctx context.Context, c dialect.Client, op string, stmt func(*compiler) (string, error)) (*sql.Rows, string, error) {
	text, args, err := b.build(c.Syntax(), stmt)
	if err != nil {
		return nil, "", err
	}
	rows := &sql.Rows{}
	if err := c.Query(ctx, text, args, rows); err != nil {
		return nil, text, b.queryError(op, text, err)
	}
	return rows, text, nil
}

// exec builds a statement, runs it on c and returns the rows it affected.
func (b *Builder) exec(ctx context.Context, c dialect.Client, op string, stmt func(*compiler) (string, error)) (int64, error) {
	text, args, err := b.build(c.Syntax(), stmt)
	if err != nil {
		return 0, err
	}
	var res sql.Result
	if err := c.Exec(ctx, text, args, &res); err != nil {
		return 0, b.queryError(op, text, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, b.queryError(op, text, err)
	}
	return n, nil
}

// Run executes the SELECT statement of the query and returns its rows.
func (b *Builder) Run(ctx context.Context, c dialect.Client) ([]sql.Row, error) {
	rows, text, err := b.query(ctx, c, OpSelect, b.selectStmt)
	if err != nil {
		return nil, err
	}
	out, err := sql.ScanRows(rows)
	if err != nil {
		return nil, b.queryError(OpSelect, text, err)
	}
	return out, nil
}

// Count returns the number of rows the query selects.
func (b *Builder) Count(ctx context.Context, c dialect.Client) (int64, error) {
	rows, text, err := b.query(ctx, c, OpCount, b.countStmt)
	if err != nil {
		return 0, err
	}
	n, err := sql.ScanInt64(rows)
	if err != nil {
		return 0, b.queryError(OpCount, text, err)
	}
	return n, nil
}

// Delete removes the rows of the query and returns how many were deleted.
func (b *Builder) Delete(ctx context.Context, c dialect.Client) (int64, error) {
	return b.exec(ctx, c, OpDelete, b.deleteStmt)
}

// Update applies the assignments of the query to its rows and returns how
// many were updated.
func (b *Builder) Update(ctx context.Context, c dialect.Client) (int64, error) {
	return b.exec(ctx, c, OpUpdate, b.updateStmt)
}

// FindByID returns the row of the table with the given primary key. Tables
// with a composite key take one value per key column, in declaration order.
// The filters of the query still apply.
func (b *Builder) FindByID(ctx context.Context, c dialect.Client, ids ...any) (sql.Row, error) {
	q, err := b.whereID(ids)
	if err != nil {
		return sql.Row{}, err
	}
	rows, err := q.Run(ctx, c)
	if err != nil {
		return sql.Row{}, err
	}
	switch len(rows) {
	case 0:
		return sql.Row{}, weld.NewNotFoundError(b.table.String(), idValue(ids))
	case 1:
		return rows[0], nil
	default:
		return sql.Row{}, weld.NewNotSingularError(b.table.String(), len(rows))
	}
}

// DeleteByID removes the row of the table with the given primary key. The
// filters of the query are ignored. Deleting a missing row is a
// weld.NotFoundError.
func (b *Builder) DeleteByID(ctx context.Context, c dialect.Client, ids ...any) error {
	n, err := b.exec(ctx, c, OpDelete, b.deleteByIDStmt(ids))
	if err != nil {
		return err
	}
	if n == 0 {
		return weld.NewNotFoundError(b.table.String(), idValue(ids))
	}
	return nil
}

func idValue(ids []any) any {
	if len(ids) == 1 {
		return ids[0]
	}
	return ids
}
