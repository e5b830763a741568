package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/syssam/weld/dialect"
)

// Driver is a dialect.Driver running statements on a database/sql pool.
type Driver struct {
	conn
	db *sql.DB
}

// Open opens a database with a registered database/sql driver and returns a
// Driver speaking the dialect of that driver. Wrapped driver names such as
// "postgres-otel" resolve to the dialect they start with.
func Open(driverName, source string) (*Driver, error) {
	s, err := dialect.Parse(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(s, db), nil
}

// OpenDB returns a Driver speaking s over an open pool.
func OpenDB(s dialect.Syntax, db *sql.DB) *Driver {
	return &Driver{conn: conn{ex: db, syntax: s}, db: db}
}

// DB returns the pool of the driver.
func (d *Driver) DB() *sql.DB { return d.db }

// Tx implements dialect.Driver.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// BeginTx starts a transaction with the given options. A nil opts uses the
// defaults of the database.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{conn: conn{ex: tx, syntax: d.syntax}, tx: tx}, nil
}

// Close closes the pool.
func (d *Driver) Close() error { return d.db.Close() }

// Tx is a dialect.Tx bound to one database/sql transaction.
type Tx struct {
	conn
	tx *sql.Tx
}

// Commit implements dialect.Tx.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback implements dialect.Tx.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

var (
	_ dialect.Driver = (*Driver)(nil)
	_ dialect.Tx     = (*Tx)(nil)
)

// execQuerier is the part of *sql.DB, *sql.Tx and *sql.Conn that statements
// run on.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type conn struct {
	ex     execQuerier
	syntax dialect.Syntax
}

// Syntax implements dialect.Client.
func (c conn) Syntax() dialect.Syntax { return c.syntax }

// Exec implements dialect.ExecQuerier. v is nil or a *Result.
func (c conn) Exec(ctx context.Context, query string, args, v any) (err error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	res, ok := v.(*Result)
	if !ok && v != nil {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	ex, release, err := c.session(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	defer func() { err = errors.Join(err, release()) }()
	r, err := ex.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if res != nil {
		*res = r
	}
	return nil
}

// Query implements dialect.ExecQuerier. v must be a *Rows; the connection
// is held until it is closed.
func (c conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, release, err := c.session(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", errors.Join(err, release()))
	}
	*vr = Rows{releaseRows{rows, release}}
	return nil
}

type (
	// Rows is the destination of Query. It hides the *sql.Rows so that
	// results can be copied without copying its lock.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullBool is an alias to sql.NullBool.
	NullBool = sql.NullBool
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullFloat64 is an alias to sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// NullTime is an alias to sql.NullTime.
	NullTime = sql.NullTime
	// TxOptions is an alias to sql.TxOptions.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the part of *sql.Rows that results are read through.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// releaseRows gives the connection of a query back once its rows are closed.
type releaseRows struct {
	ColumnScanner
	release func() error
}

func (r releaseRows) Close() error {
	return errors.Join(r.ColumnScanner.Close(), r.release())
}
