package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/syssam/weld/dialect"
)

// Statement is a statement seen by a Recorder.
type Statement struct {
	SQL  string
	Args []any
}

// Recorder is a dialect.Client that runs nothing. It keeps the statements it
// is given, answers every query with an empty result set and reports
// Affected rows for every exec. It is meant for tests and dry runs.
type Recorder struct {
	syntax dialect.Syntax

	mu       sync.Mutex
	stmts    []Statement
	affected int64
}

// NewRecorder returns a Recorder speaking the given dialect.
func NewRecorder(s dialect.Syntax) *Recorder {
	return &Recorder{syntax: s}
}

// Syntax implements dialect.Client.
func (r *Recorder) Syntax() dialect.Syntax { return r.syntax }

// SetAffected sets the number of rows reported by later execs.
func (r *Recorder) SetAffected(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.affected = n
}

// Statements returns every recorded statement in order.
func (r *Recorder) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Statement(nil), r.stmts...)
}

// Last returns the most recent statement.
func (r *Recorder) Last() (Statement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stmts) == 0 {
		return Statement{}, false
	}
	return r.stmts[len(r.stmts)-1], true
}

func (r *Recorder) record(query string, args any) error {
	argv, ok := args.([]any)
	if !ok && args != nil {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = append(r.stmts, Statement{SQL: query, Args: argv})
	return nil
}

// Exec implements dialect.ExecQuerier.
func (r *Recorder) Exec(_ context.Context, query string, args, v any) error {
	if err := r.record(query, args); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
	case *sql.Result:
		r.mu.Lock()
		*v = driver.RowsAffected(r.affected)
		r.mu.Unlock()
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements dialect.ExecQuerier.
func (r *Recorder) Query(_ context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	if err := r.record(query, args); err != nil {
		return err
	}
	*vr = Rows{emptyRows{}}
	return nil
}

// emptyRows is a ColumnScanner without columns or rows.
type emptyRows struct{}

func (emptyRows) Close() error                            { return nil }
func (emptyRows) ColumnTypes() ([]*sql.ColumnType, error) { return nil, nil }
func (emptyRows) Columns() ([]string, error)              { return nil, nil }
func (emptyRows) Err() error                              { return nil }
func (emptyRows) Next() bool                              { return false }
func (emptyRows) NextResultSet() bool                     { return false }
func (emptyRows) Scan(...any) error                       { return sql.ErrNoRows }

var _ dialect.Client = (*Recorder)(nil)
