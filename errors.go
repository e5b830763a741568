package weld

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by every lookup that expected a row and got none.
	ErrNotFound = errors.New("weld: row not found")
	// ErrNotSingular is matched when a single-row lookup matched several rows.
	ErrNotSingular = errors.New("weld: row not singular")
	// ErrNoPrimaryKey is returned when an operation needs the primary key of
	// a table that declares none.
	ErrNoPrimaryKey = errors.New("weld: table has no primary key")
	// ErrUnknownColumn is returned when a statement references a column the
	// table does not declare.
	ErrUnknownColumn = errors.New("weld: unknown column")
	// ErrColumnMissingFromGroupBy is returned when aggregate and plain
	// columns are selected together without a GROUP BY.
	ErrColumnMissingFromGroupBy = errors.New("weld: selected columns require a GROUP BY")
)

// isA reports whether err has an error of type T in its tree.
func isA[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// NotFoundError is a lookup by key that matched no row. It matches
// ErrNotFound.
type NotFoundError struct {
	table string
	id    any
}

// NewNotFoundError returns the error of a lookup in table. id may be nil.
func NewNotFoundError(table string, id any) *NotFoundError {
	return &NotFoundError{table: table, id: id}
}

func (e *NotFoundError) Error() string {
	if e.id == nil {
		return "weld: " + e.table + " not found"
	}
	return fmt.Sprintf("weld: %s not found (id=%v)", e.table, e.id)
}

func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

// Table returns the table that was searched.
func (e *NotFoundError) Table() string { return e.table }

// ID returns the searched key, nil when the lookup was not by key.
func (e *NotFoundError) ID() any { return e.id }

// IsNotFound reports whether err is, or wraps, a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// NotSingularError is a single-row lookup that matched count rows. It
// matches ErrNotSingular.
type NotSingularError struct {
	table string
	count int
}

func NewNotSingularError(table string, count int) *NotSingularError {
	return &NotSingularError{table: table, count: count}
}

func (e *NotSingularError) Error() string {
	return fmt.Sprintf("weld: %s not singular (got %d rows)", e.table, e.count)
}

func (e *NotSingularError) Is(err error) bool { return err == ErrNotSingular }

// Count returns the number of matched rows.
func (e *NotSingularError) Count() int { return e.count }

func IsNotSingular(err error) bool {
	return errors.Is(err, ErrNotSingular)
}

// MissingTableError is a reference to a table that was never declared.
type MissingTableError struct {
	Schema string
	Name   string
}

func (e *MissingTableError) Error() string {
	name := e.Name
	if e.Schema != "" {
		name = e.Schema + "." + name
	}
	return "weld: missing table " + name
}

func IsMissingTable(err error) bool { return isA[*MissingTableError](err) }

// ConstraintError is a statement rejected by a database constraint. The
// driver error stays reachable through errors.As.
type ConstraintError struct {
	msg  string
	wrap error
}

func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

func (e ConstraintError) Error() string { return "weld: constraint failed: " + e.msg }

func (e ConstraintError) Unwrap() error { return e.wrap }

func IsConstraintError(err error) bool { return isA[ConstraintError](err) }

// ValidationError reports a statement that references something the
// declared schema does not have: a column, a relation or a key.
type ValidationError struct {
	Name string // qualified name of the offending column or relation
	Err  error
}

func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("weld: invalid reference %q: %s", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidationError(err error) bool { return isA[*ValidationError](err) }

// EncodingError is a bound value the target dialect can not encode. It is
// raised while binding, before anything is sent.
type EncodingError struct {
	Dialect string
	Column  string // empty when the value is not bound for a column
	Value   any
	Err     error
}

func (e *EncodingError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("weld: encoding %T (%s): %v", e.Value, e.Dialect, e.Err)
	}
	return fmt.Sprintf("weld: encoding %T for column %q (%s): %v", e.Value, e.Column, e.Dialect, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func IsEncodingError(err error) bool { return isA[*EncodingError](err) }

// RollbackError is a rollback that failed after the transaction body did.
type RollbackError struct {
	Err error
}

func (e *RollbackError) Error() string { return fmt.Sprintf("weld: rollback failed: %v", e.Err) }

func (e *RollbackError) Unwrap() error { return e.Err }

// AggregateError collects every problem found while building a statement,
// so a caller sees all of them at once.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "weld: no errors"
	case 1:
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("weld: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// NewAggregateError drops the nil errors of errs. It returns nil when none
// is left and the error itself when only one is.
func NewAggregateError(errs ...error) error {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &AggregateError{Errors: kept}
}

// QueryError is a statement the database failed to run.
type QueryError struct {
	Table string
	Op    string // select, count, update or delete
	SQL   string
	Err   error
}

func NewQueryError(table, op, sql string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, SQL: sql, Err: err}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("weld: %s %s: %v [sql: %s]", e.Op, e.Table, e.Err, e.SQL)
}

func (e *QueryError) Unwrap() error { return e.Err }

func IsQueryError(err error) bool { return isA[*QueryError](err) }
