package dialect

import (
	"context"
	"fmt"
	"strings"
)

// Syntax identifies one of the supported SQL dialects. Its value is also the
// name the database/sql driver for that dialect registers itself under.
type Syntax string

// Supported dialects.
const (
	Postgres Syntax = "postgres"
	MySQL    Syntax = "mysql"
	MSSQL    Syntax = "sqlserver"
	SQLite   Syntax = "sqlite"
)

// All lists every supported dialect, in a stable order.
var All = []Syntax{Postgres, MySQL, MSSQL, SQLite}

// String implements fmt.Stringer.
func (s Syntax) String() string { return string(s) }

// Valid reports whether s is one of the supported dialects.
func (s Syntax) Valid() bool {
	switch s {
	case Postgres, MySQL, MSSQL, SQLite:
		return true
	}
	return false
}

// mustValid panics for dialect values outside the supported set.
// The set is closed, so hitting this is a programming error.
func (s Syntax) mustValid() {
	if !s.Valid() {
		panic(fmt.Sprintf("dialect: unknown syntax %q", string(s)))
	}
}

// aliases maps common driver names onto a dialect.
var aliases = map[string]Syntax{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"sqlserver":  MSSQL,
	"mssql":      MSSQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// Parse returns the dialect for the given name. Driver names and common
// spellings are accepted ("postgresql", "mssql", "sqlite3" ...).
func Parse(name string) (Syntax, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if s, ok := aliases[n]; ok {
		return s, nil
	}
	// Wrapped drivers (e.g. "postgres-otel") keep the dialect as prefix.
	for _, s := range All {
		if strings.HasPrefix(n, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("dialect: unsupported dialect %q", name)
}

// MustParse is like Parse but panics if the name is not a known dialect.
func MustParse(name string) Syntax {
	s, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return s
}

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Client is an ExecQuerier that knows the dialect it speaks. Both Driver and
// Tx satisfy it, so statements run the same way in and out of transactions.
type Client interface {
	ExecQuerier
	// Syntax returns the dialect of the connection.
	Syntax() Syntax
}

// Driver is the interface that wraps all necessary operations for SQL clients.
type Driver interface {
	Client
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	Client
	// Commit commits the transaction.
	Commit() error
	// Rollback rolls back the transaction.
	Rollback() error
}
