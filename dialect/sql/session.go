package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/syssam/weld/dialect"
)

type sessionKey struct{}

type sessionVar struct{ name, value string }

// WithVar returns a context whose statements run with the session variable
// name set to value. Postgres and MySQL set a configuration parameter, SQL
// Server sets a SESSION_CONTEXT key. Outside a transaction the variables are
// reset before the connection goes back to the pool.
//
//	ctx = sql.WithVar(ctx, "search_path", "tenant_1")
func WithVar(ctx context.Context, name, value string) context.Context {
	vars, _ := ctx.Value(sessionKey{}).([]sessionVar)
	vars = append(vars[:len(vars):len(vars)], sessionVar{name, value})
	return context.WithValue(ctx, sessionKey{}, vars)
}

// VarFromContext returns the value of the session variable name, if set on
// ctx. The latest WithVar wins.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	vars, _ := ctx.Value(sessionKey{}).([]sessionVar)
	for i := len(vars) - 1; i >= 0; i-- {
		if vars[i].name == name {
			return vars[i].value, true
		}
	}
	return "", false
}

var varName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]{0,127}$`)

// resetTimeout bounds the statements that clear session variables, which
// run even when the statement context is already done.
const resetTimeout = 5 * time.Second

func nop() error { return nil }

// session returns where to run a statement carrying the variables of ctx,
// and a func to call once the statement is done.
func (c conn) session(ctx context.Context) (execQuerier, func() error, error) {
	vars, _ := ctx.Value(sessionKey{}).([]sessionVar)
	if len(vars) == 0 {
		return c.ex, nop, nil
	}
	if c.syntax == dialect.SQLite {
		return nil, nil, fmt.Errorf("session variables are not supported by %s", c.syntax)
	}
	for _, v := range vars {
		if !varName.MatchString(v.name) {
			return nil, nil, fmt.Errorf("invalid session variable name: %q", v.name)
		}
	}
	var (
		ex      execQuerier
		release = nop
	)
	switch e := c.ex.(type) {
	case *sql.DB:
		// Variables stick to a connection, so pin one.
		pinned, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, release = pinned, pinned.Close
	default:
		ex = e
	}
	for _, v := range vars {
		query, args := setVar(c.syntax, v)
		if _, err := ex.ExecContext(ctx, query, args...); err != nil {
			return nil, nil, errors.Join(err, release())
		}
	}
	if _, pooled := c.ex.(*sql.DB); pooled {
		release = resetVars(ex, c.syntax, vars, release)
	}
	var once sync.Once
	done := func() (err error) {
		once.Do(func() { err = release() })
		return err
	}
	return ex, done, nil
}

func setVar(s dialect.Syntax, v sessionVar) (string, []any) {
	switch s {
	case dialect.Postgres:
		return "SELECT set_config($1, $2, false)", []any{v.name, v.value}
	case dialect.MSSQL:
		return "EXEC sp_set_session_context @key = @p1, @value = @p2", []any{v.name, v.value}
	default:
		return fmt.Sprintf("SET %s = '%s'", v.name, quoteValue(v.value)), nil
	}
}

func resetVar(s dialect.Syntax, name string) (string, []any) {
	switch s {
	case dialect.Postgres:
		return "RESET " + name, nil
	case dialect.MSSQL:
		return "EXEC sp_set_session_context @key = @p1, @value = NULL", []any{name}
	default:
		return "SET " + name + " = NULL", nil
	}
}

// resetVars clears every variable once before calling closeConn.
func resetVars(ex execQuerier, s dialect.Syntax, vars []sessionVar, closeConn func() error) func() error {
	var names []string
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if !seen[v.name] {
			seen[v.name] = true
			names = append(names, v.name)
		}
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()
		for _, name := range names {
			query, args := resetVar(s, name)
			if _, err := ex.ExecContext(ctx, query, args...); err != nil {
				return errors.Join(err, closeConn())
			}
		}
		return closeConn()
	}
}

// quoteValue escapes v for a MySQL string literal.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, `'\`) {
		return v
	}
	return strings.NewReplacer(`\`, `\\`, `'`, `''`).Replace(v)
}
