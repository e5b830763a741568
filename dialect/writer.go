package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultLimit is written when an offset is given without a limit.
const defaultLimit = 9999999

// normType normalizes database type names before override lookups.
// Casers keep state, so one is created per call.
func normType(t string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(t))
}

// QuoteIdentifier quotes a column or table name for the dialect.
// MySQL identifiers are written as is.
func (s Syntax) QuoteIdentifier(name string) string {
	switch s {
	case Postgres, SQLite, MSSQL:
		return `"` + name + `"`
	case MySQL:
		return name
	}
	s.mustValid()
	return ""
}

// WriteColumn writes a fully qualified, quoted column reference: alias."col".
func (s Syntax) WriteColumn(alias, column string) string {
	return alias + "." + s.QuoteIdentifier(column)
}

// WriteTable writes a table reference. Parts are quoted only when they
// contain a space.
func (s Syntax) WriteTable(schema, name string) string {
	quote := func(p string) string {
		if strings.Contains(p, " ") {
			return s.QuoteIdentifier(p)
		}
		return p
	}
	s.mustValid()
	if schema == "" {
		return quote(name)
	}
	return quote(schema) + "." + quote(name)
}

// Placeholder returns the bind parameter token for the n-th (1-based) argument.
func (s Syntax) Placeholder(n int) string {
	switch s {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case MSSQL:
		return "@p" + strconv.Itoa(n)
	case MySQL, SQLite:
		return "?"
	}
	s.mustValid()
	return ""
}

// MaxParams returns the number of bind parameters a single statement may carry.
func (s Syntax) MaxParams() int {
	switch s {
	case Postgres:
		return 65535
	case SQLite:
		return 999
	case MSSQL:
		return 2100
	case MySQL:
		return 64000
	}
	s.mustValid()
	return 0
}

// LimitOffset writes the paging clause. A missing offset is written as 0 and
// a missing limit as a very large number. It reports false when both are nil.
func (s Syntax) LimitOffset(limit, offset *int64) (string, bool) {
	s.mustValid()
	if limit == nil && offset == nil {
		return "", false
	}
	l, o := int64(defaultLimit), int64(0)
	if limit != nil {
		l = *limit
	}
	if offset != nil {
		o = *offset
	}
	switch s {
	case Postgres:
		return fmt.Sprintf("OFFSET %d LIMIT %d", o, l), true
	case SQLite:
		return fmt.Sprintf("LIMIT %d OFFSET %d ", l, o), true
	case MSSQL:
		return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", o, l), true
	default:
		return fmt.Sprintf("LIMIT %d, %d", o, l), true
	}
}

// Count writes a row counting expression. An empty target counts rows (*).
// Every dialect but MySQL casts the result to a 64-bit integer.
func (s Syntax) Count(target string) string {
	if target == "" {
		target = "*"
	}
	switch s {
	case Postgres, SQLite, MSSQL:
		return "CAST(COUNT(" + target + ") AS BIGINT)"
	case MySQL:
		return "COUNT(" + target + ")"
	}
	s.mustValid()
	return ""
}

// ColumnTypeOverride returns the type that must be used in place of dbType,
// if the dialect reports types it can not accept back.
func (s Syntax) ColumnTypeOverride(dbType string) (string, bool) {
	s.mustValid()
	if s != MSSQL {
		return "", false
	}
	switch normType(dbType) {
	case "BITN":
		return "BIT", true
	case "NTEXT":
		return "NVARCHAR(MAX)", true
	case "INTN":
		return "INT", true
	case "FLTN":
		return "FLOAT", true
	}
	return "", false
}

// PrimaryKeyTypeOverride returns the type used when creating a primary key
// column of the given type (auto-incrementing where the dialect needs it).
func (s Syntax) PrimaryKeyTypeOverride(dbType string) (string, bool) {
	s.mustValid()
	t := normType(dbType)
	switch s {
	case Postgres:
		switch t {
		case "INT2", "SMALLINT":
			return "SMALLSERIAL", true
		case "INT", "INT4", "INTEGER":
			return "SERIAL", true
		case "INT8", "BIGINT":
			return "BIGSERIAL", true
		}
	case SQLite:
		switch t {
		case "INT", "INT4", "INT8", "BIGINT", "SMALLINT", "INTSMALL":
			return "INTEGER", true
		}
	}
	return "", false
}

// DefaultNamespace returns the schema a bare table name resolves to.
func (s Syntax) DefaultNamespace() string {
	switch s {
	case Postgres:
		return "public"
	case MSSQL:
		return "dbo"
	case MySQL, SQLite:
		return ""
	}
	s.mustValid()
	return ""
}
