package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	// Drivers registered for the supported dialects.
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/syssam/weld/dialect"
)

// Connect opens a database of the given dialect and checks that it can be
// reached. MySQL connections are opened with parseTime so DATETIME columns
// scan into time.Time.
func Connect(ctx context.Context, s dialect.Syntax, dsn string) (*Driver, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("dialect/sql: unsupported dialect %q", s)
	}
	if s == dialect.MySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}
	db, err := sql.Open(s.String(), dsn)
	if err != nil {
		return nil, err
	}
	if s == dialect.SQLite {
		// An in-memory database lives as long as its connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dialect/sql: connect %s: %w", s, err)
	}
	return OpenDB(s, db), nil
}
