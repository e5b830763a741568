// Package sql runs compiled statements on database/sql connections.
//
// A Driver pairs a *sql.DB with the dialect it speaks and implements
// dialect.Driver, so the query package can execute builders on it:
//
//	drv, err := sql.Connect(ctx, dialect.Postgres, dsn)
//	if err != nil {
//		return err
//	}
//	rows, err := query.New(products).Where(price.GT(10)).Run(ctx, drv)
//
// Drivers for every supported dialect are registered by this package:
// lib/pq for Postgres, go-sql-driver/mysql for MySQL, go-mssqldb for SQL
// Server and modernc.org/sqlite for SQLite.
//
// # Results
//
// Query results are read into Row values by ScanRows. Exec results are
// reported through *Result. Database errors caused by unique, foreign key
// and check constraints are recognized for every dialect by Classify, and
// Constraint wraps them in a weld.ConstraintError.
//
// # Wrappers
//
// StatsDriver counts statements and logs slow ones with log/slog. Recorder
// runs nothing and keeps the statements it is given, for tests and dry runs.
//
// # Session variables
//
// Variables attached to a context with WithVar are set on the connection
// before the statement runs: configuration parameters on Postgres and MySQL,
// SESSION_CONTEXT keys on SQL Server. SQLite has none and rejects them.
//
//	ctx = sql.WithVar(ctx, "search_path", "tenant_1")
package sql
