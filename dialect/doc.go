// Package dialect describes the SQL dialects weld compiles statements for.
//
// A dialect is identified by a Syntax value. Its methods are the writer
// strategy every statement goes through: identifier quoting, placeholder
// tokens, paging clauses, counting expressions and type overrides. They are
// pure functions, and the schema migration adapter uses the very same ones
// so generated DDL and DML agree on quoting.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.MSSQL    = "sqlserver"
//	dialect.SQLite   = "sqlite"
//
// The values double as database/sql driver names. Calling a writer with any
// other Syntax value panics; the dialect set is closed.
//
// # Writers
//
//	dialect.Postgres.Placeholder(2)           // $2
//	dialect.MSSQL.Placeholder(2)              // @p2
//	dialect.SQLite.LimitOffset(&ten, nil)     // "LIMIT 10 OFFSET 0 "
//	dialect.MySQL.Count("")                   // COUNT(*)
//	dialect.Postgres.WriteColumn("t1", "id")  // t1."id"
//
// # Allocators
//
// TableAlias and NextParam number the aliases and placeholders of a single
// compiled statement. A compilation creates fresh ones and shares them across
// every join and subquery it writes, so aliases are unique and placeholders
// line up with the bound arguments:
//
//	aliases := dialect.NewTableAlias()
//	params := dialect.NewNextParam(dialect.Postgres)
//	aliases.Next() // t1
//	params.Next()  // $1
//
// # Clients
//
// Compiled statements run on a Client: anything with Exec, Query and
// Syntax. A Driver adds Tx and Close, and the Tx it returns is itself a
// Client with Commit and Rollback, so query code never needs to know
// whether it runs inside a transaction.
//
// # Sub-packages
//
//   - dialect/sql runs statements on database/sql and counts them
//   - dialect/sql/schema checks declared schemas and plans their DDL
package dialect
