package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
	ddl "github.com/syssam/weld/dialect/sql/schema"
	"github.com/syssam/weld/schema"
)

const shopSchema = `
tables:
  - name: products
    columns:
      - {name: pid, type: INTEGER, primary_key: true}
      - {name: name, type: TEXT}
      - {name: price, type: REAL}
    relations:
      orders: {kind: has_many, table: orders, foreign_key: product_id}
  - name: orders
    columns:
      - {name: oid, type: INTEGER, primary_key: true}
      - {name: product_id, type: INTEGER}
      - {name: price, type: REAL}
    relations:
      product: {kind: belongs_to, table: products, foreign_key: product_id}
`

const shopConfig = `
dialect: postgres
schema: shop.yaml
queries:
  - name: cheap
    table: orders
    where:
      - {column: price, op: "<", value: 5}
    order: ["-price"]
    limit: 10
  - name: tea_orders
    kind: count
    table: orders
    related:
      - name: product
        where: [{column: name, op: like, value: "%tea%"}]
  - name: picked
    table: orders
    where:
      - {column: oid, op: "=", value: [1, 3]}
  - name: reprice
    kind: update
    table: orders
    where:
      - {column: product_id, op: eq, value: 2}
    set: {price: 1.5}
  - name: clear_orders
    kind: delete
    table: products
    map: [orders]
`

func writeFiles(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.yaml"), []byte(shopSchema), 0o644))
	path := filepath.Join(dir, "weld.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfig(t *testing.T) {
	path := writeFiles(t, shopConfig)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "shop.yaml"), cfg.SchemaPath())
	require.Len(t, cfg.Queries, 5)
	assert.Equal(t, []any{1, 3}, cfg.Queries[2].Where[0].Value)

	s, err := cfg.Syntax("")
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, s)
	s, err = cfg.Syntax("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, s)

	_, err = loadConfig(writeFiles(t, "dialect: mysql\n"))
	require.ErrorContains(t, err, "schema is required")
	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	cfg, err := loadConfig(writeFiles(t, shopConfig))
	require.NoError(t, err)
	sch, err := schema.Load(cfg.SchemaPath())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.Zero(t, render(&buf, cfg, dialect.Postgres, sch))
	out := buf.String()
	assert.Contains(t, out, "-- cheap (postgres)\n"+
		`SELECT t1."oid", t1."product_id", t1."price" FROM orders t1 WHERE ( t1.price < $1 ) ORDER BY t1.price DESC OFFSET 0 LIMIT 10;`+"\n"+
		"-- args: [5]\n")
	assert.Contains(t, out, "EXISTS ( SELECT pid FROM products t2 WHERE t2.name like $1 AND t2.pid = t1.product_id )")
	assert.Contains(t, out, "t1.oid IN ($1,$2)")
	assert.Contains(t, out, "-- args: [1.5 2]")
	assert.Contains(t, out, "-- clear_orders (postgres)\nDELETE FROM orders WHERE ( EXISTS ( SELECT pid FROM products t1 WHERE t1.pid = orders.product_id ) );")

	buf.Reset()
	require.Zero(t, render(&buf, cfg, dialect.MySQL, sch))
	assert.Contains(t, buf.String(), "t1.price < ?")
}

func TestRenderErrors(t *testing.T) {
	cfg, err := loadConfig(writeFiles(t, `
schema: shop.yaml
queries:
  - {name: no_table, table: missing}
  - {name: bad_op, table: orders, where: [{column: price, op: "~", value: 1}]}
  - {name: bad_column, table: orders, where: [{column: nope, value: 1}]}
  - {name: bad_relation, table: orders, related: [{name: nope}]}
  - {name: bad_kind, kind: merge, table: orders}
  - {name: fine, table: orders}
`))
	require.NoError(t, err)
	sch, err := schema.Load(cfg.SchemaPath())
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Equal(t, 5, render(&buf, cfg, dialect.SQLite, sch))
	assert.Equal(t, 5, strings.Count(buf.String(), "-- error:"))
	assert.Contains(t, buf.String(), "-- fine (sqlite)\nSELECT")

	_, err = cfg.Syntax("")
	require.Error(t, err, "no dialect configured")
}

func TestOnce(t *testing.T) {
	ctx := context.Background()
	path := writeFiles(t, shopConfig)

	t.Run("all", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, once(ctx, &buf, discard(), options{config: path, dialect: "all"}))
		for _, s := range dialect.All {
			assert.Contains(t, buf.String(), "-- cheap ("+s.String()+")")
		}
	})

	t.Run("ddl", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, once(ctx, &buf, discard(), options{config: path, ddl: true}))
		assert.Contains(t, buf.String(), `CREATE TABLE "products"`)

		buf.Reset()
		err := once(ctx, &buf, discard(), options{config: path, ddl: true, dialect: "all"})
		require.ErrorIs(t, err, errFailed)
		assert.Contains(t, buf.String(), "-- postgres\nCREATE TABLE")
		assert.Contains(t, buf.String(), "-- sqlite\nCREATE TABLE")
		assert.NotContains(t, buf.String(), "-- sqlserver")
	})

	t.Run("invalid_schema", func(t *testing.T) {
		dir := filepath.Dir(path)
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("tables:\n  - name: t\n    columns:\n      - {name: id, type: INT, primary_key: true, nullable: true}\n"), 0o644))
		cfgPath := filepath.Join(dir, "bad_config.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("dialect: sqlite\nschema: bad.yaml\n"), 0o644))
		err := once(ctx, io.Discard, discard(), options{config: cfgPath})
		require.ErrorContains(t, err, "primary key column is nullable")
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	path := writeFiles(t, shopConfig)
	dsn := filepath.Join(filepath.Dir(path), "shop.db")
	sch, err := schema.Load(filepath.Join(filepath.Dir(path), "shop.yaml"))
	require.NoError(t, err)

	drv, err := sql.Connect(ctx, dialect.SQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, ddl.Create(ctx, drv, sch.Tables...))
	for _, stmt := range []string{
		`INSERT INTO products (pid, name, price) VALUES (1, 'green tea', 3.5), (2, 'coffee', 4.0)`,
		`INSERT INTO orders (oid, product_id, price) VALUES (1, 1, 3.5), (2, 2, 4.0), (3, 2, 8.0)`,
	} {
		require.NoError(t, drv.Exec(ctx, stmt, []any{}, nil))
	}
	require.NoError(t, drv.Close())

	var buf bytes.Buffer
	require.NoError(t, once(ctx, &buf, discard(), options{config: path, dialect: "sqlite", dsn: dsn, exec: true}))
	out := buf.String()
	assert.Contains(t, out, "cheap: 2 rows\n")
	assert.Contains(t, out, "tea_orders: 1\n")
	assert.Contains(t, out, "picked: 2 rows\n")
	assert.Contains(t, out, "reprice: 2 rows affected\n")
	assert.Contains(t, out, "clear_orders: 3 rows affected\n")

	err = once(ctx, io.Discard, discard(), options{config: path, dialect: "sqlite", exec: true})
	require.ErrorContains(t, err, "needs a dsn")
}

func TestWatch(t *testing.T) {
	path := writeFiles(t, shopConfig)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, discard(), []string{path}, func(name string) { changed <- name })
	}()
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(shopConfig+"\n"), 0o644))

	select {
	case name := <-changed:
		abs, err := filepath.Abs(path)
		require.NoError(t, err)
		assert.Equal(t, abs, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
