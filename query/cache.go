package query

import (
	"context"
	"time"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
)

// RunCached is Run with the rows kept in cache for ttl. Entries are keyed
// by the compiled statement and its arguments, so equal queries share them.
// A cache failure falls back to running the query.
func (b *Builder) RunCached(ctx context.Context, c dialect.Client, cache weld.Cache, ttl time.Duration) ([]sql.Row, error) {
	text, args, err := b.build(c.Syntax(), b.selectStmt)
	if err != nil {
		return nil, err
	}
	key := weld.CacheKey{
		Table:     b.table.String(),
		Operation: OpSelect,
		Dialect:   c.Syntax().String(),
		Statement: text,
		Args:      args,
	}.String()
	if data, err := cache.Get(ctx, key); err == nil && data != nil {
		if rows, err := sql.DecodeRows(data); err == nil {
			return rows, nil
		}
	}
	rows, err := b.Run(ctx, c)
	if err != nil {
		return nil, err
	}
	if data, err := sql.EncodeRows(rows); err == nil {
		_ = cache.Set(ctx, key, data, ttl)
	}
	return rows, nil
}

// Invalidate drops the cached results of the query's table. Call it after
// mutating the table; results of queries that only filter on it through a
// relation are kept.
func (b *Builder) Invalidate(ctx context.Context, cache weld.Cache) error {
	return cache.DeletePrefix(ctx, weld.TablePrefix(b.table.String()))
}
