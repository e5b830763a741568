package weld

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache is the interface for caching query results.
// Users should implement this interface with their preferred caching solution
// (e.g., Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// CacheKey identifies the result of one compiled statement.
type CacheKey struct {
	Table     string
	Operation string
	Dialect   string
	Statement string
	Args      []any
}

// String returns "table:operation:digest". Keys of a table share the
// TablePrefix so they can be dropped together.
func (k CacheKey) String() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s", k.Dialect, k.Statement)
	for _, a := range k.Args {
		fmt.Fprintf(h, "\x00%T:%v", a, a)
	}
	return TablePrefix(k.Table) + k.Operation + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

// TablePrefix returns the prefix of the cache keys of a table.
func TablePrefix(table string) string {
	return table + ":"
}
