package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
)

// openShop returns an in-memory SQLite database holding three products
// and five orders:
//
//	tea    3.5  orders 1, 2
//	coffee 4.0  orders 3, 4, 5
//	cocoa  2.0  no orders
func openShop(t *testing.T) *sql.Driver {
	t.Helper()
	ctx := context.Background()
	drv, err := sql.Connect(ctx, dialect.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	for _, stmt := range []string{
		`CREATE TABLE products (pid INTEGER PRIMARY KEY, name TEXT NOT NULL, price REAL NOT NULL, description TEXT)`,
		`CREATE TABLE orders (oid INTEGER PRIMARY KEY, product_id INTEGER NOT NULL, price REAL NOT NULL)`,
		`INSERT INTO products (pid, name, price, description) VALUES (1, 'tea', 3.5, NULL), (2, 'coffee', 4.0, 'dark'), (3, 'cocoa', 2.0, NULL)`,
		`INSERT INTO orders (oid, product_id, price) VALUES (1, 1, 3.5), (2, 1, 3.5), (3, 2, 4.0), (4, 2, 8.0), (5, 2, 12.0)`,
	} {
		require.NoError(t, drv.Exec(ctx, stmt, []any{}, nil), stmt)
	}
	return drv
}

func oids(t *testing.T, rows []sql.Row) []int64 {
	t.Helper()
	ids := make([]int64, len(rows))
	for i, r := range rows {
		require.NoError(t, r.Get("oid", &ids[i]))
	}
	return ids
}

func TestSQLiteSelect(t *testing.T) {
	ctx := context.Background()
	drv := openShop(t)

	t.Run("count", func(t *testing.T) {
		n, err := New(orders).Count(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		n, err = New(orders).Limit(2).Count(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = New(products).Where(productDesc.IsNull()).Count(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("filter", func(t *testing.T) {
		rows, err := New(orders).Where(orderPrice.GT(3.9)).OrderByAsc("oid").Run(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4, 5}, oids(t, rows))

		rows, err = New(orders).Where(Or(orderID.Equal(1), orderID.In(4, 5))).OrderByDesc("oid").Run(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, []int64{5, 4, 1}, oids(t, rows))
	})

	t.Run("paging", func(t *testing.T) {
		rows, err := New(orders).OrderByAsc("oid").Limit(2).Offset(1).Run(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3}, oids(t, rows))
	})

	t.Run("where_relation", func(t *testing.T) {
		rows, err := New(orders).
			WhereRelation("product", New(products).Where(productName.Equal("coffee"))).
			OrderByAsc("oid").
			Run(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4, 5}, oids(t, rows))

		n, err := New(products).WhereRelation("orders", nil).Count(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("where_relation_limited", func(t *testing.T) {
		priciest := New(products).OrderByDesc("price").Limit(1)
		rows, err := New(orders).WhereRelation("product", priciest).OrderByAsc("oid").Run(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4, 5}, oids(t, rows))
	})

	t.Run("map_query", func(t *testing.T) {
		rows, err := New(products).Where(productName.Equal("tea")).MapQuery("orders").Run(ctx, drv)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2}, oids(t, rows))

		rows, err = New(orders).Where(orderPrice.GT(10)).MapQuery("product").Run(ctx, drv)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		var name string
		require.NoError(t, rows[0].Get("name", &name))
		assert.Equal(t, "coffee", name)
	})

	t.Run("group_by", func(t *testing.T) {
		rows, err := New(orders).
			Select("product_id").
			SelectCount("oid", "n").
			SelectMax("price", "top").
			GroupBy("product_id").
			OrderByAsc("product_id").
			Run(ctx, drv)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		var (
			n   int64
			top float64
		)
		require.NoError(t, rows[1].Get("n", &n))
		require.NoError(t, rows[1].Get("top", &top))
		assert.Equal(t, int64(3), n)
		assert.Equal(t, 12.0, top)
	})

	t.Run("join", func(t *testing.T) {
		rows, err := New(products).
			Select("name").
			Where(productName.Equal("tea")).
			Join("orders", New(orders).SelectAs("oid", "order_id")).
			Run(ctx, drv)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"name", "order_id"}, rows[0].Columns())
	})

	t.Run("find_by_id", func(t *testing.T) {
		row, err := New(products).FindByID(ctx, drv, 2)
		require.NoError(t, err)
		var desc *string
		require.NoError(t, row.Get("description", &desc))
		require.NotNil(t, desc)
		assert.Equal(t, "dark", *desc)

		row, err = New(products).FindByID(ctx, drv, 1)
		require.NoError(t, err)
		require.NoError(t, row.Get("description", &desc))
		assert.Nil(t, desc)

		_, err = New(products).FindByID(ctx, drv, 99)
		assert.True(t, weld.IsNotFound(err))
	})

	t.Run("run_in", func(t *testing.T) {
		rows, err := New(orders).RunIn(ctx, drv, "oid", []any{1, 3, 5, 7})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 3, 5}, oids(t, rows))
	})
}

type order struct {
	ID        int64   `db:"oid,pk"`
	ProductID int64   `db:"product_id"`
	Price     float64 `db:"price"`
}

func TestSQLiteAll(t *testing.T) {
	drv := openShop(t)
	got, err := All[order](context.Background(), New(orders).OrderByAsc("oid"), drv)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, order{ID: 5, ProductID: 2, Price: 12}, got[4])

	type nameOnly struct {
		Name string
	}
	names, err := All[nameOnly](context.Background(), New(products).OrderByAsc("pid"), drv)
	require.NoError(t, err)
	require.Len(t, names, 3)
	assert.Equal(t, "cocoa", names[2].Name)

	_, err = All[int](context.Background(), New(products), drv)
	require.Error(t, err)
}

func TestSQLiteInclude(t *testing.T) {
	ctx := context.Background()
	stats := sql.NewStatsDriver(openShop(t))

	loader := Include(New(products).OrderByAsc("pid")).With("orders", New(orders).OrderByAsc("oid"))
	require.Len(t, loader.ToSQL(dialect.SQLite), 2)
	ds, err := loader.Run(ctx, stats)
	require.NoError(t, err)
	require.Len(t, ds.Primary, 3)
	assert.Len(t, ds.Related("orders"), 5)
	assert.Equal(t, []int64{1, 2}, oids(t, ds.RelatedTo("orders", ds.Primary[0])))
	assert.Equal(t, []int64{3, 4, 5}, oids(t, ds.RelatedTo("orders", ds.Primary[1])))
	assert.Empty(t, ds.RelatedTo("orders", ds.Primary[2]))
	assert.Empty(t, ds.RelatedTo("missing", ds.Primary[0]))
	assert.Equal(t, int64(2), stats.Stats().Snapshot().Queries)

	t.Run("filtered_primary", func(t *testing.T) {
		ds, err := Include(New(products).Where(productName.Equal("tea"))).With("orders", nil).Run(ctx, stats)
		require.NoError(t, err)
		require.Len(t, ds.Primary, 1)
		assert.Len(t, ds.Related("orders"), 2)
	})

	t.Run("belongs_to", func(t *testing.T) {
		ds, err := Include(New(orders).Where(orderPrice.GT(5))).With("product", nil).Run(ctx, stats)
		require.NoError(t, err)
		require.Len(t, ds.Primary, 2)
		for _, o := range ds.Primary {
			assert.Len(t, ds.RelatedTo("product", o), 1)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Include(New(products)).With("orders", nil).With("orders", nil).Run(ctx, stats)
		require.Error(t, err)
		_, err = Include(New(products)).With("reviews", nil).Run(ctx, stats)
		require.Error(t, err)
	})
}

func TestSQLiteMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("update", func(t *testing.T) {
		drv := openShop(t)
		n, err := New(orders).Where(orderPrice.LT(4)).Set("price", 5.0).Update(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = New(orders).Where(orderID.Equal(5)).SetManual("price", "$.price * ?", 2).Update(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		row, err := New(orders).FindByID(ctx, drv, 5)
		require.NoError(t, err)
		var price float64
		require.NoError(t, row.Get("price", &price))
		assert.Equal(t, 24.0, price)

		n, err = New(products).Where(productName.Equal("coffee")).SetNull("description").Update(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		n, err = New(products).Where(productDesc.IsNull()).Count(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("update_limited", func(t *testing.T) {
		drv := openShop(t)
		n, err := New(orders).OrderByDesc("oid").Limit(2).Set("price", 0).Update(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		rows, err := New(orders).Where(orderPrice.Equal(0)).OrderByAsc("oid").Run(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 5}, oids(t, rows))
	})

	t.Run("delete_limited", func(t *testing.T) {
		drv := openShop(t)
		n, err := New(orders).OrderByAsc("oid").Limit(2).Delete(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		rows, err := New(orders).OrderByAsc("oid").Run(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4, 5}, oids(t, rows))
	})

	t.Run("delete_limited_unordered", func(t *testing.T) {
		var survivors [][]int64
		for range 2 {
			drv := openShop(t)
			n, err := New(orders).Limit(3).Delete(ctx, drv)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)
			rows, err := New(orders).OrderByAsc("oid").Run(ctx, drv)
			require.NoError(t, err)
			survivors = append(survivors, oids(t, rows))
		}
		assert.Equal(t, survivors[0], survivors[1])
		assert.Equal(t, []int64{4, 5}, survivors[0])
	})

	t.Run("delete_relation", func(t *testing.T) {
		drv := openShop(t)
		n, err := New(orders).WhereRelation("product", New(products).Where(productName.Equal("tea"))).Delete(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("delete_by_id", func(t *testing.T) {
		drv := openShop(t)
		require.NoError(t, New(orders).DeleteByID(ctx, drv, 3))
		err := New(orders).DeleteByID(ctx, drv, 3)
		assert.True(t, weld.IsNotFound(err))
	})

	t.Run("unique_violation", func(t *testing.T) {
		drv := openShop(t)
		_, err := New(orders).Where(orderID.Equal(5)).Set("oid", 4).Update(ctx, drv)
		require.Error(t, err)
		assert.True(t, weld.IsQueryError(err))
		assert.True(t, weld.IsConstraintError(err))
		assert.True(t, sql.IsUniqueConstraintError(err))
	})

	t.Run("transaction", func(t *testing.T) {
		drv := openShop(t)
		abort := errors.New("abort")
		err := sql.WithTx(ctx, drv, func(tx dialect.Tx) error {
			n, err := New(orders).Delete(ctx, tx)
			require.NoError(t, err)
			assert.Equal(t, int64(5), n)
			ds, err := Include(New(products)).With("orders", nil).Run(ctx, tx)
			require.NoError(t, err)
			assert.Empty(t, ds.Related("orders"))
			return abort
		})
		require.ErrorIs(t, err, abort)
		n, err := New(orders).Count(ctx, drv)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})
}
