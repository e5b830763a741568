package query

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
)

func mockDriver(t *testing.T, s dialect.Syntax) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return sql.OpenDB(s, db), mock
}

func TestRun(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	mock.ExpectQuery(`SELECT t1."oid", t1."product_id", t1."price" FROM orders t1 WHERE ( t1.price > $1 )`).
		WithArgs(float64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"oid", "product_id", "price"}).
			AddRow(1, 2, 12.5).
			AddRow(2, 2, 30.0))

	rows, err := New(orders).Where(orderPrice.GT(10)).Run(context.Background(), drv)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	var price float64
	require.NoError(t, rows[0].Get("price", &price))
	assert.Equal(t, 12.5, price)
	var id int
	require.NoError(t, rows[1].Get("oid", &id))
	assert.Equal(t, 2, id)
}

func TestCountMock(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	mock.ExpectQuery(`SELECT CAST(COUNT(*) AS BIGINT) FROM orders t1 WHERE ( t1.price > $1 )`).
		WithArgs(float64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := New(orders).Where(orderPrice.GT(1)).Count(context.Background(), drv)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestQueryError(t *testing.T) {
	t.Run("constraint", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		mock.ExpectExec(`UPDATE orders SET "oid"=$1 WHERE ( orders.oid = $2 )`).
			WithArgs(4, int64(5)).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		_, err := New(orders).Where(orderID.Equal(5)).Set("oid", 4).Update(context.Background(), drv)
		require.Error(t, err)
		var qerr *weld.QueryError
		require.ErrorAs(t, err, &qerr)
		assert.Equal(t, "orders", qerr.Table)
		assert.Equal(t, OpUpdate, qerr.Op)
		assert.Equal(t, `UPDATE orders SET "oid"=$1 WHERE ( orders.oid = $2 )`, qerr.SQL)
		assert.True(t, weld.IsConstraintError(err))
		assert.True(t, sql.IsUniqueConstraintError(err))
	})

	t.Run("plain", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.MySQL)
		mock.ExpectQuery(`SELECT t1.id, t1.a, t1.b FROM nums t1`).
			WillReturnError(errors.New("connection reset"))

		_, err := New(nums).Run(context.Background(), drv)
		require.Error(t, err)
		assert.True(t, weld.IsQueryError(err))
		assert.False(t, weld.IsConstraintError(err))
	})

	t.Run("invalid_query_not_sent", func(t *testing.T) {
		rec := sql.NewRecorder(dialect.SQLite)
		_, err := New(nums).Where(Numeric[int]("c").GT(1)).Run(context.Background(), rec)
		require.ErrorIs(t, err, weld.ErrUnknownColumn)
		assert.False(t, weld.IsQueryError(err))
		assert.Empty(t, rec.Statements())
	})
}

func TestFindByID(t *testing.T) {
	const query = `SELECT t1."oid", t1."product_id", t1."price" FROM orders t1 WHERE ( t1.oid = $1 )`
	columns := []string{"oid", "product_id", "price"}

	t.Run("found", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		mock.ExpectQuery(query).WithArgs(7).WillReturnRows(sqlmock.NewRows(columns).AddRow(7, 1, 2.5))
		row, err := New(orders).FindByID(context.Background(), drv, 7)
		require.NoError(t, err)
		v, ok := row.Value("oid")
		require.True(t, ok)
		assert.EqualValues(t, 7, v)
	})

	t.Run("not_found", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		mock.ExpectQuery(query).WithArgs(7).WillReturnRows(sqlmock.NewRows(columns))
		_, err := New(orders).FindByID(context.Background(), drv, 7)
		require.True(t, weld.IsNotFound(err))
		require.ErrorIs(t, err, weld.ErrNotFound)
	})

	t.Run("not_singular", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		mock.ExpectQuery(query).WithArgs(7).WillReturnRows(sqlmock.NewRows(columns).AddRow(7, 1, 2.5).AddRow(7, 2, 3.5))
		_, err := New(orders).FindByID(context.Background(), drv, 7)
		require.True(t, weld.IsNotSingular(err))
	})

	t.Run("no_key", func(t *testing.T) {
		_, err := New(events).FindByID(context.Background(), sql.NewRecorder(dialect.Postgres), 1)
		require.ErrorIs(t, err, weld.ErrNoPrimaryKey)
	})
}

func TestDeleteByID(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	mock.ExpectExec(`DELETE FROM orders where oid=$1`).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM orders where oid=$1`).WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, New(orders).DeleteByID(context.Background(), drv, 7))
	err := New(orders).DeleteByID(context.Background(), drv, 8)
	require.True(t, weld.IsNotFound(err))
}

func TestMutationsRecorded(t *testing.T) {
	ctx := context.Background()
	rec := sql.NewRecorder(dialect.MSSQL)
	rec.SetAffected(3)

	n, err := New(nums).Where(numID.GT(5)).Delete(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, `DELETE FROM nums WHERE ( nums.id > @p1 )`, last.SQL)
	assert.Equal(t, []any{5}, last.Args)

	n, err = New(nums).Where(numID.Equal(1)).Set("a", 2).Update(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	last, _ = rec.Last()
	assert.Equal(t, `UPDATE nums SET "a"=@p1 WHERE ( nums.id = @p2 )`, last.SQL)
	assert.Equal(t, []any{2, 1}, last.Args)
	assert.Len(t, rec.Statements(), 2)
}

func TestChunk(t *testing.T) {
	items := make([]int, 2500)
	groups := Chunk(dialect.SQLite, items, 1)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 999)
	assert.Len(t, groups[1], 999)
	assert.Len(t, groups[2], 502)

	groups = Chunk(dialect.MSSQL, items, 3)
	require.Len(t, groups, 4)
	assert.Len(t, groups[0], 700)
	assert.Len(t, groups[3], 400)

	assert.Empty(t, Chunk(dialect.Postgres, []int(nil), 1))
	assert.Len(t, Chunk(dialect.Postgres, items, 0), 1)
}

func TestRunInChunks(t *testing.T) {
	ctx := context.Background()
	values := make([]any, 1500)
	for i := range values {
		values[i] = int64(i)
	}

	rec := sql.NewRecorder(dialect.SQLite)
	_, err := New(orders).Where(orderPrice.GT(1)).RunIn(ctx, rec, "oid", values)
	require.NoError(t, err)
	stmts := rec.Statements()
	require.Len(t, stmts, 2)
	assert.Len(t, stmts[0].Args, 999)
	assert.Len(t, stmts[1].Args, 503)
	for _, st := range stmts {
		assert.LessOrEqual(t, len(st.Args), dialect.SQLite.MaxParams())
		assert.Equal(t, float64(1), st.Args[0])
	}

	_, err = New(orders).RunIn(ctx, rec, "missing", values)
	require.ErrorIs(t, err, weld.ErrUnknownColumn)
}
