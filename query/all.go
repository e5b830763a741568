package query

import (
	"context"
	"fmt"
	"reflect"

	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
	"github.com/syssam/weld/schema"
)

// All runs the query and decodes its rows into values of the struct type T.
// Result columns are matched to fields by the db tag, or the snake case field
// name; columns without a field are skipped.
//
//	type Product struct {
//		ID    int64   `db:"id,pk"`
//		Name  string  `db:"name"`
//		Price float64 `db:"price"`
//	}
//	products, err := query.All[Product](ctx, q, drv)
func All[T any](ctx context.Context, b *Builder, c dialect.Client) ([]T, error) {
	rows, text, err := b.query(ctx, c, OpSelect, b.selectStmt)
	if err != nil {
		return nil, err
	}
	out, err := ScanAll[T](rows)
	if err != nil {
		return nil, b.queryError(OpSelect, text, err)
	}
	return out, nil
}

// ScanAll decodes every remaining row of rows into values of the struct type
// T and closes rows.
func ScanAll[T any](rows *sql.Rows) (_ []T, err error) {
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("query: scan into %s: not a struct", typ)
	}
	fields, err := schema.Fields(typ)
	if err != nil {
		return nil, err
	}
	byName := make(map[string][]int, len(fields))
	for _, f := range fields {
		byName[f.Column.Name] = f.Index
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []T
	for rows.Next() {
		var v T
		rv := reflect.ValueOf(&v).Elem()
		dest := make([]any, len(columns))
		for i, c := range columns {
			if idx, ok := byName[c]; ok {
				dest[i] = rv.FieldByIndex(idx).Addr().Interface()
			} else {
				dest[i] = new(any)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
