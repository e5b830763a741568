package sql

import (
	"database/sql"
	"fmt"
	"reflect"
	"slices"
)

// Row is one row of a result set, with values in the order of its columns.
// Values are as returned by the driver: integers are int64, text is string
// or []byte depending on the driver, and NULL is nil.
type Row struct {
	columns []string
	values  []any
}

// NewRow returns a row made of the given columns and values.
func NewRow(columns []string, values []any) Row {
	return Row{columns: columns, values: values}
}

// Columns returns the column names of the row.
func (r Row) Columns() []string {
	return r.columns
}

// Values returns the values of the row.
func (r Row) Values() []any {
	return r.values
}

// Value returns the value of the named column.
func (r Row) Value(column string) (any, bool) {
	i := slices.Index(r.columns, column)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// ValueAt returns the value at the given position.
func (r Row) ValueAt(i int) (any, bool) {
	if i < 0 || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}

// Get copies the value of the named column into dest, which must be a
// pointer. See GetAt for the conversions applied.
func (r Row) Get(column string, dest any) error {
	v, ok := r.Value(column)
	if !ok {
		return fmt.Errorf("dialect/sql: row has no column %q", column)
	}
	if err := assign(dest, v); err != nil {
		return fmt.Errorf("dialect/sql: column %q: %w", column, err)
	}
	return nil
}

// GetAt copies the value at position i into dest, which must be a pointer.
// Scanners receive the raw value. NULL sets pointer and interface
// destinations to nil and is an error for any other type. Numbers convert
// between numeric types and []byte converts to string.
func (r Row) GetAt(i int, dest any) error {
	v, ok := r.ValueAt(i)
	if !ok {
		return fmt.Errorf("dialect/sql: row has no column %d", i)
	}
	if err := assign(dest, v); err != nil {
		return fmt.Errorf("dialect/sql: column %d: %w", i, err)
	}
	return nil
}

func assign(dest, v any) error {
	if s, ok := dest.(sql.Scanner); ok {
		return s.Scan(v)
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination %T is not a non-nil pointer", dest)
	}
	return assignValue(dv.Elem(), v)
}

func assignValue(dv reflect.Value, v any) error {
	if v == nil {
		switch dv.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			dv.SetZero()
			return nil
		}
		return fmt.Errorf("can not assign NULL to %s", dv.Type())
	}
	if dv.Kind() == reflect.Pointer {
		p := reflect.New(dv.Type().Elem())
		if err := assignValue(p.Elem(), v); err != nil {
			return err
		}
		dv.Set(p)
		return nil
	}
	sv := reflect.ValueOf(v)
	switch {
	case sv.Type().AssignableTo(dv.Type()):
		dv.Set(sv)
		return nil
	case isNumber(sv.Kind()) && isNumber(dv.Kind()):
		dv.Set(sv.Convert(dv.Type()))
		return nil
	case dv.Kind() == reflect.String && (sv.Kind() == reflect.String || sv.Type() == bytesType):
		dv.Set(sv.Convert(dv.Type()))
		return nil
	case dv.Type() == bytesType && sv.Kind() == reflect.String:
		dv.SetBytes([]byte(sv.String()))
		return nil
	}
	return fmt.Errorf("can not assign %T to %s", v, dv.Type())
}

var bytesType = reflect.TypeFor[[]byte]()

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Map returns the row as a column to value map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// ScanRows reads every remaining row of rows and closes it.
func ScanRows(rows *Rows) (_ []Row, err error) {
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		for i, v := range values {
			// Drivers may reuse the buffer behind []byte values.
			if b, ok := v.([]byte); ok {
				values[i] = slices.Clone(b)
			}
		}
		out = append(out, Row{columns: columns, values: values})
	}
	return out, rows.Err()
}

// ScanInt64 reads a single integer column, as returned by COUNT.
func ScanInt64(rows *Rows) (_ int64, err error) {
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()
	var n int64
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("dialect/sql: no rows")
	}
	if err := rows.Scan(&n); err != nil {
		return 0, fmt.Errorf("dialect/sql: scan: %w", err)
	}
	return n, rows.Err()
}
