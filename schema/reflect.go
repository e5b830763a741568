package schema

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"
)

// TagName is the struct tag read by FromStruct and Fields.
//
//	type Order struct {
//	    ID        int64   `db:"oid,pk"`
//	    ProductID int64   `db:"product_id"`
//	    Note      *string // column "note", nullable
//	    Cache     []byte  `db:"-"`
//	}
const TagName = "db"

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	bytesType   = reflect.TypeOf([]byte(nil))
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// Field maps one struct field to its column.
type Field struct {
	Column Column
	Index  []int
}

// TableName returns the table name derived from a Go type name:
// LineItem becomes line_items.
func TableName(typeName string) string {
	return inflect.Underscore(inflect.Pluralize(typeName))
}

// ColumnName returns the column name derived from a Go field name:
// UnitPrice becomes unit_price.
func ColumnName(fieldName string) string {
	return inflect.Underscore(fieldName)
}

// FromStruct describes the table of a struct type (or pointer to one). The
// table name is the pluralized snake case type name, column names come from
// the db tag or the snake case field name.
func FromStruct(v any) (*Table, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: expected struct, got %T", v)
	}
	fields, err := Fields(t)
	if err != nil {
		return nil, err
	}
	table := NewTable(TableName(t.Name()))
	for _, f := range fields {
		table.Columns = append(table.Columns, f.Column)
	}
	return table, nil
}

// Fields returns the column mapped fields of a struct type, embedded structs
// included, in declaration order.
func Fields(t reflect.Type) ([]Field, error) {
	var fields []Field
	seen := make(map[string]bool)
	var walk func(t reflect.Type, index []int) error
	walk = func(t reflect.Type, index []int) error {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag := sf.Tag.Get(TagName)
			if tag == "-" {
				continue
			}
			idx := append(append([]int(nil), index...), i)
			if sf.Anonymous && tag == "" && sf.Type.Kind() == reflect.Struct && !isValueType(sf.Type) {
				if err := walk(sf.Type, idx); err != nil {
					return err
				}
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			if name == "" {
				name = ColumnName(sf.Name)
			}
			if seen[name] {
				return fmt.Errorf("schema: column %q mapped twice in %s", name, t)
			}
			seen[name] = true
			col := Column{Name: name, DBType: dbType(sf.Type)}
			col.Nullable = sf.Type.Kind() == reflect.Pointer || strings.HasPrefix(sf.Type.Name(), "Null")
			for _, o := range strings.Split(opts, ",") {
				switch strings.TrimSpace(o) {
				case "pk":
					col.PrimaryKey = true
				case "null":
					col.Nullable = true
				}
			}
			fields = append(fields, Field{Column: col, Index: idx})
		}
		return nil
	}
	if err := walk(t, nil); err != nil {
		return nil, err
	}
	return fields, nil
}

// isValueType reports whether a struct type is stored as a single column.
func isValueType(t reflect.Type) bool {
	return t == timeType || reflect.PointerTo(t).Implements(scannerType)
}

// dbType returns a portable database type name for a Go type.
func dbType(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return "TIMESTAMP"
	case uuidType:
		return "UUID"
	case bytesType:
		return "BLOB"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return "SMALLINT"
	case reflect.Int32, reflect.Uint16:
		return "INT"
	case reflect.Int, reflect.Int64, reflect.Uint32, reflect.Uint, reflect.Uint64:
		return "BIGINT"
	case reflect.Float32:
		return "REAL"
	case reflect.Float64:
		return "DOUBLE PRECISION"
	case reflect.String:
		return "TEXT"
	}
	return "BLOB"
}
