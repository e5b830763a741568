package sql

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack stores a Go value in a binary column as MessagePack. It can be
// bound as a query argument and used as a scan destination.
//
//	type Order struct {
//		ID    int64                   `db:"id,pk"`
//		Extra sql.Msgpack[OrderExtra] `db:"extra,null"`
//	}
type Msgpack[T any] struct {
	V     T
	Valid bool
}

// NewMsgpack returns a valid Msgpack holding v.
func NewMsgpack[T any](v T) Msgpack[T] {
	return Msgpack[T]{V: v, Valid: true}
}

// Value implements driver.Valuer.
func (m Msgpack[T]) Value() (driver.Value, error) {
	if !m.Valid {
		return nil, nil
	}
	b, err := msgpack.Marshal(m.V)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: msgpack encode: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (m *Msgpack[T]) Scan(src any) error {
	var zero T
	m.V, m.Valid = zero, false
	var b []byte
	switch src := src.(type) {
	case nil:
		return nil
	case []byte:
		b = src
	case string:
		b = []byte(src)
	default:
		return fmt.Errorf("dialect/sql: msgpack scan: unsupported type %T", src)
	}
	if err := msgpack.Unmarshal(b, &m.V); err != nil {
		return fmt.Errorf("dialect/sql: msgpack decode: %w", err)
	}
	m.Valid = true
	return nil
}

type encodedRows struct {
	Columns []string `msgpack:"c"`
	Values  [][]any  `msgpack:"v"`
}

// EncodeRows serializes rows read by ScanRows. Rows are expected to share
// the columns of the first one.
func EncodeRows(rows []Row) ([]byte, error) {
	enc := encodedRows{Values: make([][]any, len(rows))}
	for i, r := range rows {
		if i == 0 {
			enc.Columns = r.columns
		}
		enc.Values[i] = r.values
	}
	b, err := msgpack.Marshal(&enc)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: encode rows: %w", err)
	}
	return b, nil
}

// DecodeRows reverses EncodeRows. Integers decode as int64 and floats as
// float64; times are in the local time zone.
func DecodeRows(b []byte) ([]Row, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	var enc encodedRows
	if err := dec.Decode(&enc); err != nil {
		return nil, fmt.Errorf("dialect/sql: decode rows: %w", err)
	}
	rows := make([]Row, len(enc.Values))
	for i, vs := range enc.Values {
		rows[i] = NewRow(enc.Columns, vs)
	}
	return rows, nil
}
