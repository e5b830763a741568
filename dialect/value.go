package dialect

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/lib/pq"
)

// Encode checks that v can be sent to a database of this dialect and returns
// the value to bind. Slices other than []byte become Postgres arrays; every
// other dialect rejects them. Unsigned integers with the high bit set are only
// accepted by MySQL.
func (s Syntax) Encode(v any) (any, error) {
	s.mustValid()
	switch v := v.(type) {
	case nil, driver.Valuer, []byte, string, bool, time.Time,
		int, int8, int16, int32, int64, float32, float64:
		return v, nil
	case uint8, uint16, uint32:
		return v, nil
	case uint:
		return s.encodeUint(uint64(v), v)
	case uint64:
		return s.encodeUint(v, v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return s.Encode(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if s == Postgres {
			return pq.Array(v), nil
		}
		return nil, fmt.Errorf("%s can not bind %T values", s, v)
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Float32, reflect.Float64:
		// Named types over a basic kind; database/sql converts them.
		return v, nil
	case reflect.Uint, reflect.Uint64:
		return s.encodeUint(rv.Uint(), v)
	}
	return nil, fmt.Errorf("%s can not bind %T values", s, v)
}

func (s Syntax) encodeUint(u uint64, v any) (any, error) {
	if u > math.MaxInt64 && s != MySQL {
		return nil, fmt.Errorf("%s can not bind unsigned value %d of type %T", s, u, v)
	}
	return v, nil
}
