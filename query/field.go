package query

// Number is the constraint of numeric column values.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Basic is a typed, non-null column that supports equality tests.
//
// Usage:
//
//	var Active = query.Basic[bool]("active")
//	q := query.New(users).Where(Active.Equal(true))
type Basic[T any] string

// Name returns the column name.
func (f Basic[T]) Name() string { return string(f) }

// Equal returns a clause matching rows where the column equals v.
func (f Basic[T]) Equal(v T) Clause { return compare(string(f), "=", v) }

// NotEqual returns a clause matching rows where the column differs from v.
func (f Basic[T]) NotEqual(v T) Clause { return compare(string(f), "!=", v) }

// In returns a clause matching rows where the column is one of vs.
func (f Basic[T]) In(vs ...T) Clause { return in(string(f), "IN", vs) }

// NotIn returns a clause matching rows where the column is none of vs.
func (f Basic[T]) NotIn(vs ...T) Clause { return in(string(f), "NOT IN", vs) }

// Numeric is a typed, non-null numeric column.
type Numeric[T Number] string

// Name returns the column name.
func (f Numeric[T]) Name() string { return string(f) }

// Equal returns a clause matching rows where the column equals v.
func (f Numeric[T]) Equal(v T) Clause { return compare(string(f), "=", v) }

// NotEqual returns a clause matching rows where the column differs from v.
func (f Numeric[T]) NotEqual(v T) Clause { return compare(string(f), "!=", v) }

// GT returns a clause matching rows where the column is greater than v.
func (f Numeric[T]) GT(v T) Clause { return compare(string(f), ">", v) }

// GTE returns a clause matching rows where the column is greater than or equal to v.
func (f Numeric[T]) GTE(v T) Clause { return compare(string(f), ">=", v) }

// LT returns a clause matching rows where the column is less than v.
func (f Numeric[T]) LT(v T) Clause { return compare(string(f), "<", v) }

// LTE returns a clause matching rows where the column is less than or equal to v.
func (f Numeric[T]) LTE(v T) Clause { return compare(string(f), "<=", v) }

// In returns a clause matching rows where the column is one of vs.
func (f Numeric[T]) In(vs ...T) Clause { return in(string(f), "IN", vs) }

// NotIn returns a clause matching rows where the column is none of vs.
func (f Numeric[T]) NotIn(vs ...T) Clause { return in(string(f), "NOT IN", vs) }

// Text is a typed, non-null text column.
type Text[T ~string] string

// Name returns the column name.
func (f Text[T]) Name() string { return string(f) }

// Equal returns a clause matching rows where the column equals v.
func (f Text[T]) Equal(v T) Clause { return compare(string(f), "=", v) }

// NotEqual returns a clause matching rows where the column differs from v.
func (f Text[T]) NotEqual(v T) Clause { return compare(string(f), "!=", v) }

// Like returns a clause matching rows where the column matches the pattern.
func (f Text[T]) Like(v T) Clause { return compare(string(f), "like", v) }

// NotLike returns a clause matching rows where the column does not match the pattern.
func (f Text[T]) NotLike(v T) Clause { return compare(string(f), "not like", v) }

// ILike is Like ignoring case. SQLite, whose like already ignores case,
// is sent like.
func (f Text[T]) ILike(v T) Clause { return compare(string(f), "ilike", v) }

// NotILike is NotLike ignoring case.
func (f Text[T]) NotILike(v T) Clause { return compare(string(f), "not ilike", v) }

// GT returns a clause matching rows where the column sorts after v.
func (f Text[T]) GT(v T) Clause { return compare(string(f), ">", v) }

// LT returns a clause matching rows where the column sorts before v.
func (f Text[T]) LT(v T) Clause { return compare(string(f), "<", v) }

// In returns a clause matching rows where the column is one of vs.
func (f Text[T]) In(vs ...T) Clause { return in(string(f), "IN", vs) }

// NotIn returns a clause matching rows where the column is none of vs.
func (f Text[T]) NotIn(vs ...T) Clause { return in(string(f), "NOT IN", vs) }

// BasicOpt is a typed, nullable column. A nil argument to Equal or NotEqual
// tests for NULL.
type BasicOpt[T any] string

// Name returns the column name.
func (f BasicOpt[T]) Name() string { return string(f) }

// Equal returns a clause matching rows where the column equals *v, or is
// NULL when v is nil.
func (f BasicOpt[T]) Equal(v *T) Clause { return compareOpt(string(f), "=", v) }

// NotEqual returns a clause matching rows where the column differs from *v,
// or is not NULL when v is nil.
func (f BasicOpt[T]) NotEqual(v *T) Clause { return compareOpt(string(f), "!=", v) }

// IsNull returns a clause matching rows where the column is NULL.
func (f BasicOpt[T]) IsNull() Clause { return f.Equal(nil) }

// NotNull returns a clause matching rows where the column is not NULL.
func (f BasicOpt[T]) NotNull() Clause { return f.NotEqual(nil) }

// In returns a clause matching rows where the column is one of vs.
func (f BasicOpt[T]) In(vs ...T) Clause { return in(string(f), "IN", vs) }

// NumericOpt is a typed, nullable numeric column.
type NumericOpt[T Number] string

// Name returns the column name.
func (f NumericOpt[T]) Name() string { return string(f) }

// Equal returns a clause matching rows where the column equals *v, or is
// NULL when v is nil.
func (f NumericOpt[T]) Equal(v *T) Clause { return compareOpt(string(f), "=", v) }

// NotEqual returns a clause matching rows where the column differs from *v,
// or is not NULL when v is nil.
func (f NumericOpt[T]) NotEqual(v *T) Clause { return compareOpt(string(f), "!=", v) }

// IsNull returns a clause matching rows where the column is NULL.
func (f NumericOpt[T]) IsNull() Clause { return f.Equal(nil) }

// NotNull returns a clause matching rows where the column is not NULL.
func (f NumericOpt[T]) NotNull() Clause { return f.NotEqual(nil) }

// GT returns a clause matching rows where the column is greater than v.
func (f NumericOpt[T]) GT(v T) Clause { return compare(string(f), ">", v) }

// GTE returns a clause matching rows where the column is greater than or equal to v.
func (f NumericOpt[T]) GTE(v T) Clause { return compare(string(f), ">=", v) }

// LT returns a clause matching rows where the column is less than v.
func (f NumericOpt[T]) LT(v T) Clause { return compare(string(f), "<", v) }

// LTE returns a clause matching rows where the column is less than or equal to v.
func (f NumericOpt[T]) LTE(v T) Clause { return compare(string(f), "<=", v) }

// In returns a clause matching rows where the column is one of vs.
func (f NumericOpt[T]) In(vs ...T) Clause { return in(string(f), "IN", vs) }

// TextOpt is a typed, nullable text column.
type TextOpt[T ~string] string

// Name returns the column name.
func (f TextOpt[T]) Name() string { return string(f) }

// Equal returns a clause matching rows where the column equals *v, or is
// NULL when v is nil.
func (f TextOpt[T]) Equal(v *T) Clause { return compareOpt(string(f), "=", v) }

// NotEqual returns a clause matching rows where the column differs from *v,
// or is not NULL when v is nil.
func (f TextOpt[T]) NotEqual(v *T) Clause { return compareOpt(string(f), "!=", v) }

// IsNull returns a clause matching rows where the column is NULL.
func (f TextOpt[T]) IsNull() Clause { return f.Equal(nil) }

// NotNull returns a clause matching rows where the column is not NULL.
func (f TextOpt[T]) NotNull() Clause { return f.NotEqual(nil) }

// Like returns a clause matching rows where the column matches the pattern.
func (f TextOpt[T]) Like(v T) Clause { return compare(string(f), "like", v) }

// NotLike returns a clause matching rows where the column does not match the pattern.
func (f TextOpt[T]) NotLike(v T) Clause { return compare(string(f), "not like", v) }

// ILike is Like ignoring case.
func (f TextOpt[T]) ILike(v T) Clause { return compare(string(f), "ilike", v) }

// NotILike is NotLike ignoring case.
func (f TextOpt[T]) NotILike(v T) Clause { return compare(string(f), "not ilike", v) }

// In returns a clause matching rows where the column is one of vs.
func (f TextOpt[T]) In(vs ...T) Clause { return in(string(f), "IN", vs) }

func compare(column, op string, v any) Clause {
	return &ColumnCompare{Column: column, Op: op, Value: v}
}

func compareOpt[T any](column, op string, v *T) Clause {
	if v == nil {
		return &ColumnCompare{Column: column, Op: op, NullClause: true, Negate: op == "!="}
	}
	return &ColumnCompare{Column: column, Op: op, Value: *v}
}

func in[T any](column, op string, vs []T) Clause {
	values := make([]any, len(vs))
	for i, v := range vs {
		values[i] = v
	}
	return &ColumnIn{Column: column, Op: op, Values: values}
}
