package dialect

import "strconv"

// TableAlias hands out the table aliases (t1, t2, ...) of one compiled
// statement. A TableAlias must not outlive the compilation that created it.
type TableAlias struct {
	n int
}

// NewTableAlias returns an allocator whose first alias is t1.
func NewTableAlias() *TableAlias {
	return &TableAlias{n: 1}
}

// Next returns the current alias and advances the counter.
func (a *TableAlias) Next() string {
	s := a.Peek()
	a.n++
	return s
}

// Peek returns the current alias without advancing.
func (a *TableAlias) Peek() string {
	return "t" + strconv.Itoa(a.n)
}

// Bump advances the counter without reading it.
func (a *TableAlias) Bump() {
	a.n++
}
