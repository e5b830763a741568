package dialect

// NextParam writes the placeholders of one compiled statement in order.
// Arguments must be bound in the same order Next is called.
type NextParam struct {
	syntax Syntax
	n      int
}

// NewNextParam returns a placeholder writer for the dialect starting at 1.
func NewNextParam(s Syntax) *NextParam {
	s.mustValid()
	return &NextParam{syntax: s, n: 1}
}

// Next returns the placeholder for the current position and advances.
func (p *NextParam) Next() string {
	s := p.syntax.Placeholder(p.n)
	p.n++
	return s
}

// Count returns how many placeholders were written so far.
func (p *NextParam) Count() int {
	return p.n - 1
}

// Syntax returns the dialect placeholders are written for.
func (p *NextParam) Syntax() Syntax {
	return p.syntax
}
