package query

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
)

// Loader loads the rows of a query together with their related rows. Each
// relation is loaded by one statement selecting the related rows of every
// primary row, so the number of statements does not grow with the number of
// rows.
type Loader struct {
	primary  *Builder
	includes []include
	errs     []error
}

type include struct {
	name     string
	query    *Builder
	myKey    string
	theirKey string
}

// Include returns a Loader for the rows of b.
//
//	ds, err := query.Include(products).
//		With("orders", nil).
//		Run(ctx, drv)
//	for _, p := range ds.Primary {
//		orders := ds.RelatedTo("orders", p)
//	}
func Include(b *Builder) *Loader {
	return &Loader{primary: b}
}

// With loads the rows reached through the named relation. A non nil related
// query filters and orders them.
func (l *Loader) With(name string, related *Builder) *Loader {
	nl := &Loader{
		primary:  l.primary,
		includes: slices.Clone(l.includes),
		errs:     slices.Clone(l.errs),
	}
	if slices.ContainsFunc(l.includes, func(in include) bool { return in.name == name }) {
		nl.errs = append(nl.errs, fmt.Errorf("query: relation %q included twice", name))
		return nl
	}
	my, their, _, err := l.primary.relation(name, related)
	if err != nil {
		nl.errs = append(nl.errs, err)
		return nl
	}
	nl.includes = append(nl.includes, include{
		name:     name,
		query:    l.primary.mapOnto(name, related),
		myKey:    my,
		theirKey: their,
	})
	return nl
}

// Err returns the configuration errors of the loader and its queries.
func (l *Loader) Err() error {
	errs := slices.Clone(l.errs)
	errs = l.primary.collectErrs(errs)
	for _, in := range l.includes {
		errs = in.query.collectErrs(errs)
	}
	return weld.NewAggregateError(errs...)
}

// ToSQL returns the statements of the loader: the primary query first, then
// one per included relation in the order they were added.
func (l *Loader) ToSQL(s dialect.Syntax) []string {
	out := []string{l.primary.ToSQL(s)}
	for _, in := range l.includes {
		out = append(out, in.query.ToSQL(s))
	}
	return out
}

// Run executes every statement of the loader. Statements run concurrently,
// except in a transaction where they run one at a time.
func (l *Loader) Run(ctx context.Context, c dialect.Client) (*DataSet, error) {
	if err := l.Err(); err != nil {
		return nil, err
	}
	results := make([][]sql.Row, len(l.includes)+1)
	g, ctx := errgroup.WithContext(ctx)
	if _, ok := c.(dialect.Tx); ok {
		g.SetLimit(1)
	}
	g.Go(func() (err error) {
		results[0], err = l.primary.Run(ctx, c)
		return err
	})
	for i, in := range l.includes {
		g.Go(func() (err error) {
			results[i+1], err = in.query.Run(ctx, c)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ds := &DataSet{
		Primary: results[0],
		related: make(map[string]relatedRows, len(l.includes)),
	}
	for i, in := range l.includes {
		ds.related[in.name] = relatedRows{myKey: in.myKey, theirKey: in.theirKey, rows: results[i+1]}
	}
	return ds, nil
}

// DataSet holds the rows loaded by a Loader.
type DataSet struct {
	Primary []sql.Row
	related map[string]relatedRows
}

type relatedRows struct {
	myKey    string
	theirKey string
	rows     []sql.Row
}

// Related returns every row loaded for the named relation.
func (d *DataSet) Related(name string) []sql.Row {
	return d.related[name].rows
}

// RelatedTo returns the rows of the named relation that belong to a primary
// row. The key columns of the relation must be selected on both sides.
func (d *DataSet) RelatedTo(name string, row sql.Row) []sql.Row {
	rel, ok := d.related[name]
	if !ok {
		return nil
	}
	key, ok := row.Value(rel.myKey)
	if !ok || key == nil {
		return nil
	}
	key = keyOf(key)
	var out []sql.Row
	for _, r := range rel.rows {
		if v, ok := r.Value(rel.theirKey); ok && keyOf(v) == key {
			out = append(out, r)
		}
	}
	return out
}

// keyOf normalizes key values read from different columns, which
// drivers may return with different types.
func keyOf(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	}
	return v
}
