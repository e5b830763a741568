package schema

import (
	"fmt"

	"github.com/syssam/weld"
)

// Table is the declared description of a table: its name, its columns and
// the relations other tables can be reached through. Statements are compiled
// against a Table; it is built once and shared read-only afterwards.
type Table struct {
	Ident     Ident
	Columns   []Column
	Relations map[string]Relation
}

// NewTable returns a table parsed from a (possibly schema qualified) name.
func NewTable(name string, columns ...Column) *Table {
	return &Table{
		Ident:     ParseIdent(name),
		Columns:   columns,
		Relations: make(map[string]Relation),
	}
}

// String returns the table name.
func (t *Table) String() string {
	return t.Ident.String()
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKeys returns the primary key columns in declaration order.
func (t *Table) PrimaryKeys() []Column {
	var pks []Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}

// PrimaryKey returns the first primary key column, the one used to identify
// rows in single-row lookups and limited bulk mutations.
func (t *Table) PrimaryKey() (Column, error) {
	pks := t.PrimaryKeys()
	if len(pks) == 0 {
		return Column{}, fmt.Errorf("%s: %w", t, weld.ErrNoPrimaryKey)
	}
	return pks[0], nil
}

// AddRelation registers a named relation and returns the table.
func (t *Table) AddRelation(name string, r Relation) *Table {
	if t.Relations == nil {
		t.Relations = make(map[string]Relation)
	}
	t.Relations[name] = r
	return t
}

// Relation returns the named relation.
func (t *Table) Relation(name string) (Relation, error) {
	r, ok := t.Relations[name]
	if !ok {
		return Relation{}, weld.NewValidationError(t.String()+"."+name, fmt.Errorf("unknown relation"))
	}
	return r, nil
}
