package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/weld"
	"github.com/syssam/weld/dialect"
)

// Assignment is one column assignment of an UPDATE.
type Assignment struct {
	Column string
	Value  any
	// Null assigns NULL; Value is ignored.
	Null bool
	// SQL, when set, is a hand written expression assigned to the column.
	// Each ? is replaced by the next placeholder and each $ by the table name.
	SQL    string
	Params []any
}

func (a Assignment) bind(dst []arg) []arg {
	switch {
	case a.Null:
		return dst
	case a.SQL != "":
		for _, p := range a.Params {
			dst = append(dst, arg{column: a.Column, value: p})
		}
		return dst
	}
	return append(dst, arg{column: a.Column, value: a.Value})
}

func (a Assignment) render(c *compiler, alias string) string {
	col := c.syntax.QuoteIdentifier(a.Column)
	switch {
	case a.Null:
		return col + "=NULL"
	case a.SQL != "":
		return col + " = ( " + expand(a.SQL, alias, c.params) + " )"
	}
	return col + "=" + c.params.Next()
}

// Set assigns a value to a column in an UPDATE.
func (b *Builder) Set(column string, v any) *Builder {
	nb := b.Clone()
	nb.checkColumns(column)
	nb.sets = append(nb.sets, Assignment{Column: column, Value: v})
	return nb
}

// SetNull assigns NULL to a nullable column in an UPDATE.
func (b *Builder) SetNull(column string) *Builder {
	nb := b.Clone()
	if col, ok := b.table.Column(column); !ok {
		nb.checkColumns(column)
	} else if !col.Nullable {
		nb.fail(weld.NewValidationError(b.table.String()+"."+column, errors.New("column is not nullable")))
	}
	nb.sets = append(nb.sets, Assignment{Column: column, Null: true})
	return nb
}

// SetManual assigns an expression to a column in an UPDATE:
//
//	q.SetManual("price", "$.price * ?", 1.1)
func (b *Builder) SetManual(column, sql string, params ...any) *Builder {
	nb := b.Clone()
	nb.checkColumns(column)
	if n := strings.Count(sql, "?"); n != len(params) {
		nb.fail(fmt.Errorf("query: assignment %q has %d placeholders for %d params", sql, n, len(params)))
	}
	nb.sets = append(nb.sets, Assignment{Column: column, SQL: sql, Params: params})
	return nb
}

// mutationWhere writes the WHERE of an UPDATE or DELETE, whose statement
// addresses the table by its full name. A LIMIT or OFFSET can not be written
// on these statements portably, so a limited mutation is rewritten to match
// the primary keys of the limited SELECT:
//
//	WHERE ( orders.oid IN (SELECT t1."oid" FROM orders t1 ... ORDER BY 1 LIMIT 3) )
func (c *compiler) mutationWhere(b *Builder, table string) (string, error) {
	if len(b.joins) > 0 {
		return "", errors.New("query: joins are not supported in update and delete statements")
	}
	if b.limit == nil && b.offset == nil {
		sc := plan(b, c.aliases, table)
		return writeWhere(c.whereClauses(b, sc, nil)), nil
	}
	pk, err := b.table.PrimaryKey()
	if err != nil {
		return "", err
	}
	sc := plan(b, c.aliases, "")
	s := c.syntax
	tail, _ := writeTail(s, b.limit, b.offset, b.orders, sc.alias)
	inner := joinParts(
		"SELECT "+s.WriteColumn(sc.alias, pk.Name)+" FROM "+table+" "+sc.alias,
		writeWhere(c.whereClauses(b, sc, nil)),
		tail,
	)
	return writeWhere([]string{fmt.Sprintf("%s.%s IN (%s)", table, pk.Name, inner)}), nil
}

func (b *Builder) deleteStmt(c *compiler) (string, error) {
	table := b.table.Ident.String()
	where, err := c.mutationWhere(b, table)
	if err != nil {
		return "", err
	}
	return joinParts("DELETE FROM "+table, where), nil
}

func (b *Builder) updateStmt(c *compiler) (string, error) {
	if len(b.sets) == 0 {
		return "", errors.New("query: update without assignments")
	}
	table := b.table.Ident.String()
	sets := make([]string, len(b.sets))
	for i, a := range b.sets {
		c.args = a.bind(c.args)
		sets[i] = a.render(c, table)
	}
	where, err := c.mutationWhere(b, table)
	if err != nil {
		return "", err
	}
	return joinParts("UPDATE "+table+" SET "+strings.Join(sets, ", "), where), nil
}

// deleteByIDStmt deletes one row by its primary key values, given in the
// order the keys are declared.
func (b *Builder) deleteByIDStmt(ids []any) func(*compiler) (string, error) {
	return func(c *compiler) (string, error) {
		pks := b.table.PrimaryKeys()
		if len(pks) == 0 {
			return "", fmt.Errorf("%s: %w", b.table, weld.ErrNoPrimaryKey)
		}
		if len(ids) != len(pks) {
			return "", fmt.Errorf("query: %s has %d primary key columns, got %d values", b.table, len(pks), len(ids))
		}
		wheres := make([]string, len(pks))
		for i, pk := range pks {
			c.args = append(c.args, arg{column: pk.Name, value: ids[i]})
			wheres[i] = pk.Name + "=" + c.params.Next()
		}
		return "DELETE FROM " + b.table.Ident.String() + " where " + strings.Join(wheres, " AND "), nil
	}
}

// whereID filters the query by its primary key values.
func (b *Builder) whereID(ids []any) (*Builder, error) {
	pks := b.table.PrimaryKeys()
	if len(pks) == 0 {
		return nil, fmt.Errorf("%s: %w", b.table, weld.ErrNoPrimaryKey)
	}
	if len(ids) != len(pks) {
		return nil, fmt.Errorf("query: %s has %d primary key columns, got %d values", b.table, len(pks), len(ids))
	}
	cs := make([]Clause, len(pks))
	for i, pk := range pks {
		cs[i] = compare(pk.Name, "=", ids[i])
	}
	return b.Where(cs...), nil
}

// ToDeleteSQL returns the DELETE statement removing the rows of the query.
func (b *Builder) ToDeleteSQL(s dialect.Syntax) string {
	return b.text(s, b.deleteStmt)
}

// BuildDelete returns the DELETE statement and its arguments.
func (b *Builder) BuildDelete(s dialect.Syntax) (string, []any, error) {
	return b.build(s, b.deleteStmt)
}

// ToUpdateSQL returns the UPDATE statement applying the assignments to the
// rows of the query.
func (b *Builder) ToUpdateSQL(s dialect.Syntax) string {
	return b.text(s, b.updateStmt)
}

// BuildUpdate returns the UPDATE statement and its arguments.
func (b *Builder) BuildUpdate(s dialect.Syntax) (string, []any, error) {
	return b.build(s, b.updateStmt)
}
