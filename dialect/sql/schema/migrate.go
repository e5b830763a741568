// Package schema turns declared weld tables into database DDL. Statements
// are planned by the atlas migration planners of each dialect, with column
// types passed through the dialect's type overrides first.
package schema

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/weld/dialect"
	wschema "github.com/syssam/weld/schema"
)

// planner returns the offline migration planner of the dialect.
func planner(s dialect.Syntax) (migrate.PlanApplier, error) {
	switch s {
	case dialect.Postgres:
		return postgres.DefaultPlan, nil
	case dialect.MySQL:
		return mysql.DefaultPlan, nil
	case dialect.SQLite:
		return sqlite.DefaultPlan, nil
	}
	return nil, fmt.Errorf("dialect/sql/schema: no DDL planner for %s", s)
}

// Table converts a declared table into an atlas table. Foreign keys are not
// set; Tables adds them once every table is known.
func Table(s dialect.Syntax, t *wschema.Table) (*schema.Table, error) {
	at := schema.NewTable(t.Ident.Name)
	if t.Ident.Schema != "" {
		at.SetSchema(schema.New(t.Ident.Schema))
	}
	pks := t.PrimaryKeys()
	var keys []*schema.Column
	for _, c := range t.Columns {
		dbType := c.DBType
		if o, ok := s.ColumnTypeOverride(dbType); ok {
			dbType = o
		}
		serial := false
		if c.PrimaryKey && len(pks) == 1 {
			if o, ok := s.PrimaryKeyTypeOverride(dbType); ok {
				dbType, serial = o, s == dialect.Postgres
			}
		}
		typ, err := columnType(dbType, serial)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql/schema: %s.%s: %w", t, c.Name, err)
		}
		col := schema.NewColumn(c.Name).SetType(typ).SetNull(c.Nullable && !c.PrimaryKey)
		at.AddColumns(col)
		if c.PrimaryKey {
			keys = append(keys, col)
		}
	}
	if len(keys) > 0 {
		at.SetPrimaryKey(schema.NewPrimaryKey(keys...))
	}
	return at, nil
}

// Tables converts declared tables and adds a foreign key for every
// belongs-to relation between them. Relations to tables outside the set are
// skipped.
func Tables(s dialect.Syntax, tables ...*wschema.Table) ([]*schema.Table, error) {
	out := make([]*schema.Table, len(tables))
	byIdent := make(map[wschema.Ident]*schema.Table, len(tables))
	for i, t := range tables {
		at, err := Table(s, t)
		if err != nil {
			return nil, err
		}
		out[i], byIdent[t.Ident] = at, at
	}
	for i, t := range tables {
		for _, name := range slices.Sorted(maps.Keys(t.Relations)) {
			rel := t.Relations[name]
			if rel.Kind != wschema.BelongsToKind {
				continue
			}
			ref, ok := byIdent[rel.Related.Ident]
			if !ok {
				continue
			}
			my, their, err := rel.Keys(t)
			if err != nil {
				return nil, err
			}
			col, ok := out[i].Column(my)
			if !ok {
				return nil, fmt.Errorf("dialect/sql/schema: relation %s.%s: unknown column %q", t, name, my)
			}
			refCol, ok := ref.Column(their)
			if !ok {
				return nil, fmt.Errorf("dialect/sql/schema: relation %s.%s: unknown column %s.%s", t, name, rel.Related, their)
			}
			fk := schema.NewForeignKey(fmt.Sprintf("%s_%s_fkey", t.Ident.Name, my)).
				AddColumns(col).
				SetRefTable(ref).
				AddRefColumns(refCol)
			out[i].AddForeignKeys(fk)
		}
	}
	return out, nil
}

// CreateStatements returns the statements creating the tables, in order.
func CreateStatements(ctx context.Context, s dialect.Syntax, tables ...*wschema.Table) ([]string, error) {
	pl, err := planner(s)
	if err != nil {
		return nil, err
	}
	ats, err := Tables(s, tables...)
	if err != nil {
		return nil, err
	}
	changes := make([]schema.Change, len(ats))
	for i, t := range ats {
		changes[i] = &schema.AddTable{T: t}
	}
	plan, err := pl.PlanChanges(ctx, "create", changes)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: plan: %w", err)
	}
	stmts := make([]string, len(plan.Changes))
	for i, c := range plan.Changes {
		stmts[i] = c.Cmd
	}
	return stmts, nil
}

// Create creates the tables through c.
func Create(ctx context.Context, c dialect.Client, tables ...*wschema.Table) error {
	stmts, err := CreateStatements(ctx, c.Syntax(), tables...)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := c.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("dialect/sql/schema: create: %w", err)
		}
	}
	return nil
}

var sizedType = regexp.MustCompile(`^([a-z0-9_ ]+?)\s*\(\s*(\d+|max)\s*(?:,\s*(\d+)\s*)?\)$`)

// columnType maps a database type name to the atlas type the planners
// format. Sizes and precisions in parentheses are kept.
func columnType(dbType string, serial bool) (schema.Type, error) {
	t := strings.ToLower(strings.TrimSpace(dbType))
	if t == "" {
		return nil, fmt.Errorf("empty column type")
	}
	if serial {
		return &postgres.SerialType{T: t}, nil
	}
	base, size, scale := t, 0, 0
	if m := sizedType.FindStringSubmatch(t); m != nil {
		base = m[1]
		size, _ = strconv.Atoi(m[2])
		scale, _ = strconv.Atoi(m[3])
	}
	switch {
	case base == "uuid", base == "uniqueidentifier":
		return &schema.UUIDType{T: base}, nil
	case strings.Contains(base, "json"):
		return &schema.JSONType{T: base}, nil
	case strings.Contains(base, "bool"), base == "bit":
		return &schema.BoolType{T: base}, nil
	case base == "interval":
		return &schema.UnsupportedType{T: t}, nil
	case strings.HasPrefix(base, "int"), strings.HasSuffix(base, "int"):
		return &schema.IntegerType{T: base}, nil
	case base == "numeric", base == "decimal":
		return &schema.DecimalType{T: base, Precision: size, Scale: scale}, nil
	case base == "real", strings.HasPrefix(base, "float"), strings.HasPrefix(base, "double"):
		return &schema.FloatType{T: base}, nil
	case strings.Contains(base, "char"), strings.Contains(base, "text"), base == "clob":
		return &schema.StringType{T: base, Size: size}, nil
	case strings.Contains(base, "blob"), strings.Contains(base, "binary"), base == "bytea":
		if size > 0 {
			return &schema.BinaryType{T: base, Size: &size}, nil
		}
		return &schema.BinaryType{T: base}, nil
	case strings.HasPrefix(base, "date"), strings.HasPrefix(base, "time"):
		return &schema.TimeType{T: base}, nil
	}
	return &schema.UnsupportedType{T: t}, nil
}
