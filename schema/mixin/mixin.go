package mixin

import (
	"maps"

	"github.com/syssam/weld/query"
	"github.com/syssam/weld/schema"
)

// Mixin is a set of columns shared by several tables.
type Mixin interface {
	Columns() []schema.Column
}

// Schema is the empty mixin. Custom mixins embed it and override Columns.
//
//	type Audit struct{ mixin.Schema }
//
//	func (Audit) Columns() []schema.Column {
//	    return []schema.Column{schema.Col("created_by", "TEXT").Null()}
//	}
type Schema struct{}

// Columns returns no column.
func (Schema) Columns() []schema.Column { return nil }

var _ Mixin = (*Schema)(nil)

// Apply returns a copy of t with the columns of the mixins placed before
// its own. Relations are shared with t.
func Apply(t *schema.Table, mixins ...Mixin) *schema.Table {
	var cols []schema.Column
	at := make(map[string]int)
	add := func(c schema.Column) {
		if i, ok := at[c.Name]; ok {
			cols[i] = c
			return
		}
		at[c.Name] = len(cols)
		cols = append(cols, c)
	}
	for _, m := range mixins {
		for _, c := range m.Columns() {
			add(c)
		}
	}
	for _, c := range t.Columns {
		add(c)
	}
	return &schema.Table{
		Ident:     t.Ident,
		Columns:   cols,
		Relations: maps.Clone(t.Relations),
	}
}

// ID adds a BIGINT primary key named id.
type ID struct{ Schema }

// Columns returns the id column.
func (ID) Columns() []schema.Column {
	return []schema.Column{schema.Col("id", "BIGINT").Key()}
}

// UUID adds a UUID primary key named id.
type UUID struct{ Schema }

// Columns returns the id column.
func (UUID) Columns() []schema.Column {
	return []schema.Column{schema.Col("id", "UUID").Key()}
}

// Time adds created_at and updated_at timestamps.
type Time struct{ Schema }

// Columns returns the timestamp columns.
func (Time) Columns() []schema.Column {
	return append(CreateTime{}.Columns(), UpdateTime{}.Columns()...)
}

// CreateTime adds only created_at.
type CreateTime struct{ Schema }

// Columns returns the created_at column.
func (CreateTime) Columns() []schema.Column {
	return []schema.Column{schema.Col("created_at", "TIMESTAMP")}
}

// UpdateTime adds only updated_at.
type UpdateTime struct{ Schema }

// Columns returns the updated_at column.
func (UpdateTime) Columns() []schema.Column {
	return []schema.Column{schema.Col("updated_at", "TIMESTAMP")}
}

// SoftDelete adds a nullable deleted_at timestamp. Rows with a deleted_at
// are considered deleted.
type SoftDelete struct{ Schema }

// DeletedAt is the soft delete column.
var DeletedAt query.BasicOpt[string] = "deleted_at"

// Columns returns the deleted_at column.
func (SoftDelete) Columns() []schema.Column {
	return []schema.Column{schema.Col(DeletedAt.Name(), "TIMESTAMP").Null()}
}

// Alive matches rows that were not soft deleted.
func (SoftDelete) Alive() query.Clause { return DeletedAt.IsNull() }

// Deleted matches rows that were soft deleted.
func (SoftDelete) Deleted() query.Clause { return DeletedAt.NotNull() }

// TimeSoftDelete combines Time and SoftDelete.
type TimeSoftDelete struct{ Schema }

// Columns returns the timestamp and deleted_at columns.
func (TimeSoftDelete) Columns() []schema.Column {
	return append(Time{}.Columns(), SoftDelete{}.Columns()...)
}

// TenantID adds a tenant_id column isolating the rows of each tenant.
type TenantID struct{ Schema }

// Tenant is the tenant column.
var Tenant query.Text[string] = "tenant_id"

// Columns returns the tenant_id column.
func (TenantID) Columns() []schema.Column {
	return []schema.Column{schema.Col(Tenant.Name(), "TEXT")}
}

// Scope matches the rows of the tenant.
func (TenantID) Scope(tenant string) query.Clause { return Tenant.Equal(tenant) }
