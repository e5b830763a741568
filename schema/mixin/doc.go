// Package mixin provides reusable column sets for weld tables.
//
// A mixin contributes columns to every table it is applied to:
//
//	users := mixin.Apply(
//	    schema.NewTable("users", schema.Col("email", "TEXT")),
//	    mixin.ID{},
//	    mixin.Time{},
//	    mixin.SoftDelete{},
//	)
//	// users: id, created_at, updated_at, deleted_at, email
//
// # Mixin Order
//
// Mixins are applied in the order they are listed. A later mixin, or the
// table itself, replaces a column of the same name declared earlier; the
// column keeps the position of its first declaration.
//
// # Filters
//
// Mixins owning a column that scopes rows also return the clause selecting
// the visible rows:
//
//	q := query.New(users).Where(
//	    mixin.SoftDelete{}.Alive(),
//	    mixin.TenantID{}.Scope("acme"),
//	)
package mixin
