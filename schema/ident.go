package schema

import (
	"strings"

	"github.com/syssam/weld/dialect"
)

// Ident identifies a table, optionally qualified by its schema (namespace).
// Idents are plain values and compare with ==.
type Ident struct {
	Schema string
	Name   string
}

// ParseIdent parses "name", "schema.name" or "db.schema.name". Only the last
// two parts are kept.
func ParseIdent(s string) Ident {
	parts := strings.Split(s, ".")
	switch n := len(parts); n {
	case 1:
		return Ident{Name: parts[0]}
	default:
		return Ident{Schema: parts[n-2], Name: parts[n-1]}
	}
}

// String returns "schema.name", or "name" for unqualified idents.
func (i Ident) String() string {
	if i.Schema == "" {
		return i.Name
	}
	return i.Schema + "." + i.Name
}

// Write returns the ident as it is written in a statement of the dialect.
func (i Ident) Write(s dialect.Syntax) string {
	return s.WriteTable(i.Schema, i.Name)
}

// Qualified returns the ident with the dialect's default namespace filled in
// when no schema was given.
func (i Ident) Qualified(s dialect.Syntax) Ident {
	if i.Schema == "" {
		i.Schema = s.DefaultNamespace()
	}
	return i
}
