package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	wschema "github.com/syssam/weld/schema"
)

// ValidationError is one issue found in declared tables.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if this is a breaking change.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

func (r *ValidationResult) HasErrors() bool   { return len(r.Errors) > 0 }
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// HasBreakingChanges reports whether a change loses data or may fail on
// existing rows, allowed or not.
func (r *ValidationResult) HasBreakingChanges() bool {
	return slices.ContainsFunc(r.Errors, isBreaking) || slices.ContainsFunc(r.Warnings, isBreaking)
}

func isBreaking(e *ValidationError) bool { return e.Breaking }

func (r *ValidationResult) errorf(table, column, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

// breaking records a breaking change as an error, or as a warning when allowed.
func (r *ValidationResult) breaking(allowed bool, e *ValidationError) {
	e.Breaking = true
	if allowed {
		r.Warnings = append(r.Warnings, e)
	} else {
		r.Errors = append(r.Errors, e)
	}
}

func (r *ValidationResult) merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, issues []*ValidationError) {
		if len(issues) == 0 {
			return
		}
		sb.WriteString(title + ":\n")
		for _, e := range issues {
			sb.WriteString("  - " + e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption turns a breaking change found by ValidateDiff into a
// warning.
type ValidateOption func(*diffPolicy)

type diffPolicy struct {
	dropColumn, dropTable, tighten bool
}

// AllowDropColumn accepts removed columns.
func AllowDropColumn() ValidateOption { return func(p *diffPolicy) { p.dropColumn = true } }

// AllowDropTable accepts removed tables.
func AllowDropTable() ValidateOption { return func(p *diffPolicy) { p.dropTable = true } }

// AllowNullToNotNull accepts nullable columns becoming NOT NULL.
func AllowNullToNotNull() ValidateOption { return func(p *diffPolicy) { p.tighten = true } }

// ValidateDiff compares two versions of the declared tables. Changes that
// lose data or may fail on existing rows are errors unless allowed by an
// option; risky changes are warnings.
//
//	result := schema.ValidateDiff(old.Tables, cur.Tables)
//	if result.HasErrors() {
//	    log.Fatal(result)
//	}
func ValidateDiff(current, desired []*wschema.Table, opts ...ValidateOption) *ValidationResult {
	var policy diffPolicy
	for _, opt := range opts {
		opt(&policy)
	}
	result := &ValidationResult{}
	currentMap := tablesByName(current)
	desiredMap := tablesByName(desired)
	for _, name := range slices.Sorted(maps.Keys(currentMap)) {
		if _, ok := desiredMap[name]; !ok {
			result.breaking(policy.dropTable, &ValidationError{Table: name, Message: "table will be dropped"})
		}
	}
	for _, name := range slices.Sorted(maps.Keys(desiredMap)) {
		if cur, ok := currentMap[name]; ok {
			diffTable(cur, desiredMap[name], policy, result)
		}
	}
	return result
}

func tablesByName(tables []*wschema.Table) map[string]*wschema.Table {
	m := make(map[string]*wschema.Table, len(tables))
	for _, t := range tables {
		m[t.String()] = t
	}
	return m
}

func diffTable(current, desired *wschema.Table, policy diffPolicy, result *ValidationResult) {
	name := current.String()
	for _, c := range current.Columns {
		if !desired.HasColumn(c.Name) {
			result.breaking(policy.dropColumn, &ValidationError{Table: name, Column: c.Name, Message: "column will be dropped"})
		}
	}
	for _, dc := range desired.Columns {
		cc, ok := current.Column(dc.Name)
		if !ok {
			if !dc.Nullable {
				result.warnf(name, dc.Name, "new NOT NULL column may fail if table has data")
			}
			continue
		}
		if !strings.EqualFold(cc.DBType, dc.DBType) {
			result.warnf(name, dc.Name, "column type changing from %s to %s", cc.DBType, dc.DBType)
		}
		if cc.Nullable && !dc.Nullable {
			result.breaking(policy.tighten, &ValidationError{
				Table:   name,
				Column:  dc.Name,
				Message: "column changing from NULL to NOT NULL may fail if column has NULL values",
			})
		}
		if cc.PrimaryKey != dc.PrimaryKey {
			result.warnf(name, dc.Name, "primary key membership changes")
		}
	}
}

// ValidateTable validates a single table definition.
func ValidateTable(t *wschema.Table) *ValidationResult {
	result := &ValidationResult{}
	name := t.String()
	if t.Ident.Name == "" {
		result.errorf(name, "", "table has no name")
	}
	if len(t.PrimaryKeys()) == 0 {
		result.warnf(name, "", "table has no primary key; FindByID, DeleteByID and limited mutations are unavailable")
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		switch {
		case c.Name == "":
			result.errorf(name, "", "column without a name")
		case seen[c.Name]:
			result.errorf(name, c.Name, "duplicate column name")
		}
		seen[c.Name] = true
		if strings.TrimSpace(c.DBType) == "" {
			result.warnf(name, c.Name, "column has no type")
		}
		if c.PrimaryKey && c.Nullable {
			result.errorf(name, c.Name, "primary key column is nullable")
		}
	}
	for _, rname := range slices.Sorted(maps.Keys(t.Relations)) {
		rel := t.Relations[rname]
		if rel.Related == nil {
			result.errorf(name, "", "relation %q has no related table", rname)
			continue
		}
		if err := rel.Validate(t); err != nil {
			result.errorf(name, "", "relation %q: %v", rname, err)
		}
	}
	return result
}

// ValidateSchema validates every table and checks that relations only
// reference tables of the set.
func ValidateSchema(tables []*wschema.Table) *ValidationResult {
	result := &ValidationResult{}
	declared := make(map[wschema.Ident]bool, len(tables))
	for _, t := range tables {
		if declared[t.Ident] {
			result.errorf(t.String(), "", "duplicate table name")
		}
		declared[t.Ident] = true
		result.merge(ValidateTable(t))
	}
	for _, t := range tables {
		for _, rname := range slices.Sorted(maps.Keys(t.Relations)) {
			rel := t.Relations[rname]
			if rel.Related != nil && !declared[rel.Related.Ident] {
				result.errorf(t.String(), "", "relation %q references undeclared table %q", rname, rel.Related)
			}
		}
	}
	return result
}
