package schema

// Column describes one physical column of a table.
type Column struct {
	Name       string `yaml:"name"`
	DBType     string `yaml:"type"`
	Nullable   bool   `yaml:"nullable,omitempty"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
}

// Col returns a non-null column with the given database type.
func Col(name, dbType string) Column {
	return Column{Name: name, DBType: dbType}
}

// Null returns a copy of the column marked nullable.
func (c Column) Null() Column {
	c.Nullable = true
	return c
}

// Key returns a copy of the column marked as (part of) the primary key.
func (c Column) Key() Column {
	c.PrimaryKey = true
	return c
}
