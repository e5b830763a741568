package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/weld"
)

// Schema is a set of declared tables, usually loaded from a YAML file:
//
//	tables:
//	  - name: products
//	    columns:
//	      - {name: pid, type: BIGINT, primary_key: true}
//	      - {name: name, type: TEXT}
//	    relations:
//	      orders: {kind: has_many, table: orders, foreign_key: product_id}
//	  - name: orders
//	    columns:
//	      - {name: oid, type: BIGINT, primary_key: true}
//	      - {name: product_id, type: BIGINT}
type Schema struct {
	Tables []*Table
	byName map[string]*Table
}

type (
	schemaFile struct {
		Tables []tableFile `yaml:"tables"`
	}
	tableFile struct {
		Name      string                  `yaml:"name"`
		Columns   []Column                `yaml:"columns"`
		Relations map[string]relationFile `yaml:"relations,omitempty"`
	}
	relationFile struct {
		Kind        RelationKind `yaml:"kind"`
		Table       string       `yaml:"table"`
		ForeignKey  string       `yaml:"foreign_key,omitempty"`
		MyColumn    string       `yaml:"my_column,omitempty"`
		TheirColumn string       `yaml:"their_column,omitempty"`
	}
)

// New returns a schema holding the given tables.
func New(tables ...*Table) *Schema {
	s := &Schema{byName: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.add(t)
	}
	return s
}

func (s *Schema) add(t *Table) {
	s.Tables = append(s.Tables, t)
	s.byName[t.Ident.String()] = t
	if _, ok := s.byName[t.Ident.Name]; !ok {
		s.byName[t.Ident.Name] = t
	}
}

// Table returns the table with the given name. Both the bare and the schema
// qualified name are accepted.
func (s *Schema) Table(name string) (*Table, error) {
	if t, ok := s.byName[name]; ok {
		return t, nil
	}
	id := ParseIdent(name)
	return nil, &weld.MissingTableError{Schema: id.Schema, Name: id.Name}
}

// Load reads and parses a YAML schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return s, nil
}

// Parse parses a YAML schema. Relations may reference tables declared later
// in the same document.
func Parse(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	s := New()
	for _, tf := range f.Tables {
		if tf.Name == "" {
			return nil, fmt.Errorf("schema: table without a name")
		}
		if _, err := s.Table(tf.Name); err == nil {
			return nil, fmt.Errorf("schema: table %q declared twice", tf.Name)
		}
		s.add(NewTable(tf.Name, tf.Columns...))
	}
	for _, tf := range f.Tables {
		owner, _ := s.Table(tf.Name)
		for name, rf := range tf.Relations {
			related, err := s.Table(rf.Table)
			if err != nil {
				return nil, fmt.Errorf("relation %s.%s: %w", tf.Name, name, err)
			}
			owner.AddRelation(name, Relation{
				Kind:        rf.Kind,
				Related:     related,
				ForeignKey:  rf.ForeignKey,
				MyColumn:    rf.MyColumn,
				TheirColumn: rf.TheirColumn,
			})
		}
	}
	return s, nil
}
