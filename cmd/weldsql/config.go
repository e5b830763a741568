package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/query"
	"github.com/syssam/weld/schema"
)

// Config is the file read by weldsql:
//
//	dialect: postgres
//	schema: shop.yaml
//	queries:
//	  - name: cheap_tea_orders
//	    table: orders
//	    where:
//	      - {column: price, op: "<", value: 5}
//	    related:
//	      - name: product
//	        where: [{column: name, op: like, value: "%tea%"}]
//	    order: ["-price"]
//	    limit: 10
type Config struct {
	Dialect string      `yaml:"dialect"`
	DSN     string      `yaml:"dsn,omitempty"`
	Schema  string      `yaml:"schema"`
	Queries []QuerySpec `yaml:"queries"`

	path string
}

// QuerySpec declares one statement.
type QuerySpec struct {
	Name string `yaml:"name"`
	// Kind is select (default), count, delete or update.
	Kind    string         `yaml:"kind,omitempty"`
	Table   string         `yaml:"table"`
	Where   []Predicate    `yaml:"where,omitempty"`
	Related []RelatedSpec  `yaml:"related,omitempty"`
	Map     []string       `yaml:"map,omitempty"`
	Order   []string       `yaml:"order,omitempty"`
	Limit   *int64         `yaml:"limit,omitempty"`
	Offset  *int64         `yaml:"offset,omitempty"`
	Set     map[string]any `yaml:"set,omitempty"`
}

// RelatedSpec filters on rows reachable through a relation.
type RelatedSpec struct {
	Name  string      `yaml:"name"`
	Where []Predicate `yaml:"where,omitempty"`
}

// Predicate is a column comparison. A list value with = or != renders
// IN or NOT IN, a missing value with = or != renders IS NULL or IS NOT NULL.
type Predicate struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op"`
	Value  any    `yaml:"value"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{path: path}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Schema == "" {
		return nil, fmt.Errorf("config %s: schema is required", path)
	}
	return cfg, nil
}

// SchemaPath returns the schema file path, relative paths being resolved
// against the directory of the config file.
func (c *Config) SchemaPath() string {
	if filepath.IsAbs(c.Schema) || c.path == "" {
		return c.Schema
	}
	return filepath.Join(filepath.Dir(c.path), c.Schema)
}

// Syntax returns the dialect of the config, or override when set.
func (c *Config) Syntax(override string) (dialect.Syntax, error) {
	name := c.Dialect
	if override != "" {
		name = override
	}
	if name == "" {
		return "", fmt.Errorf("no dialect configured")
	}
	return dialect.Parse(name)
}

func clauses(t *schema.Table, preds []Predicate) ([]query.Clause, error) {
	out := make([]query.Clause, 0, len(preds))
	for _, p := range preds {
		op := p.Op
		if op == "" {
			op = "="
		}
		c, err := query.Compare(p.Column, op, p.Value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, p.Column, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Builder returns the builder of the declared query. Column errors are left on
// the builder and reported when it is built.
func (q QuerySpec) Builder(s *schema.Schema) (*query.Builder, error) {
	t, err := s.Table(q.Table)
	if err != nil {
		return nil, err
	}
	where, err := clauses(t, q.Where)
	if err != nil {
		return nil, err
	}
	b := query.New(t).Where(where...)
	for _, r := range q.Related {
		rel, err := t.Relation(r.Name)
		if err != nil {
			return nil, err
		}
		filter, err := clauses(rel.Related, r.Where)
		if err != nil {
			return nil, err
		}
		b = b.WhereRelation(r.Name, query.New(rel.Related).Where(filter...))
	}
	for _, name := range q.Map {
		b = b.MapQuery(name)
	}
	for _, o := range q.Order {
		if col, ok := strings.CutPrefix(o, "-"); ok {
			b = b.OrderByDesc(col)
		} else {
			b = b.OrderByAsc(strings.TrimPrefix(o, "+"))
		}
	}
	if q.Limit != nil {
		b = b.Limit(*q.Limit)
	}
	if q.Offset != nil {
		b = b.Offset(*q.Offset)
	}
	for _, col := range slices.Sorted(maps.Keys(q.Set)) {
		if v := q.Set[col]; v != nil {
			b = b.Set(col, v)
		} else {
			b = b.SetNull(col)
		}
	}
	return b, nil
}

// Build compiles the declared statement.
func (q QuerySpec) Build(s dialect.Syntax, b *query.Builder) (string, []any, error) {
	switch strings.ToLower(q.Kind) {
	case "", "select":
		return b.Build(s)
	case "count":
		return b.BuildCount(s)
	case "delete":
		return b.BuildDelete(s)
	case "update":
		return b.BuildUpdate(s)
	}
	return "", nil, fmt.Errorf("unknown query kind %q", q.Kind)
}

// render writes the statements of every query to w. Queries failing to
// build are reported to w and counted; the others are still rendered.
func render(w io.Writer, cfg *Config, s dialect.Syntax, sch *schema.Schema) (failed int) {
	for _, q := range cfg.Queries {
		fmt.Fprintf(w, "-- %s (%s)\n", q.Name, s)
		b, err := q.Builder(sch)
		var (
			text string
			args []any
		)
		if err == nil {
			text, args, err = q.Build(s, b)
		}
		if err != nil {
			failed++
			fmt.Fprintf(w, "-- error: %v\n\n", err)
			continue
		}
		fmt.Fprintln(w, text+";")
		if len(args) > 0 {
			fmt.Fprintf(w, "-- args: %v\n", args)
		}
		fmt.Fprintln(w)
	}
	return failed
}

// execute runs every query against c and writes a summary line per query.
func execute(ctx context.Context, w io.Writer, c dialect.Client, cfg *Config, sch *schema.Schema) error {
	for _, q := range cfg.Queries {
		b, err := q.Builder(sch)
		if err != nil {
			return fmt.Errorf("%s: %w", q.Name, err)
		}
		switch strings.ToLower(q.Kind) {
		case "", "select":
			rows, err := b.Run(ctx, c)
			if err != nil {
				return fmt.Errorf("%s: %w", q.Name, err)
			}
			fmt.Fprintf(w, "%s: %d rows\n", q.Name, len(rows))
			for _, r := range rows {
				fmt.Fprintf(w, "  %v\n", r.Values())
			}
		case "count":
			n, err := b.Count(ctx, c)
			if err != nil {
				return fmt.Errorf("%s: %w", q.Name, err)
			}
			fmt.Fprintf(w, "%s: %d\n", q.Name, n)
		case "delete", "update":
			run := b.Delete
			if strings.EqualFold(q.Kind, "update") {
				run = b.Update
			}
			n, err := run(ctx, c)
			if err != nil {
				return fmt.Errorf("%s: %w", q.Name, err)
			}
			fmt.Fprintf(w, "%s: %d rows affected\n", q.Name, n)
		default:
			return fmt.Errorf("%s: unknown query kind %q", q.Name, q.Kind)
		}
	}
	return nil
}
