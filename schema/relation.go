package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/weld"
)

// RelationKind is the kind of a relation between two tables.
type RelationKind uint8

// Relation kinds.
const (
	// HasManyKind: the related table holds a foreign key to our primary key.
	HasManyKind RelationKind = iota + 1
	// HasOneKind is HasManyKind with at most one related row.
	HasOneKind
	// BelongsToKind: our table holds a foreign key to the related primary key.
	BelongsToKind
	// ManualKind pairs two arbitrary columns.
	ManualKind
)

var kindNames = map[RelationKind]string{
	HasManyKind:   "has_many",
	HasOneKind:    "has_one",
	BelongsToKind: "belongs_to",
	ManualKind:    "manual",
}

// String implements fmt.Stringer.
func (k RelationKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("RelationKind(%d)", uint8(k))
}

// ParseRelationKind parses "has_many", "HasMany", "belongs-to" and similar.
func ParseRelationKind(s string) (RelationKind, error) {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(s))
	for k, name := range kindNames {
		if strings.ReplaceAll(name, "_", "") == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("schema: unknown relation kind %q", s)
}

// UnmarshalYAML implements yaml.Unmarshaler for RelationKind.
func (k *RelationKind) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("schema: expected relation kind, got %v", node.Kind)
	}
	v, err := ParseRelationKind(node.Value)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// MarshalYAML implements yaml.Marshaler for RelationKind.
func (k RelationKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Relation describes how rows of a table reach rows of Related. It only
// names columns; the subquery and join compilers turn it into SQL.
type Relation struct {
	Kind    RelationKind
	Related *Table
	// ForeignKey is the foreign key column. It lives on Related for
	// HasMany/HasOne, and on the owning table for BelongsTo.
	ForeignKey string
	// MyColumn and TheirColumn are the column pair of a manual relation.
	MyColumn    string
	TheirColumn string
}

// HasMany returns a relation to rows of related whose fk references our primary key.
func HasMany(related *Table, fk string) Relation {
	return Relation{Kind: HasManyKind, Related: related, ForeignKey: fk}
}

// HasOne returns a relation to the single row of related whose fk references our primary key.
func HasOne(related *Table, fk string) Relation {
	return Relation{Kind: HasOneKind, Related: related, ForeignKey: fk}
}

// BelongsTo returns a relation to the row of related referenced by our fk column.
func BelongsTo(related *Table, fk string) Relation {
	return Relation{Kind: BelongsToKind, Related: related, ForeignKey: fk}
}

// Manual returns a relation joining myColumn on our side to theirColumn on related.
func Manual(related *Table, myColumn, theirColumn string) Relation {
	return Relation{Kind: ManualKind, Related: related, MyColumn: myColumn, TheirColumn: theirColumn}
}

// Keys resolves the column pair of the relation as seen from self:
// myKey is a column of self, theirKey a column of the related table.
func (r Relation) Keys(self *Table) (myKey, theirKey string, err error) {
	if r.Related == nil {
		return "", "", fmt.Errorf("schema: %s relation of %s has no related table", r.Kind, self)
	}
	switch r.Kind {
	case HasManyKind, HasOneKind:
		pk, err := self.PrimaryKey()
		if err != nil {
			return "", "", err
		}
		return pk.Name, r.ForeignKey, nil
	case BelongsToKind:
		pk, err := r.Related.PrimaryKey()
		if err != nil {
			return "", "", err
		}
		return r.ForeignKey, pk.Name, nil
	case ManualKind:
		return r.MyColumn, r.TheirColumn, nil
	}
	return "", "", fmt.Errorf("schema: unknown relation kind %d", r.Kind)
}

// Validate checks that both sides of the relation reference declared columns.
func (r Relation) Validate(self *Table) error {
	my, their, err := r.Keys(self)
	if err != nil {
		return err
	}
	var errs []error
	if !self.HasColumn(my) {
		errs = append(errs, weld.NewValidationError(self.String()+"."+my, weld.ErrUnknownColumn))
	}
	if !r.Related.HasColumn(their) {
		errs = append(errs, weld.NewValidationError(r.Related.String()+"."+their, weld.ErrUnknownColumn))
	}
	return weld.NewAggregateError(errs...)
}
