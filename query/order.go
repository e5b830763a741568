package query

import (
	"strings"

	"github.com/syssam/weld/dialect"
)

// Direction is the sort direction of an OrderBy.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderBy is one sort key. A manual key is an expression template whose $
// characters are replaced with the table alias; its direction is part of
// the template.
type OrderBy struct {
	Expr   string
	Dir    Direction
	Manual bool
}

func (o OrderBy) write(alias string) string {
	if o.Manual {
		return strings.ReplaceAll(o.Expr, "$", alias)
	}
	return alias + "." + o.Expr + " " + string(o.Dir)
}

func writeOrders(orders []OrderBy, alias string) string {
	bys := make([]string, len(orders))
	for i, o := range orders {
		bys[i] = o.write(alias)
	}
	return "ORDER BY " + strings.Join(bys, ", ")
}

// writeTail writes the ORDER BY and paging of a statement. Paging without
// an order gets ORDER BY 1, which MSSQL requires and which keeps limited
// results reproducible elsewhere.
func writeTail(s dialect.Syntax, limit, offset *int64, orders []OrderBy, alias string) (string, bool) {
	var parts []string
	if len(orders) > 0 {
		parts = append(parts, writeOrders(orders, alias))
	}
	if paging, ok := s.LimitOffset(limit, offset); ok {
		if len(orders) == 0 {
			parts = append(parts, "ORDER BY 1")
		}
		parts = append(parts, paging)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}
