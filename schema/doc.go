// Package schema declares the tables statements are compiled against.
//
// A Table names its columns, its primary key and the relations other tables
// are reached through. Tables are declared in Go:
//
//	products := schema.NewTable("products",
//	    schema.Col("pid", "BIGINT").Key(),
//	    schema.Col("name", "TEXT"),
//	    schema.Col("description", "TEXT").Null(),
//	)
//	orders := schema.NewTable("orders",
//	    schema.Col("oid", "BIGINT").Key(),
//	    schema.Col("product_id", "BIGINT"),
//	)
//	products.AddRelation("orders", schema.HasMany(orders, "product_id"))
//	orders.AddRelation("product", schema.BelongsTo(products, "product_id"))
//
// derived from a struct:
//
//	type Order struct {
//	    ID        int64 `db:"oid,pk"`
//	    ProductID int64
//	}
//	orders, err := schema.FromStruct(Order{})
//
// or loaded from a YAML file with Load. See Schema for the file format.
//
// # Relations
//
//   - HasMany and HasOne: the related table holds a foreign key to our
//     primary key.
//   - BelongsTo: our table holds a foreign key to the related primary key.
//   - Manual: an arbitrary pair of columns.
//
// Tables are shared read-only once declared; the query package never
// modifies them.
package schema
