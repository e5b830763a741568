package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wschema "github.com/syssam/weld/schema"
)

func TestValidateTable(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		products, orders := shop()
		assert.False(t, ValidateTable(products).HasErrors())
		assert.False(t, ValidateTable(orders).HasWarnings())
	})

	t.Run("issues", func(t *testing.T) {
		tbl := wschema.NewTable("events",
			wschema.Col("name", "TEXT"),
			wschema.Col("name", "TEXT"),
			wschema.Col("at", ""),
		)
		tbl.AddRelation("owner", wschema.Manual(wschema.NewTable("users", wschema.Col("id", "INT")), "owner_id", "id"))
		result := ValidateTable(tbl)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "events.name: duplicate column name", result.Errors[0].Error())
		assert.Contains(t, result.Errors[1].Error(), `relation "owner"`)
		require.Len(t, result.Warnings, 2)
		assert.Contains(t, result.Warnings[0].Message, "no primary key")
		assert.Equal(t, "events.at: column has no type", result.Warnings[1].Error())
	})

	t.Run("nullable_key", func(t *testing.T) {
		tbl := wschema.NewTable("t", wschema.Col("id", "INT").Key().Null())
		result := ValidateTable(tbl)
		require.True(t, result.HasErrors())
		assert.Equal(t, "t.id: primary key column is nullable", result.Errors[0].Error())
	})
}

func TestValidateSchema(t *testing.T) {
	products, orders := shop()
	assert.Equal(t, "No issues found", ValidateSchema([]*wschema.Table{products, orders}).String())

	result := ValidateSchema([]*wschema.Table{orders, orders})
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "orders: duplicate table name", result.Errors[0].Error())
	assert.Equal(t, `orders: relation "product" references undeclared table "products"`, result.Errors[1].Error())
	assert.Equal(t, result.Errors[1].Error(), result.Errors[2].Error())
}

func TestValidateDiff(t *testing.T) {
	v1 := []*wschema.Table{
		wschema.NewTable("users",
			wschema.Col("id", "INT").Key(),
			wschema.Col("email", "TEXT").Null(),
			wschema.Col("nick", "TEXT"),
		),
		wschema.NewTable("sessions", wschema.Col("id", "INT").Key()),
	}
	v2 := []*wschema.Table{
		wschema.NewTable("users",
			wschema.Col("id", "BIGINT").Key(),
			wschema.Col("email", "TEXT"),
			wschema.Col("age", "INT"),
		),
	}

	result := ValidateDiff(v1, v2)
	require.True(t, result.HasBreakingChanges())
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "sessions: table will be dropped", result.Errors[0].Error())
	assert.Equal(t, "users.nick: column will be dropped", result.Errors[1].Error())
	assert.Equal(t, "users.email", result.Errors[2].Table+"."+result.Errors[2].Column)
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, "users.id: column type changing from INT to BIGINT", result.Warnings[0].Error())
	assert.Equal(t, "users.age: new NOT NULL column may fail if table has data", result.Warnings[1].Error())
	assert.Contains(t, result.String(), "[BREAKING]")

	result = ValidateDiff(v1, v2, AllowDropTable(), AllowDropColumn(), AllowNullToNotNull())
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 5)
	assert.True(t, result.HasBreakingChanges())

	assert.False(t, ValidateDiff(v2, v2).HasErrors())
}
