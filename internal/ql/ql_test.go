package ql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlcache/internal/constraint"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

func requireCode(t *testing.T, err error, code qlerr.Code, name string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, qlerr.CodeOf(err), err.Error())
	assert.Equal(t, name, qlerr.NameOf(err))
}

func TestCreateSchemaBuilder(t *testing.T) {
	q, err := NewCreateSchema().Name("S").IfNotExist().Build()
	require.NoError(t, err)
	assert.Equal(t, "S", q.Name())
	assert.True(t, q.IfNotExist())
	assert.Equal(t, KindCreateSchema, q.Kind())

	_, err = NewCreateSchema().IfNotExist().Build()
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "CreateSchema.name")
}

func TestCreateTableBuilder(t *testing.T) {
	b := NewCreateTable().
		Name("T").
		Schema("S").
		Column("id", value.TypeU64, false).
		Column("name", value.TypeText, true)

	q, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "T", q.Name())
	assert.Equal(t, "S", q.Schema())
	assert.Equal(t, TableRef{Schema: "S", Table: "T"}, q.Ref())
	assert.Equal(t, []value.Column{
		{Name: "id", Type: value.TypeU64},
		{Name: "name", Type: value.TypeText, Nullable: true},
	}, q.Columns())
	_, hasPK := q.PrimaryKey()
	assert.False(t, hasPK)
	assert.False(t, q.IfNotExist())
}

func TestCreateTableBuilder_DefaultSchema(t *testing.T) {
	q, err := NewCreateTable().Name("T").Build()
	require.NoError(t, err)
	assert.Equal(t, PublicSchema, q.Schema())
	assert.Empty(t, q.Columns())

	_, err = NewCreateTable().Schema("S").Build()
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "CreateTable.name")
}

func TestCreateTableBuilder_PrimaryKeyForcesNonNull(t *testing.T) {
	b := NewCreateTable().Name("T").Column("K", value.TypeU64, true)

	b, err := b.PrimaryKey("K")
	require.NoError(t, err)

	q, err := b.Build()
	require.NoError(t, err)
	pk, ok := q.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, "K", pk)
	assert.False(t, q.Columns()[0].Nullable)

	// Redeclaring the key column cannot make it nullable again.
	b.Column("K", value.TypeU64, true)
	assert.False(t, b.Columns()[0].Nullable)
}

func TestCreateTableBuilder_UnknownPrimaryKey(t *testing.T) {
	b := NewCreateTable().Name("T").Column("id", value.TypeU64, true)
	before := b.Columns()

	_, err := b.PrimaryKey("nope")
	requireCode(t, err, qlerr.CodeColumnDoesNotExist, "nope")
	assert.Equal(t, before, b.Columns(), "failed PrimaryKey must not mutate columns")

	// The key slot is still free.
	_, err = b.PrimaryKey("id")
	require.NoError(t, err)
}

func TestCreateTableBuilder_PrimaryKeyTwice(t *testing.T) {
	b := NewCreateTable().Name("T").
		Column("a", value.TypeI64, true).
		Column("b", value.TypeI64, true)

	_, err := b.PrimaryKey("a")
	require.NoError(t, err)

	_, err = b.PrimaryKey("b")
	requireCode(t, err, qlerr.CodePrimaryKeyAlreadySet, "a")
	assert.True(t, b.Columns()[1].Nullable, "second key must not touch column b")
}

func TestCreateTableBuilder_RedeclareKeepsPosition(t *testing.T) {
	b := NewCreateTable().Name("T").
		Column("a", value.TypeI64, false).
		Column("b", value.TypeI64, false).
		Column("a", value.TypeText, true)

	cols := b.Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, value.Column{Name: "a", Type: value.TypeText, Nullable: true}, cols[0])
}

func TestCreateTable_Immutable(t *testing.T) {
	q, err := NewCreateTable().Name("T").Column("id", value.TypeU64, false).Build()
	require.NoError(t, err)

	cols := q.Columns()
	cols[0].Name = "mutated"
	assert.Equal(t, "id", q.Columns()[0].Name)
}

func TestSelectBuilder_RequiredFieldOrder(t *testing.T) {
	_, err := NewSelect().Build()
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "Select.table")

	_, err = NewSelect().Everything().Build()
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "Select.table")

	_, err = NewSelect().Table("T").Build()
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "Select.scope")

	_, err = NewSelect().Table("T").Fields().Build()
	requireCode(t, err, qlerr.CodeVecCannotBeEmpty, "Select.fields")
}

func TestSelectBuilder_Full(t *testing.T) {
	sort, err := NewSortBy([]string{"name", "id"}, Descending)
	require.NoError(t, err)

	q, err := NewSelect().
		From(TableRef{Schema: "S", Table: "T"}).
		Fields("name", "id").
		Constraint(constraint.Eq("name", value.Text("a"))).
		SortBy(sort).
		Build()
	require.NoError(t, err)

	assert.Equal(t, KindSelect, q.Kind())
	assert.Equal(t, "S.T", q.Table().String())
	assert.False(t, q.Scope().IsEverything())
	assert.Equal(t, []string{"name", "id"}, q.Scope().Fields())
	assert.Equal(t, "name = 'a'", q.Constraint().String())

	got, ok := q.SortBy()
	require.True(t, ok)
	assert.Equal(t, []string{"name", "id"}, got.Columns())
	assert.Equal(t, Descending, got.Order())
}

func TestSelectBuilder_NoConstraintNoSort(t *testing.T) {
	q, err := NewSelect().Table("T").Everything().Build()
	require.NoError(t, err)
	assert.Nil(t, q.Constraint())
	_, ok := q.SortBy()
	assert.False(t, ok)
	assert.True(t, q.Scope().IsEverything())
	assert.Equal(t, "PUBLIC.T", q.Table().String())
}

func TestSelectBuilder_ChainWithoutBase(t *testing.T) {
	b := NewSelect().Table("T").Everything()

	_, err := b.Or(constraint.Eq("id", value.U64(2)))
	requireCode(t, err, qlerr.CodeNoFirstConstraint, "")

	_, err = b.And(constraint.Eq("id", value.U64(2)))
	requireCode(t, err, qlerr.CodeNoFirstConstraint, "")
}

func TestSelectBuilder_ChainNilOperand(t *testing.T) {
	base := constraint.Eq("id", value.U64(1))
	b := NewSelect().Table("T").Everything().Constraint(base)

	_, err := b.And(nil)
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "Select.constraint")

	_, err = b.Or(nil)
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "Select.constraint")

	// The rejected calls leave the tree untouched.
	q, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, base, q.Constraint())
}

func TestSelectBuilder_RejectsIncompleteTree(t *testing.T) {
	leaf := constraint.Eq("id", value.U64(1))
	tests := []struct {
		name string
		tree constraint.Constraint
		want string
	}{
		{"and right", constraint.And{Left: leaf}, "And.Right"},
		{"or left", constraint.Or{Right: leaf}, "Or.Left"},
		{"not inner", constraint.Not{}, "Not.Inner"},
		{"nested", constraint.Or{Left: constraint.Not{Inner: constraint.And{Left: leaf}}, Right: leaf}, "Or.Left.Not.Inner.And.Right"},
		{"nil pointer", constraint.Not{Inner: (*constraint.And)(nil)}, "Not.Inner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSelect().Table("T").Everything().Constraint(tt.tree).Build()
			requireCode(t, err, qlerr.CodeRequiredFieldIsNone, tt.want)
		})
	}
}

func TestSelectBuilder_ChainIsLeftDeep(t *testing.T) {
	a := constraint.Eq("a", value.I64(1))
	bb := constraint.Eq("b", value.I64(2))
	c := constraint.Eq("c", value.I64(3))

	b := NewSelect().Table("T").Everything().Constraint(a)
	b, err := b.Or(bb)
	require.NoError(t, err)
	b, err = b.And(c)
	require.NoError(t, err)

	q, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, constraint.And{Left: constraint.Or{Left: a, Right: bb}, Right: c}, q.Constraint())
}

func TestNewSortBy_Empty(t *testing.T) {
	_, err := NewSortBy(nil, Ascending)
	requireCode(t, err, qlerr.CodeVecCannotBeEmpty, "SortBy.columns")

	s, err := NewSortBy([]string{"id"}, Ascending)
	require.NoError(t, err)
	assert.Equal(t, "ASC", s.Order().String())
}

func TestInsertBuilder(t *testing.T) {
	q, err := NewInsert().
		Into(TableRef{Table: "T"}).
		Value("id", value.U64(1)).
		Values(map[string]value.Value{"name": value.Text("a")}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, KindInsert, q.Kind())
	assert.Equal(t, map[string]value.Value{"id": value.U64(1), "name": value.Text("a")}, q.Values())

	vals := q.Values()
	vals["id"] = value.U64(99)
	assert.Equal(t, value.U64(1), q.Values()["id"])

	_, err = NewInsert().Value("id", value.U64(1)).Build()
	requireCode(t, err, qlerr.CodeRequiredFieldIsNone, "Insert.table")
}

func TestParseTableRef(t *testing.T) {
	tests := []struct {
		in   string
		want TableRef
	}{
		{"users", TableRef{Table: "users"}},
		{"app.users", TableRef{Schema: "app", Table: "users"}},
		{"app users", TableRef{Schema: "app", Table: "users"}},
		{"  T ", TableRef{Table: "T"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTableRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "a.b.c", "a b c", ".t", "s."} {
		_, err := ParseTableRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestQueriesAreSealed(t *testing.T) {
	var queries []Query
	cs, _ := NewCreateSchema().Name("S").Build()
	ct, _ := NewCreateTable().Name("T").Build()
	sel, _ := NewSelect().Table("T").Everything().Build()
	ins, _ := NewInsert().Table("T").Build()
	queries = append(queries, cs, ct, sel, ins)

	kinds := []Kind{}
	for _, q := range queries {
		kinds = append(kinds, q.Kind())
	}
	assert.Equal(t, []Kind{KindCreateSchema, KindCreateTable, KindSelect, KindInsert}, kinds)
}
