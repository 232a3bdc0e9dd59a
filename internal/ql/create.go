package ql

import (
	"slices"

	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// CreateSchema creates a schema.
type CreateSchema struct {
	name       string
	ifNotExist bool
}

func (CreateSchema) queryNode() {}

// Kind implements Query.
func (CreateSchema) Kind() Kind { return KindCreateSchema }

// Name returns the schema name.
func (q CreateSchema) Name() string { return q.name }

// IfNotExist reports whether an existing schema of that name is a no-op
// rather than RELATION_ALREADY_EXISTS.
func (q CreateSchema) IfNotExist() bool { return q.ifNotExist }

// CreateSchemaBuilder builds a CreateSchema.
type CreateSchemaBuilder struct {
	name       *string
	ifNotExist bool
}

// NewCreateSchema returns a builder for a CREATE SCHEMA query.
func NewCreateSchema() *CreateSchemaBuilder {
	return &CreateSchemaBuilder{}
}

// Name sets the schema name. Names are case-sensitive.
func (b *CreateSchemaBuilder) Name(name string) *CreateSchemaBuilder {
	b.name = &name
	return b
}

// IfNotExist makes creating an existing schema succeed as a no-op.
func (b *CreateSchemaBuilder) IfNotExist() *CreateSchemaBuilder {
	b.ifNotExist = true
	return b
}

// Build validates required fields: CreateSchema.name.
func (b *CreateSchemaBuilder) Build() (CreateSchema, error) {
	if b.name == nil {
		return CreateSchema{}, qlerr.RequiredFieldIsNone("CreateSchema.name")
	}
	return CreateSchema{name: *b.name, ifNotExist: b.ifNotExist}, nil
}

// CreateTable creates a table inside a schema.
type CreateTable struct {
	ref        TableRef
	columns    []value.Column
	primaryKey string
	ifNotExist bool
}

func (CreateTable) queryNode() {}

// Kind implements Query.
func (CreateTable) Kind() Kind { return KindCreateTable }

// Name returns the table name.
func (q CreateTable) Name() string { return q.ref.Table }

// Schema returns the schema the table is created in (PUBLIC by default).
func (q CreateTable) Schema() string { return q.ref.SchemaName() }

// Ref returns the table reference.
func (q CreateTable) Ref() TableRef { return q.ref }

// Columns returns the declared columns in declaration order.
func (q CreateTable) Columns() []value.Column { return slices.Clone(q.columns) }

// PrimaryKey returns the primary key column, if one was set.
func (q CreateTable) PrimaryKey() (string, bool) {
	return q.primaryKey, q.primaryKey != ""
}

// IfNotExist reports whether an existing table is a no-op.
func (q CreateTable) IfNotExist() bool { return q.ifNotExist }

// CreateTableBuilder builds a CreateTable.
type CreateTableBuilder struct {
	name       *string
	schema     string
	columns    []value.Column
	primaryKey string
	ifNotExist bool
}

// NewCreateTable returns a builder for a CREATE TABLE query.
func NewCreateTable() *CreateTableBuilder {
	return &CreateTableBuilder{}
}

// Name sets the table name.
func (b *CreateTableBuilder) Name(name string) *CreateTableBuilder {
	b.name = &name
	return b
}

// Schema sets the schema. Optional; PUBLIC when unset.
func (b *CreateTableBuilder) Schema(schema string) *CreateTableBuilder {
	b.schema = schema
	return b
}

// Column appends a column. Redeclaring an existing name replaces its type
// and nullability in place, keeping its position. The primary key column
// stays non-nullable whatever is redeclared.
func (b *CreateTableBuilder) Column(name string, t value.DataType, nullable bool) *CreateTableBuilder {
	if name == b.primaryKey {
		nullable = false
	}
	col := value.Column{Name: name, Type: t, Nullable: nullable}
	if i := b.indexOf(name); i >= 0 {
		b.columns[i] = col
		return b
	}
	b.columns = append(b.columns, col)
	return b
}

// PrimaryKey marks a previously added column as the primary key and forces
// it non-nullable.
//
// Fails with PRIMARY_KEY_ALREADY_SET on a second call and with
// COLUMN_DOES_NOT_EXIST if no such column was added. On failure the builder
// is left unchanged.
func (b *CreateTableBuilder) PrimaryKey(key string) (*CreateTableBuilder, error) {
	if b.primaryKey != "" {
		return b, qlerr.PrimaryKeyAlreadySet(b.primaryKey)
	}
	i := b.indexOf(key)
	if i < 0 {
		return b, qlerr.ColumnDoesNotExist(key)
	}
	b.columns[i].Nullable = false
	b.primaryKey = key
	return b, nil
}

// IfNotExist makes creating an existing table succeed as a no-op.
func (b *CreateTableBuilder) IfNotExist() *CreateTableBuilder {
	b.ifNotExist = true
	return b
}

// Columns returns the columns added so far.
func (b *CreateTableBuilder) Columns() []value.Column {
	return slices.Clone(b.columns)
}

// Build validates required fields: CreateTable.name.
func (b *CreateTableBuilder) Build() (CreateTable, error) {
	if b.name == nil {
		return CreateTable{}, qlerr.RequiredFieldIsNone("CreateTable.name")
	}
	return CreateTable{
		ref:        TableRef{Schema: b.schema, Table: *b.name},
		columns:    slices.Clone(b.columns),
		primaryKey: b.primaryKey,
		ifNotExist: b.ifNotExist,
	}, nil
}

func (b *CreateTableBuilder) indexOf(name string) int {
	return slices.IndexFunc(b.columns, func(c value.Column) bool { return c.Name == name })
}
