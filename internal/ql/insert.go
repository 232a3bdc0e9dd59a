package ql

import (
	"maps"

	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// Insert adds one row to a table. Columns left out are stored as Null,
// which only nullable columns accept.
type Insert struct {
	table  TableRef
	values map[string]value.Value
}

func (Insert) queryNode() {}

// Kind implements Query.
func (Insert) Kind() Kind { return KindInsert }

// Table returns the target table.
func (q Insert) Table() TableRef { return q.table }

// Values returns a copy of the column values.
func (q Insert) Values() map[string]value.Value { return maps.Clone(q.values) }

// InsertBuilder builds an Insert.
type InsertBuilder struct {
	table  *TableRef
	values map[string]value.Value
}

// NewInsert returns a builder for an INSERT query.
func NewInsert() *InsertBuilder {
	return &InsertBuilder{values: make(map[string]value.Value)}
}

// Into sets the target table.
func (b *InsertBuilder) Into(ref TableRef) *InsertBuilder {
	b.table = &ref
	return b
}

// Table sets the target table to PUBLIC.<name>.
func (b *InsertBuilder) Table(name string) *InsertBuilder {
	return b.Into(TableRef{Table: name})
}

// Value sets one column value.
func (b *InsertBuilder) Value(column string, v value.Value) *InsertBuilder {
	b.values[column] = v
	return b
}

// Values sets several column values.
func (b *InsertBuilder) Values(values map[string]value.Value) *InsertBuilder {
	maps.Copy(b.values, values)
	return b
}

// Build validates required fields: Insert.table.
func (b *InsertBuilder) Build() (Insert, error) {
	if b.table == nil {
		return Insert{}, qlerr.RequiredFieldIsNone("Insert.table")
	}
	return Insert{table: *b.table, values: maps.Clone(b.values)}, nil
}
