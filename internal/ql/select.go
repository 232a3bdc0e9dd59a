package ql

import (
	"slices"

	"github.com/roach88/qlcache/internal/constraint"
	"github.com/roach88/qlcache/internal/qlerr"
)

// Scope is the projection of a Select: every column, or a named subset in
// the requested order.
type Scope struct {
	everything bool
	fields     []string
}

// Everything projects full rows.
func Everything() Scope { return Scope{everything: true} }

// Fields projects the named columns, in this order.
func Fields(names ...string) Scope { return Scope{fields: slices.Clone(names)} }

// IsEverything reports whether the scope projects full rows.
func (s Scope) IsEverything() bool { return s.everything }

// Fields returns the projected columns, or nil for Everything.
func (s Scope) Fields() []string { return slices.Clone(s.fields) }

// Ordering is the direction of a SortBy.
type Ordering uint8

const (
	Ascending Ordering = iota
	Descending
)

func (o Ordering) String() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

// SortBy orders Select results by one or more columns in one direction.
type SortBy struct {
	columns []string
	order   Ordering
}

// NewSortBy returns a SortBy over columns. Fails with VEC_CANNOT_BE_EMPTY
// if columns is empty.
func NewSortBy(columns []string, order Ordering) (SortBy, error) {
	if len(columns) == 0 {
		return SortBy{}, qlerr.VecCannotBeEmpty("SortBy.columns")
	}
	return SortBy{columns: slices.Clone(columns), order: order}, nil
}

// Columns returns the sort columns, most significant first.
func (s SortBy) Columns() []string { return slices.Clone(s.columns) }

// Order returns the sort direction.
func (s SortBy) Order() Ordering { return s.order }

// Select reads rows from one table.
type Select struct {
	table      TableRef
	scope      Scope
	constraint constraint.Constraint
	sortBy     *SortBy
}

func (Select) queryNode() {}

// Kind implements Query.
func (Select) Kind() Kind { return KindSelect }

// Table returns the table reference.
func (q Select) Table() TableRef { return q.table }

// Scope returns the projection.
func (q Select) Scope() Scope { return q.scope }

// Constraint returns the filter, or nil when every row is selected.
func (q Select) Constraint() constraint.Constraint { return q.constraint }

// SortBy returns the ordering, if any.
func (q Select) SortBy() (SortBy, bool) {
	if q.sortBy == nil {
		return SortBy{}, false
	}
	return *q.sortBy, true
}

// SelectBuilder builds a Select.
type SelectBuilder struct {
	table      *TableRef
	scope      *Scope
	constraint constraint.Constraint
	sortBy     *SortBy
}

// NewSelect returns a builder for a SELECT query.
func NewSelect() *SelectBuilder {
	return &SelectBuilder{}
}

// From sets the table reference.
func (b *SelectBuilder) From(ref TableRef) *SelectBuilder {
	b.table = &ref
	return b
}

// Table sets the table reference to PUBLIC.<name>.
func (b *SelectBuilder) Table(name string) *SelectBuilder {
	return b.From(TableRef{Table: name})
}

// Scope sets the projection.
func (b *SelectBuilder) Scope(s Scope) *SelectBuilder {
	b.scope = &s
	return b
}

// Everything projects full rows.
func (b *SelectBuilder) Everything() *SelectBuilder {
	return b.Scope(Everything())
}

// Fields projects the named columns in order.
func (b *SelectBuilder) Fields(names ...string) *SelectBuilder {
	return b.Scope(Fields(names...))
}

// Constraint sets the base constraint, replacing any existing tree.
func (b *SelectBuilder) Constraint(c constraint.Constraint) *SelectBuilder {
	b.constraint = c
	return b
}

// And replaces the tree with And{existing, c}. Fails with
// NO_FIRST_CONSTRAINT if no constraint has been set, and with
// REQUIRED_FIELD_IS_NONE (Select.constraint) if c is nil.
func (b *SelectBuilder) And(c constraint.Constraint) (*SelectBuilder, error) {
	if b.constraint == nil {
		return b, qlerr.NoFirstConstraint()
	}
	if c == nil {
		return b, qlerr.RequiredFieldIsNone("Select.constraint")
	}
	b.constraint = constraint.And{Left: b.constraint, Right: c}
	return b, nil
}

// Or replaces the tree with Or{existing, c}. Fails with
// NO_FIRST_CONSTRAINT if no constraint has been set, and with
// REQUIRED_FIELD_IS_NONE (Select.constraint) if c is nil.
func (b *SelectBuilder) Or(c constraint.Constraint) (*SelectBuilder, error) {
	if b.constraint == nil {
		return b, qlerr.NoFirstConstraint()
	}
	if c == nil {
		return b, qlerr.RequiredFieldIsNone("Select.constraint")
	}
	b.constraint = constraint.Or{Left: b.constraint, Right: c}
	return b, nil
}

// SortBy sets the result ordering.
func (b *SelectBuilder) SortBy(s SortBy) *SelectBuilder {
	b.sortBy = &s
	return b
}

// Build validates required fields in order: Select.table, Select.scope.
// A Fields scope must name at least one column (Select.fields), and every
// composite in the constraint tree must have its operands (see
// constraint.Validate).
func (b *SelectBuilder) Build() (Select, error) {
	if b.table == nil {
		return Select{}, qlerr.RequiredFieldIsNone("Select.table")
	}
	if b.scope == nil {
		return Select{}, qlerr.RequiredFieldIsNone("Select.scope")
	}
	if !b.scope.IsEverything() && len(b.scope.fields) == 0 {
		return Select{}, qlerr.VecCannotBeEmpty("Select.fields")
	}
	if b.constraint != nil {
		if err := constraint.Validate(b.constraint); err != nil {
			return Select{}, err
		}
	}

	q := Select{
		table:      *b.table,
		scope:      *b.scope,
		constraint: b.constraint,
	}
	if b.sortBy != nil {
		s := *b.sortBy
		q.sortBy = &s
	}
	return q, nil
}
