package constraint

import (
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// Builder accumulates the parts of a Comparison leaf.
type Builder struct {
	field *string
	op    *Op
	value value.Value
}

// NewBuilder returns an empty leaf builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Field sets the field the comparison reads.
func (b *Builder) Field(name string) *Builder {
	b.field = &name
	return b
}

// Op sets the relational operator.
func (b *Builder) Op(op Op) *Builder {
	b.op = &op
	return b
}

// Value sets the value to compare against. Use value.Null{} to compare with
// null; a nil Value leaves the field unset.
func (b *Builder) Value(v value.Value) *Builder {
	b.value = v
	return b
}

// Build returns the Comparison, or REQUIRED_FIELD_IS_NONE naming the first
// missing field in the order field, op, value.
func (b *Builder) Build() (Comparison, error) {
	if b.field == nil {
		return Comparison{}, qlerr.RequiredFieldIsNone("Constraint.field")
	}
	if b.op == nil {
		return Comparison{}, qlerr.RequiredFieldIsNone("Constraint.op")
	}
	if b.value == nil {
		return Comparison{}, qlerr.RequiredFieldIsNone("Constraint.value")
	}
	return Comparison{Field: *b.field, Op: *b.op, Value: b.value}, nil
}
