// Package constraint implements the boolean predicate trees used to filter
// rows: comparison leaves combined with And, Or and Not.
//
// Constraint is a sealed interface. Only types in this package implement it,
// which lets compilers (see querysql) switch exhaustively over node kinds.
//
// Evaluation is total. A leaf over a field the row does not have, or a
// comparison between incompatible value variants, evaluates to false rather
// than failing, so filtering heterogeneous rows never aborts.
//
// Composite nodes own their operands by value: a tree is built bottom-up and
// never shares or cycles back into itself.
package constraint

import (
	"fmt"

	"github.com/roach88/qlcache/internal/value"
)

// Constraint is a predicate over a row.
type Constraint interface {
	// Compute reports whether row satisfies the constraint.
	Compute(row value.Row) bool

	// String renders the constraint in statement syntax.
	String() string

	constraintNode() // Sealed
}

// Op is a relational operator of a comparison leaf.
type Op uint8

const (
	OpEq Op = iota + 1 // =
	OpLt               // <
	OpGt               // >
	OpLe               // <=
	OpGe               // >=
)

// String returns the operator symbol.
func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// ParseOp parses an operator symbol.
func ParseOp(s string) (Op, error) {
	switch s {
	case "=":
		return OpEq, nil
	case "<":
		return OpLt, nil
	case ">":
		return OpGt, nil
	case "<=":
		return OpLe, nil
	case ">=":
		return OpGe, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}

// Comparison is a leaf: <Field> <Op> <Value>.
type Comparison struct {
	Field string
	Op    Op
	Value value.Value
}

func (Comparison) constraintNode() {}

// Compute fetches row[Field] and applies Op against Value.
//
// Missing fields never match. Equality is structural (value.Equal); the
// ordering operators use value.Compare and evaluate to false on
// INCOMPATIBLE_TYPES, including any ordering against Null.
func (c Comparison) Compute(row value.Row) bool {
	v, ok := row[c.Field]
	if !ok {
		return false
	}
	if c.Op == OpEq {
		return value.Equal(v, c.Value)
	}

	n, err := value.Compare(v, c.Value)
	if err != nil {
		return false
	}
	switch c.Op {
	case OpLt:
		return n < 0
	case OpGt:
		return n > 0
	case OpLe:
		return n <= 0
	case OpGe:
		return n >= 0
	default:
		return false
	}
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, value.Literal(c.Value))
}

// And is satisfied when both operands are. Left is evaluated first and
// short-circuits.
type And struct {
	Left  Constraint
	Right Constraint
}

func (And) constraintNode() {}

func (a And) Compute(row value.Row) bool {
	return a.Left.Compute(row) && a.Right.Compute(row)
}

func (a And) String() string {
	return fmt.Sprintf("(%s AND %s)", a.Left, a.Right)
}

// Or is satisfied when either operand is. Left is evaluated first and
// short-circuits.
type Or struct {
	Left  Constraint
	Right Constraint
}

func (Or) constraintNode() {}

func (o Or) Compute(row value.Row) bool {
	return o.Left.Compute(row) || o.Right.Compute(row)
}

func (o Or) String() string {
	return fmt.Sprintf("(%s OR %s)", o.Left, o.Right)
}

// Not inverts its operand.
type Not struct {
	Inner Constraint
}

func (Not) constraintNode() {}

func (n Not) Compute(row value.Row) bool {
	return !n.Inner.Compute(row)
}

func (n Not) String() string {
	return fmt.Sprintf("NOT %s", parenthesize(n.Inner))
}

func parenthesize(c Constraint) string {
	if _, ok := c.(Comparison); ok {
		return "(" + c.String() + ")"
	}
	return c.String()
}

// Eq is shorthand for Comparison{field, OpEq, v}.
func Eq(field string, v value.Value) Comparison {
	return Comparison{Field: field, Op: OpEq, Value: v}
}

// Lt is shorthand for Comparison{field, OpLt, v}.
func Lt(field string, v value.Value) Comparison {
	return Comparison{Field: field, Op: OpLt, Value: v}
}

// Gt is shorthand for Comparison{field, OpGt, v}.
func Gt(field string, v value.Value) Comparison {
	return Comparison{Field: field, Op: OpGt, Value: v}
}

// Le is shorthand for Comparison{field, OpLe, v}.
func Le(field string, v value.Value) Comparison {
	return Comparison{Field: field, Op: OpLe, Value: v}
}

// Ge is shorthand for Comparison{field, OpGe, v}.
func Ge(field string, v value.Value) Comparison {
	return Comparison{Field: field, Op: OpGe, Value: v}
}

// Fields returns the field names referenced by c, depth-first, left to right.
func Fields(c Constraint) []string {
	var out []string
	var walk func(Constraint)
	walk = func(c Constraint) {
		switch node := c.(type) {
		case Comparison:
			out = append(out, node.Field)
		case And:
			walk(node.Left)
			walk(node.Right)
		case Or:
			walk(node.Left)
			walk(node.Right)
		case Not:
			walk(node.Inner)
		}
	}
	if c != nil {
		walk(c)
	}
	return out
}
