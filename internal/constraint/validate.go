package constraint

import (
	"github.com/roach88/qlcache/internal/qlerr"
)

// Validate walks the tree and fails with REQUIRED_FIELD_IS_NONE on the
// first missing operand, naming its position, e.g. "And.Right" or
// "Or.Left.Not.Inner". A nil tree reports "Constraint".
//
// Composite nodes have exported operands, so a tree assembled by hand can
// hold nil children that Compute would dereference.
func Validate(c Constraint) error {
	return validateNode(c, "Constraint")
}

func validateNode(c Constraint, path string) error {
	if c == nil {
		return qlerr.RequiredFieldIsNone(path)
	}

	switch n := c.(type) {
	case Comparison:
		return nil
	case *Comparison:
		if n == nil {
			return qlerr.RequiredFieldIsNone(path)
		}
		return nil
	case And:
		return validatePair(n.Left, n.Right, "And", path)
	case *And:
		if n == nil {
			return qlerr.RequiredFieldIsNone(path)
		}
		return validatePair(n.Left, n.Right, "And", path)
	case Or:
		return validatePair(n.Left, n.Right, "Or", path)
	case *Or:
		if n == nil {
			return qlerr.RequiredFieldIsNone(path)
		}
		return validatePair(n.Left, n.Right, "Or", path)
	case Not:
		return validateNode(n.Inner, child(path, "Not.Inner"))
	case *Not:
		if n == nil {
			return qlerr.RequiredFieldIsNone(path)
		}
		return validateNode(n.Inner, child(path, "Not.Inner"))
	default:
		return nil
	}
}

func validatePair(left, right Constraint, kind, path string) error {
	if err := validateNode(left, child(path, kind+".Left")); err != nil {
		return err
	}
	return validateNode(right, child(path, kind+".Right"))
}

// child extends path with a node position. The root prefix is dropped once
// the walk descends, so paths read from the outermost composite.
func child(path, pos string) string {
	if path == "Constraint" {
		return pos
	}
	return path + "." + pos
}
