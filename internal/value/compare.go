package value

import (
	"cmp"
	"strings"

	"github.com/roach88/qlcache/internal/qlerr"
)

// Equal reports whether a and b are the same variant with the same payload.
// Values of different variants are never equal. Null equals Null.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return IsNull(a) && IsNull(b)
	}
	switch x := a.(type) {
	case I128:
		y, ok := b.(I128)
		return ok && x.Big().Cmp(y.Big()) == 0
	case U128:
		y, ok := b.(U128)
		return ok && x.Big().Cmp(y.Big()) == 0
	default:
		// Remaining variants are comparable scalar types; interface equality
		// checks the dynamic type as well as the payload.
		return a == b
	}
}

// Compare orders two values of the same variant: numeric order for integers,
// bytewise lexicographic order for Text. It returns -1, 0 or +1.
//
// Comparing different variants, or comparing against Null, returns an
// INCOMPATIBLE_TYPES error. Values are never coerced.
func Compare(a, b Value) (int, error) {
	if IsNull(a) || IsNull(b) || a.Type() != b.Type() {
		return 0, qlerr.IncompatibleTypes(typeName(a), typeName(b))
	}

	switch x := a.(type) {
	case I8:
		return cmp.Compare(x, b.(I8)), nil
	case I16:
		return cmp.Compare(x, b.(I16)), nil
	case I32:
		return cmp.Compare(x, b.(I32)), nil
	case I64:
		return cmp.Compare(x, b.(I64)), nil
	case I128:
		return x.Big().Cmp(b.(I128).Big()), nil
	case U8:
		return cmp.Compare(x, b.(U8)), nil
	case U16:
		return cmp.Compare(x, b.(U16)), nil
	case U32:
		return cmp.Compare(x, b.(U32)), nil
	case U64:
		return cmp.Compare(x, b.(U64)), nil
	case U128:
		return x.Big().Cmp(b.(U128).Big()), nil
	case Text:
		return strings.Compare(string(x), string(b.(Text))), nil
	default:
		return 0, qlerr.IncompatibleTypes(typeName(a), typeName(b))
	}
}

// CompareNullsFirst is Compare extended with a total order over nullable
// columns: Null sorts before every non-null value and equals Null.
// Values of different non-null variants still fail with INCOMPATIBLE_TYPES.
func CompareNullsFirst(a, b Value) (int, error) {
	aNull, bNull := IsNull(a), IsNull(b)
	switch {
	case aNull && bNull:
		return 0, nil
	case aNull:
		return -1, nil
	case bNull:
		return 1, nil
	}
	return Compare(a, b)
}

func typeName(v Value) string {
	if IsNull(v) {
		return "NULL"
	}
	return v.Type().String()
}
