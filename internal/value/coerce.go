package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/roach88/qlcache/internal/qlerr"
)

// Coerce converts an untyped literal into a Value of type t.
//
// Accepted inputs: nil (Null), Go integers, *big.Int, decimal strings for
// integer types, and strings for TEXT. Out-of-range integers and mismatched
// kinds fail with TYPE_MISMATCH. Floats are rejected.
func Coerce(t DataType, raw any) (Value, error) {
	if raw == nil {
		return Null{}, nil
	}
	if v, ok := raw.(Value); ok {
		if IsNull(v) || v.Type() == t {
			return v, nil
		}
		return nil, qlerr.TypeMismatch("", t.String(), v.Type().String())
	}

	if t == TypeText {
		s, ok := raw.(string)
		if !ok {
			return nil, qlerr.TypeMismatch("", t.String(), fmt.Sprintf("%T", raw))
		}
		return Text(s), nil
	}

	if !t.IsInteger() {
		return nil, fmt.Errorf("cannot coerce into %s", t)
	}

	n, err := toBig(raw)
	if err != nil {
		return nil, qlerr.TypeMismatch("", t.String(), err.Error())
	}
	v, err := FromBig(t, n)
	if err != nil {
		return nil, qlerr.TypeMismatch("", t.String(), err.Error())
	}
	return v, nil
}

// FromBig narrows n into integer type t, failing if n is out of range.
func FromBig(t DataType, n *big.Int) (Value, error) {
	switch t {
	case TypeI128:
		return NewI128(n)
	case TypeU128:
		return NewU128(n)
	}

	if t >= TypeU8 && t <= TypeU64 {
		if n.Sign() < 0 || !n.IsUint64() {
			return nil, fmt.Errorf("%s out of range", n)
		}
		u := n.Uint64()
		switch t {
		case TypeU8:
			if u <= math.MaxUint8 {
				return U8(u), nil
			}
		case TypeU16:
			if u <= math.MaxUint16 {
				return U16(u), nil
			}
		case TypeU32:
			if u <= math.MaxUint32 {
				return U32(u), nil
			}
		case TypeU64:
			return U64(u), nil
		}
		return nil, fmt.Errorf("%s out of range", n)
	}

	if !n.IsInt64() {
		return nil, fmt.Errorf("%s out of range", n)
	}
	i := n.Int64()
	switch t {
	case TypeI8:
		if i >= math.MinInt8 && i <= math.MaxInt8 {
			return I8(i), nil
		}
	case TypeI16:
		if i >= math.MinInt16 && i <= math.MaxInt16 {
			return I16(i), nil
		}
	case TypeI32:
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return I32(i), nil
		}
	case TypeI64:
		return I64(i), nil
	default:
		return nil, fmt.Errorf("%s is not an integer type", t)
	}
	return nil, fmt.Errorf("%s out of range", n)
}

func toBig(raw any) (*big.Int, error) {
	switch n := raw.(type) {
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case *big.Int:
		return new(big.Int).Set(n), nil
	case string:
		b, ok := new(big.Int).SetString(n, 10)
		if !ok {
			return nil, fmt.Errorf("%s is not an integer", strconv.Quote(n))
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%T", raw)
	}
}

// ToAny converts v to a plain Go value: nil, int64, uint64, *big.Int or string.
// Used for JSON output and for comparing against decoded fixtures.
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case I8:
		return int64(val)
	case I16:
		return int64(val)
	case I32:
		return int64(val)
	case I64:
		return int64(val)
	case U8:
		return uint64(val)
	case U16:
		return uint64(val)
	case U32:
		return uint64(val)
	case U64:
		return uint64(val)
	case I128:
		return val.Big()
	case U128:
		return val.Big()
	case Text:
		return string(val)
	default:
		return nil
	}
}

// DriverValue converts v to a database/sql driver value. Types wider than
// int64 (U64, I128, U128) are rendered as decimal text.
func DriverValue(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case U64, I128, U128:
		return val.String()
	case Text:
		return string(val)
	default:
		if n, ok := ToAny(v).(int64); ok {
			return n
		}
		if n, ok := ToAny(v).(uint64); ok {
			return int64(n)
		}
		return val.String()
	}
}
