package value

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// DataType is the declared type of a column.
// The set is closed: signed and unsigned integers of five widths, and text.
type DataType uint8

const (
	// TypeInvalid is the zero DataType. Null values report it.
	TypeInvalid DataType = iota
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeI128
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeText
)

var dataTypeNames = [...]string{
	TypeInvalid: "INVALID",
	TypeI8:      "I8",
	TypeI16:     "I16",
	TypeI32:     "I32",
	TypeI64:     "I64",
	TypeI128:    "I128",
	TypeU8:      "U8",
	TypeU16:     "U16",
	TypeU32:     "U32",
	TypeU64:     "U64",
	TypeU128:    "U128",
	TypeText:    "TEXT",
}

// String returns the canonical upper-case type name, e.g. "U64" or "TEXT".
func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// Valid reports whether t is one of the declarable column types.
func (t DataType) Valid() bool {
	return t > TypeInvalid && t <= TypeText
}

// IsInteger reports whether t is a signed or unsigned integer type.
func (t DataType) IsInteger() bool {
	return t >= TypeI8 && t <= TypeU128
}

// ParseDataType parses a type name case-insensitively.
// "STRING" is accepted as an alias of TEXT.
func ParseDataType(s string) (DataType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "STRING" {
		return TypeText, nil
	}
	for t := TypeI8; t <= TypeText; t++ {
		if dataTypeNames[t] == name {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("unknown data type %q", s)
}

// Value is a sealed interface over the column value variants:
// Null, I8, I16, I32, I64, I128, U8, U16, U32, U64, U128 and Text.
//
// Values are immutable. Two values are equal only when they are the same
// variant with the same payload (see Equal).
type Value interface {
	// Type returns the variant's DataType, or TypeInvalid for Null.
	Type() DataType

	// String renders the payload for display (Null renders as "NULL").
	String() string

	columnValue() // Sealed
}

// Null is the absent value, storable only in nullable columns.
type Null struct{}

func (Null) columnValue() {}
func (Null) Type() DataType { return TypeInvalid }
func (Null) String() string { return "NULL" }

type I8 int8

func (I8) columnValue() {}
func (I8) Type() DataType { return TypeI8 }
func (v I8) String() string { return strconv.FormatInt(int64(v), 10) }

type I16 int16

func (I16) columnValue() {}
func (I16) Type() DataType { return TypeI16 }
func (v I16) String() string { return strconv.FormatInt(int64(v), 10) }

type I32 int32

func (I32) columnValue() {}
func (I32) Type() DataType { return TypeI32 }
func (v I32) String() string { return strconv.FormatInt(int64(v), 10) }

type I64 int64

func (I64) columnValue() {}
func (I64) Type() DataType { return TypeI64 }
func (v I64) String() string { return strconv.FormatInt(int64(v), 10) }

type U8 uint8

func (U8) columnValue() {}
func (U8) Type() DataType { return TypeU8 }
func (v U8) String() string { return strconv.FormatUint(uint64(v), 10) }

type U16 uint16

func (U16) columnValue() {}
func (U16) Type() DataType { return TypeU16 }
func (v U16) String() string { return strconv.FormatUint(uint64(v), 10) }

type U32 uint32

func (U32) columnValue() {}
func (U32) Type() DataType { return TypeU32 }
func (v U32) String() string { return strconv.FormatUint(uint64(v), 10) }

type U64 uint64

func (U64) columnValue() {}
func (U64) Type() DataType { return TypeU64 }
func (v U64) String() string { return strconv.FormatUint(uint64(v), 10) }

// Text is a UTF-8 string value. Ordering is bytewise lexicographic.
type Text string

func (Text) columnValue() {}
func (Text) Type() DataType { return TypeText }
func (v Text) String() string { return string(v) }

// I128 is a signed 128-bit integer. The zero value is 0.
// Construct with NewI128 or I128FromInt64; the payload is never shared.
type I128 struct {
	v *big.Int
}

func (I128) columnValue() {}
func (I128) Type() DataType { return TypeI128 }
func (v I128) String() string { return v.Big().String() }

// Big returns a copy of the payload.
func (v I128) Big() *big.Int {
	if v.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.v)
}

// U128 is an unsigned 128-bit integer. The zero value is 0.
type U128 struct {
	v *big.Int
}

func (U128) columnValue() {}
func (U128) Type() DataType { return TypeU128 }
func (v U128) String() string { return v.Big().String() }

// Big returns a copy of the payload.
func (v U128) Big() *big.Int {
	if v.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.v)
}

var (
	one     = big.NewInt(1)
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(one, 127))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(one, 127), one)
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(one, 128), one)
)

// NewI128 returns n as an I128, or an error if n is outside [-2^127, 2^127-1].
func NewI128(n *big.Int) (I128, error) {
	if n.Cmp(minI128) < 0 || n.Cmp(maxI128) > 0 {
		return I128{}, fmt.Errorf("%s out of range for I128", n)
	}
	return I128{v: new(big.Int).Set(n)}, nil
}

// I128FromInt64 widens n to an I128.
func I128FromInt64(n int64) I128 {
	return I128{v: big.NewInt(n)}
}

// NewU128 returns n as a U128, or an error if n is outside [0, 2^128-1].
func NewU128(n *big.Int) (U128, error) {
	if n.Sign() < 0 || n.Cmp(maxU128) > 0 {
		return U128{}, fmt.Errorf("%s out of range for U128", n)
	}
	return U128{v: new(big.Int).Set(n)}, nil
}

// U128FromUint64 widens n to a U128.
func U128FromUint64(n uint64) U128 {
	return U128{v: new(big.Int).SetUint64(n)}
}

// IsNull reports whether v is Null (or a nil interface).
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Literal renders v as a statement literal: text is single-quoted with
// embedded quotes doubled, Null is NULL, integers are decimal.
func Literal(v Value) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case Text:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	default:
		return val.String()
	}
}
