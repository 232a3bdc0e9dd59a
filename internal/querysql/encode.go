package querysql

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/roach88/qlcache/internal/value"
)

// Widths of the zero-padded decimal encodings. Padding to a fixed width makes
// SQLite's bytewise TEXT ordering agree with numeric ordering.
const (
	u64Width  = 20
	u128Width = 39
)

var i128Offset = new(big.Int).Lsh(big.NewInt(1), 127)

// ColumnType returns the SQLite storage type of a column type. Integer types
// that fit in int64 are INTEGER; U64, I128, U128 and TEXT are TEXT.
func ColumnType(t value.DataType) string {
	switch t {
	case value.TypeU64, value.TypeI128, value.TypeU128, value.TypeText:
		return "TEXT"
	default:
		return "INTEGER"
	}
}

// Encode converts v to a database/sql parameter.
//
// U64 and U128 become zero-padded decimal text; I128 is shifted by 2^127
// into the unsigned range first. Equal values encode equally and the
// encodings of one type order like the numbers.
func Encode(v value.Value) any {
	switch val := v.(type) {
	case nil, value.Null:
		return nil
	case value.U64:
		return pad(new(big.Int).SetUint64(uint64(val)), u64Width)
	case value.U128:
		return pad(val.Big(), u128Width)
	case value.I128:
		return pad(new(big.Int).Add(val.Big(), i128Offset), u128Width)
	default:
		return value.DriverValue(v)
	}
}

// Decode converts a scanned column back into a Value of type t.
func Decode(t value.DataType, raw any) (value.Value, error) {
	if raw == nil {
		return value.Null{}, nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}

	switch t {
	case value.TypeText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("decode %s: unexpected %T", t, raw)
		}
		return value.Text(s), nil
	case value.TypeU64, value.TypeU128, value.TypeI128:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("decode %s: unexpected %T", t, raw)
		}
		digits := strings.TrimLeft(s, "0")
		if digits == "" {
			digits = "0"
		}
		n, ok := new(big.Int).SetString(digits, 10)
		if !ok {
			return nil, fmt.Errorf("decode %s: invalid number %q", t, s)
		}
		if t == value.TypeI128 {
			n.Sub(n, i128Offset)
		}
		return value.FromBig(t, n)
	default:
		n, ok := raw.(int64)
		if !ok {
			return nil, fmt.Errorf("decode %s: unexpected %T", t, raw)
		}
		return value.FromBig(t, big.NewInt(n))
	}
}

func pad(n *big.Int, width int) string {
	s := n.String()
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
