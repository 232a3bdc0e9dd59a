package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlcache/internal/qlerr"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"i8", TypeI8},
		{"I128", TypeI128},
		{" u64 ", TypeU64},
		{"U128", TypeU128},
		{"text", TypeText},
		{"STRING", TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDataType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDataType("float")
	assert.Error(t, err)
	_, err = ParseDataType("INVALID")
	assert.Error(t, err, "INVALID is not declarable")
}

func TestDataType_String(t *testing.T) {
	assert.Equal(t, "U64", TypeU64.String())
	assert.Equal(t, "TEXT", TypeText.String())
	assert.Equal(t, "DataType(99)", DataType(99).String())
	assert.True(t, TypeI8.Valid())
	assert.False(t, TypeInvalid.Valid())
	assert.True(t, TypeU128.IsInteger())
	assert.False(t, TypeText.IsInteger())
}

func TestEqual_TypeStrict(t *testing.T) {
	assert.True(t, Equal(I8(1), I8(1)))
	assert.False(t, Equal(I8(1), I16(1)), "different widths never equal")
	assert.False(t, Equal(I64(1), U64(1)), "signedness matters")
	assert.True(t, Equal(Text("a"), Text("a")))
	assert.False(t, Equal(Text("1"), I64(1)))
	assert.True(t, Equal(Null{}, Null{}))
	assert.False(t, Equal(Null{}, I64(0)))
	assert.True(t, Equal(I128FromInt64(-5), I128FromInt64(-5)))
	assert.False(t, Equal(I128FromInt64(5), U128FromUint64(5)))
	assert.True(t, Equal(U128{}, U128FromUint64(0)), "zero value is 0")
}

func TestCompare_SameVariant(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"i8 less", I8(-3), I8(2), -1},
		{"i32 equal", I32(7), I32(7), 0},
		{"u64 greater", U64(1 << 63), U64(1), 1},
		{"i128 negative", I128FromInt64(-10), I128FromInt64(3), -1},
		{"u128 greater", U128FromUint64(9), U128FromUint64(8), 1},
		{"text lexicographic", Text("apple"), Text("banana"), -1},
		{"text prefix", Text("ab"), Text("a"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_DomainErrors(t *testing.T) {
	pairs := [][2]Value{
		{I64(1), U64(1)},
		{I8(1), Text("1")},
		{Null{}, I64(1)},
		{Text("a"), Null{}},
		{Null{}, Null{}},
	}
	for _, p := range pairs {
		_, err := Compare(p[0], p[1])
		require.Error(t, err)
		assert.True(t, qlerr.Is(err, qlerr.CodeIncompatibleTypes))
	}
}

func TestCompareNullsFirst(t *testing.T) {
	c, err := CompareNullsFirst(Null{}, I64(-100))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = CompareNullsFirst(Text("x"), Null{})
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = CompareNullsFirst(Null{}, Null{})
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	_, err = CompareNullsFirst(I64(1), Text("a"))
	assert.Error(t, err)
}

func TestBig_Ranges(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	v, err := NewI128(max)
	require.NoError(t, err)
	assert.Equal(t, max.String(), v.String())

	_, err = NewI128(new(big.Int).Add(max, big.NewInt(1)))
	assert.Error(t, err)

	_, err = NewU128(big.NewInt(-1))
	assert.Error(t, err)

	// Payload is copied, not shared.
	n := big.NewInt(42)
	u, err := NewU128(n)
	require.NoError(t, err)
	n.SetInt64(0)
	assert.Equal(t, "42", u.String())
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		t    DataType
		raw  any
		want Value
	}{
		{"null", TypeU64, nil, Null{}},
		{"int to u8", TypeU8, 255, U8(255)},
		{"int to i8", TypeI8, -128, I8(-128)},
		{"int64 to i64", TypeI64, int64(-7), I64(-7)},
		{"uint64 to u64", TypeU64, uint64(1 << 63), U64(1 << 63)},
		{"string to i128", TypeI128, "-170141183460469231731687303715884105728", mustI128("-170141183460469231731687303715884105728")},
		{"string to u128", TypeU128, "340282366920938463463374607431768211455", mustU128("340282366920938463463374607431768211455")},
		{"text", TypeText, "hello", Text("hello")},
		{"typed passthrough", TypeI32, I32(5), I32(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.t, tt.raw)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "want %v got %v", tt.want, got)
		})
	}
}

func TestCoerce_Failures(t *testing.T) {
	tests := []struct {
		name string
		t    DataType
		raw  any
	}{
		{"u8 overflow", TypeU8, 256},
		{"i8 underflow", TypeI8, -129},
		{"negative unsigned", TypeU32, -1},
		{"u128 overflow", TypeU128, "340282366920938463463374607431768211456"},
		{"text into int", TypeI64, "abc"},
		{"int into text", TypeText, 5},
		{"float", TypeI64, 1.5},
		{"typed mismatch", TypeI32, I64(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.t, tt.raw)
			require.Error(t, err)
			assert.True(t, qlerr.Is(err, qlerr.CodeTypeMismatch))
		})
	}
}

func TestColumn_Check(t *testing.T) {
	col := Column{Name: "id", Type: TypeU64}
	assert.NoError(t, col.Check(U64(1)))
	assert.True(t, qlerr.Is(col.Check(Null{}), qlerr.CodeNullViolation))
	assert.True(t, qlerr.Is(col.Check(I64(1)), qlerr.CodeTypeMismatch))

	nullable := Column{Name: "name", Type: TypeText, Nullable: true}
	assert.NoError(t, nullable.Check(Null{}))
	assert.NoError(t, nullable.Check(nil))
}

func TestRow_ProjectAndClone(t *testing.T) {
	row := Row{"id": U64(1), "name": Text("a"), "age": Null{}}

	p := row.Project([]string{"name", "missing"})
	assert.Equal(t, Row{"name": Text("a")}, p)

	c := row.Clone()
	c["name"] = Text("b")
	assert.Equal(t, Text("a"), row["name"], "clone must not alias")

	assert.True(t, EqualRows(row, Row{"id": U64(1), "name": Text("a"), "age": Null{}}))
	assert.False(t, EqualRows(row, c))
}

func TestLiteralAndConversions(t *testing.T) {
	assert.Equal(t, "'it''s'", Literal(Text("it's")))
	assert.Equal(t, "NULL", Literal(Null{}))
	assert.Equal(t, "-4", Literal(I16(-4)))

	assert.Nil(t, ToAny(Null{}))
	assert.Equal(t, int64(3), ToAny(I8(3)))
	assert.Equal(t, uint64(3), ToAny(U32(3)))
	assert.Equal(t, "x", ToAny(Text("x")))

	assert.Equal(t, int64(200), DriverValue(U8(200)))
	assert.Equal(t, "18446744073709551615", DriverValue(U64(^uint64(0))))
	assert.Nil(t, DriverValue(Null{}))
}

func mustI128(s string) I128 {
	n, _ := new(big.Int).SetString(s, 10)
	v, err := NewI128(n)
	if err != nil {
		panic(err)
	}
	return v
}

func mustU128(s string) U128 {
	n, _ := new(big.Int).SetString(s, 10)
	v, err := NewU128(n)
	if err != nil {
		panic(err)
	}
	return v
}
