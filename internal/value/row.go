package value

import "github.com/roach88/qlcache/internal/qlerr"

// Column declares one column of a table: its name, type and nullability.
type Column struct {
	Name     string
	Type     DataType
	Nullable bool
}

// Check validates v against the column declaration.
// Null (or nil) fails with NULL_VIOLATION unless the column is nullable;
// any other variant must match the declared type or fail with TYPE_MISMATCH.
func (c Column) Check(v Value) error {
	if IsNull(v) {
		if !c.Nullable {
			return qlerr.NullViolation(c.Name)
		}
		return nil
	}
	if v.Type() != c.Type {
		return qlerr.TypeMismatch(c.Name, c.Type.String(), v.Type().String())
	}
	return nil
}

// Row maps column names to values, one entry per declared column.
//
// Rows handed out by the cache are shared snapshots: callers must treat them
// as read-only and use Clone before modifying.
type Row map[string]Value

// Get returns the value of column, and whether the row has it.
func (r Row) Get(column string) (Value, bool) {
	v, ok := r[column]
	return v, ok
}

// Clone returns a shallow copy. Values themselves are immutable.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Project returns a new row holding only the named columns.
// Columns the row lacks are omitted.
func (r Row) Project(columns []string) Row {
	out := make(Row, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

// EqualRows reports whether a and b have the same columns with Equal values.
func EqualRows(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}
