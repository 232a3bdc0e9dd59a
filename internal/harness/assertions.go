package harness

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/qlcache/internal/constraint"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/store"
	"github.com/roach88/qlcache/internal/value"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Trace for context; nil for state assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			status := event.Kind
			if event.Error != "" {
				status = event.Error
			}
			fmt.Fprintf(&buf, "  [%d] %s %s: %s\n", i+1, event.Phase, status, event.Statement)
		}
	}

	return buf.String()
}

// AssertionContext provides the mirror that final_state assertions query.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a store", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertTraceCount checks that exactly Count statements of Kind succeeded.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Error == "" && event.Kind == assertion.Kind {
			count++
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the first successful statement of each kind
// appears in the listed order. Intervening statements are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Error != "" {
			continue
		}
		if _, seen := positions[event.Kind]; !seen {
			positions[event.Kind] = i + 1
		}
	}

	for _, kind := range assertion.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", assertion.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Kinds); i++ {
		prev, curr := assertion.Kinds[i-1], assertion.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", assertion.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertFinalState queries the mirror for rows of Table equal to Where and
// checks the row count, the expected values, or both.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	ref, err := ql.ParseTableRef(assertion.Table)
	if err != nil {
		return err
	}

	columns, err := st.Columns(ctx, ref)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("table %s to exist", ref),
			Actual:   err.Error(),
		}
	}
	types := make(map[string]value.DataType, len(columns))
	for _, col := range columns {
		types[col.Name] = col.Type
	}

	b := ql.NewSelect().From(ref).Everything()
	for i, column := range slices.Sorted(maps.Keys(assertion.Where)) {
		t, ok := types[column]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q to exist", column),
				Actual:   fmt.Sprintf("columns of %s: %v", ref, columnNames(columns)),
			}
		}
		v, err := coerceExpected(t, assertion.Where[column])
		if err != nil {
			return fmt.Errorf("where %s: %w", column, err)
		}
		c := constraint.Eq(column, v)
		if i == 0 {
			b.Constraint(c)
		} else if _, err := b.And(c); err != nil {
			return err
		}
	}
	sel, err := b.Build()
	if err != nil {
		return err
	}

	_, rows, err := st.Select(ctx, sel)
	if err != nil {
		return fmt.Errorf("final_state query: %w", err)
	}

	whereDesc := formatWhere(assertion.Where)
	if assertion.Count != nil && len(rows) != *assertion.Count {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%d row(s) in %s where %s", *assertion.Count, ref, whereDesc),
			Actual:   fmt.Sprintf("%d row(s)", len(rows)),
		}
	}
	if len(assertion.Expect) == 0 {
		return nil
	}

	switch {
	case len(rows) == 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", ref, whereDesc),
			Actual:   "row not found",
		}
	case len(rows) > 1:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", ref, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	row := rows[0]
	for _, key := range slices.Sorted(maps.Keys(assertion.Expect)) {
		expected := assertion.Expect[key]
		actual, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("row %s", formatRow(row)),
			}
		}
		if !matchValue(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, expected),
				Actual:   fmt.Sprintf("field %q = %s", key, value.Literal(actual)),
			}
		}
	}
	return nil
}

// compareRows checks actual rows against expected rows in order. Each
// expected row must name exactly the actual row's columns.
func compareRows(expected []map[string]any, actual []value.Row) []string {
	var msgs []string
	if len(expected) != len(actual) {
		msgs = append(msgs, fmt.Sprintf("rows: expected %d, got %d", len(expected), len(actual)))
	}
	for i := 0; i < min(len(expected), len(actual)); i++ {
		if !matchRow(expected[i], actual[i]) {
			msgs = append(msgs, fmt.Sprintf("rows[%d]: expected %s, got %s",
				i, formatWhere(expected[i]), formatRow(actual[i])))
		}
	}
	return msgs
}

func matchRow(expected map[string]any, actual value.Row) bool {
	if len(expected) != len(actual) {
		return false
	}
	for k, want := range expected {
		got, ok := actual[k]
		if !ok || !matchValue(want, got) {
			return false
		}
	}
	return true
}

// matchValue compares a decoded YAML value with a cache value by coercing
// the YAML value to the cache value's type. nil matches only Null.
func matchValue(expected any, actual value.Value) bool {
	if value.IsNull(actual) {
		return expected == nil
	}
	if expected == nil {
		return false
	}
	v, err := value.Coerce(actual.Type(), expected)
	return err == nil && value.Equal(v, actual)
}

func coerceExpected(t value.DataType, raw any) (value.Value, error) {
	if raw == nil {
		return value.Null{}, nil
	}
	return value.Coerce(t, raw)
}

func columnNames(columns []value.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// formatWhere renders a YAML map with sorted keys.
func formatWhere(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatRow renders a row with sorted keys and literal values.
func formatRow(row value.Row) string {
	parts := make([]string, 0, len(row))
	for _, k := range slices.Sorted(maps.Keys(row)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, value.Literal(row[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
