package engine

import (
	"slices"

	"github.com/roach88/qlcache/internal/catalog"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

func (e *Engine) executeSelect(q ql.Select) ([]string, []value.Row, error) {
	ref := q.Table()
	t, err := e.cache.Table(ref.SchemaName(), ref.Table)
	if err != nil {
		return nil, nil, err
	}

	columns := t.ColumnNames()
	scope := q.Scope()
	if !scope.IsEverything() {
		columns = scope.Fields()
		if err := requireColumns(t, columns); err != nil {
			return nil, nil, err
		}
	}
	sortBy, sorted := q.SortBy()
	if sorted {
		if err := requireColumns(t, sortBy.Columns()); err != nil {
			return nil, nil, err
		}
	}

	entries := t.Snapshot()

	if c := q.Constraint(); c != nil {
		kept := entries[:0:0]
		for _, entry := range entries {
			if c.Compute(entry.Row) {
				kept = append(kept, entry)
			}
		}
		entries = kept
	}

	if sorted {
		sortEntries(entries, sortBy)
	}

	rows := make([]value.Row, len(entries))
	for i, entry := range entries {
		if scope.IsEverything() {
			rows[i] = entry.Row.Clone()
		} else {
			rows[i] = entry.Row.Project(columns)
		}
	}
	return columns, rows, nil
}

func requireColumns(t *catalog.Table, names []string) error {
	for _, name := range names {
		if _, ok := t.Column(name); !ok {
			return qlerr.ColumnDoesNotExist(name)
		}
	}
	return nil
}

// sortEntries stable-sorts entries by the sort columns, most significant
// first. Descending inverts the comparison rather than reversing the slice,
// so ties keep snapshot order in both directions.
func sortEntries(entries []catalog.RowEntry, sortBy ql.SortBy) {
	cols := sortBy.Columns()
	desc := sortBy.Order() == ql.Descending

	slices.SortStableFunc(entries, func(a, b catalog.RowEntry) int {
		for _, col := range cols {
			// Values of one column share its declared type, so only Null
			// needs special handling.
			c, err := value.CompareNullsFirst(a.Row[col], b.Row[col])
			if err != nil || c == 0 {
				continue
			}
			if desc {
				return -c
			}
			return c
		}
		return 0
	})
}
