package catalog

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// RowEntry pairs a row with its identity.
type RowEntry struct {
	ID  uint64
	Row value.Row
}

// rowItem is the btree element. Rows are never mutated after insertion into
// the tree; Update stores a fresh rowItem.
type rowItem struct {
	id  uint64
	row value.Row
}

// Less implements the btree.Item interface.
func (a rowItem) Less(b btree.Item) bool {
	return a.id < b.(rowItem).id
}

// Table is a named relation: an ordered column list, an optional primary
// key, and a row store keyed by a 64-bit row id.
type Table struct {
	schema     string
	name       string
	columns    []value.Column
	index      map[string]int
	primaryKey string

	nextID atomic.Uint64

	mu   sync.RWMutex
	rows *btree.BTree
}

func newTable(schema, name string, columns []value.Column, primaryKey string, degree int) (*Table, error) {
	t := &Table{
		schema:  schema,
		name:    name,
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
		rows:    btree.New(degree),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c.Name]; dup {
			return nil, qlerr.DuplicateColumn(c.Name)
		}
		t.index[c.Name] = i
	}
	if primaryKey != "" {
		i, ok := t.index[primaryKey]
		if !ok {
			return nil, qlerr.ColumnDoesNotExist(primaryKey)
		}
		t.columns[i].Nullable = false
		t.primaryKey = primaryKey
	}
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the name of the owning schema.
func (t *Table) Schema() string { return t.schema }

// Columns returns the declared columns in declaration order.
func (t *Table) Columns() []value.Column { return slices.Clone(t.columns) }

// ColumnNames returns the declared column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the declaration of the named column.
func (t *Table) Column(name string) (value.Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return value.Column{}, false
	}
	return t.columns[i], true
}

// PrimaryKey returns the primary key column, if any.
func (t *Table) PrimaryKey() (string, bool) {
	return t.primaryKey, t.primaryKey != ""
}

// Len returns the number of stored rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows.Len()
}

// Insert stores a new row and returns its id.
//
// Every supplied column must be declared (COLUMN_DOES_NOT_EXIST) and match
// its declared type (TYPE_MISMATCH). Omitted columns are Null, which only
// nullable columns accept (NULL_VIOLATION). Ids start at 1, increase
// monotonically, and are never reused, even after Delete.
func (t *Table) Insert(values map[string]value.Value) (uint64, error) {
	if err := t.checkKnown(values); err != nil {
		return 0, err
	}

	row := make(value.Row, len(t.columns))
	for _, c := range t.columns {
		v, ok := values[c.Name]
		if !ok || v == nil {
			v = value.Null{}
		}
		if err := c.Check(v); err != nil {
			return 0, err
		}
		row[c.Name] = v
	}

	t.mu.Lock()
	id := t.nextID.Add(1)
	t.rows.ReplaceOrInsert(rowItem{id: id, row: row})
	t.mu.Unlock()
	return id, nil
}

// Update replaces the named columns of row id. The row is swapped as a
// whole, so concurrent readers see either the old or the new version.
// Fails with ROW_DOES_NOT_EXIST if no such row is stored.
func (t *Table) Update(id uint64, changes map[string]value.Value) error {
	if err := t.checkKnown(changes); err != nil {
		return err
	}
	for name, v := range changes {
		if v == nil {
			v = value.Null{}
		}
		c, _ := t.Column(name)
		if err := c.Check(v); err != nil {
			return err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	item := t.rows.Get(rowItem{id: id})
	if item == nil {
		return qlerr.RowDoesNotExist(id)
	}
	row := item.(rowItem).row.Clone()
	for name, v := range changes {
		if v == nil {
			v = value.Null{}
		}
		row[name] = v
	}
	t.rows.ReplaceOrInsert(rowItem{id: id, row: row})
	return nil
}

// Delete removes row id and reports whether it was present.
func (t *Table) Delete(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows.Delete(rowItem{id: id}) != nil
}

// Get returns row id, or ROW_DOES_NOT_EXIST. The row is shared; treat it
// as read-only.
func (t *Table) Get(id uint64) (value.Row, error) {
	t.mu.RLock()
	item := t.rows.Get(rowItem{id: id})
	t.mu.RUnlock()
	if item == nil {
		return nil, qlerr.RowDoesNotExist(id)
	}
	return item.(rowItem).row, nil
}

// Snapshot returns a point-in-time view of the rows in row id order.
//
// The tree is cloned under the table lock; iteration runs on the clone with
// no lock held, so writers are blocked only for the clone itself.
func (t *Table) Snapshot() []RowEntry {
	t.mu.Lock()
	view := t.rows.Clone()
	t.mu.Unlock()

	entries := make([]RowEntry, 0, view.Len())
	view.Ascend(func(i btree.Item) bool {
		item := i.(rowItem)
		entries = append(entries, RowEntry{ID: item.id, Row: item.row})
		return true
	})
	return entries
}

// checkKnown fails with COLUMN_DOES_NOT_EXIST on the first undeclared
// column, in name order.
func (t *Table) checkKnown(values map[string]value.Value) error {
	var unknown []string
	for name := range values {
		if _, ok := t.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return qlerr.ColumnDoesNotExist(unknown[0])
}
