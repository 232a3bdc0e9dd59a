package catalog

import (
	"slices"
	"sync"

	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// PublicSchema is the schema every Cache is created with.
const PublicSchema = "PUBLIC"

// DefaultRowDegree is the btree degree used for row stores when none is given.
const DefaultRowDegree = 32

// Cache is the root of the hierarchy: a concurrent map from schema name to
// Schema. Schema names are case-sensitive.
type Cache struct {
	schemas   sync.Map // string -> *Schema
	rowDegree int
}

// New returns a Cache holding the single schema PUBLIC.
// rowDegree sets the btree degree of every table's row store; values below 2
// select DefaultRowDegree.
func New(rowDegree int) *Cache {
	if rowDegree < 2 {
		rowDegree = DefaultRowDegree
	}
	c := &Cache{rowDegree: rowDegree}
	c.schemas.Store(PublicSchema, newSchema(PublicSchema, rowDegree))
	return c
}

// CreateSchema atomically adds an empty schema.
//
// If the name is taken, it fails with RELATION_ALREADY_EXISTS unless
// ifNotExist is set, in which case it is a no-op. Of several concurrent calls
// for the same name exactly one inserts.
func (c *Cache) CreateSchema(name string, ifNotExist bool) error {
	_, loaded := c.schemas.LoadOrStore(name, newSchema(name, c.rowDegree))
	if loaded && !ifNotExist {
		return qlerr.RelationAlreadyExists(name)
	}
	return nil
}

// Schema returns the named schema, or RELATION_DOES_NOT_EXIST.
func (c *Cache) Schema(name string) (*Schema, error) {
	s, ok := c.schemas.Load(name)
	if !ok {
		return nil, qlerr.RelationDoesNotExist(name)
	}
	return s.(*Schema), nil
}

// CreateTable adds a table to schema.
//
// It fails with RELATION_DOES_NOT_EXIST if the schema is absent and with
// COLUMN_DOES_NOT_EXIST if primaryKey is set but names no declared column.
// The primary key column is stored non-nullable whatever was declared.
// Existence semantics match CreateSchema, scoped to the schema.
func (c *Cache) CreateTable(schema, name string, columns []value.Column, primaryKey string, ifNotExist bool) error {
	s, err := c.Schema(schema)
	if err != nil {
		return err
	}
	return s.CreateTable(name, columns, primaryKey, ifNotExist)
}

// Table resolves schema then table, failing with RELATION_DOES_NOT_EXIST
// naming whichever segment is missing.
func (c *Cache) Table(schema, name string) (*Table, error) {
	s, err := c.Schema(schema)
	if err != nil {
		return nil, err
	}
	return s.Table(name)
}

// Schemas returns the schema names in sorted order.
func (c *Cache) Schemas() []string {
	var names []string
	c.schemas.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	slices.Sort(names)
	return names
}

// Schema is a named namespace of tables.
type Schema struct {
	name      string
	tables    sync.Map // string -> *Table
	rowDegree int
}

func newSchema(name string, rowDegree int) *Schema {
	return &Schema{name: name, rowDegree: rowDegree}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// CreateTable atomically adds a table to the schema. See Cache.CreateTable.
func (s *Schema) CreateTable(name string, columns []value.Column, primaryKey string, ifNotExist bool) error {
	t, err := newTable(s.name, name, columns, primaryKey, s.rowDegree)
	if err != nil {
		return err
	}
	_, loaded := s.tables.LoadOrStore(name, t)
	if loaded && !ifNotExist {
		return qlerr.RelationAlreadyExists(name)
	}
	return nil
}

// Table returns the named table, or RELATION_DOES_NOT_EXIST.
func (s *Schema) Table(name string) (*Table, error) {
	t, ok := s.tables.Load(name)
	if !ok {
		return nil, qlerr.RelationDoesNotExist(name)
	}
	return t.(*Table), nil
}

// Tables returns the table names in sorted order.
func (s *Schema) Tables() []string {
	var names []string
	s.tables.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	slices.Sort(names)
	return names
}

// TableDump is a point-in-time copy of one table: its declaration and rows.
type TableDump struct {
	Schema     string
	Name       string
	Columns    []value.Column
	PrimaryKey string
	Rows       []RowEntry
}

// Dump snapshots every table, ordered by schema then table name. Each table
// is snapshotted independently; there is no cross-table consistency.
func (c *Cache) Dump() []TableDump {
	var dumps []TableDump
	for _, schemaName := range c.Schemas() {
		s, err := c.Schema(schemaName)
		if err != nil {
			continue
		}
		for _, tableName := range s.Tables() {
			t, err := s.Table(tableName)
			if err != nil {
				continue
			}
			pk, _ := t.PrimaryKey()
			dumps = append(dumps, TableDump{
				Schema:     schemaName,
				Name:       tableName,
				Columns:    t.Columns(),
				PrimaryKey: pk,
				Rows:       t.Snapshot(),
			})
		}
	}
	return dumps
}
