package engine

import (
	"github.com/roach88/qlcache/internal/catalog"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// Describe returns the declared columns of a table in declaration order.
func (e *Engine) Describe(ref ql.TableRef) ([]value.Column, error) {
	t, err := e.cache.Table(ref.SchemaName(), ref.Table)
	if err != nil {
		return nil, err
	}
	return t.Columns(), nil
}

// ColumnType returns the declared type of one column.
// It lets the text front end type literals against the target table.
func (e *Engine) ColumnType(ref ql.TableRef, column string) (value.DataType, error) {
	t, err := e.cache.Table(ref.SchemaName(), ref.Table)
	if err != nil {
		return value.TypeInvalid, err
	}
	c, ok := t.Column(column)
	if !ok {
		return value.TypeInvalid, qlerr.ColumnDoesNotExist(column)
	}
	return c.Type, nil
}

// Schemas lists schema names in sorted order.
func (e *Engine) Schemas() []string {
	return e.cache.Schemas()
}

// Tables lists the tables of a schema in sorted order.
func (e *Engine) Tables(schema string) ([]string, error) {
	s, err := e.cache.Schema(schema)
	if err != nil {
		return nil, err
	}
	return s.Tables(), nil
}

// Dump snapshots every table for export.
func (e *Engine) Dump() []catalog.TableDump {
	return e.cache.Dump()
}
