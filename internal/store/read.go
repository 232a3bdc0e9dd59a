package store

import (
	"context"
	"fmt"

	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/querysql"
	"github.com/roach88/qlcache/internal/value"
)

// Tables lists the mirrored tables ordered by schema then name.
func (s *Store) Tables(ctx context.Context) ([]ql.TableRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT schema_name, name FROM qlcache_tables
		ORDER BY schema_name COLLATE BINARY ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	refs := []ql.TableRef{}
	for rows.Next() {
		var ref ql.TableRef
		if err := rows.Scan(&ref.Schema, &ref.Table); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return refs, nil
}

// Columns returns the declared columns of a mirrored table, or
// RELATION_DOES_NOT_EXIST naming the table.
func (s *Store) Columns(ctx context.Context, ref ql.TableRef) ([]value.Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, data_type, nullable FROM qlcache_columns
		WHERE table_name = ?
		ORDER BY position ASC
	`, querysql.TableName(ref))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []value.Column
	for rows.Next() {
		var (
			col      value.Column
			typeName string
		)
		if err := rows.Scan(&col.Name, &typeName, &col.Nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if col.Type, err = value.ParseDataType(typeName); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	if columns == nil {
		var n int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM qlcache_tables WHERE table_name = ?", querysql.TableName(ref),
		).Scan(&n); err != nil {
			return nil, fmt.Errorf("query tables: %w", err)
		}
		if n == 0 {
			return nil, qlerr.RelationDoesNotExist(ref.Table)
		}
		columns = []value.Column{}
	}
	return columns, nil
}

// Select runs sel against the mirror and returns the projected column names
// and rows, in the order the engine would return them.
func (s *Store) Select(ctx context.Context, sel ql.Select) ([]string, []value.Row, error) {
	columns, err := s.Columns(ctx, sel.Table())
	if err != nil {
		return nil, nil, err
	}

	query, params, projected, err := querysql.NewSQLCompiler(columns).Compile(sel)
	if err != nil {
		return nil, nil, err
	}

	types := make(map[string]value.DataType, len(columns))
	for _, col := range columns {
		types[col.Name] = col.Type
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, nil, fmt.Errorf("select: %w", err)
	}
	defer rows.Close()

	out := []value.Row{}
	raw := make([]any, len(projected))
	ptrs := make([]any, len(projected))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(value.Row, len(projected))
		for i, name := range projected {
			v, err := querysql.Decode(types[name], raw[i])
			if err != nil {
				return nil, nil, fmt.Errorf("column %s: %w", name, err)
			}
			row[name] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return projected, out, nil
}
