package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/qlcache/internal/catalog"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/querysql"
)

// Export writes the given tables into the mirror in one transaction.
// A table already present in the mirror is replaced; other mirrored tables
// are left alone.
func (s *Store) Export(ctx context.Context, dumps []catalog.TableDump) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	for _, dump := range dumps {
		if err := exportTable(ctx, tx, dump); err != nil {
			return fmt.Errorf("export %s.%s: %w", dump.Schema, dump.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit: %w", err)
	}
	return nil
}

func exportTable(ctx context.Context, tx *sql.Tx, dump catalog.TableDump) error {
	name := querysql.TableName(ql.TableRef{Schema: dump.Schema, Table: dump.Name})
	quoted := querysql.QuoteIdent(name)

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM qlcache_tables WHERE table_name = ?", name); err != nil {
		return err
	}

	defs := []string{querysql.QuoteIdent(querysql.RowIDColumn) + " INTEGER PRIMARY KEY"}
	for _, col := range dump.Columns {
		if col.Name == querysql.RowIDColumn {
			return fmt.Errorf("column name %q is reserved", col.Name)
		}
		def := querysql.QuoteIdent(col.Name) + " " + querysql.ColumnType(col.Type)
		if !col.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO qlcache_tables (table_name, schema_name, name, row_count)
		VALUES (?, ?, ?, ?)
	`, name, dump.Schema, dump.Name, len(dump.Rows)); err != nil {
		return err
	}
	for i, col := range dump.Columns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO qlcache_columns (table_name, position, name, data_type, nullable, primary_key)
			VALUES (?, ?, ?, ?, ?, ?)
		`, name, i, col.Name, col.Type.String(), col.Nullable, col.Name == dump.PrimaryKey); err != nil {
			return err
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(dump.Columns)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(dump.Columns)+1)
	for _, entry := range dump.Rows {
		args[0] = int64(entry.ID)
		for i, col := range dump.Columns {
			args[i+1] = querysql.Encode(entry.Row[col.Name])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", entry.ID, err)
		}
	}
	return nil
}
