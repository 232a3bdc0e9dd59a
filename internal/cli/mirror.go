package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/qlparse"
	"github.com/roach88/qlcache/internal/store"
	"github.com/roach88/qlcache/internal/value"
)

// MirrorOptions holds flags for the mirror command.
type MirrorOptions struct {
	*RootOptions
	Database string
}

// MirrorTable describes one mirrored table.
type MirrorTable struct {
	Schema  string         `json:"schema"`
	Table   string         `json:"table"`
	Columns []MirrorColumn `json:"columns"`
}

// MirrorColumn is a mirrored column declaration.
type MirrorColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// MirrorSelect holds the rows a SELECT returned from the mirror.
type MirrorSelect struct {
	Statement string           `json:"statement"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
}

// NewMirrorCommand creates the mirror command.
func NewMirrorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MirrorOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mirror [select-statement]",
		Short: "Inspect a SQLite mirror",
		Long: `Inspect a SQLite mirror written by export.

Without arguments, lists the mirrored tables and their columns. With a
SELECT statement, compiles it to SQL and runs it against the mirror;
rows come back in the order the cache would return them.

Examples:
  qlcache mirror --db ./mirror.db
  qlcache mirror --db ./mirror.db "SELECT name FROM app.users WHERE age > 30"`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runMirror(opts *MirrorOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if len(args) == 0 {
		return listMirror(ctx, st, formatter)
	}
	return selectMirror(ctx, st, formatter, strings.TrimSpace(args[0]))
}

func listMirror(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	refs, err := st.Tables(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list tables", err)
	}

	tables := make([]MirrorTable, 0, len(refs))
	for _, ref := range refs {
		columns, err := st.Columns(ctx, ref)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read columns", err)
		}
		t := MirrorTable{Schema: ref.Schema, Table: ref.Table, Columns: make([]MirrorColumn, len(columns))}
		for i, c := range columns {
			t.Columns[i] = MirrorColumn{Name: c.Name, Type: c.Type.String(), Nullable: c.Nullable}
		}
		tables = append(tables, t)
	}

	if formatter.Format == "json" {
		return formatter.Success(tables)
	}

	w := formatter.Writer
	if len(tables) == 0 {
		fmt.Fprintln(w, "No tables mirrored.")
		return nil
	}
	for _, t := range tables {
		decls := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			decls[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
			if !c.Nullable {
				decls[i] += " NOT NULL"
			}
		}
		fmt.Fprintf(w, "%s.%s (%s)\n", t.Schema, t.Table, strings.Join(decls, ", "))
	}
	return nil
}

func selectMirror(ctx context.Context, st *store.Store, formatter *OutputFormatter, stmt string) error {
	q, err := qlparse.Parse(stmt, mirrorResolver{ctx: ctx, store: st})
	if err != nil {
		return mirrorFailed(formatter, stmt, err)
	}
	sel, ok := q.(ql.Select)
	if !ok {
		return mirrorFailed(formatter, stmt, fmt.Errorf("mirror only runs SELECT statements, got %s", q.Kind()))
	}

	columns, rows, err := st.Select(ctx, sel)
	if err != nil {
		return mirrorFailed(formatter, stmt, err)
	}

	if formatter.Format == "json" {
		out := MirrorSelect{Statement: stmt, Columns: columns, Rows: make([]map[string]any, len(rows))}
		for i, row := range rows {
			m := make(map[string]any, len(row))
			for k, v := range row {
				m[k] = value.ToAny(v)
			}
			out.Rows[i] = m
		}
		return formatter.Success(out)
	}
	WriteTable(formatter.Writer, columns, rows)
	return nil
}

func mirrorFailed(formatter *OutputFormatter, stmt string, err error) error {
	code := errorCode(err)
	if outErr := formatter.Error(code, err.Error(), map[string]string{"statement": stmt}); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, code, err)
}

// mirrorResolver types statement literals against mirrored columns.
type mirrorResolver struct {
	ctx   context.Context
	store *store.Store
}

func (r mirrorResolver) ColumnType(ref ql.TableRef, column string) (value.DataType, error) {
	columns, err := r.store.Columns(r.ctx, ref)
	if err != nil {
		return value.TypeInvalid, err
	}
	for _, c := range columns {
		if c.Name == column {
			return c.Type, nil
		}
	}
	return value.TypeInvalid, qlerr.ColumnDoesNotExist(column)
}
