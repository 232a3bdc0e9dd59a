package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qlcache/internal/engine"
	"github.com/roach88/qlcache/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	File     string
	Defs     string

	// IDGenerator allows overriding the execution id generator (for testing).
	// If nil, defaults to engine.UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// ExportedTable describes one table written to the mirror.
type ExportedTable struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Rows   int    `json:"rows"`
}

// ExportResult holds the export output.
type ExportResult struct {
	Database   string          `json:"database"`
	Statements int             `json:"statements"`
	Tables     []ExportedTable `json:"tables"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return newExportCommand(&ExportOptions{RootOptions: rootOpts})
}

func newExportCommand(opts *ExportOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [statement...]",
		Short: "Execute statements and mirror the cache into SQLite",
		Long: `Execute statements against a fresh cache, then write every table
into a SQLite database.

Tables already in the database are replaced; other tables are kept.
Statements are gathered like exec: --defs first, then --file, then the
arguments, or stdin when none of these is given.

Examples:
  qlcache export --db ./mirror.db --defs ./defs
  qlcache export --db ./mirror.db --file seed.ql`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read statements from a script file")
	cmd.Flags().StringVar(&opts.Defs, "defs", "", "CUE definitions file or directory to apply first")

	return cmd
}

func runExport(opts *ExportOptions, args []string, cmd *cobra.Command) error {
	script, err := readScript(cmd, opts.File, args, opts.Defs == "")
	if err != nil {
		return err
	}

	idGen := opts.IDGenerator
	if idGen == nil {
		idGen = engine.UUIDv7Generator{}
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		TraceID:   idGen.Generate(),
	}
	logger := opts.Logger(cmd.ErrOrStderr())
	sess := newSession(logger, idGen)

	statements := 0
	if opts.Defs != "" {
		applied, err := sess.applyDefs(opts.Defs)
		if err != nil {
			return execFailed(formatter, applied, err)
		}
		statements += len(applied)
	}
	executed, err := sess.run(script)
	if err != nil {
		return execFailed(formatter, executed, err)
	}
	statements += len(executed)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	dumps := sess.engine.Dump()
	if err := st.Export(ctx, dumps); err != nil {
		return WrapExitError(ExitFailure, "export failed", err)
	}

	result := ExportResult{
		Database:   opts.Database,
		Statements: statements,
		Tables:     make([]ExportedTable, 0, len(dumps)),
	}
	for _, d := range dumps {
		result.Tables = append(result.Tables, ExportedTable{Schema: d.Schema, Table: d.Name, Rows: len(d.Rows)})
	}
	logger.Info("cache exported", "db", opts.Database, "tables", len(result.Tables))

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Exported %d table(s) to %s\n", len(result.Tables), opts.Database)
	for _, t := range result.Tables {
		fmt.Fprintf(w, "  %s.%s (%d row%s)\n", t.Schema, t.Table, t.Rows, plural(t.Rows))
	}
	return nil
}
