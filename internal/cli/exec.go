package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/qlcache/internal/engine"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlparse"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	File string
	Defs string

	// IDGenerator allows overriding the execution id generator (for testing).
	// If nil, defaults to engine.UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// ExecResult holds the statements an exec run completed.
type ExecResult struct {
	Statements []StatementResult `json:"statements"`
}

// ExecFailure details the statement that stopped an exec run.
type ExecFailure struct {
	Statement string            `json:"statement,omitempty"`
	Completed []StatementResult `json:"completed"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	return newExecCommand(&ExecOptions{RootOptions: rootOpts})
}

func newExecCommand(opts *ExecOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [statement...]",
		Short: "Execute statements against a fresh cache",
		Long: `Execute statements against a fresh in-memory cache.

Statements come from --file, then from the arguments. When neither is
given (and no --defs), the script is read from stdin. Statements run in
order and the run stops at the first failure.

Exit codes:
  0 - All statements succeeded
  1 - A statement failed
  2 - Command error (unreadable script or definitions)

Examples:
  qlcache exec "CREATE SCHEMA app" "CREATE TABLE app.t (id U64 PRIMARY KEY)"
  qlcache exec --defs ./defs "SELECT * FROM app.users WHERE age > 30"
  qlcache exec --file script.ql --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read statements from a script file")
	cmd.Flags().StringVar(&opts.Defs, "defs", "", "CUE definitions file or directory to apply first")

	return cmd
}

func runExec(opts *ExecOptions, args []string, cmd *cobra.Command) error {
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
	sess := newSession(opts.Logger(cmd.ErrOrStderr()), idGen)

	results := []StatementResult{}
	if opts.Defs != "" {
		applied, err := sess.applyDefs(opts.Defs)
		results = append(results, applied...)
		if err != nil {
			return execFailed(formatter, results, err)
		}
	}

	executed, err := sess.run(script)
	results = append(results, executed...)
	if err != nil {
		return execFailed(formatter, results, err)
	}

	if opts.Format == "json" {
		return formatter.Success(ExecResult{Statements: results})
	}
	writeStatements(formatter.Writer, results)
	return nil
}

// writeStatements prints script statements in text form. Statements that
// came from definitions carry no text and are skipped.
func writeStatements(w io.Writer, results []StatementResult) {
	for _, r := range results {
		if r.Statement == "" {
			continue
		}
		switch ql.Kind(r.Kind) {
		case ql.KindSelect:
			WriteTable(w, r.Columns, r.rows)
		case ql.KindInsert:
			fmt.Fprintf(w, "INSERT row_id=%d\n", r.RowID)
		default:
			fmt.Fprintln(w, r.Kind)
		}
	}
}

// execFailed reports a failed run with the statements completed before it.
func execFailed(f *OutputFormatter, completed []StatementResult, err error) error {
	failure := ExecFailure{Completed: completed}
	var stmtErr *qlparse.StatementError
	if errors.As(err, &stmtErr) {
		failure.Statement = stmtErr.Text
	}

	if f.Format != "json" {
		writeStatements(f.Writer, completed)
	}
	code := errorCode(err)
	if outErr := f.Error(code, err.Error(), failure); outErr != nil {
		return outErr
	}
	return WrapExitError(exitCode(err), code, err)
}
