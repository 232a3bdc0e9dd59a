package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qlcache/internal/defs"
	"github.com/roach88/qlcache/internal/engine"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/qlparse"
	"github.com/roach88/qlcache/internal/value"
)

// Error codes for failures that carry no cache error code.
const (
	ErrCodeGeneric = "E001" // Unclassified failure
	ErrCodeDefs    = "E002" // Definitions did not compile
	ErrCodeEmpty   = "E003" // Nothing to validate
)

// StatementResult is the outcome of one executed statement.
type StatementResult struct {
	Statement string           `json:"statement,omitempty"`
	Kind      string           `json:"kind"`
	ExecID    string           `json:"exec_id"`
	Seq       int64            `json:"seq"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []map[string]any `json:"rows,omitempty"`
	RowID     uint64           `json:"row_id,omitempty"`

	rows []value.Row
}

// session executes statements against one engine, one at a time, so each
// statement is parsed against the tables earlier statements created.
type session struct {
	engine *engine.Engine
	logger *slog.Logger
}

func newSession(logger *slog.Logger, idGen engine.IDGenerator) *session {
	return &session{
		engine: engine.New(engine.WithLogger(logger), engine.WithIDGenerator(idGen)),
		logger: logger,
	}
}

// applyDefs executes the queries compiled from CUE definitions at path.
func (s *session) applyDefs(path string) ([]StatementResult, error) {
	queries, err := defs.LoadQueries(path)
	if err != nil {
		return nil, err
	}

	out := make([]StatementResult, 0, len(queries))
	for i, q := range queries {
		res, err := s.engine.Execute(q)
		if err != nil {
			return out, fmt.Errorf("definitions %s: query %d: %w", path, i, err)
		}
		out = append(out, newStatementResult("", res))
	}
	s.logger.Info("definitions applied", "path", path, "queries", len(queries))
	return out, nil
}

// run executes a script and stops at the first failing statement. The
// returned error is a *qlparse.StatementError naming that statement.
func (s *session) run(script string) ([]StatementResult, error) {
	var out []StatementResult
	for _, text := range qlparse.Split(script) {
		q, err := qlparse.Parse(text, s.engine)
		if err != nil {
			return out, &qlparse.StatementError{Text: text, Err: err}
		}
		res, err := s.engine.Execute(q)
		if err != nil {
			return out, &qlparse.StatementError{Text: text, Err: err}
		}
		out = append(out, newStatementResult(text, res))
	}
	return out, nil
}

func newStatementResult(text string, res *engine.Result) StatementResult {
	sr := StatementResult{
		Statement: text,
		Kind:      string(res.Kind),
		ExecID:    res.ExecID,
		Seq:       res.Seq,
		RowID:     res.RowID,
	}
	if res.Kind == ql.KindSelect {
		sr.Columns = res.Columns
		sr.rows = res.Rows
		sr.Rows = make([]map[string]any, len(res.Rows))
		for i, row := range res.Rows {
			m := make(map[string]any, len(row))
			for k, v := range row {
				m[k] = value.ToAny(v)
			}
			sr.Rows[i] = m
		}
	}
	return sr
}

// readScript gathers statements from --file and positional arguments, in
// that order. Stdin is read only when useStdin is set and neither is given.
func readScript(cmd *cobra.Command, file string, args []string, useStdin bool) (string, error) {
	var parts []string
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read script", err)
		}
		parts = append(parts, string(data))
	}
	parts = append(parts, args...)

	if len(parts) == 0 && useStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, ";\n"), nil
}

// errorCode maps a failure to the code reported in CLI output.
func errorCode(err error) string {
	if code := qlerr.CodeOf(err); code != "" {
		return string(code)
	}
	var loadErr *defs.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var compileErr *defs.CompileError
	if errors.As(err, &compileErr) {
		return ErrCodeDefs
	}
	return ErrCodeGeneric
}

// exitCode maps a failure to the process exit code: unreadable definitions
// are command errors, everything else is a failure.
func exitCode(err error) int {
	var loadErr *defs.LoadError
	if errors.As(err, &loadErr) {
		return ExitCommandError
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
