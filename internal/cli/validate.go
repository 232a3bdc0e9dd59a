package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/qlcache/internal/defs"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/qlparse"
)

// ValidationError is one problem found by validate.
type ValidationError struct {
	Statement int    `json:"statement,omitempty"` // 1-based statement index
	Text      string `json:"text,omitempty"`
	Field     string `json:"field,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Line      int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Statements int               `json:"statements"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check statements or definitions without executing them",
		Long: `Check a statement script or CUE definitions without executing them.

A script is split into statements and every statement is parsed; all
parse errors are reported. Literals are typed by their own syntax since
no tables exist. A .cue file or a directory is loaded and compiled as
table definitions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	info, err := os.Stat(path)
	if err != nil {
		return outputValidateError(formatter, defs.ErrCodeNotFound, fmt.Sprintf("file not found: %s", path))
	}
	if info.IsDir() || filepath.Ext(path) == ".cue" {
		return validateDefs(formatter, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}
	stmts := qlparse.Split(string(data))
	if len(stmts) == 0 {
		return outputValidateError(formatter, ErrCodeEmpty, fmt.Sprintf("no statements found in %s", path))
	}
	formatter.VerboseLog("Found %d statement(s) in %s", len(stmts), path)

	var errs []ValidationError
	for i, text := range stmts {
		if _, err := qlparse.Parse(text, nil); err != nil {
			errs = append(errs, ValidationError{
				Statement: i + 1,
				Text:      text,
				Code:      string(qlerr.CodeOf(err)),
				Message:   err.Error(),
			})
		}
	}
	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(stmts), errs)
	}
	return outputValidateSuccess(formatter, len(stmts))
}

// validateDefs loads and compiles CUE definitions.
func validateDefs(formatter *OutputFormatter, path string) error {
	v, err := defs.Load(path)
	if err != nil {
		var loadErr *defs.LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}

	queries, err := defs.Compile(v)
	if err != nil {
		ve := ValidationError{Code: ErrCodeDefs, Message: err.Error()}
		var compileErr *defs.CompileError
		if errors.As(err, &compileErr) {
			ve.Field = compileErr.Field
			ve.Message = compileErr.Message
			if compileErr.Pos.IsValid() {
				ve.Line = compileErr.Pos.Line()
			}
		}
		return outputValidationErrors(formatter, 0, []ValidationError{ve})
	}
	if len(queries) == 0 {
		return outputValidateError(formatter, ErrCodeEmpty, fmt.Sprintf("no schemas defined in %s", path))
	}

	formatter.VerboseLog("Compiled %d definition queries from %s", len(queries), path)
	return outputValidateSuccess(formatter, len(queries))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, statements int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Statements: statements})
	}

	fmt.Fprintf(formatter.Writer, "✓ All statements valid (%d)\n", statements)
	return nil
}

// outputValidateError outputs a single error that stopped validation.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Unreadable input is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation error found.
func outputValidationErrors(formatter *OutputFormatter, statements int, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:      false,
				Statements: statements,
				Errors:     errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range errs {
		switch {
		case e.Statement > 0:
			fmt.Fprintf(formatter.Writer, "statement %d: %s\n", e.Statement, e.Text)
		case e.Line > 0:
			fmt.Fprintf(formatter.Writer, "line %d: %s\n", e.Line, e.Field)
		case e.Field != "":
			fmt.Fprintln(formatter.Writer, e.Field)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
