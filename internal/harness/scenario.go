package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
)

// Scenario defines a test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Defs is an optional CUE definitions file or directory applied before
	// setup. Relative paths are resolved against the scenario file.
	Defs string `yaml:"defs,omitempty"`

	// Setup lists statements that establish initial state. They must succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Steps are the statements under test.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Step is one statement with its expected outcome.
type Step struct {
	Query  string  `yaml:"query"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step. Error excludes the other fields.
type Expect struct {
	// Columns is the expected projection, in order.
	Columns []string `yaml:"columns,omitempty"`

	// Rows are the expected result rows, in order. Each row must have exactly
	// the listed columns.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Count is the expected number of result rows.
	Count *int `yaml:"count,omitempty"`

	// RowID is the expected id of an inserted row.
	RowID *uint64 `yaml:"row_id,omitempty"`

	// Error is the expected error code, e.g. COLUMN_DOES_NOT_EXIST.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of trace_count, trace_order or final_state.
	Type string `yaml:"type"`

	// Kind is the query kind counted by trace_count, e.g. SELECT.
	Kind string `yaml:"kind,omitempty"`

	// Kinds is the expected order of kinds for trace_order.
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected occurrence count (trace_count) or row count
	// (final_state).
	Count *int `yaml:"count,omitempty"`

	// Table is the table queried by final_state, as "schema.table" or "table".
	Table string `yaml:"table,omitempty"`

	// Where restricts final_state to rows equal on every listed column.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect lists values the single matching row must hold (subset match).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertFinalState = "final_state"
)

var queryKinds = []string{
	string(ql.KindCreateSchema),
	string(ql.KindCreateTable),
	string(ql.KindInsert),
	string(ql.KindSelect),
}

var errorCodes = []qlerr.Code{
	qlerr.CodeRequiredFieldIsNone,
	qlerr.CodeNoFirstConstraint,
	qlerr.CodeVecCannotBeEmpty,
	qlerr.CodePrimaryKeyAlreadySet,
	qlerr.CodeDuplicateColumn,
	qlerr.CodeColumnDoesNotExist,
	qlerr.CodeRelationAlreadyExists,
	qlerr.CodeRelationDoesNotExist,
	qlerr.CodeRowDoesNotExist,
	qlerr.CodeIncompatibleTypes,
	qlerr.CodeTypeMismatch,
	qlerr.CodeNullViolation,
	qlerr.CodeSyntaxError,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so "asertions:" is not silently ignored.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Path = path
	if scenario.Defs != "" && !filepath.IsAbs(scenario.Defs) {
		scenario.Defs = filepath.Join(filepath.Dir(path), scenario.Defs)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir, sorted. A
// non-empty filter is a glob matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Defs != "" {
		if _, err := os.Stat(s.Defs); os.IsNotExist(err) {
			return fmt.Errorf("defs not found: %s", s.Defs)
		}
	}

	for i, stmt := range s.Setup {
		if strings.TrimSpace(stmt) == "" {
			return fmt.Errorf("setup[%d]: statement is required", i)
		}
	}

	for i, step := range s.Steps {
		if strings.TrimSpace(step.Query) == "" {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		if err := validateExpect(i, step.Expect); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateExpect(index int, e *Expect) error {
	if e == nil {
		return nil
	}
	if e.Error == "" {
		return nil
	}
	if !slices.Contains(errorCodes, qlerr.Code(e.Error)) {
		return fmt.Errorf("steps[%d].expect: unknown error code %q", index, e.Error)
	}
	if e.Columns != nil || e.Rows != nil || e.Count != nil || e.RowID != nil {
		return fmt.Errorf("steps[%d].expect: error cannot be combined with columns, rows, count or row_id", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if !slices.Contains(queryKinds, a.Kind) {
			return fmt.Errorf("assertions[%d]: kind must be one of %v for trace_count", index, queryKinds)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
		for _, k := range a.Kinds {
			if !slices.Contains(queryKinds, k) {
				return fmt.Errorf("assertions[%d]: unknown kind %q", index, k)
			}
		}
	case AssertFinalState:
		if _, err := ql.ParseTableRef(a.Table); err != nil {
			return fmt.Errorf("assertions[%d]: valid table is required for final_state", index)
		}
		if len(a.Expect) == 0 && a.Count == nil {
			return fmt.Errorf("assertions[%d]: expect or count is required for final_state", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
