package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// DefaultGoldenDir holds golden files of scenarios built in code.
const DefaultGoldenDir = "testdata/golden"

// TraceSnapshot captures the complete trace of a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Snapshot renders the trace of result as indented JSON with a trailing
// newline. Map keys are sorted, so equal traces render byte-identically.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	}); err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	return buf.Bytes(), nil
}

// GoldenDir is the directory holding the scenario's golden file: "golden"
// next to the scenario file, or DefaultGoldenDir for scenarios built in code.
func GoldenDir(scenario *Scenario) string {
	if scenario.Path == "" {
		return DefaultGoldenDir
	}
	return filepath.Join(filepath.Dir(scenario.Path), "golden")
}

// GoldenPath is the golden file of the scenario, named after scenario.Name.
func GoldenPath(scenario *Scenario) string {
	return filepath.Join(GoldenDir(scenario), scenario.Name+".golden")
}

// RunWithGolden executes a scenario and compares the trace against its
// golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against the golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir(scenario)),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}

// WriteGolden writes the trace of result as the scenario's golden file.
func WriteGolden(scenario *Scenario, result *Result) error {
	data, err := Snapshot(scenario, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(GoldenDir(scenario), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(GoldenPath(scenario), data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// MatchGolden reports whether result's trace equals the golden file. found is
// false when the scenario has no golden file.
func MatchGolden(scenario *Scenario, result *Result) (match, found bool, err error) {
	golden, err := os.ReadFile(GoldenPath(scenario))
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, true, fmt.Errorf("failed to read golden file: %w", err)
	}

	current, err := Snapshot(scenario, result)
	if err != nil {
		return false, true, err
	}
	return bytes.Equal(golden, current), true, nil
}
