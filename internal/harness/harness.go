package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/qlcache/internal/defs"
	"github.com/roach88/qlcache/internal/engine"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/qlparse"
	"github.com/roach88/qlcache/internal/store"
	"github.com/roach88/qlcache/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with deterministic execution ids.
type Harness struct {
	engine *engine.Engine
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh engine with its own in-memory SQLite mirror.
//
// Execution flow:
//  1. Apply definitions, if any
//  2. Execute setup statements (any failure aborts the run)
//  3. Execute steps, checking each expect clause
//  4. Export the final cache state to the mirror
//  5. Evaluate assertions
//
// Run returns an error only when the scenario could not be executed; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		engine: engine.New(
			engine.WithLogger(logger),
			engine.WithIDGenerator(testutil.NewSequenceGenerator(testutil.DefaultPrefix)),
		),
		store:  st,
		logger: logger,
	}

	ctx := context.Background()
	result := NewResult()

	if scenario.Defs != "" {
		if err := h.executeDefs(scenario.Defs, result); err != nil {
			return nil, fmt.Errorf("failed to apply defs: %w", err)
		}
	}

	if err := h.executeSetup(scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	if err := st.Export(ctx, h.engine.Dump()); err != nil {
		return nil, fmt.Errorf("failed to export final state: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeDefs applies compiled CUE definitions.
func (h *Harness) executeDefs(path string, result *Result) error {
	queries, err := defs.LoadQueries(path)
	if err != nil {
		return err
	}
	for i, q := range queries {
		res, err := h.engine.Execute(q)
		if err != nil {
			return fmt.Errorf("defs query %d: %w", i, err)
		}
		result.addExecuted(PhaseDefs, "", res)
	}
	return nil
}

// executeSetup runs setup statements in order. Each entry may hold several
// statements; each is parsed only once the previous one has run, so inserts
// see tables created earlier in the same entry.
func (h *Harness) executeSetup(setup []string, result *Result) error {
	for i, entry := range setup {
		for _, stmt := range qlparse.Split(entry) {
			q, err := qlparse.Parse(stmt, h.engine)
			if err != nil {
				return fmt.Errorf("setup[%d]: %q: %w", i, stmt, err)
			}
			res, err := h.engine.Execute(q)
			if err != nil {
				return fmt.Errorf("setup[%d]: %q: %w", i, stmt, err)
			}
			result.addExecuted(PhaseSetup, stmt, res)

			h.logger.Info("setup statement completed",
				"entry", i,
				"kind", res.Kind,
				"exec_id", res.ExecID,
			)
		}
	}
	return nil
}

// executeStep runs one step and checks its expect clause.
func (h *Harness) executeStep(i int, step Step, result *Result) {
	res, kind, err := h.execute(step.Query)
	if err != nil {
		result.addFailed(PhaseStep, step.Query, kind, string(qlerr.CodeOf(err)))
	} else {
		result.addExecuted(PhaseStep, step.Query, res)
	}

	for _, msg := range checkExpect(step.Expect, res, err) {
		result.AddError(fmt.Sprintf("steps[%d] %q: %s", i, step.Query, msg))
	}

	h.logger.Info("step completed",
		"step", i,
		"kind", kind,
		"error", err,
	)
}

func (h *Harness) execute(stmt string) (*engine.Result, string, error) {
	q, err := qlparse.Parse(stmt, h.engine)
	if err != nil {
		return nil, "", err
	}
	res, err := h.engine.Execute(q)
	return res, string(q.Kind()), err
}

// checkExpect compares a step outcome with its expectation and returns one
// message per mismatch. A nil expectation requires success.
func checkExpect(e *Expect, res *engine.Result, err error) []string {
	if e != nil && e.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error %s, got success", e.Error)}
		}
		if got := string(qlerr.CodeOf(err)); got != e.Error {
			return []string{fmt.Sprintf("expected error %s, got %v", e.Error, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}
	if e == nil {
		return nil
	}

	var msgs []string
	if e.Columns != nil && !slices.Equal(e.Columns, res.Columns) {
		msgs = append(msgs, fmt.Sprintf("columns: expected %v, got %v", e.Columns, res.Columns))
	}
	if e.Count != nil && *e.Count != len(res.Rows) {
		msgs = append(msgs, fmt.Sprintf("count: expected %d, got %d", *e.Count, len(res.Rows)))
	}
	if e.RowID != nil && *e.RowID != res.RowID {
		msgs = append(msgs, fmt.Sprintf("row_id: expected %d, got %d", *e.RowID, res.RowID))
	}
	if e.Rows != nil {
		msgs = append(msgs, compareRows(e.Rows, res.Rows)...)
	}
	return msgs
}
