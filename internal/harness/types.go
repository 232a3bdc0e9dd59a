package harness

import (
	"github.com/roach88/qlcache/internal/engine"
	"github.com/roach88/qlcache/internal/value"
)

// Trace phases.
const (
	PhaseDefs  = "defs"
	PhaseSetup = "setup"
	PhaseStep  = "step"
)

// TraceEvent records one executed (or rejected) statement.
type TraceEvent struct {
	Phase     string           `json:"phase"`
	Statement string           `json:"statement,omitempty"`
	Kind      string           `json:"kind,omitempty"`
	ExecID    string           `json:"exec_id,omitempty"`
	Seq       int64            `json:"seq,omitempty"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []map[string]any `json:"rows,omitempty"`
	RowID     uint64           `json:"row_id,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every statement in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addExecuted appends an event for a query that ran.
func (r *Result) addExecuted(phase, statement string, res *engine.Result) {
	r.Trace = append(r.Trace, TraceEvent{
		Phase:     phase,
		Statement: statement,
		Kind:      string(res.Kind),
		ExecID:    res.ExecID,
		Seq:       res.Seq,
		Columns:   res.Columns,
		Rows:      plainRows(res.Rows),
		RowID:     res.RowID,
	})
}

// addFailed appends an event for a statement that did not parse or run.
func (r *Result) addFailed(phase, statement, kind, code string) {
	r.Trace = append(r.Trace, TraceEvent{
		Phase:     phase,
		Statement: statement,
		Kind:      kind,
		Error:     code,
	})
}

// plainRows converts rows to JSON-friendly maps.
func plainRows(rows []value.Row) []map[string]any {
	if len(rows) == 0 {
		return nil
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(row))
		for k, v := range row {
			m[k] = value.ToAny(v)
		}
		out[i] = m
	}
	return out
}
