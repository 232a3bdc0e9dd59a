package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/qlcache/internal/catalog"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// DefaultBatchLimit bounds how many queries ExecuteAll runs at once.
const DefaultBatchLimit = 8

// Engine executes queries against one Cache.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	cache      *catalog.Cache
	clock      *Clock
	idGen      IDGenerator
	logger     *slog.Logger
	rowDegree  int
	batchLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithIDGenerator sets the execution id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithRowDegree sets the btree degree of table row stores.
// Default: catalog.DefaultRowDegree.
func WithRowDegree(degree int) Option {
	return func(e *Engine) {
		e.rowDegree = degree
	}
}

// WithBatchLimit sets how many queries ExecuteAll runs concurrently.
// Values below 1 select DefaultBatchLimit.
func WithBatchLimit(n int) Option {
	return func(e *Engine) {
		e.batchLimit = n
	}
}

// New creates an Engine over a fresh Cache holding only PUBLIC.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:      NewClock(),
		idGen:      UUIDv7Generator{},
		logger:     slog.Default(),
		rowDegree:  catalog.DefaultRowDegree,
		batchLimit: DefaultBatchLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.batchLimit < 1 {
		e.batchLimit = DefaultBatchLimit
	}
	e.cache = catalog.New(e.rowDegree)
	return e
}

// Cache returns the underlying cache.
func (e *Engine) Cache() *catalog.Cache {
	return e.cache
}

// Result is the outcome of one executed query.
//
// For CreateSchema and CreateTable only the execution stamp is set.
// For Insert, RowID holds the new row's id. For Select, Columns lists the
// projected columns in output order and Rows the result rows.
type Result struct {
	ExecID  string
	Seq     int64
	Kind    ql.Kind
	Columns []string
	Rows    []value.Row
	RowID   uint64
}

// Execute runs one query to completion.
func (e *Engine) Execute(q ql.Query) (*Result, error) {
	if q == nil {
		return nil, fmt.Errorf("execute: nil query")
	}

	res := &Result{
		ExecID: e.idGen.Generate(),
		Seq:    e.clock.Next(),
		Kind:   q.Kind(),
	}
	start := time.Now()

	var err error
	switch q := q.(type) {
	case ql.CreateSchema:
		err = e.cache.CreateSchema(q.Name(), q.IfNotExist())
	case ql.CreateTable:
		pk, _ := q.PrimaryKey()
		err = e.cache.CreateTable(q.Schema(), q.Name(), q.Columns(), pk, q.IfNotExist())
	case ql.Insert:
		res.RowID, err = e.executeInsert(q)
	case ql.Select:
		res.Columns, res.Rows, err = e.executeSelect(q)
	default:
		err = fmt.Errorf("execute: unsupported query kind %s", q.Kind())
	}

	if err != nil {
		e.logger.Debug("query failed",
			"exec_id", res.ExecID,
			"seq", res.Seq,
			"kind", res.Kind,
			"code", qlerr.CodeOf(err),
			"error", err,
		)
		return nil, err
	}

	e.logger.Debug("query executed",
		"exec_id", res.ExecID,
		"seq", res.Seq,
		"kind", res.Kind,
		"rows", len(res.Rows),
		"duration", time.Since(start),
	)
	return res, nil
}

// ExecuteAll runs independent queries concurrently, at most the batch limit
// at a time, and returns their results in input order.
//
// The queries must not depend on each other: there is no ordering between
// them. On the first failure the remaining unstarted queries are skipped and
// that error is returned. Cancelling ctx also stops unstarted queries.
func (e *Engine) ExecuteAll(ctx context.Context, queries []ql.Query) ([]*Result, error) {
	results := make([]*Result, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchLimit)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Execute(q)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) executeInsert(q ql.Insert) (uint64, error) {
	ref := q.Table()
	t, err := e.cache.Table(ref.SchemaName(), ref.Table)
	if err != nil {
		return 0, err
	}
	return t.Insert(q.Values())
}
