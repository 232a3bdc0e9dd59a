package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/qlcache/internal/constraint"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(append([]Option{WithLogger(discard)}, opts...)...)
}

func mustExec(t *testing.T, e *Engine, q ql.Query) *Result {
	t.Helper()
	res, err := e.Execute(q)
	require.NoError(t, err)
	return res
}

// seedUsers creates PUBLIC.T(id U64 primary key, name TEXT) with rows
// {id:1,name:"a"}, {id:2,name:"b"}.
func seedUsers(t *testing.T, e *Engine) {
	t.Helper()
	b := newCreateUsers()
	b, err := b.PrimaryKey("id")
	require.NoError(t, err)
	ct, err := b.Build()
	require.NoError(t, err)
	mustExec(t, e, ct)

	insertUser(t, e, 1, "a")
	insertUser(t, e, 2, "b")
}

func newCreateUsers() *ql.CreateTableBuilder {
	return ql.NewCreateTable().
		Name("T").
		Column("id", value.TypeU64, false).
		Column("name", value.TypeText, false)
}

func insertUser(t *testing.T, e *Engine, id uint64, name string) {
	t.Helper()
	ins, err := ql.NewInsert().Table("T").
		Value("id", value.U64(id)).
		Value("name", value.Text(name)).
		Build()
	require.NoError(t, err)
	mustExec(t, e, ins)
}

func selectT(t *testing.T, e *Engine, configure func(*ql.SelectBuilder) *ql.SelectBuilder) ([]value.Row, error) {
	t.Helper()
	b := ql.NewSelect().Table("T").Everything()
	if configure != nil {
		b = configure(b)
	}
	q, err := b.Build()
	require.NoError(t, err)
	res, err := e.Execute(q)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

func userRow(id uint64, name string) value.Row {
	return value.Row{"id": value.U64(id), "name": value.Text(name)}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	q, err := ql.NewCreateSchema().Name("n").IfNotExist().Build()
	require.NoError(t, err)

	mustExec(t, e, q)
	mustExec(t, e, q)

	assert.Equal(t, []string{"PUBLIC", "n"}, e.Schemas())
}

func TestCreateSchema_Conflict(t *testing.T) {
	e := newTestEngine(t)
	q, err := ql.NewCreateSchema().Name("S").Build()
	require.NoError(t, err)

	mustExec(t, e, q)
	_, err = e.Execute(q)
	require.Error(t, err)
	assert.Equal(t, qlerr.CodeRelationAlreadyExists, qlerr.CodeOf(err))
	assert.Equal(t, "S", qlerr.NameOf(err))
}

func TestCreateTable_PrimaryKeyForcesNonNull(t *testing.T) {
	e := newTestEngine(t)
	b := ql.NewCreateTable().Name("T").Column("K", value.TypeU64, true)
	b, err := b.PrimaryKey("K")
	require.NoError(t, err)
	q, err := b.Build()
	require.NoError(t, err)
	mustExec(t, e, q)

	cols, err := e.Describe(ql.TableRef{Table: "T"})
	require.NoError(t, err)
	assert.Equal(t, []value.Column{{Name: "K", Type: value.TypeU64, Nullable: false}}, cols)
}

func TestCreateTable_InMissingSchema(t *testing.T) {
	e := newTestEngine(t)
	q, err := ql.NewCreateTable().Name("T").Schema("nope").Build()
	require.NoError(t, err)

	_, err = e.Execute(q)
	assert.True(t, qlerr.Is(err, qlerr.CodeRelationDoesNotExist))
	assert.Equal(t, "nope", qlerr.NameOf(err))
}

func TestSelect_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	q, err := ql.NewSelect().Table("T").Everything().Build()
	require.NoError(t, err)
	res := mustExec(t, e, q)

	assert.Equal(t, ql.KindSelect, res.Kind)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, []value.Row{userRow(1, "a"), userRow(2, "b")}, res.Rows)
}

func TestSelect_ConstraintFiltering(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	nameIsA := constraint.Eq("name", value.Text("a"))
	idIs2 := constraint.Eq("id", value.U64(2))

	tests := []struct {
		name      string
		configure func(*ql.SelectBuilder) *ql.SelectBuilder
		want      []value.Row
	}{
		{
			name: "eq",
			configure: func(b *ql.SelectBuilder) *ql.SelectBuilder {
				return b.Constraint(nameIsA)
			},
			want: []value.Row{userRow(1, "a")},
		},
		{
			name: "or",
			configure: func(b *ql.SelectBuilder) *ql.SelectBuilder {
				b, err := b.Constraint(nameIsA).Or(idIs2)
				require.NoError(t, err)
				return b
			},
			want: []value.Row{userRow(1, "a"), userRow(2, "b")},
		},
		{
			name: "not",
			configure: func(b *ql.SelectBuilder) *ql.SelectBuilder {
				return b.Constraint(constraint.Not{Inner: nameIsA})
			},
			want: []value.Row{userRow(2, "b")},
		},
		{
			name: "and",
			configure: func(b *ql.SelectBuilder) *ql.SelectBuilder {
				b, err := b.Constraint(nameIsA).And(idIs2)
				require.NoError(t, err)
				return b
			},
			want: []value.Row{},
		},
		{
			name: "unknown field matches nothing",
			configure: func(b *ql.SelectBuilder) *ql.SelectBuilder {
				return b.Constraint(constraint.Eq("ghost", value.U64(1)))
			},
			want: []value.Row{},
		},
		{
			name: "type mismatch matches nothing",
			configure: func(b *ql.SelectBuilder) *ql.SelectBuilder {
				return b.Constraint(constraint.Gt("id", value.Text("1")))
			},
			want: []value.Row{},
		},
		{
			name: "ordering",
			configure: func(b *ql.SelectBuilder) *ql.SelectBuilder {
				return b.Constraint(constraint.Ge("id", value.U64(2)))
			},
			want: []value.Row{userRow(2, "b")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := selectT(t, e, tt.configure)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestSelect_Projection(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	q, err := ql.NewSelect().Table("T").Fields("name", "id").Build()
	require.NoError(t, err)
	res := mustExec(t, e, q)

	assert.Equal(t, []string{"name", "id"}, res.Columns)
	assert.Equal(t, []value.Row{userRow(1, "a"), userRow(2, "b")}, res.Rows)

	q, err = ql.NewSelect().Table("T").Fields("name").Build()
	require.NoError(t, err)
	res = mustExec(t, e, q)
	assert.Equal(t, []value.Row{{"name": value.Text("a")}, {"name": value.Text("b")}}, res.Rows)
}

func TestSelect_UnknownColumns(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	q, err := ql.NewSelect().Table("T").Fields("id", "age").Build()
	require.NoError(t, err)
	_, err = e.Execute(q)
	assert.True(t, qlerr.Is(err, qlerr.CodeColumnDoesNotExist))
	assert.Equal(t, "age", qlerr.NameOf(err))

	sort, err := ql.NewSortBy([]string{"age"}, ql.Ascending)
	require.NoError(t, err)
	_, err = selectT(t, e, func(b *ql.SelectBuilder) *ql.SelectBuilder { return b.SortBy(sort) })
	assert.True(t, qlerr.Is(err, qlerr.CodeColumnDoesNotExist))
}

func TestSelect_SortStability(t *testing.T) {
	e := newTestEngine(t)
	ct, err := ql.NewCreateTable().Name("T").
		Column("id", value.TypeU64, false).
		Column("grp", value.TypeI32, true).
		Build()
	require.NoError(t, err)
	mustExec(t, e, ct)

	groups := []value.Value{value.I32(2), value.I32(1), value.I32(2), value.Null{}, value.I32(1), value.I32(2)}
	for i, g := range groups {
		ins, err := ql.NewInsert().Table("T").
			Value("id", value.U64(i+1)).
			Value("grp", g).
			Build()
		require.NoError(t, err)
		mustExec(t, e, ins)
	}

	ids := func(rows []value.Row) []uint64 {
		out := make([]uint64, len(rows))
		for i, r := range rows {
			out[i] = uint64(r["id"].(value.U64))
		}
		return out
	}

	asc, err := ql.NewSortBy([]string{"grp"}, ql.Ascending)
	require.NoError(t, err)
	rows, err := selectT(t, e, func(b *ql.SelectBuilder) *ql.SelectBuilder { return b.SortBy(asc) })
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 2, 5, 1, 3, 6}, ids(rows))

	desc, err := ql.NewSortBy([]string{"grp"}, ql.Descending)
	require.NoError(t, err)
	rows, err = selectT(t, e, func(b *ql.SelectBuilder) *ql.SelectBuilder { return b.SortBy(desc) })
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3, 6, 2, 5, 4}, ids(rows))

	// Re-running an identical Select yields the same order.
	again, err := selectT(t, e, func(b *ql.SelectBuilder) *ql.SelectBuilder { return b.SortBy(desc) })
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestSelect_MultiColumnSort(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)
	insertUser(t, e, 3, "a")
	insertUser(t, e, 0, "b")

	sort, err := ql.NewSortBy([]string{"name", "id"}, ql.Ascending)
	require.NoError(t, err)
	rows, err := selectT(t, e, func(b *ql.SelectBuilder) *ql.SelectBuilder { return b.SortBy(sort) })
	require.NoError(t, err)
	assert.Equal(t, []value.Row{userRow(1, "a"), userRow(3, "a"), userRow(0, "b"), userRow(2, "b")}, rows)
}

func TestSelect_MissingRelation(t *testing.T) {
	e := newTestEngine(t)

	q, err := ql.NewSelect().Table("NoSuchTable").Everything().Build()
	require.NoError(t, err)
	res, err := e.Execute(q)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, qlerr.CodeRelationDoesNotExist, qlerr.CodeOf(err))
	assert.Equal(t, "NoSuchTable", qlerr.NameOf(err))

	q, err = ql.NewSelect().From(ql.TableRef{Schema: "nope", Table: "T"}).Everything().Build()
	require.NoError(t, err)
	_, err = e.Execute(q)
	assert.Equal(t, "nope", qlerr.NameOf(err))
}

func TestSelect_NilConstraintOperandRejected(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	b := ql.NewSelect().Table("T").Everything().Constraint(constraint.Eq("id", value.U64(1)))
	_, err := b.And(nil)
	assert.True(t, qlerr.Is(err, qlerr.CodeRequiredFieldIsNone))

	// The builder is still usable and the query runs.
	q, err := b.Build()
	require.NoError(t, err)
	res := mustExec(t, e, q)
	assert.Equal(t, []value.Row{userRow(1, "a")}, res.Rows)

	// A hand-built tree with a missing operand never reaches Execute.
	_, err = ql.NewSelect().Table("T").Everything().
		Constraint(constraint.And{Left: constraint.Eq("id", value.U64(1))}).
		Build()
	assert.True(t, qlerr.IsValidation(err))
	assert.Equal(t, "And.Right", qlerr.NameOf(err))
}

func TestSelect_OtherSchema(t *testing.T) {
	e := newTestEngine(t)
	cs, err := ql.NewCreateSchema().Name("app").Build()
	require.NoError(t, err)
	mustExec(t, e, cs)

	ct, err := ql.NewCreateTable().Name("T").Schema("app").Column("id", value.TypeI8, false).Build()
	require.NoError(t, err)
	mustExec(t, e, ct)

	ref := ql.TableRef{Schema: "app", Table: "T"}
	ins, err := ql.NewInsert().Into(ref).Value("id", value.I8(-3)).Build()
	require.NoError(t, err)
	res := mustExec(t, e, ins)
	assert.Equal(t, uint64(1), res.RowID)

	sel, err := ql.NewSelect().From(ref).Everything().Build()
	require.NoError(t, err)
	res = mustExec(t, e, sel)
	assert.Equal(t, []value.Row{{"id": value.I8(-3)}}, res.Rows)

	tables, err := e.Tables("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, tables)

	typ, err := e.ColumnType(ref, "id")
	require.NoError(t, err)
	assert.Equal(t, value.TypeI8, typ)
	_, err = e.ColumnType(ref, "zz")
	assert.True(t, qlerr.Is(err, qlerr.CodeColumnDoesNotExist))
}

func TestSelect_ResultRowsAreCopies(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	rows, err := selectT(t, e, nil)
	require.NoError(t, err)
	rows[0]["name"] = value.Text("mutated")

	again, err := selectT(t, e, nil)
	require.NoError(t, err)
	assert.Equal(t, value.Text("a"), again[0]["name"])
}

func TestInsert_Errors(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	ins, err := ql.NewInsert().Table("T").Value("id", value.Text("x")).Value("name", value.Text("a")).Build()
	require.NoError(t, err)
	_, err = e.Execute(ins)
	assert.True(t, qlerr.Is(err, qlerr.CodeTypeMismatch))

	ins, err = ql.NewInsert().Table("missing").Build()
	require.NoError(t, err)
	_, err = e.Execute(ins)
	assert.True(t, qlerr.Is(err, qlerr.CodeRelationDoesNotExist))
}

func TestExecute_StampsResults(t *testing.T) {
	e := newTestEngine(t, WithIDGenerator(NewFixedGenerator("exec-1", "exec-2")))

	q, err := ql.NewCreateSchema().Name("S").Build()
	require.NoError(t, err)
	res := mustExec(t, e, q)
	assert.Equal(t, "exec-1", res.ExecID)
	assert.Equal(t, int64(1), res.Seq)
	assert.Equal(t, ql.KindCreateSchema, res.Kind)

	_, err = e.Execute(q)
	require.Error(t, err)
}

func TestExecute_NilQuery(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Execute(nil)
	assert.Error(t, err)
}

func TestExecute_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(WithLogger(logger), WithIDGenerator(NewFixedGenerator("exec-1", "exec-2")))

	q, err := ql.NewCreateSchema().Name("S").Build()
	require.NoError(t, err)
	mustExec(t, e, q)
	_, err = e.Execute(q)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "query executed")
	assert.Contains(t, out, "exec_id=exec-1")
	assert.Contains(t, out, "kind=CREATE_SCHEMA")
	assert.Contains(t, out, "query failed")
	assert.Contains(t, out, "code=RELATION_ALREADY_EXISTS")
}

func TestExecuteAll(t *testing.T) {
	e := newTestEngine(t, WithBatchLimit(2))

	var queries []ql.Query
	for i := 0; i < 10; i++ {
		q, err := ql.NewCreateSchema().Name(fmt.Sprintf("S%d", i)).Build()
		require.NoError(t, err)
		queries = append(queries, q)
	}

	results, err := e.ExecuteAll(context.Background(), queries)
	require.NoError(t, err)
	require.Len(t, results, 10)
	for _, r := range results {
		assert.Equal(t, ql.KindCreateSchema, r.Kind)
	}
	assert.Len(t, e.Schemas(), 11)
}

func TestExecuteAll_FirstError(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	good, err := ql.NewSelect().Table("T").Everything().Build()
	require.NoError(t, err)
	bad, err := ql.NewSelect().Table("NoSuchTable").Everything().Build()
	require.NoError(t, err)

	_, err = e.ExecuteAll(context.Background(), []ql.Query{good, bad, good})
	require.Error(t, err)
	assert.True(t, qlerr.Is(err, qlerr.CodeRelationDoesNotExist))
}

func TestExecuteAll_Cancelled(t *testing.T) {
	e := newTestEngine(t)
	q, err := ql.NewCreateSchema().Name("S").Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ExecuteAll(ctx, []ql.Query{q})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"PUBLIC"}, e.Schemas())
}

func TestConcurrentSelectDuringInserts(t *testing.T) {
	e := newTestEngine(t)
	seedUsers(t, e)

	sel, err := ql.NewSelect().Table("T").Everything().Build()
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		for i := uint64(10); i < 200; i++ {
			ins, err := ql.NewInsert().Table("T").
				Value("id", value.U64(i)).
				Value("name", value.Text("x")).
				Build()
			if err != nil {
				return err
			}
			if _, err := e.Execute(ins); err != nil {
				return err
			}
		}
		return nil
	})
	for r := 0; r < 4; r++ {
		g.Go(func() error {
			prev := 0
			for i := 0; i < 50; i++ {
				res, err := e.Execute(sel)
				if err != nil {
					return err
				}
				if len(res.Rows) < prev {
					return fmt.Errorf("snapshot shrank from %d to %d", prev, len(res.Rows))
				}
				prev = len(res.Rows)
				for _, row := range res.Rows {
					if len(row) != 2 {
						return fmt.Errorf("torn row %v", row)
					}
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func BenchmarkCreateSchemaIfNotExist(b *testing.B) {
	e := New(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	q, _ := ql.NewCreateSchema().Name("S").IfNotExist().Build()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Execute(q)
	}
}

func BenchmarkCreateTableIfNotExist(b *testing.B) {
	e := New(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	q, _ := ql.NewCreateTable().Name("T").
		Column("id", value.TypeU64, false).
		IfNotExist().
		Build()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Execute(q)
	}
}

func BenchmarkSelectSorted(b *testing.B) {
	e := New(WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	ct, _ := ql.NewCreateTable().Name("T").Column("id", value.TypeU64, false).Build()
	_, _ = e.Execute(ct)
	for i := 0; i < 1000; i++ {
		ins, _ := ql.NewInsert().Table("T").Value("id", value.U64(1000-i)).Build()
		_, _ = e.Execute(ins)
	}
	sort, _ := ql.NewSortBy([]string{"id"}, ql.Ascending)
	sel, _ := ql.NewSelect().Table("T").Everything().SortBy(sort).Build()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Execute(sel)
	}
}
