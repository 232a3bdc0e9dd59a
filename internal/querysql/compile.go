package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/qlcache/internal/constraint"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// RowIDColumn is the mirror column holding the cache row id.
const RowIDColumn = "_rowid"

// TableName returns the mirror table name for ref: "schema.table".
func TableName(ref ql.TableRef) string {
	return ref.SchemaName() + "." + ref.Table
}

// QuoteIdent quotes an SQLite identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQLCompiler compiles ql.Select queries into parameterized SQLite SQL that
// returns the same rows, in the same order, as the engine.
//
// Every query ends in ORDER BY with the row id as final tiebreaker, which
// reproduces the engine's stable sort. Values are always parameters, never
// interpolated.
type SQLCompiler struct {
	columns []value.Column
	byName  map[string]value.Column
}

// NewSQLCompiler creates a compiler for a table with the given columns.
func NewSQLCompiler(columns []value.Column) *SQLCompiler {
	c := &SQLCompiler{
		columns: columns,
		byName:  make(map[string]value.Column, len(columns)),
	}
	for _, col := range columns {
		c.byName[col.Name] = col
	}
	return c
}

// Compile converts sel to SQL. It returns the SQL text, its parameters, and
// the projected column names in output order.
func (c *SQLCompiler) Compile(sel ql.Select) (string, []any, []string, error) {
	projected, err := c.projection(sel.Scope())
	if err != nil {
		return "", nil, nil, err
	}

	quoted := make([]string, len(projected))
	for i, name := range projected {
		quoted[i] = QuoteIdent(name)
	}

	var whereClause string
	var params []any
	if sel.Constraint() != nil {
		filterSQL, filterParams := c.compileConstraint(sel.Constraint())
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	orderBy, err := c.orderBy(sel)
	if err != nil {
		return "", nil, nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(quoted, ", "),
		QuoteIdent(TableName(sel.Table())),
		whereClause,
		orderBy)
	return sql, params, projected, nil
}

func (c *SQLCompiler) projection(scope ql.Scope) ([]string, error) {
	if scope.IsEverything() {
		names := make([]string, len(c.columns))
		for i, col := range c.columns {
			names[i] = col.Name
		}
		return names, nil
	}
	fields := scope.Fields()
	for _, f := range fields {
		if _, ok := c.byName[f]; !ok {
			return nil, qlerr.ColumnDoesNotExist(f)
		}
	}
	return fields, nil
}

// orderBy builds the ORDER BY list. SQLite sorts NULL first ascending and
// last descending, which is the engine's order in both directions.
func (c *SQLCompiler) orderBy(sel ql.Select) (string, error) {
	var parts []string
	if sortBy, ok := sel.SortBy(); ok {
		dir := "ASC"
		if sortBy.Order() == ql.Descending {
			dir = "DESC"
		}
		for _, col := range sortBy.Columns() {
			if _, ok := c.byName[col]; !ok {
				return "", qlerr.ColumnDoesNotExist(col)
			}
			parts = append(parts, fmt.Sprintf("%s %s COLLATE BINARY", QuoteIdent(col), dir))
		}
	}
	parts = append(parts, QuoteIdent(RowIDColumn)+" ASC")
	return strings.Join(parts, ", "), nil
}

// compileConstraint mirrors constraint.Compute with two-valued logic: every
// fragment evaluates to 0 or 1, never NULL.
func (c *SQLCompiler) compileConstraint(node constraint.Constraint) (string, []any) {
	switch n := node.(type) {
	case constraint.Comparison:
		return c.compileComparison(n)
	case constraint.And:
		l, lp := c.compileConstraint(n.Left)
		r, rp := c.compileConstraint(n.Right)
		return "(" + l + " AND " + r + ")", append(lp, rp...)
	case constraint.Or:
		l, lp := c.compileConstraint(n.Left)
		r, rp := c.compileConstraint(n.Right)
		return "(" + l + " OR " + r + ")", append(lp, rp...)
	case constraint.Not:
		inner, p := c.compileConstraint(n.Inner)
		return "(NOT " + inner + ")", p
	default:
		return "0", nil
	}
}

// compileComparison compiles a leaf. Leaves that can never match in the
// engine (unknown column, mismatched type, ordering against NULL) compile to
// the constant 0.
func (c *SQLCompiler) compileComparison(cmp constraint.Comparison) (string, []any) {
	col, ok := c.byName[cmp.Field]
	if !ok {
		return "0", nil
	}
	field := QuoteIdent(cmp.Field)

	if value.IsNull(cmp.Value) {
		if cmp.Op == constraint.OpEq {
			return "(" + field + " IS NULL)", nil
		}
		return "0", nil
	}
	if cmp.Value.Type() != col.Type {
		return "0", nil
	}
	return fmt.Sprintf("COALESCE(%s %s ?, 0)", field, cmp.Op), []any{Encode(cmp.Value)}
}
