package defs

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/value"
)

// CompileError is a definitions error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile turns a definitions value into queries.
//
// The root must hold a "schema" struct; each schema may hold a "table"
// struct. A value without "schema" compiles to no queries.
func Compile(v cue.Value) ([]ql.Query, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schemasVal := v.LookupPath(cue.ParsePath("schema"))
	if !schemasVal.Exists() {
		return nil, nil
	}

	iter, err := schemasVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var queries []ql.Query
	for iter.Next() {
		schemaName := iter.Selector().Unquoted()
		cs, err := ql.NewCreateSchema().Name(schemaName).IfNotExist().Build()
		if err != nil {
			return nil, err
		}
		queries = append(queries, cs)

		tablesVal := iter.Value().LookupPath(cue.ParsePath("table"))
		if !tablesVal.Exists() {
			continue
		}
		tableIter, err := tablesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for tableIter.Next() {
			ref := ql.TableRef{Schema: schemaName, Table: tableIter.Selector().Unquoted()}
			tableQueries, err := compileTable(ref, tableIter.Value())
			if err != nil {
				return nil, err
			}
			queries = append(queries, tableQueries...)
		}
	}
	return queries, nil
}

func compileTable(ref ql.TableRef, v cue.Value) ([]ql.Query, error) {
	path := fmt.Sprintf("schema.%s.table.%s", ref.Schema, ref.Table)

	b := ql.NewCreateTable().Schema(ref.Schema).Name(ref.Table)

	columnsVal := v.LookupPath(cue.ParsePath("columns"))
	if !columnsVal.Exists() {
		return nil, &CompileError{
			Field:   path + ".columns",
			Message: "columns are required",
			Pos:     v.Pos(),
		}
	}
	colIter, err := columnsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; colIter.Next(); i++ {
		col, err := parseColumn(fmt.Sprintf("%s.columns[%d]", path, i), colIter.Value())
		if err != nil {
			return nil, err
		}
		b.Column(col.Name, col.Type, col.Nullable)
	}

	pkVal := v.LookupPath(cue.ParsePath("primary_key"))
	if pkVal.Exists() {
		pk, err := pkVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if _, err := b.PrimaryKey(pk); err != nil {
			return nil, &CompileError{Field: path + ".primary_key", Message: err.Error(), Pos: pkVal.Pos()}
		}
	}

	ct, err := b.Build()
	if err != nil {
		return nil, &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
	}
	queries := []ql.Query{ct}

	rowsVal := v.LookupPath(cue.ParsePath("rows"))
	if !rowsVal.Exists() {
		return queries, nil
	}
	types := make(map[string]value.DataType)
	for _, c := range ct.Columns() {
		types[c.Name] = c.Type
	}
	rowIter, err := rowsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; rowIter.Next(); i++ {
		ins, err := compileRow(ref, types, fmt.Sprintf("%s.rows[%d]", path, i), rowIter.Value())
		if err != nil {
			return nil, err
		}
		queries = append(queries, ins)
	}
	return queries, nil
}

func parseColumn(path string, v cue.Value) (value.Column, error) {
	var col value.Column

	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return col, &CompileError{Field: path + ".name", Message: "column name is required", Pos: v.Pos()}
	}
	col.Name = name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	typeName, err := typeVal.String()
	if err != nil {
		return col, &CompileError{Field: path + ".type", Message: "column type is required", Pos: v.Pos()}
	}
	col.Type, err = value.ParseDataType(typeName)
	if err != nil {
		return col, &CompileError{Field: path + ".type", Message: err.Error(), Pos: typeVal.Pos()}
	}

	if nv := v.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
		col.Nullable, err = nv.Bool()
		if err != nil {
			return col, formatCUEError(err)
		}
	}
	return col, nil
}

func compileRow(ref ql.TableRef, types map[string]value.DataType, path string, v cue.Value) (ql.Insert, error) {
	b := ql.NewInsert().Into(ref)

	iter, err := v.Fields()
	if err != nil {
		return ql.Insert{}, formatCUEError(err)
	}
	for iter.Next() {
		column := iter.Selector().Unquoted()
		field := path + "." + column
		t, ok := types[column]
		if !ok {
			return ql.Insert{}, &CompileError{Field: field, Message: "column does not exist", Pos: iter.Value().Pos()}
		}
		raw, err := literal(iter.Value())
		if err != nil {
			return ql.Insert{}, &CompileError{Field: field, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		val, err := value.Coerce(t, raw)
		if err != nil {
			return ql.Insert{}, &CompileError{Field: field, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		b.Value(column, val)
	}
	return b.Build()
}

// literal extracts a concrete null, integer or string from v.
func literal(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.IntKind:
		return v.Int(nil)
	case cue.StringKind:
		return v.String()
	default:
		return nil, fmt.Errorf("unsupported literal kind %s", v.IncompleteKind())
	}
}

// formatCUEError converts the first CUE error into a positioned CompileError.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
