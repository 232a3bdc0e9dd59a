// Package qlerr defines the error taxonomy shared by every qlcache package.
//
// All failures returned to callers are *Error values carrying a Code that
// callers match on. Errors may be wrapped with fmt.Errorf("...: %w", err);
// the predicates below use errors.As and see through wrapping.
//
// Kinds:
//   - Validation: REQUIRED_FIELD_IS_NONE, NO_FIRST_CONSTRAINT,
//     VEC_CANNOT_BE_EMPTY, PRIMARY_KEY_ALREADY_SET, SYNTAX_ERROR
//   - Existence: RELATION_ALREADY_EXISTS, RELATION_DOES_NOT_EXIST,
//     COLUMN_DOES_NOT_EXIST, ROW_DOES_NOT_EXIST
//   - Domain: INCOMPATIBLE_TYPES, TYPE_MISMATCH, NULL_VIOLATION
package qlerr

import (
	"errors"
	"fmt"
)

// Code categorizes an Error.
type Code string

const (
	// CodeRequiredFieldIsNone indicates a builder was built without a required field.
	CodeRequiredFieldIsNone Code = "REQUIRED_FIELD_IS_NONE"

	// CodeNoFirstConstraint indicates And/Or was chained before any constraint was set.
	CodeNoFirstConstraint Code = "NO_FIRST_CONSTRAINT"

	// CodeVecCannotBeEmpty indicates an empty list where at least one element is required.
	CodeVecCannotBeEmpty Code = "VEC_CANNOT_BE_EMPTY"

	// CodePrimaryKeyAlreadySet indicates a second primary key was set on a table builder.
	CodePrimaryKeyAlreadySet Code = "PRIMARY_KEY_ALREADY_SET"

	// CodeDuplicateColumn indicates a column declared twice in one table.
	CodeDuplicateColumn Code = "DUPLICATE_COLUMN"

	// CodeColumnDoesNotExist indicates a reference to an undeclared column.
	CodeColumnDoesNotExist Code = "COLUMN_DOES_NOT_EXIST"

	// CodeRelationAlreadyExists indicates a schema or table name collision.
	CodeRelationAlreadyExists Code = "RELATION_ALREADY_EXISTS"

	// CodeRelationDoesNotExist indicates a schema or table lookup miss.
	CodeRelationDoesNotExist Code = "RELATION_DOES_NOT_EXIST"

	// CodeRowDoesNotExist indicates a row id lookup miss.
	CodeRowDoesNotExist Code = "ROW_DOES_NOT_EXIST"

	// CodeIncompatibleTypes indicates an ordering comparison across value variants.
	CodeIncompatibleTypes Code = "INCOMPATIBLE_TYPES"

	// CodeTypeMismatch indicates a value that does not match its column's declared type.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodeNullViolation indicates a null (or missing) value for a non-nullable column.
	CodeNullViolation Code = "NULL_VIOLATION"

	// CodeSyntaxError indicates a statement the text front end could not parse.
	CodeSyntaxError Code = "SYNTAX_ERROR"
)

// Error is the single failure type of the cache.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Name is the offending identifier (field, schema, table or column), if any.
	Name string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NameOf returns the Name of the first *Error in err's chain, or "" if none.
func NameOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Name
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsValidation reports whether err is a builder or parser validation failure.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case CodeRequiredFieldIsNone, CodeNoFirstConstraint, CodeVecCannotBeEmpty,
		CodePrimaryKeyAlreadySet, CodeDuplicateColumn, CodeSyntaxError:
		return true
	}
	return false
}

// IsExistence reports whether err is an existence failure.
func IsExistence(err error) bool {
	switch CodeOf(err) {
	case CodeRelationAlreadyExists, CodeRelationDoesNotExist,
		CodeColumnDoesNotExist, CodeRowDoesNotExist:
		return true
	}
	return false
}

// RequiredFieldIsNone reports a missing builder field, e.g. "Select.table".
func RequiredFieldIsNone(field string) *Error {
	return &Error{Code: CodeRequiredFieldIsNone, Message: "required field is not set", Name: field}
}

// NoFirstConstraint reports And/Or chained with no base constraint.
func NoFirstConstraint() *Error {
	return &Error{Code: CodeNoFirstConstraint, Message: "no first constraint found before and/or"}
}

// VecCannotBeEmpty reports an empty list, e.g. "SortBy.columns".
func VecCannotBeEmpty(name string) *Error {
	return &Error{Code: CodeVecCannotBeEmpty, Message: "list cannot be empty", Name: name}
}

// PrimaryKeyAlreadySet reports a second primary key on a table builder.
func PrimaryKeyAlreadySet(existing string) *Error {
	return &Error{Code: CodePrimaryKeyAlreadySet, Message: "primary key already set", Name: existing}
}

// DuplicateColumn reports a column name declared more than once.
func DuplicateColumn(column string) *Error {
	return &Error{Code: CodeDuplicateColumn, Message: "column declared more than once", Name: column}
}

// ColumnDoesNotExist reports an undeclared column.
func ColumnDoesNotExist(column string) *Error {
	return &Error{Code: CodeColumnDoesNotExist, Message: "column does not exist", Name: column}
}

// RelationAlreadyExists reports a schema or table that already exists.
func RelationAlreadyExists(name string) *Error {
	return &Error{Code: CodeRelationAlreadyExists, Message: "relation already exists", Name: name}
}

// RelationDoesNotExist reports a schema or table that could not be resolved.
func RelationDoesNotExist(name string) *Error {
	return &Error{Code: CodeRelationDoesNotExist, Message: "relation does not exist", Name: name}
}

// RowDoesNotExist reports a missing row id.
func RowDoesNotExist(id uint64) *Error {
	return &Error{Code: CodeRowDoesNotExist, Message: "row does not exist", Name: fmt.Sprintf("%d", id)}
}

// IncompatibleTypes reports an ordering comparison between different variants.
func IncompatibleTypes(left, right string) *Error {
	return &Error{
		Code:    CodeIncompatibleTypes,
		Message: fmt.Sprintf("cannot order %s against %s", left, right),
	}
}

// TypeMismatch reports a value whose type differs from the column's declared type.
func TypeMismatch(column, want, got string) *Error {
	return &Error{
		Code:    CodeTypeMismatch,
		Message: fmt.Sprintf("expected %s, got %s", want, got),
		Name:    column,
	}
}

// NullViolation reports a null or missing value for a non-nullable column.
func NullViolation(column string) *Error {
	return &Error{Code: CodeNullViolation, Message: "column is not nullable", Name: column}
}

// SyntaxError reports a parse failure at a byte offset of the statement.
func SyntaxError(pos int, format string, args ...any) *Error {
	return &Error{
		Code:    CodeSyntaxError,
		Message: fmt.Sprintf("at offset %d: %s", pos, fmt.Sprintf(format, args...)),
	}
}
