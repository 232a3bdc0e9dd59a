package ql

import (
	"fmt"
	"strings"
)

// PublicSchema is the schema every cache starts with, and the schema a table
// reference resolves to when it names none.
const PublicSchema = "PUBLIC"

// Kind names a query variant.
type Kind string

const (
	KindCreateSchema Kind = "CREATE_SCHEMA"
	KindCreateTable  Kind = "CREATE_TABLE"
	KindSelect       Kind = "SELECT"
	KindInsert       Kind = "INSERT"
)

// Query is an immutable, validated description of one operation.
//
// This is a sealed interface - only types in this package implement it.
//
//	switch q := query.(type) {
//	case ql.CreateSchema:
//	case ql.CreateTable:
//	case ql.Select:
//	case ql.Insert:
//	}
type Query interface {
	Kind() Kind
	queryNode() // Sealed
}

// TableRef is a structured table reference. An empty Schema means PUBLIC.
type TableRef struct {
	Schema string
	Table  string
}

// SchemaName returns the schema the reference resolves in.
func (r TableRef) SchemaName() string {
	if r.Schema == "" {
		return PublicSchema
	}
	return r.Schema
}

// String renders the fully qualified reference, e.g. "PUBLIC.users".
func (r TableRef) String() string {
	return r.SchemaName() + "." + r.Table
}

// ParseTableRef parses "table", "schema.table", or the two-token
// "schema table" form. Surrounding whitespace is ignored.
func ParseTableRef(s string) (TableRef, error) {
	s = strings.TrimSpace(s)
	var parts []string
	if strings.Contains(s, ".") {
		parts = strings.Split(s, ".")
	} else {
		parts = strings.Fields(s)
	}

	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return TableRef{}, fmt.Errorf("invalid table reference %q", s)
		}
	}

	switch len(parts) {
	case 1:
		return TableRef{Table: parts[0]}, nil
	case 2:
		return TableRef{Schema: parts[0], Table: parts[1]}, nil
	default:
		return TableRef{}, fmt.Errorf("invalid table reference %q", s)
	}
}
