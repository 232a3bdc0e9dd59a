// Package ql defines the query objects of the cache and the builders that
// produce them.
//
// Query is a sealed interface implemented by CreateSchema, CreateTable,
// Select and Insert. Query values are immutable: their fields are unexported
// and every accessor returns a copy, so a built query may be shared across
// goroutines without synchronization.
//
// A query can only be obtained from a builder's Build method, which checks
// required fields in a fixed order and reports the first one missing as
// REQUIRED_FIELD_IS_NONE (e.g. "Select.table" before "Select.scope").
// Builders are plain data accumulators and never touch the cache.
//
// Entry points:
//
//	ql.NewCreateSchema().Name("S").IfNotExist().Build()
//	ql.NewCreateTable().Name("T").Column("id", value.TypeU64, true).PrimaryKey("id")
//	ql.NewSelect().Table("T").Everything().Constraint(c).Build()
//	ql.NewInsert().Table("T").Value("id", value.U64(1)).Build()
//
// Builders are not safe for concurrent use.
package ql
