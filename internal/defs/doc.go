// Package defs loads declarative cache definitions written in CUE and
// compiles them into queries.
//
// A definitions file declares schemas, their tables, and optional seed rows:
//
//	schema: app: table: users: {
//		primary_key: "id"
//		columns: [
//			{name: "id", type: "U64"},
//			{name: "name", type: "TEXT", nullable: true},
//		]
//		rows: [{id: 1, name: "ada"}]
//	}
//
// Columns are a list so declaration order survives. Compilation yields, in
// declaration order, one CreateSchema (IF NOT EXISTS) per schema, one
// CreateTable per table and one Insert per seed row. Applying the queries is
// left to the caller.
package defs
