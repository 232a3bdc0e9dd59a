// Package engine executes validated queries against the cache.
//
// Execute is the single entry point. It dispatches on the query variant:
//
//	ql.CreateSchema  → catalog.Cache.CreateSchema
//	ql.CreateTable   → catalog.Cache.CreateTable
//	ql.Insert        → catalog.Table.Insert
//	ql.Select        → resolve, snapshot, filter, stable sort, project
//
// Every query is an independent request/response; the engine keeps no
// per-query state beyond the cache itself. Execute is safe to call from any
// number of goroutines.
//
// Select pipeline:
//  1. Resolve the schema, then the table (RELATION_DOES_NOT_EXIST names the
//     missing segment). Projection and sort columns must be declared
//     (COLUMN_DOES_NOT_EXIST).
//  2. Take a snapshot of the table's rows in row id order.
//  3. Keep rows whose constraint computes true, preserving snapshot order.
//  4. Stable-sort by the sort columns. Null sorts before any value; ties keep
//     snapshot order in both directions.
//  5. Project: full rows for Everything, the named columns in the requested
//     order for Fields.
//
// Any lookup failure aborts the query with no partial result. Constraint
// evaluation never fails.
//
// Each execution is stamped with an execution id (IDGenerator) and a
// monotonic sequence number (Clock), both carried on the Result and in the
// debug log line.
package engine
