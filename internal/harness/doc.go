// Package harness runs YAML scenarios against a fresh cache and checks
// results, assertions and golden traces.
//
// # Scenario Format
//
//	name: users_filter
//	description: "Filtering and sorting users"
//	defs: defs/users.cue            # optional, relative to the scenario file
//	setup:
//	  - CREATE SCHEMA app
//	  - CREATE TABLE app.users (id U64 PRIMARY KEY, name TEXT)
//	steps:
//	  - query: INSERT INTO app.users (id, name) VALUES (1, 'ada')
//	  - query: SELECT name FROM app.users WHERE id = 1
//	    expect:
//	      columns: [name]
//	      rows:
//	        - {name: ada}
//	  - query: SELECT nope FROM app.users
//	    expect:
//	      error: COLUMN_DOES_NOT_EXIST
//	assertions:
//	  - type: trace_count
//	    kind: SELECT
//	    count: 2
//	  - type: final_state
//	    table: app.users
//	    where: {id: 1}
//	    expect: {name: ada}
//
// Setup entries may hold several statements separated by semicolons; every
// one must succeed. Each step holds exactly one statement and is checked
// against its optional expect clause.
//
// # Assertion Types
//
//   - trace_count: exactly count statements of kind executed successfully
//   - trace_order: the first successful statements of each listed kind
//     appear in the listed order
//   - final_state: a query over the SQLite mirror of the final cache state;
//     with count, the number of rows matching where; with expect, exactly one
//     row matches where and holds the expected values
//
// # Determinism
//
// Every run uses a new engine whose execution ids come from
// testutil.SequenceGenerator, so the same scenario always produces the same
// trace. RunWithGolden compares that trace with a golden file.
package harness
