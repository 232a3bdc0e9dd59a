// Package catalog holds the cache hierarchy: Cache → Schema → Table → rows.
//
// Every level is independently safe for concurrent use:
//   - the schema map of a Cache and the table map of a Schema are sync.Maps,
//     so creation is an atomic check-and-insert per name (LoadOrStore) and
//     unrelated names never contend;
//   - each Table guards its own row tree with a RWMutex that is held only for
//     the duration of a single tree operation.
//
// No lock spans more than one level. Cross-level operations resolve the
// schema first, then the table.
//
// Rows are immutable once stored. Updates replace the whole row value, so a
// reader holding a snapshot never observes a row with columns from two
// versions.
package catalog
