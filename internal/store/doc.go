// Package store mirrors the cache into SQLite.
//
// The cache itself is memory-only. Export writes a point-in-time copy of
// cache tables into a SQLite file so the data can be inspected with ordinary
// tools, and Select runs a ql.Select against that copy through the querysql
// compiler. Running the same Select in both places must give the same rows in
// the same order; the store tests check exactly that.
//
// Layout:
//   - one SQLite table per cache table, named "schema.table", with a
//     "_rowid" INTEGER PRIMARY KEY holding the cache row id followed by the
//     declared columns in order;
//   - qlcache_tables and qlcache_columns describing the declarations
//     (see schema.sql).
//
// Values use the querysql encoding: INTEGER for integer types that fit in
// int64, order-preserving zero-padded decimal TEXT for U64, I128 and U128.
package store
