// Package qlparse translates statement text into ql queries.
//
// Grammar (keywords are case-insensitive, identifiers are case-sensitive and
// may be double-quoted):
//
//	CREATE SCHEMA [IF NOT EXISTS] name
//	CREATE TABLE [IF NOT EXISTS] [schema.]name (
//	    col TYPE [NULL | NOT NULL] [PRIMARY KEY] {, ...}
//	    [, PRIMARY KEY (col)] )
//	INSERT INTO [schema.]name (col {, col}) VALUES (lit {, lit})
//	SELECT * | col {, col} FROM [schema.]name
//	    [WHERE expr] [SORT BY col {, col} [ASC | DESC]]
//
//	expr   := term {OR term}
//	term   := factor {AND factor}
//	factor := NOT factor | ( expr ) | col op lit
//	op     := = | < | > | <= | >=
//	lit    := integer | 'text' | NULL
//
// ORDER BY is accepted as a synonym of SORT BY. Columns are nullable unless
// declared NOT NULL or chosen as the primary key.
//
// Literals are typed against the target column through a Resolver. Without
// one, or when the column is unknown, integers become I64 and strings TEXT.
// Identifiers and string literals are NFC-normalized.
//
// Malformed input fails with SYNTAX_ERROR carrying the byte offset. Builder
// validation failures (e.g. PRIMARY_KEY_ALREADY_SET) are returned as-is.
package qlparse
