package qlparse

import "fmt"

// TokenType classifies a lexical token.
type TokenType int

const (
	EOF TokenType = iota
	INVALID

	IDENTIFIER
	INT
	STRING
	OPERATOR

	COMMA
	SEMICOLON
	DOT
	LPAREN
	RPAREN
	ASTERISK

	CREATE
	SCHEMA
	TABLE
	IF
	NOT
	EXISTS
	NULL
	PRIMARY
	KEY
	INSERT
	INTO
	VALUES
	SELECT
	FROM
	WHERE
	SORT
	ORDER
	BY
	ASC
	DESC
	AND
	OR
)

var tokenNames = map[TokenType]string{
	EOF:        "end of input",
	INVALID:    "invalid token",
	IDENTIFIER: "identifier",
	INT:        "integer",
	STRING:     "string",
	OPERATOR:   "operator",
	COMMA:      "','",
	SEMICOLON:  "';'",
	DOT:        "'.'",
	LPAREN:     "'('",
	RPAREN:     "')'",
	ASTERISK:   "'*'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for word, kw := range keywords {
		if kw == t {
			return word
		}
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// keywords maps upper-case keywords to their token types.
var keywords = map[string]TokenType{
	"CREATE":  CREATE,
	"SCHEMA":  SCHEMA,
	"TABLE":   TABLE,
	"IF":      IF,
	"NOT":     NOT,
	"EXISTS":  EXISTS,
	"NULL":    NULL,
	"PRIMARY": PRIMARY,
	"KEY":     KEY,
	"INSERT":  INSERT,
	"INTO":    INTO,
	"VALUES":  VALUES,
	"SELECT":  SELECT,
	"FROM":    FROM,
	"WHERE":   WHERE,
	"SORT":    SORT,
	"ORDER":   ORDER,
	"BY":      BY,
	"ASC":     ASC,
	"DESC":    DESC,
	"AND":     AND,
	"OR":      OR,
}

// Token is one lexeme. Position is the byte offset of its first character.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

func (t Token) describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("'%s'", t.Value)
	default:
		return fmt.Sprintf("%q", t.Value)
	}
}
