package qlparse

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Lexer splits statement text into tokens. Keyword matching is
// case-insensitive; identifier and string values keep their case.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a Lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken scans and returns the next token. At the end of input it keeps
// returning EOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: EOF, Position: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case ',':
		l.pos++
		return Token{Type: COMMA, Value: ",", Position: start}
	case ';':
		l.pos++
		return Token{Type: SEMICOLON, Value: ";", Position: start}
	case '.':
		l.pos++
		return Token{Type: DOT, Value: ".", Position: start}
	case '(':
		l.pos++
		return Token{Type: LPAREN, Value: "(", Position: start}
	case ')':
		l.pos++
		return Token{Type: RPAREN, Value: ")", Position: start}
	case '*':
		l.pos++
		return Token{Type: ASTERISK, Value: "*", Position: start}
	case '=', '<', '>', '!':
		return l.readOperator(start)
	case '\'':
		return l.readString(start)
	case '"':
		return l.readQuotedIdentifier(start)
	case '-':
		if l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
			l.pos++
			return l.readNumber(start)
		}
	}

	if isDigit(ch) {
		return l.readNumber(start)
	}
	if r, _ := utf8.DecodeRuneInString(l.input[l.pos:]); unicode.IsLetter(r) || r == '_' {
		return l.readIdentifier(start)
	}

	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	return Token{Type: INVALID, Value: l.input[start:l.pos], Position: start}
}

// Tokens scans the whole input, ending with (and including) EOF.
func (l *Lexer) Tokens() []Token {
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == EOF {
			return out
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *Lexer) readOperator(start int) Token {
	for l.pos < len(l.input) && strings.IndexByte("=<>!", l.input[l.pos]) >= 0 {
		l.pos++
	}
	return Token{Type: OPERATOR, Value: l.input[start:l.pos], Position: start}
}

// readString reads a single-quoted literal. A doubled quote stands for one
// quote character. An unterminated literal is INVALID.
func (l *Lexer) readString(start int) Token {
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\'' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				sb.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Type: STRING, Value: norm.NFC.String(sb.String()), Position: start}
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return Token{Type: INVALID, Value: l.input[start:], Position: start}
}

// readQuotedIdentifier reads a double-quoted identifier. Quoted identifiers
// are never keywords.
func (l *Lexer) readQuotedIdentifier(start int) Token {
	end := strings.IndexByte(l.input[start+1:], '"')
	if end < 0 {
		l.pos = len(l.input)
		return Token{Type: INVALID, Value: l.input[start:], Position: start}
	}
	name := l.input[start+1 : start+1+end]
	l.pos = start + end + 2
	if name == "" {
		return Token{Type: INVALID, Value: `""`, Position: start}
	}
	return Token{Type: IDENTIFIER, Value: norm.NFC.String(name), Position: start}
}

func (l *Lexer) readNumber(start int) Token {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: INT, Value: l.input[start:l.pos], Position: start}
}

func (l *Lexer) readIdentifier(start int) Token {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && !unicode.Is(unicode.Mn, r) {
			break
		}
		l.pos += size
	}
	word := l.input[start:l.pos]
	if kw, ok := keywords[strings.ToUpper(word)]; ok {
		return Token{Type: kw, Value: word, Position: start}
	}
	return Token{Type: IDENTIFIER, Value: norm.NFC.String(word), Position: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
