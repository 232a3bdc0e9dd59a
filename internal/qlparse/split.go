package qlparse

import "strings"

// Split breaks a script into statements on semicolons that are outside
// string literals and quoted identifiers. Lines starting with "--" are
// comments. Empty statements are dropped. Each statement keeps its text
// without the terminating semicolon.
func Split(script string) []string {
	var (
		stmts []string
		cur   strings.Builder
		quote byte
	)

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for _, line := range strings.SplitAfter(script, "\n") {
		if quote == 0 && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case quote != 0:
				if ch == quote {
					quote = 0
				}
			case ch == '\'' || ch == '"':
				quote = ch
			case ch == ';':
				flush()
				continue
			}
			cur.WriteByte(ch)
		}
	}
	flush()
	return stmts
}

// ParseScript splits a script and parses every statement with r.
//
// Statements are parsed up front, so literals in a statement that depends on
// an earlier one in the same script (an INSERT into a table the script
// creates) are typed without the new table. Callers that execute as they go
// should Split and Parse one statement at a time instead.
func ParseScript(script string, r Resolver) ([]Statement, error) {
	var out []Statement
	for _, text := range Split(script) {
		q, err := Parse(text, r)
		if err != nil {
			return out, &StatementError{Text: text, Err: err}
		}
		out = append(out, Statement{Text: text, Query: q})
	}
	return out, nil
}
