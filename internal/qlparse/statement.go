package qlparse

import (
	"fmt"

	"github.com/roach88/qlcache/internal/ql"
)

// Statement is a parsed statement together with its source text.
type Statement struct {
	Text  string
	Query ql.Query
}

// StatementError attributes a parse failure to the statement it came from.
type StatementError struct {
	Text string
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %v", e.Text, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}
