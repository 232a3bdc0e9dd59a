// Package testutil holds deterministic helpers for tests and golden output.
package testutil

import (
	"fmt"
	"sync"
)

// DefaultPrefix is the prefix used when NewSequenceGenerator gets "".
const DefaultPrefix = "exec"

// SequenceGenerator hands out execution ids of the form "<prefix>-0001",
// "<prefix>-0002", and so on.
//
// Unlike engine.FixedGenerator it never runs out, and it can be reset so the
// same scenario run twice yields identical ids.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator whose first id is "<prefix>-0001".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id. Implements engine.IDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Count returns how many ids have been generated since creation or Reset.
func (g *SequenceGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts the sequence. The next id is "<prefix>-0001" again.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
