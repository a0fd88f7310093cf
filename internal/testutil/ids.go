package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out "n1", "n2", ... for deterministic node ids.
//
// Implements engine.IDGenerator.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialIDs creates a generator. An empty prefix means "n".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "n"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s%d", g.prefix, g.seq)
}

// Reset restarts the sequence so the next id is prefix+"1".
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
