package testutil

import (
	"fmt"
	"sync"
)

// CountingGenerator hands out subscription handles "<prefix>-1",
// "<prefix>-2", ... and never runs out, unlike track.FixedGenerator.
// It implements track.HandleGenerator.
type CountingGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewCountingGenerator creates a generator. An empty prefix means "sub".
func NewCountingGenerator(prefix string) *CountingGenerator {
	if prefix == "" {
		prefix = "sub"
	}
	return &CountingGenerator{prefix: prefix}
}

// Generate returns the next handle.
func (g *CountingGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
