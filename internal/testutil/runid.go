package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SequentialRunIDs generates predictable run IDs
// 00000000-0000-0000-0000-000000000001, ...02 and so on.
//
// Reset restarts the sequence so the same scenario can run twice with
// identical IDs.
type SequentialRunIDs struct {
	mu  sync.Mutex
	seq uint64
}

// Next returns the next run ID.
func (g *SequentialRunIDs) Next() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012x", g.seq))
}

// Reset restarts the sequence at 1.
func (g *SequentialRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
