package sequence

import (
	"context"
	"sync"
	"time"
)

// MemoryAllocator is a process-local allocator for tests and single-node
// development. It does not survive restarts and must not be used where two
// gateway instances share a district.
type MemoryAllocator struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemory constructs an empty in-memory allocator.
func NewMemory() *MemoryAllocator {
	return &MemoryAllocator{counts: make(map[string]int)}
}

func (a *MemoryAllocator) Next(_ context.Context, region int, district string, day time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := Key(region, district, day)
	a.counts[key]++
	return a.counts[key], nil
}
