// Package sequence allocates daily sequence numbers for UBRN generation.
//
// The contract: Next returns integers that are unique and monotonically
// non-decreasing per (region, district, day) key for the lifetime of the
// backing store. Two near-simultaneous finalizations for the same district on
// the same day must never receive the same number, so every backend performs
// an atomic read-modify-write.
package sequence

import (
	"context"
	"fmt"
	"time"
)

// Allocator hands out the next sequence number for a district on a given day.
type Allocator interface {
	Next(ctx context.Context, region int, district string, day time.Time) (int, error)
}

// Key renders the canonical allocator key for a (region, district, day)
// triple, e.g. "01:027:25015".
func Key(region int, district string, day time.Time) string {
	return fmt.Sprintf("%02d:%s:%s%03d", region, district, day.Format("06"), day.YearDay())
}
