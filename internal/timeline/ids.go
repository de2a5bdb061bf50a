package timeline

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces clip ids unique within a timeline's lifetime
type IDGenerator interface {
	NextID() string
}

// UUIDs generates random v4 UUIDs
type UUIDs struct{}

func (UUIDs) NextID() string {
	return "clip-" + uuid.NewString()
}

var defaultIDs IDGenerator = UUIDs{}

// CounterIDs generates clip-1, clip-2, ... and is safe for concurrent use.
// Snapshots derived from one timeline share the counter, so ids never repeat
// across undo branches.
type CounterIDs struct {
	n atomic.Uint64
}

func NewCounterIDs() *CounterIDs {
	return &CounterIDs{}
}

func (c *CounterIDs) NextID() string {
	return fmt.Sprintf("clip-%d", c.n.Add(1))
}
