package dataapi

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// IndexBudget tracks the cluster-wide secondary-index ordinal budget
// (database.indexes_available_per_database) as a bitmap of allocated
// ordinals, so CreateCollection/DropCollection can claim and release a
// contiguous-free-search worth of index slots without scanning every
// collection's index list on each check.
type IndexBudget struct {
	mu        sync.Mutex
	allocated *roaring.Bitmap
	capacity  uint32
}

func NewIndexBudget(capacity int) *IndexBudget {
	return &IndexBudget{allocated: roaring.New(), capacity: uint32(capacity)}
}

// Allocate reserves n free ordinals and returns them, or fails with
// TOO_MANY_INDEXES if the budget cannot fit them.
func (b *IndexBudget) Allocate(n int) ([]uint32, *APIError) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if uint32(b.allocated.GetCardinality())+uint32(n) > b.capacity {
		return nil, newAPIError(ErrTooManyIndexes,
			"cannot allocate %d more indexes: %d of %d already in use",
			n, b.allocated.GetCardinality(), b.capacity)
	}

	ordinals := make([]uint32, 0, n)
	var ord uint32
	for len(ordinals) < n {
		if ord >= b.capacity {
			return nil, newAPIError(ErrTooManyIndexes, "index budget exhausted")
		}
		if !b.allocated.Contains(ord) {
			b.allocated.Add(ord)
			ordinals = append(ordinals, ord)
		}
		ord++
	}
	return ordinals, nil
}

// Release returns ordinals to the free pool, used on DropCollection.
func (b *IndexBudget) Release(ordinals []uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range ordinals {
		b.allocated.Remove(o)
	}
}

func (b *IndexBudget) InUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.allocated.GetCardinality())
}
