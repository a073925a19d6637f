// Package ids hands out the small integer IDs shared by actors and map props
// within a room. Actors and props draw from the same pool so their IDs never
// overlap on the wire.
package ids

import "sync"

// Assigner allocates monotonically increasing IDs and recycles freed ones.
// Freed IDs are reused oldest-first, so clients must never assume IDs are
// monotonic across the life of a room.
type Assigner struct {
	mu    sync.Mutex
	next  int
	freed []int
}

// NewAssigner returns an empty assigner starting at ID 0.
func NewAssigner() *Assigner {
	return &Assigner{}
}

// Alloc returns the next available ID.
func (a *Assigner) Alloc() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.freed) > 0 {
		id := a.freed[0]
		a.freed = a.freed[1:]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Free returns an ID to the pool for reuse.
func (a *Assigner) Free(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freed = append(a.freed, id)
}

// NumAllocated reports how many IDs are currently live.
func (a *Assigner) NumAllocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next - len(a.freed)
}
