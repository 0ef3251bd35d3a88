// ============================================================================
// COUNTED SPSC REFERENCE RING
// ============================================================================
//
// Fixed-capacity circular queue of *Entry references passed between exactly
// one producing context (main loop) and one consuming context (interrupt
// handler or core-pinned goroutine). The ring never allocates after Init and
// never copies or frees the payload bytes an Entry points at.
//
// Architecture overview:
//   - Caller-owned backing storage, borrowed for the ring's lifetime
//   - Integer write/read cursors with wraparound, one owner each
//   - Single shared occupancy counter guarded by an injected critical section
//
// Safety model:
//   - ⚠️  Insert/Remove are UNCHECKED: callers must test IsFull/IsEmpty first
//   - Overflow overwrites a live slot, underflow wraps the counter to 65535
//   - TryInsert/TryRemove provide the checked variant at the cost of one
//     extra critical section per call
//   - SPSC discipline required: one Insert caller, one Remove caller
//
// Check-then-act protocol:
//   - Snapshot Count() once, then perform that many Remove() calls
//   - Snapshot FreeCount() once, then perform that many Insert() calls
//   - The snapshot is a lower bound for the consumer and an upper bound of
//     free space for the producer; the opposing context only ever improves it

package ring

// MaxCapacity bounds the ring size to the width of the occupancy counter.
const MaxCapacity = 1<<16 - 1

// ============================================================================
// CORE DATA STRUCTURES
// ============================================================================

// Entry references a payload owned elsewhere. Addr is a 16-bit address/tag;
// Payload aliases caller memory and is never retained beyond the slot.
type Entry struct {
	Addr    uint16 // Destination address or message tag
	Payload []byte // Non-owning view of externally managed bytes
}

// CriticalSection is the interrupt-disable/restore capability consumed by
// the ring. Enter returns an opaque state token that Exit restores, in the
// shape of irq_disable()/irq_restore(r).
//
// Every read and read-modify-write of the occupancy counter runs between
// Enter and Exit. Implementations must also establish a happens-before edge
// from Exit to the next Enter so slot writes are published to the consumer.
type CriticalSection interface {
	Enter() uint32
	Exit(state uint32)
}

// InsertHook observes a completed Insert from the producer context.
type InsertHook func(slot uint16, e *Entry)

// Ring is a counted single-producer/single-consumer circular buffer.
//
// Field ownership:
//   - in:    producer only
//   - out:   consumer only
//   - count: both, only inside cs
//
// Producer and consumer cursors sit on separate cache lines.
type Ring struct {
	buf  []*Entry       // Caller-owned slots
	cs   CriticalSection // Guards count
	hook InsertHook      // Optional observability hook
	size uint16          // Capacity, fixed at Init

	_  [56]byte
	in uint16 // Next slot to write (producer)

	_   [62]byte
	out uint16 // Next slot to read (consumer)

	_     [62]byte
	count uint16 // Occupied slots (shared)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// New allocates a ring header over storage. See Init.
func New(storage []*Entry, cs CriticalSection) *Ring {
	r := &Ring{}
	r.Init(storage, cs)
	return r
}

// Init binds the ring to storage and resets both cursors and the counter.
// Capacity is len(storage). Re-initialising discards pending references and
// is only legal while no other context touches the ring.
//
// Panics:
//   - len(storage) == 0 or len(storage) > MaxCapacity
//   - cs == nil: the counter must always be protected
func (r *Ring) Init(storage []*Entry, cs CriticalSection) {
	if len(storage) == 0 || len(storage) > MaxCapacity {
		panic("ring: capacity must be in [1, 65535]")
	}
	if cs == nil {
		panic("ring: nil critical section")
	}

	r.buf = storage
	r.cs = cs
	r.size = uint16(len(storage))
	r.in = 0
	r.out = 0
	r.count = 0
}

// SetInsertHook installs h (nil removes it). Call before the producer starts;
// the hook field is read without synchronisation on the insert path.
func (r *Ring) SetInsertHook(h InsertHook) {
	r.hook = h
}

// ============================================================================
// OCCUPANCY QUERIES (ADVISORY)
// ============================================================================

// Cap returns the fixed capacity.
func (r *Ring) Cap() uint16 {
	return r.size
}

// Count returns the occupancy counter. Under concurrent use the value is
// advisory: the opposing context may change it as soon as the critical
// section is left. Cache it across a batch instead of re-querying.
func (r *Ring) Count() uint16 {
	s := r.cs.Enter()
	n := r.count
	r.cs.Exit(s)
	return n
}

// FreeCount returns Cap() - Count(). Same caveat as Count.
func (r *Ring) FreeCount() uint16 {
	return r.size - r.Count()
}

// IsEmpty reports Count() == 0. Test before Remove.
func (r *Ring) IsEmpty() bool {
	return r.Count() == 0
}

// IsFull reports Count() == Cap(). Test before Insert.
func (r *Ring) IsFull() bool {
	return r.Count() == r.size
}

// ============================================================================
// PRODUCER OPERATIONS
// ============================================================================

// Insert stores e at the write cursor, advances it with wraparound and
// increments the counter.
//
// ⚠️  SAFETY REQUIREMENTS:
//   - Producer context only
//   - !IsFull() must hold; no capacity check is made and a full ring loses
//     its oldest unread reference silently
func (r *Ring) Insert(e *Entry) {
	slot := r.in
	r.buf[slot] = e
	if r.in++; r.in == r.size {
		r.in = 0
	}

	s := r.cs.Enter()
	r.count++
	r.cs.Exit(s)

	if r.hook != nil {
		r.hook(slot, e)
	}
}

// TryInsert is the checked Insert: it returns false and leaves the ring
// untouched when full.
func (r *Ring) TryInsert(e *Entry) bool {
	if r.IsFull() {
		return false
	}
	r.Insert(e)
	return true
}

// ============================================================================
// CONSUMER OPERATIONS
// ============================================================================

// Remove returns the reference at the read cursor, advances it with
// wraparound and decrements the counter.
//
// ⚠️  SAFETY REQUIREMENTS:
//   - Consumer context only
//   - !IsEmpty() must hold; an empty ring returns a stale slot and the
//     unsigned counter wraps, corrupting every later occupancy query
func (r *Ring) Remove() *Entry {
	e := r.buf[r.out]
	if r.out++; r.out == r.size {
		r.out = 0
	}

	s := r.cs.Enter()
	r.count--
	r.cs.Exit(s)

	return e
}

// TryRemove is the checked Remove: it returns (nil, false) when empty.
func (r *Ring) TryRemove() (*Entry, bool) {
	if r.IsEmpty() {
		return nil, false
	}
	return r.Remove(), true
}

// Peek returns the reference at the read cursor without consuming it.
// On an empty ring the result is whatever stale reference the slot holds.
func (r *Ring) Peek() *Entry {
	return r.buf[r.out]
}
