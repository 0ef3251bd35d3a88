// ════════════════════════════════════════════════════════════════════════════════════════════════
// CRITICAL-SECTION PRIMITIVES
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Interrupt-Mask Equivalents for Goroutine Contexts
//
// Description:
//   Firmware protects a shared counter by disabling interrupts and restoring the previous
//   mask afterwards. In Go the two contexts are goroutines, so the mask becomes a lock.
//   Every type here satisfies ring.CriticalSection: Enter returns a state token, Exit
//   restores it.
//
// Variants:
//   - Mutex: sync.Mutex backed, parks under contention. Default for ordinary goroutines.
//   - Spin:  atomic test-and-set with cpu.Relax; for core-pinned contexts that must not park.
//   - None:  no protection at all. Single-context use only.
//
// Nesting:
//   Sections do not nest. Enter twice from the same context deadlocks Mutex and Spin.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package irq

import (
	"runtime"
	"sync"
	"sync/atomic"

	"isrqueue/cpu"
)

// spinBudget is the number of failed acquisitions before yielding the P.
const spinBudget = 128

// Kind names a critical-section implementation for configuration.
type Kind string

const (
	KindMutex Kind = "mutex"
	KindSpin  Kind = "spin"
	KindNone  Kind = "none"
)

// Section is the common surface of every primitive in this package.
type Section interface {
	Enter() uint32
	Exit(state uint32)
	Entries() uint64
}

// New returns the primitive named by k, or nil for an unknown kind.
func New(k Kind) Section {
	switch k {
	case KindMutex:
		return &Mutex{}
	case KindSpin:
		return &Spin{}
	case KindNone:
		return &None{}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MUTEX
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Mutex masks the opposing context with a sync.Mutex. The zero value is ready.
type Mutex struct {
	mu      sync.Mutex
	entries atomic.Uint64
}

// Enter acquires the section. The token is always 0.
func (m *Mutex) Enter() uint32 {
	m.mu.Lock()
	m.entries.Add(1)
	return 0
}

// Exit releases the section.
func (m *Mutex) Exit(uint32) {
	m.mu.Unlock()
}

// Entries reports how many sections have been entered.
func (m *Mutex) Entries() uint64 {
	return m.entries.Load()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SPIN
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Spin is a test-and-test-and-set lock. The token returned by Enter is the
// number of failed attempts, which Exit ignores; callers may log it to spot
// contention. The zero value is ready.
type Spin struct {
	state   atomic.Uint32
	entries atomic.Uint64
}

// Enter spins until the section is acquired.
func (s *Spin) Enter() uint32 {
	var miss uint32
	for {
		if s.state.Load() == 0 && s.state.CompareAndSwap(0, 1) {
			s.entries.Add(1)
			return miss
		}
		miss++
		if miss%spinBudget == 0 {
			runtime.Gosched()
			continue
		}
		cpu.Relax()
	}
}

// Exit releases the section.
func (s *Spin) Exit(uint32) {
	s.state.Store(0)
}

// Entries reports how many sections have been entered.
func (s *Spin) Entries() uint64 {
	return s.entries.Load()
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// NONE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// None performs no masking.
//
// ⚠️  Only for rings touched by a single goroutine (REPL, unit tests). With two
// contexts the counter update is a plain read-modify-write race.
type None struct {
	entries uint64
}

// Enter counts the section and returns 0.
func (n *None) Enter() uint32 {
	n.entries++
	return 0
}

// Exit does nothing.
func (n *None) Exit(uint32) {}

// Entries reports how many sections have been entered.
func (n *None) Entries() uint64 {
	return n.entries
}
