// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ CORE-PINNED CONSUMER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Interrupt-Side Drain Loop
//
// Description:
//   Plays the interrupt-handler role for a ring.Ring: a goroutine locked to an OS thread,
//   pinned to one core, draining the ring with the check-then-act protocol. The occupancy
//   counter is read once per batch; exactly that many Remove calls follow, so the consumer
//   never underflows and never re-enters the critical section inside a batch.
//
// Adaptive Behavior:
//   - Hot mode: tight polling while the producer is active or a batch arrived recently
//   - Cool mode: cpu.Relax on every empty poll
//   - Both modes yield the P every spinBudget empty polls
//   - Cooldown owner variant also drives control.PollCooldown
//
// Thread lifetime:
//   A pinned loop exits still locked to its OS thread, so the runtime destroys the thread
//   instead of returning a core-restricted one to its pool.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package consumer

import (
	"runtime"
	"sync/atomic"
	"time"

	"isrqueue/control"
	"isrqueue/cpu"
	"isrqueue/debug"
	"isrqueue/ring"
	"isrqueue/utils"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CONFIGURATION CONSTANTS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

const (
	// hotWindow keeps the consumer spinning after the last batch.
	hotWindow = 5 * time.Second

	// spinBudget is the number of empty polls between scheduler yields.
	spinBudget = 224
)

// Handler processes one removed entry. The entry and its payload belong to
// the producer side; a handler that keeps them must copy.
type Handler func(e *ring.Entry)

// BatchObserver receives the size of every non-empty drain pass.
type BatchObserver func(n int)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SINGLE PASS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Drain snapshots r.Count() once and removes exactly that many entries.
// Returns the number handled. Consumer context only.
func Drain(r *ring.Ring, handler Handler) int {
	n := r.Count()
	for i := n; i > 0; i-- {
		handler(r.Remove())
	}
	return int(n)
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PINNED CONSUMERS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Pinned launches the drain loop on core. It exits when *stop becomes
// non-zero, after one last drain so entries inserted before shutdown are not
// stranded, and then closes done.
//
// PARAMETERS:
//   - core: CPU index, negative to skip pinning
//   - r: ring to consume; this goroutine becomes its only consumer
//   - stop, hot: flags from control.Flags (read atomically)
//   - handler: per-entry callback
//   - onBatch: optional batch-size observer, may be nil
//   - done: closed on exit
func Pinned(core int, r *ring.Ring, stop, hot *uint32, handler Handler, onBatch BatchObserver, done chan<- struct{}) {
	go loop(core, r, stop, hot, handler, onBatch, false, done)
}

// PinnedWithCooldown is Pinned plus ownership of control.PollCooldown while
// idle. Exactly one consumer per process should use it.
func PinnedWithCooldown(core int, r *ring.Ring, stop, hot *uint32, handler Handler, onBatch BatchObserver, done chan<- struct{}) {
	go loop(core, r, stop, hot, handler, onBatch, true, done)
}

func loop(core int, r *ring.Ring, stop, hot *uint32, handler Handler, onBatch BatchObserver, cooldown bool, done chan<- struct{}) {
	runtime.LockOSThread()
	pinned := core >= 0
	if err := cpu.Pin(core); err != nil {
		debug.DropError("PIN core "+utils.Itoa(core), err)
		pinned = false
	}

	defer func() {
		if !pinned {
			runtime.UnlockOSThread()
		}
		close(done)
	}()

	var miss int
	lastHit := time.Now()

	for {
		if atomic.LoadUint32(stop) != 0 {
			if n := Drain(r, handler); n > 0 && onBatch != nil {
				onBatch(n)
			}
			return
		}

		if n := Drain(r, handler); n > 0 {
			if onBatch != nil {
				onBatch(n)
			}
			miss = 0
			lastHit = time.Now()
			continue
		}

		if cooldown {
			control.PollCooldown()
		}

		if atomic.LoadUint32(hot) == 0 && time.Since(lastHit) > hotWindow {
			cpu.Relax()
		}

		// Yield in both modes: a producer sharing this core only refills
		// the ring when it gets the P back.
		if miss++; miss >= spinBudget {
			miss = 0
			runtime.Gosched()
		}
	}
}
