// control.go — Global stop/hot flags shared by the producer and pinned consumers
// ============================================================================
// PRODUCER/CONSUMER COORDINATION
// ============================================================================
//
// The producer marks itself hot while it is feeding a ring so consumers keep
// spinning; after cooldown of silence the flag drops and consumers back off.
// Shutdown raises stop, which every pinned consumer checks once per poll.
//
// Threading model:
//   • Producer calls SignalActivity() after each insert batch
//   • Consumers read *hot / *stop through the pointers from Flags()
//   • One consumer (the cooldown owner) calls PollCooldown() while idle
//   • Signal handler or harness calls Shutdown()
//
// All flag access goes through sync/atomic so flag pointers may be handed to
// goroutines on other cores.

package control

import (
	"sync/atomic"
	"time"
)

// ============================================================================
// GLOBAL STATE MANAGEMENT
// ============================================================================

var (
	hot  uint32 // 1 = producer active
	stop uint32 // 1 = shut down

	lastHot    int64                    // UnixNano of the last SignalActivity
	cooldownNs = int64(1 * time.Second) // Idle time before hot drops
)

// ============================================================================
// ACTIVITY SIGNALING
// ============================================================================

// SignalActivity marks the producer active and stamps the time.
func SignalActivity() {
	atomic.StoreInt64(&lastHot, time.Now().UnixNano())
	atomic.StoreUint32(&hot, 1)
}

// PollCooldown clears the hot flag once cooldown has elapsed since the last
// SignalActivity.
func PollCooldown() {
	if atomic.LoadUint32(&hot) == 1 &&
		time.Now().UnixNano()-atomic.LoadInt64(&lastHot) > atomic.LoadInt64(&cooldownNs) {
		atomic.StoreUint32(&hot, 0)
	}
}

// SetCooldown changes the idle period before hot drops.
func SetCooldown(d time.Duration) {
	atomic.StoreInt64(&cooldownNs, int64(d))
}

// ============================================================================
// SHUTDOWN
// ============================================================================

// Shutdown raises the stop flag for every consumer.
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Stopped reports whether Shutdown has been called.
func Stopped() bool {
	return atomic.LoadUint32(&stop) != 0
}

// Hot reports the activity flag.
func Hot() bool {
	return atomic.LoadUint32(&hot) == 1
}

// Reset clears both flags so a new run can start in the same process.
func Reset() {
	atomic.StoreUint32(&stop, 0)
	atomic.StoreUint32(&hot, 0)
	atomic.StoreInt64(&lastHot, 0)
}

// ============================================================================
// FLAG ACCESS
// ============================================================================

// Flags returns (*stop, *hot) for consumer.Pinned. Readers must use
// atomic.LoadUint32 on both.
func Flags() (*uint32, *uint32) {
	return &stop, &hot
}
