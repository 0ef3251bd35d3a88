// ============================================================================
// PINNED CONSUMER LIFECYCLE VALIDATION SUITE
// ============================================================================
//
// Test categories:
//   - Drain: snapshot semantics and FIFO delivery
//   - Delivery: entries produced while the consumer runs arrive in order
//   - Shutdown: stop flag terminates the loop and closes done
//   - Final drain: entries queued before stop are still delivered
//   - Cooldown variant: hot flag drops while the consumer idles

package consumer

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"isrqueue/control"
	"isrqueue/irq"
	"isrqueue/ring"
)

// ============================================================================
// TEST UTILITIES
// ============================================================================

const testTimeout = 5 * time.Second

type consumerTestState struct {
	ring    *ring.Ring
	stop    *uint32
	hot     *uint32
	done    chan struct{}
	got     []*ring.Entry
	batches atomic.Int64
	calls   atomic.Int64
}

func newConsumerTestState(capacity int) *consumerTestState {
	return &consumerTestState{
		ring: ring.New(make([]*ring.Entry, capacity), &irq.Mutex{}),
		stop: new(uint32),
		hot:  new(uint32),
		done: make(chan struct{}),
	}
}

// handler appends to got; only the consumer goroutine touches got until done closes.
func (s *consumerTestState) handler(e *ring.Entry) {
	s.got = append(s.got, e)
	s.calls.Add(1)
}

func (s *consumerTestState) observe(n int) {
	s.batches.Add(int64(n))
}

func (s *consumerTestState) shutdown(t *testing.T) {
	t.Helper()
	atomic.StoreUint32(s.stop, 1)
	select {
	case <-s.done:
	case <-time.After(testTimeout):
		t.Fatal("consumer did not stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

// ============================================================================
// DRAIN
// ============================================================================

func TestDrainSnapshot(t *testing.T) {
	r := ring.New(make([]*ring.Entry, 4), &irq.None{})
	es := []*ring.Entry{{Addr: 1}, {Addr: 2}, {Addr: 3}}
	for _, e := range es {
		r.Insert(e)
	}

	var got []*ring.Entry
	if n := Drain(r, func(e *ring.Entry) { got = append(got, e) }); n != 3 {
		t.Fatalf("Drain = %d, want 3", n)
	}
	for i := range es {
		if got[i] != es[i] {
			t.Fatalf("entry %d out of order", i)
		}
	}
	if !r.IsEmpty() {
		t.Fatal("ring should be empty after Drain")
	}
	if n := Drain(r, func(*ring.Entry) { t.Fatal("handler on empty ring") }); n != 0 {
		t.Fatalf("Drain on empty = %d", n)
	}
}

// ============================================================================
// DELIVERY
// ============================================================================

func TestPinnedDeliversInOrder(t *testing.T) {
	const total = 5000
	s := newConsumerTestState(8)
	Pinned(0, s.ring, s.stop, s.hot, s.handler, s.observe, s.done)

	es := make([]*ring.Entry, total)
	for i := range es {
		es[i] = &ring.Entry{Addr: uint16(i)}
	}
	for i := 0; i < total; {
		free := s.ring.FreeCount()
		if free == 0 {
			runtime.Gosched()
			continue
		}
		for ; free > 0 && i < total; free-- {
			s.ring.Insert(es[i])
			i++
		}
	}

	waitFor(t, func() bool { return s.calls.Load() == total })
	s.shutdown(t)

	for i := range es {
		if s.got[i] != es[i] {
			t.Fatalf("entry %d: got addr %d, want %d", i, s.got[i].Addr, es[i].Addr)
		}
	}
	if s.batches.Load() != total {
		t.Fatalf("batch observer saw %d entries, want %d", s.batches.Load(), total)
	}
}

// ============================================================================
// SHUTDOWN
// ============================================================================

func TestPinnedStopsOnFlag(t *testing.T) {
	s := newConsumerTestState(4)
	Pinned(-1, s.ring, s.stop, s.hot, s.handler, nil, s.done)
	s.shutdown(t)
	if s.calls.Load() != 0 {
		t.Fatal("no entries were produced")
	}
}

func TestPinnedFinalDrain(t *testing.T) {
	s := newConsumerTestState(4)
	atomic.StoreUint32(s.stop, 1) // stop before launch: loop goes straight to the final pass

	s.ring.Insert(&ring.Entry{Addr: 1})
	s.ring.Insert(&ring.Entry{Addr: 2})
	Pinned(-1, s.ring, s.stop, s.hot, s.handler, nil, s.done)

	select {
	case <-s.done:
	case <-time.After(testTimeout):
		t.Fatal("consumer did not exit")
	}
	if len(s.got) != 2 || s.got[0].Addr != 1 || s.got[1].Addr != 2 {
		t.Fatalf("final drain delivered %v", s.got)
	}
}

// ============================================================================
// COOLDOWN VARIANT
// ============================================================================

func TestPinnedWithCooldownClearsHot(t *testing.T) {
	control.Reset()
	control.SetCooldown(5 * time.Millisecond)
	defer control.SetCooldown(time.Second)

	stop, hot := control.Flags()
	done := make(chan struct{})
	r := ring.New(make([]*ring.Entry, 4), &irq.Spin{})

	control.SignalActivity()
	PinnedWithCooldown(-1, r, stop, hot, func(*ring.Entry) {}, nil, done)

	waitFor(t, func() bool { return !control.Hot() })

	control.Shutdown()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("cooldown consumer did not stop")
	}
	control.Reset()
}
