// ============================================================================
// SPSC CONCURRENCY STRESS
// ============================================================================
//
// One producer goroutine and one consumer goroutine follow the snapshot
// protocol: read FreeCount/Count once, then act that many times. Run under
// -race to confirm the critical section publishes slot writes.

package ring

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"isrqueue/irq"
)

func stressSPSC(t *testing.T, cs CriticalSection, capacity, total int) {
	t.Helper()

	r := New(make([]*Entry, capacity), cs)
	es := mkEntries(total)
	for i := range es {
		es[i].Addr = uint16(i)
		es[i].Payload = []byte{byte(i), byte(i >> 8), byte(i >> 16)}
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() { // producer
		defer wg.Done()
		for i := 0; i < total; {
			free := r.FreeCount()
			if free == 0 {
				runtime.Gosched()
				continue
			}
			for ; free > 0 && i < total; free-- {
				r.Insert(es[i])
				i++
			}
		}
	}()

	var failure string
	go func() { // consumer
		defer wg.Done()
		for next := 0; next < total; {
			n := r.Count()
			if n == 0 {
				runtime.Gosched()
				continue
			}
			for ; n > 0; n-- {
				e := r.Remove()
				switch {
				case failure != "":
				case e != es[next]:
					failure = "out of order"
				case int(e.Payload[0])|int(e.Payload[1])<<8|int(e.Payload[2])<<16 != next:
					failure = "payload mismatch"
				}
				next++
			}
		}
	}()

	wg.Wait()
	if failure != "" {
		t.Fatalf("consumer saw %s", failure)
	}
	if !r.IsEmpty() {
		t.Fatalf("ring not drained: %d left", r.Count())
	}
}

func TestStressMutex(t *testing.T) {
	stressSPSC(t, &irq.Mutex{}, 16, 200000)
}

func TestStressSpin(t *testing.T) {
	stressSPSC(t, &irq.Spin{}, 16, 200000)
}

func TestStressSingleSlot(t *testing.T) {
	stressSPSC(t, &irq.Mutex{}, 1, 20000)
}

func TestStressOddCapacity(t *testing.T) {
	stressSPSC(t, &irq.Spin{}, 7, 50000)
}

// TestStressSingleProcessor runs both sides on one P; progress depends on
// each side yielding when its snapshot is empty.
func TestStressSingleProcessor(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(1))

	start := time.Now()
	stressSPSC(t, &irq.Mutex{}, 16, 50000)
	stressSPSC(t, &irq.Spin{}, 16, 50000)
	if el := time.Since(start); el > 10*time.Second {
		t.Fatalf("100000 entries took %v on one P", el)
	}
}
