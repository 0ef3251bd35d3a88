// ring_bench_test.go
//
// Benchmarks:
//   - Insert / Remove – one side each, the opposite op runs once per lap
//   - InsertRemove    – round-trip inside one goroutine
//   - Snapshot        – consumer drains with one Count per batch
//   - CrossCore       – producer and consumer goroutines (Spin section)
//
// All paths must report zero allocations.

package ring

import (
	"runtime"
	"testing"

	"isrqueue/irq"
)

const benchCap = 1024

var (
	benchEntry = &Entry{Addr: 1, Payload: make([]byte, 24)}
	sink       *Entry
)

func BenchmarkRing_Insert(b *testing.B) {
	r := New(make([]*Entry, benchCap), &irq.None{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if r.IsFull() {
			sink = r.Remove()
		}
		r.Insert(benchEntry)
	}
}

func BenchmarkRing_Remove(b *testing.B) {
	r := New(make([]*Entry, benchCap), &irq.None{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if r.IsEmpty() {
			r.Insert(benchEntry)
		}
		sink = r.Remove()
	}
}

func BenchmarkRing_InsertRemove(b *testing.B) {
	r := New(make([]*Entry, benchCap), &irq.Mutex{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Insert(benchEntry)
		sink = r.Remove()
	}
}

func BenchmarkRing_Snapshot(b *testing.B) {
	r := New(make([]*Entry, benchCap), &irq.Mutex{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i += benchCap {
		for free := r.FreeCount(); free > 0; free-- {
			r.Insert(benchEntry)
		}
		for n := r.Count(); n > 0; n-- {
			sink = r.Remove()
		}
	}
}

func BenchmarkRing_CrossCore(b *testing.B) {
	r := New(make([]*Entry, benchCap), &irq.Spin{})
	done := make(chan struct{})

	go func() {
		for got := 0; got < b.N; {
			n := r.Count()
			if n == 0 {
				runtime.Gosched()
				continue
			}
			for ; n > 0; n-- {
				_ = r.Remove()
				got++
			}
		}
		close(done)
	}()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; {
		free := r.FreeCount()
		if free == 0 {
			runtime.Gosched()
			continue
		}
		for ; free > 0 && i < b.N; free-- {
			r.Insert(benchEntry)
			i++
		}
	}
	<-done
}
