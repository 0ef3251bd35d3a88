// ════════════════════════════════════════════════════════════════════════════════════════════════
// PRODUCER/CONSUMER SOAK HARNESS
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: End-to-End Exercise of the Counted Ring
//
// Description:
//   Runs the ring the way firmware does, with no allocation after setup:
//
//     ┌──────────┐   forward ring    ┌──────────────────┐
//     │ producer │ ────────────────► │ pinned consumer  │──► journal (SQLite, SHA3)
//     │ (caller) │ ◄──────────────── │ (interrupt side) │
//     └──────────┘    free ring      └──────────────────┘
//
//   A fixed pool of Entry records and payload buffers is owned by the harness. The producer
//   takes free records from the free ring, stamps a sequence number into the payload and
//   inserts the reference into the forward ring. The consumer checks FIFO order, journals the
//   entry and hands the record back through the free ring. Each ring has exactly one
//   producer and one consumer; the two goroutines swap roles between them.
//
// Protocol:
//   Both sides snapshot Count/FreeCount once per batch and act that many times. The free ring
//   is sized to the whole pool, so the consumer's unchecked Insert into it cannot overflow.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package soak

import (
	"context"
	"encoding/binary"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"isrqueue/config"
	"isrqueue/constants"
	"isrqueue/consumer"
	"isrqueue/control"
	"isrqueue/cpu"
	"isrqueue/irq"
	"isrqueue/journal"
	"isrqueue/metrics"
	"isrqueue/ring"
)

// Report summarises one run.
type Report struct {
	Produced     uint64        // Entries inserted into the forward ring
	Consumed     uint64        // Entries removed by the consumer
	FullBackoffs uint64        // Producer passes that found no free slot or record
	OutOfOrder   uint64        // Sequence gaps or reorders seen by the consumer
	Corrupt      uint64        // Payload trailer did not match its sequence number
	Journaled    int64         // Rows in the journal after the run, -1 when journaling is off
	Elapsed      time.Duration // Wall time from first insert to consumer exit
}

// sink is the consumer-side state. Only the consumer goroutine touches it
// until done is closed.
type sink struct {
	free     *ring.Ring
	journal  *journal.Journal
	expect   uint64
	consumed uint64
	disorder uint64
	corrupt  uint64
	flushErr error
}

func (s *sink) handle(e *ring.Entry) {
	seq := binary.LittleEndian.Uint64(e.Payload)
	if seq != s.expect {
		s.disorder++
	}
	s.expect = seq + 1
	if e.Payload[len(e.Payload)-1] != byte(seq) {
		s.corrupt++
	}

	if s.journal != nil && s.flushErr == nil {
		s.journal.Record(seq, e)
		if s.journal.Pending() >= constants.JournalFlushEvery {
			s.flushErr = s.journal.Flush()
		}
	}

	s.consumed++
	s.free.Insert(e) // pool-sized ring, never full
}

// Run executes one soak pass. m may be nil. Cancelling ctx stops the
// producer early; entries already queued are still consumed.
func Run(ctx context.Context, cfg config.Config, m *metrics.Metrics) (Report, error) {
	rep := Report{Journaled: -1}
	if err := cfg.Validate(); err != nil {
		return rep, errors.Wrap(err, "soak: config")
	}

	// ── Pool and rings ──────────────────────────────────────────────────────
	poolSize := cfg.Capacity * 2
	if poolSize > ring.MaxCapacity {
		poolSize = ring.MaxCapacity
	}
	pool := make([]ring.Entry, poolSize)
	payloads := make([]byte, poolSize*cfg.PayloadSize)
	for i := range pool {
		pool[i].Payload = payloads[i*cfg.PayloadSize : (i+1)*cfg.PayloadSize : (i+1)*cfg.PayloadSize]
	}

	fwd := ring.New(make([]*ring.Entry, cfg.Capacity), irq.New(irq.Kind(cfg.Lock)))
	free := ring.New(make([]*ring.Entry, poolSize), irq.New(irq.Kind(cfg.Lock)))
	for i := range pool {
		free.Insert(&pool[i])
	}
	if m != nil {
		fwd.SetInsertHook(m.InsertHook(false))
	}

	// ── Journal ─────────────────────────────────────────────────────────────
	s := &sink{free: free}
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return rep, err
		}
		if err := j.Truncate(); err != nil {
			j.Close()
			return rep, err
		}
		s.journal = j
	}

	// ── Consumer ────────────────────────────────────────────────────────────
	control.Reset()
	stop, hot := control.Flags()
	done := make(chan struct{})
	var onBatch consumer.BatchObserver
	if m != nil {
		onBatch = m.ObserveDrain
	}
	consumer.PinnedWithCooldown(cfg.Core, fwd, stop, hot, s.handle, onBatch, done)

	// ── Producer ────────────────────────────────────────────────────────────
	start := time.Now()
	total := uint64(cfg.Entries)
	var seq uint64
	cancelled := false

	for seq < total && !control.Stopped() {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		avail := uint64(free.Count())
		room := uint64(fwd.FreeCount())
		n := min(avail, room, total-seq)
		if n == 0 {
			rep.FullBackoffs++
			if m != nil {
				m.Overflows.Inc()
			}
			// The consumer may share this core; let it drain.
			cpu.Relax()
			runtime.Gosched()
			continue
		}

		for ; n > 0; n-- {
			e := free.Remove()
			binary.LittleEndian.PutUint64(e.Payload, seq)
			e.Payload[len(e.Payload)-1] = byte(seq)
			e.Addr = uint16(seq)
			fwd.Insert(e)
			seq++
		}
		control.SignalActivity()
		if m != nil {
			m.Sample(fwd)
		}
	}
	rep.Produced = seq

	// Stop after the last insert; the consumer's final drain picks up the rest.
	control.Shutdown()
	<-done
	rep.Elapsed = time.Since(start)

	rep.Consumed = s.consumed
	rep.OutOfOrder = s.disorder
	rep.Corrupt = s.corrupt

	err := s.flushErr
	if s.journal != nil {
		if err == nil {
			err = s.journal.Flush()
		}
		if err == nil {
			rep.Journaled, err = s.journal.Count()
		}
		if cerr := s.journal.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	switch {
	case err != nil:
	case cancelled:
		err = errors.Wrap(ctx.Err(), "soak: cancelled")
	case rep.Consumed != rep.Produced:
		err = errors.Errorf("soak: produced %d, consumed %d", rep.Produced, rep.Consumed)
	case rep.OutOfOrder != 0:
		err = errors.Errorf("soak: %d entries out of order", rep.OutOfOrder)
	case rep.Corrupt != 0:
		err = errors.Errorf("soak: %d corrupt payloads", rep.Corrupt)
	}
	return rep, err
}
