// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — compile-time defaults for the queue harness
//
// Purpose:
//   - Default ring geometry, payload pool sizing and pinning for the soak run.
//   - Every value can be overridden by the JSON config file (package config).
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Ring Geometry ──────────────────────────────

const (
	// DefaultCapacity is the forward ring size. Deliberately not a power of two:
	// the ring wraps by comparison, not by masking.
	DefaultCapacity = 48

	// DefaultPayloadSize is the byte length of every pooled payload buffer.
	// The first 8 bytes carry the little-endian sequence number.
	DefaultPayloadSize = 64

	// MinPayloadSize fits the sequence number plus one trailer byte.
	MinPayloadSize = 9
)

// ───────────────────────────── Soak Workload ──────────────────────────────

const (
	// DefaultEntries is the number of entries a soak run pushes through.
	DefaultEntries = 1_000_000

	// DefaultCore pins the consumer; -1 disables pinning.
	DefaultCore = 1

	// DefaultLock names the critical-section primitive (irq.Kind).
	DefaultLock = "spin"

	// JournalFlushEvery bounds buffered journal rows between transactions.
	JournalFlushEvery = 4096
)

// ───────────────────────────── Outputs ──────────────────────────────

const (
	// DefaultJournal is the SQLite journal path; empty disables journaling.
	DefaultJournal = "isrqueue_journal.db"

	// DefaultMetricsAddr is the Prometheus listen address; empty disables it.
	DefaultMetricsAddr = ""
)
