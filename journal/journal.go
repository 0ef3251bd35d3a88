// ════════════════════════════════════════════════════════════════════════════════════════════════
// CONSUMPTION JOURNAL
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: SQLite Record of Consumed Entries
//
// Description:
//   Persists what the consumer actually saw: sequence number, address tag, payload size and a
//   SHA3-256 digest of the payload at consumption time. Since the ring hands over references,
//   not copies, a producer that reuses a payload buffer too early shows up as a digest that no
//   longer matches the bytes the producer meant to send.
//
// Threading:
//   A Journal is owned by one goroutine (the consumer). Record only hashes and buffers; Flush
//   writes all buffered rows in one transaction.
//
// Schema:
//   entries(seq INTEGER PRIMARY KEY, addr INTEGER, size INTEGER, digest BLOB, consumed_ns INTEGER)
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"isrqueue/ring"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	seq         INTEGER PRIMARY KEY,
	addr        INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	digest      BLOB    NOT NULL,
	consumed_ns INTEGER NOT NULL
)`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA busy_timeout = 5000",
}

// row is one buffered record.
type row struct {
	seq    uint64
	addr   uint16
	size   int
	digest [32]byte
	at     int64
}

// Journal buffers consumed-entry rows and flushes them to SQLite.
type Journal struct {
	db      *sql.DB
	pending []row
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "journal: open %s", path)
	}
	// One writer; sqlite3 serialises anyway and WAL readers are not needed here.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "journal: %s", p)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "journal: create schema")
	}
	return &Journal{db: db, pending: make([]row, 0, 1024)}, nil
}

// Record hashes e's payload and buffers a row for seq. The payload is read
// now; later changes to it are not seen.
func (j *Journal) Record(seq uint64, e *ring.Entry) {
	j.pending = append(j.pending, row{
		seq:    seq,
		addr:   e.Addr,
		size:   len(e.Payload),
		digest: sha3.Sum256(e.Payload),
		at:     time.Now().UnixNano(),
	})
}

// Pending returns the number of buffered rows.
func (j *Journal) Pending() int {
	return len(j.pending)
}

// Flush writes every buffered row in one transaction.
func (j *Journal) Flush() error {
	if len(j.pending) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return errors.Wrap(err, "journal: begin")
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO entries (seq, addr, size, digest, consumed_ns) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "journal: prepare")
	}
	defer stmt.Close()

	for i := range j.pending {
		r := &j.pending[i]
		if _, err := stmt.Exec(int64(r.seq), int64(r.addr), r.size, r.digest[:], r.at); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "journal: insert seq %d", r.seq)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "journal: commit")
	}
	j.pending = j.pending[:0]
	return nil
}

// Truncate drops every persisted and buffered row. A journal file reused by
// a later run starts empty, so Count reflects that run only.
func (j *Journal) Truncate() error {
	j.pending = j.pending[:0]
	if _, err := j.db.Exec(`DELETE FROM entries`); err != nil {
		return errors.Wrap(err, "journal: truncate")
	}
	return nil
}

// Count returns the number of persisted rows.
func (j *Journal) Count() (int64, error) {
	var n int64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "journal: count")
	}
	return n, nil
}

// Digest returns the stored digest for seq.
func (j *Journal) Digest(seq uint64) ([32]byte, error) {
	var (
		out [32]byte
		b   []byte
	)
	err := j.db.QueryRow(`SELECT digest FROM entries WHERE seq = ?`, int64(seq)).Scan(&b)
	if err == sql.ErrNoRows {
		return out, errors.Errorf("journal: seq %d not recorded", seq)
	}
	if err != nil {
		return out, errors.Wrapf(err, "journal: digest %d", seq)
	}
	if len(b) != len(out) {
		return out, errors.Errorf("journal: seq %d digest has %d bytes", seq, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Verify reports whether payload hashes to the digest recorded for seq.
func (j *Journal) Verify(seq uint64, payload []byte) (bool, error) {
	want, err := j.Digest(seq)
	if err != nil {
		return false, err
	}
	return sha3.Sum256(payload) == want, nil
}

// Close flushes pending rows and closes the database.
func (j *Journal) Close() error {
	ferr := j.Flush()
	if err := j.db.Close(); err != nil {
		return errors.Wrap(err, "journal: close")
	}
	return ferr
}
