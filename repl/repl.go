// Package repl is an interactive shell over one ring, for poking at
// wraparound and occupancy by hand. The shell is both producer and consumer,
// so the ring uses irq.None.
//
// Unlike firmware callers the shell never issues an unchecked operation on a
// full or empty ring: insert and remove refuse with a message instead.
package repl

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/eapache/queue"
	"github.com/pkg/errors"

	"isrqueue/irq"
	"isrqueue/ring"
	"isrqueue/utils"
)

// historyLimit bounds the removed-entry history.
const historyLimit = 16

type command struct {
	run  func(args []string, w io.Writer) error
	help string
}

// REPL owns a ring, its storage and the payload bytes of every entry it
// inserts.
type REPL struct {
	ring     *ring.Ring
	storage  []*ring.Entry
	history  *queue.Queue
	commands map[string]command
}

// New returns a shell over a ring of the given capacity.
func New(capacity int) (*REPL, error) {
	if capacity < 1 || capacity > ring.MaxCapacity {
		return nil, errors.Errorf("capacity %d outside [1, %d]", capacity, ring.MaxCapacity)
	}
	r := &REPL{
		storage: make([]*ring.Entry, capacity),
		history: queue.New(),
	}
	r.ring = ring.New(r.storage, &irq.None{})
	r.commands = map[string]command{
		"insert":  {r.insert, "insert <addr> <text|0xHEX>: queue an entry"},
		"remove":  {r.remove, "remove: dequeue the oldest entry"},
		"peek":    {r.peek, "peek: show the oldest entry without removing it"},
		"count":   {r.count, "count: occupied slots"},
		"free":    {r.free, "free: free slots"},
		"empty":   {r.empty, "empty: is the ring empty"},
		"full":    {r.full, "full: is the ring full"},
		"reset":   {r.reset, "reset: re-initialise, discarding pending entries"},
		"pack":    {r.pack, "pack: packed frames of every pending entry, hex"},
		"slots":   {r.slots, "slots: dump the backing storage"},
		"history": {r.showHistory, "history: recently removed entries"},
	}
	return r, nil
}

// Ring exposes the underlying ring.
func (r *REPL) Ring() *ring.Ring {
	return r.ring
}

// Exec runs one command line, writing output to w.
func (r *REPL) Exec(line string, w io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	if fields[0] == "help" {
		io.WriteString(w, r.HelpString())
		return nil
	}
	cmd, ok := r.commands[fields[0]]
	if !ok {
		return errors.Errorf("invalid command: %s", fields[0])
	}
	return cmd.run(fields[1:], w)
}

// HelpString lists every command, sorted.
func (r *REPL) HelpString() string {
	names := make([]string, 0, len(r.commands))
	for k := range r.commands {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Commands\n")
	for _, k := range names {
		fmt.Fprintf(&sb, "\t%s\n", r.commands[k].help)
	}
	sb.WriteString("\thelp: this message\n")
	return sb.String()
}

// Run reads commands until EOF or interrupt.
func (r *REPL) Run(in io.ReadCloser, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ring> ",
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return errors.Wrap(err, "repl: readline")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "repl: read")
		}
		if err := r.Exec(line, rl.Stdout()); err != nil {
			fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func (r *REPL) insert(args []string, w io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: insert <addr> <text|0xHEX>")
	}
	addr, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return errors.Wrapf(err, "addr %q", args[0])
	}
	payload, err := parsePayload(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if !r.ring.TryInsert(&ring.Entry{Addr: uint16(addr), Payload: payload}) {
		return errors.New("ring full; remove first")
	}
	fmt.Fprintf(w, "queued, count=%d\n", r.ring.Count())
	return nil
}

func (r *REPL) remove(_ []string, w io.Writer) error {
	e, ok := r.ring.TryRemove()
	if !ok {
		return errors.New("ring empty")
	}
	r.history.Add(e)
	if r.history.Length() > historyLimit {
		r.history.Remove()
	}
	io.WriteString(w, format(e)+"\n")
	return nil
}

func (r *REPL) peek(_ []string, w io.Writer) error {
	if r.ring.IsEmpty() {
		return errors.New("ring empty")
	}
	io.WriteString(w, format(r.ring.Peek())+"\n")
	return nil
}

func (r *REPL) count(_ []string, w io.Writer) error {
	fmt.Fprintf(w, "%d/%d\n", r.ring.Count(), r.ring.Cap())
	return nil
}

func (r *REPL) free(_ []string, w io.Writer) error {
	fmt.Fprintf(w, "%d\n", r.ring.FreeCount())
	return nil
}

func (r *REPL) empty(_ []string, w io.Writer) error {
	fmt.Fprintf(w, "%v\n", r.ring.IsEmpty())
	return nil
}

func (r *REPL) full(_ []string, w io.Writer) error {
	fmt.Fprintf(w, "%v\n", r.ring.IsFull())
	return nil
}

func (r *REPL) reset(_ []string, w io.Writer) error {
	r.ring.Init(r.storage, &irq.None{})
	io.WriteString(w, "reset\n")
	return nil
}

// pack rotates through the pending entries: remove, encode, re-insert. The
// net effect leaves order and count unchanged.
func (r *REPL) pack(_ []string, w io.Writer) error {
	var (
		out []byte
		err error
	)
	for n := r.ring.Count(); n > 0; n-- {
		e := r.ring.Remove()
		if err == nil {
			out, err = ring.AppendPacked(out, e)
		}
		r.ring.Insert(e)
	}
	if err != nil {
		return err
	}
	io.WriteString(w, hex.EncodeToString(out)+"\n")
	return nil
}

func (r *REPL) slots(_ []string, w io.Writer) error {
	for i, e := range r.storage {
		if e == nil {
			fmt.Fprintf(w, "[%d] -\n", i)
			continue
		}
		fmt.Fprintf(w, "[%d] %s\n", i, format(e))
	}
	return nil
}

func (r *REPL) showHistory(_ []string, w io.Writer) error {
	for i := 0; i < r.history.Length(); i++ {
		io.WriteString(w, format(r.history.Get(i).(*ring.Entry))+"\n")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// HELPERS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// parsePayload accepts 0x-prefixed hex or literal text.
func parsePayload(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, errors.Wrap(err, "payload hex")
		}
		return b, nil
	}
	return []byte(s), nil
}

func format(e *ring.Entry) string {
	return "addr=" + utils.Hex16(e.Addr) + " len=" + utils.Itoa(len(e.Payload)) + " payload=" + strconv.Quote(utils.B2s(e.Payload))
}
