package repl

import (
	"bytes"
	"strings"
	"testing"
)

func newTestREPL(t *testing.T, capacity int) *REPL {
	t.Helper()
	r, err := New(capacity)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// run executes lines and returns the combined output, failing on errors.
func run(t *testing.T, r *REPL, lines ...string) string {
	t.Helper()
	var buf bytes.Buffer
	for _, l := range lines {
		if err := r.Exec(l, &buf); err != nil {
			t.Fatalf("%q: %v", l, err)
		}
	}
	return buf.String()
}

func TestNewRejectsCapacity(t *testing.T) {
	for _, c := range []int{0, -1, 65536} {
		if _, err := New(c); err == nil {
			t.Errorf("New(%d) should fail", c)
		}
	}
}

func TestInsertRemoveFIFO(t *testing.T) {
	r := newTestREPL(t, 3)
	run(t, r, "insert 1 alpha", "insert 0x2 beta gamma", "insert 3 0x00ff")

	out := run(t, r, "remove", "remove", "remove")
	want := []string{
		`addr=0x0001 len=5 payload="alpha"`,
		`addr=0x0002 len=10 payload="beta gamma"`,
		`addr=0x0003 len=2 payload="\x00\xff"`,
	}
	if got := strings.Split(strings.TrimSpace(out), "\n"); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("remove output:\n%s", out)
	}
}

func TestRefusesOverflowAndUnderflow(t *testing.T) {
	r := newTestREPL(t, 1)
	var buf bytes.Buffer

	if err := r.Exec("remove", &buf); err == nil {
		t.Fatal("remove on empty ring should be refused")
	}
	if err := r.Exec("peek", &buf); err == nil {
		t.Fatal("peek on empty ring should be refused")
	}
	run(t, r, "insert 1 a")
	if err := r.Exec("insert 2 b", &buf); err == nil {
		t.Fatal("insert into full ring should be refused")
	}
	if r.Ring().Count() != 1 {
		t.Fatalf("refused commands changed count to %d", r.Ring().Count())
	}
}

func TestOccupancyCommands(t *testing.T) {
	r := newTestREPL(t, 2)
	if out := run(t, r, "count", "free", "empty", "full"); out != "0/2\n2\ntrue\nfalse\n" {
		t.Fatalf("empty ring output %q", out)
	}
	run(t, r, "insert 1 a", "insert 2 b")
	if out := run(t, r, "count", "free", "empty", "full"); out != "2/2\n0\nfalse\ntrue\n" {
		t.Fatalf("full ring output %q", out)
	}
	run(t, r, "reset")
	if out := run(t, r, "count"); out != "0/2\n" {
		t.Fatalf("after reset %q", out)
	}
}

func TestPeekAndPack(t *testing.T) {
	r := newTestREPL(t, 4)
	run(t, r, "insert 0xbeef hi", "insert 1 x")

	if out := run(t, r, "peek"); !strings.Contains(out, "addr=0xbeef") {
		t.Fatalf("peek output %q", out)
	}
	if out := run(t, r, "pack"); out != "efbe02006869"+"0100010078"+"\n" {
		t.Fatalf("pack output %q", out)
	}
	// pack must leave order intact
	if out := run(t, r, "remove"); !strings.Contains(out, "addr=0xbeef") {
		t.Fatalf("order changed by pack: %q", out)
	}
}

func TestSlotsShowWraparound(t *testing.T) {
	r := newTestREPL(t, 2)
	run(t, r, "insert 1 a", "insert 2 b", "remove", "insert 3 c")
	out := run(t, r, "slots")
	if !strings.HasPrefix(out, "[0] addr=0x0003") {
		t.Fatalf("slot 0 should hold the wrapped entry:\n%s", out)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	r := newTestREPL(t, 1)
	for i := 0; i < historyLimit+4; i++ {
		run(t, r, "insert 1 x", "remove")
	}
	out := run(t, r, "history")
	if n := strings.Count(out, "\n"); n != historyLimit {
		t.Fatalf("history lines = %d, want %d", n, historyLimit)
	}
}

func TestUnknownCommandAndHelp(t *testing.T) {
	r := newTestREPL(t, 1)
	var buf bytes.Buffer
	if err := r.Exec("frobnicate", &buf); err == nil {
		t.Fatal("unknown command should fail")
	}
	if err := r.Exec("insert nope x", &buf); err == nil {
		t.Fatal("bad address should fail")
	}
	if err := r.Exec("insert 1 0xzz", &buf); err == nil {
		t.Fatal("bad hex should fail")
	}
	out := run(t, r, "help", "")
	for _, c := range []string{"insert", "remove", "peek", "pack", "history"} {
		if !strings.Contains(out, c) {
			t.Errorf("help missing %q", c)
		}
	}
}
