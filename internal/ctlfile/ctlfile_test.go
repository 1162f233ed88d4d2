package ctlfile

import (
	"bytes"
	"testing"

	"bedrock.io/crossfs/internal/routing"
)

func TestWriteAddAndReadRoundTrip(t *testing.T) {
	table := routing.NewTable("/strata")
	line := []byte("add pass /hello strat-Z:/h\n")
	n, err := Write(table, line)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(line) {
		t.Fatalf("Write returned %d, want %d", n, len(line))
	}
	got := Read(table, 0, 1024)
	if !bytes.Equal(got, line) {
		t.Fatalf("Read = %q, want %q", got, line)
	}
}

func TestWriteClearEmptiesTable(t *testing.T) {
	table := routing.NewTable("/strata")
	if _, err := Write(table, []byte("add pass /hello strat-Z:/h\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := Write(table, []byte("clear\n")); err != nil {
		t.Fatal(err)
	}
	if got := Read(table, 0, 1024); len(got) != 0 {
		t.Fatalf("expected empty dump after clear, got %q", got)
	}
}

func TestDuplicateAddIsIdempotent(t *testing.T) {
	table := routing.NewTable("/strata")
	line := []byte("add pass /hello strat-Z:/h\n")
	Write(table, line)
	Write(table, line)
	got := Read(table, 0, 1024)
	if !bytes.Equal(got, line) {
		t.Fatalf("expected single line after duplicate add, got %q", got)
	}
}

func TestAddSequenceRoundTrip(t *testing.T) {
	table := routing.NewTable("/strata")
	lines := [][]byte{
		[]byte("add pass /a strat-A:/a\n"),
		[]byte("add bin /b strat-B:/b\n"),
		[]byte("add ini /c strat-C:/c\n"),
	}
	var want bytes.Buffer
	for _, l := range lines {
		n, err := Write(table, l)
		if err != nil {
			t.Fatalf("Write(%q): %v", l, err)
		}
		if n != len(l) {
			t.Fatalf("Write(%q) = %d, want %d", l, n, len(l))
		}
		want.Write(l)
	}
	got := Read(table, 0, 1<<20)
	if !bytes.Equal(got, want.Bytes()) {
		t.Fatalf("Read = %q, want %q", got, want.String())
	}
}

func invalidCases() []string {
	return []string{
		"add pass /hello\n",               // missing stratum:lpath
		"add bogus /hello strat:/h\n",      // unknown filter
		"add pass hello strat:/h\n",        // cpath missing leading /
		"add pass /hello strat:h\n",        // lpath missing leading /
		"add pass /hello st/rat:/h\n",      // stratum contains /
		"add pass /hello strat:/h",         // no trailing newline
	}
}

func TestInvalidAddLeavesTableUnchanged(t *testing.T) {
	for _, c := range invalidCases() {
		table := routing.NewTable("/strata")
		if _, err := Write(table, []byte(c)); err == nil {
			t.Errorf("Write(%q) succeeded, want error", c)
		}
		if got := Read(table, 0, 1024); len(got) != 0 {
			t.Errorf("Write(%q): table mutated despite rejection: %q", c, got)
		}
	}
}

func TestCheckCaller(t *testing.T) {
	if err := CheckCaller(0); err != nil {
		t.Fatalf("uid 0 should be permitted: %v", err)
	}
	if err := CheckCaller(1000); err == nil {
		t.Fatal("non-root uid should be refused")
	}
}
