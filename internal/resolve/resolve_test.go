package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bedrock.io/crossfs/internal/rootedio"
	"bedrock.io/crossfs/internal/routing"
)

func requireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("requires root: the rooted-I/O executor chroots the process")
	}
}

func TestStatFirstShadowing(t *testing.T) {
	requireRoot(t)
	dir := t.TempDir()
	strataRoot := filepath.Join(dir, "strata")
	os.MkdirAll(filepath.Join(strataRoot, "strat-A", "usr", "bin"), 0755)
	os.MkdirAll(filepath.Join(strataRoot, "strat-A", "bin"), 0755)
	os.WriteFile(filepath.Join(strataRoot, "strat-A", "usr", "bin", "vi"), []byte("low-prio"), 0644)
	os.WriteFile(filepath.Join(strataRoot, "strat-A", "bin", "vi"), []byte("high-prio"), 0644)

	table := routing.NewTable(strataRoot)
	table.Add(routing.FilterBin, "/bin", "strat-A", "/bin")        // highest priority
	table.Add(routing.FilterBin, "/bin", "strat-A", "/usr/bin")

	ex, err := rootedio.NewExecutor()
	if err != nil {
		t.Fatal(err)
	}

	entry := table.Lookup("/bin")
	cand, _, err := StatFirst(ex, entry, "/vi")
	if err != nil {
		t.Fatal(err)
	}
	if cand.Path != "/bin/vi" {
		t.Fatalf("expected highest priority candidate /bin/vi, got %q", cand.Path)
	}
}

func TestStatFirstNotFound(t *testing.T) {
	requireRoot(t)
	dir := t.TempDir()
	strataRoot := filepath.Join(dir, "strata")
	os.MkdirAll(filepath.Join(strataRoot, "strat-A"), 0755)

	table := routing.NewTable(strataRoot)
	table.Add(routing.FilterPass, "/etc", "strat-A", "/etc")

	ex, err := rootedio.NewExecutor()
	if err != nil {
		t.Fatal(err)
	}
	entry := table.Lookup("/etc")
	_, _, err = StatFirst(ex, entry, "/hostname")
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestNameTooLongSkipsCandidate(t *testing.T) {
	table := routing.NewTable("/strata")
	table.Add(routing.FilterPass, "/etc", "strat-A", "/etc")
	entry := table.Lookup("/etc")
	huge := "/" + strings.Repeat("a", pathMax)
	cands := candidates(entry, huge)
	if len(cands) != 0 {
		t.Fatalf("expected oversize candidate to be skipped, got %d", len(cands))
	}
}

func TestListAllSkipsEntryWhoseStatFails(t *testing.T) {
	requireRoot(t)
	dir := t.TempDir()
	strataRoot := filepath.Join(dir, "strata")
	binDir := filepath.Join(strataRoot, "strat-A", "bin")
	os.MkdirAll(binDir, 0755)
	os.WriteFile(filepath.Join(binDir, "vi"), []byte("ok"), 0644)
	os.Symlink(filepath.Join(binDir, "does-not-exist"), filepath.Join(binDir, "dangling"))

	table := routing.NewTable(strataRoot)
	table.Add(routing.FilterBin, "/bin", "strat-A", "/bin")

	ex, err := rootedio.NewExecutor()
	if err != nil {
		t.Fatal(err)
	}
	entry := table.Lookup("/bin")
	names, err := ListAll(ex, entry, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if n == "dangling" {
			t.Fatalf("expected dangling symlink entry to be skipped, got names %v", names)
		}
	}
	found := false
	for _, n := range names {
		if n == "vi" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected vi among names, got %v", names)
	}
}
