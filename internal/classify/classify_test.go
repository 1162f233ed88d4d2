package classify

import "testing"
import "bedrock.io/crossfs/internal/routing"

func tableWith(cpath string) *routing.Table {
	t := routing.NewTable("/strata")
	t.Add(routing.FilterPass, cpath, "strat-A", "/p")
	return t
}

func TestClassifyBackedPrecedesVirtual(t *testing.T) {
	tbl := tableWith("/x/y")
	tbl.Add(routing.FilterPass, "/x/y/z", "strat-A", "/q")
	// "/x/y" is backed by its own entry and is also a proper prefix of
	// "/x/y/z", so both the backed and the virtual-directory rules apply.
	res := Classify(tbl, "/x/y", "/.config-filesystem")
	if res.Class != Backed {
		t.Fatalf("want Backed, got %v", res.Class)
	}
}

func TestClassifyVirtual(t *testing.T) {
	tbl := tableWith("/x/y")
	res := Classify(tbl, "/x", "/.config-filesystem")
	if res.Class != VirtualDir {
		t.Fatalf("want VirtualDir, got %v", res.Class)
	}
}

func TestClassifyRoot(t *testing.T) {
	tbl := routing.NewTable("/strata")
	res := Classify(tbl, "/", "/.config-filesystem")
	if res.Class != Root {
		t.Fatalf("want Root, got %v", res.Class)
	}
}

func TestClassifyControl(t *testing.T) {
	tbl := routing.NewTable("/strata")
	res := Classify(tbl, "/.config-filesystem", "/.config-filesystem")
	if res.Class != Control {
		t.Fatalf("want Control, got %v", res.Class)
	}
}

func TestClassifyAbsent(t *testing.T) {
	tbl := tableWith("/x/y")
	res := Classify(tbl, "/nope", "/.config-filesystem")
	if res.Class != Absent {
		t.Fatalf("want Absent, got %v", res.Class)
	}
}

func TestClassifyExactlyOneClass(t *testing.T) {
	tbl := tableWith("/bin")
	for _, p := range []string{"/bin", "/bin/vi", "/", "/.config-filesystem", "/etc"} {
		res := Classify(tbl, p, "/.config-filesystem")
		// Every call returns exactly one Class value by construction
		// (switch-like precedence); this asserts it's one of the five.
		if res.Class < Backed || res.Class > Absent {
			t.Fatalf("path %q produced invalid class %v", p, res.Class)
		}
	}
}
