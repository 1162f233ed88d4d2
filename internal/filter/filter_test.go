package filter

import (
	"bytes"
	"testing"
)

func TestPass(t *testing.T) {
	data := []byte("abc\n")
	if got := Pass(data); !bytes.Equal(got, data) {
		t.Fatalf("Pass = %q, want %q", got, data)
	}
}

func TestBin(t *testing.T) {
	redirector := []byte{0x7f, 'E', 'L', 'F'}
	if got := Bin(redirector); !bytes.Equal(got, redirector) {
		t.Fatalf("Bin = %v, want %v", got, redirector)
	}
}

func TestIniRewrite(t *testing.T) {
	in := []byte("Name=Vim\nExec=/usr/bin/vim %F\n")
	want := []byte("Name=Vim\nExec=/bedrock/bin/strat strat-B /usr/bin/vim %F\n")
	got := Ini(in, "/bedrock/bin/strat", "strat-B")
	if !bytes.Equal(got, want) {
		t.Fatalf("Ini = %q, want %q", got, want)
	}
	overhead := IniOverhead("/bedrock/bin/strat", "strat-B")
	if len(got)-len(in) != overhead {
		t.Fatalf("overhead mismatch: got %d want %d", len(got)-len(in), overhead)
	}
}

func TestIniOtherKeys(t *testing.T) {
	for _, key := range []string{"TryExec=", "ExecStart=", "ExecStop=", "ExecReload="} {
		in := []byte(key + "/bin/foo\n")
		got := Ini(in, "/strat", "s")
		want := []byte(key + "/strat s /bin/foo\n")
		if !bytes.Equal(got, want) {
			t.Errorf("Ini(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestFontMerge(t *testing.T) {
	a := []byte("2\nfoo a\nbar b\n")
	b := []byte("1\nbaz c\n")
	got := MergeFonts(FontsDir, [][]byte{a, b})
	want := []byte("3\nbar\tb\nbaz\tc\nfoo\ta\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("MergeFonts = %q, want %q", got, want)
	}
}

func TestFontMergeShadowing(t *testing.T) {
	a := []byte("foo high-prio\n")
	b := []byte("foo low-prio\n")
	got := MergeFonts(FontsAlias, [][]byte{a, b})
	want := []byte("foo\thigh-prio\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("MergeFonts shadowing = %q, want %q", got, want)
	}
}

func TestFontMergeSkipsComments(t *testing.T) {
	a := []byte("!comment\nfoo bar\nmalformedline\n")
	got := MergeFonts(FontsAlias, [][]byte{a})
	want := []byte("foo\tbar\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("MergeFonts = %q, want %q", got, want)
	}
}

func TestIsFontIndex(t *testing.T) {
	if !IsFontIndex("fonts.dir") || !IsFontIndex("fonts.alias") {
		t.Fatal("expected fonts.dir and fonts.alias to be recognized")
	}
	if IsFontIndex("other") {
		t.Fatal("expected other to not be recognized")
	}
}
