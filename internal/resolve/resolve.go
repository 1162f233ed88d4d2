// Package resolve iterates a Configured Entry's Backing Entries to find
// the first (or all) that fulfill an incoming backed path.
package resolve

import (
	"os"

	"bedrock.io/crossfs/internal/eio"
	"bedrock.io/crossfs/internal/rootedio"
	"bedrock.io/crossfs/internal/routing"
)

// pathMax bounds a synthesized candidate path, mirroring PATH_MAX on the
// platforms crossfs targets.
const pathMax = 4096

// Candidate is one (backing entry, resolved local path) pair produced by
// concatenating a Backing Entry's local path with the tail of the
// incoming path beyond the Configured Entry's cpath.
type Candidate struct {
	Backing *routing.BackingEntry
	Path    string
}

// candidates builds the full candidate list for entry given the tail of
// the incoming path beyond entry.CPath (empty if the incoming path equals
// entry.CPath exactly). Candidates whose concatenation would exceed the
// platform path-length bound are skipped, not returned as errors.
func candidates(entry *routing.ConfiguredEntry, tail string) []Candidate {
	out := make([]Candidate, 0, len(entry.Backing))
	for _, b := range entry.Backing {
		p := b.LocalPath + tail
		if len(p) > pathMax {
			continue
		}
		out = append(out, Candidate{Backing: b, Path: p})
	}
	return out
}

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}

// StatFirst iterates candidates in priority order and returns the first
// whose scoped stat succeeds. A "not found" result advances to the next
// candidate; any other error is terminal. Exhaustion reports Absent.
func StatFirst(ex *rootedio.Executor, entry *routing.ConfiguredEntry, tail string) (Candidate, os.FileInfo, error) {
	cands := candidates(entry, tail)
	if len(cands) == 0 && len(entry.Backing) > 0 {
		return Candidate{}, nil, eio.E(eio.NameTooLong)
	}
	for _, c := range cands {
		fi, err := ex.Stat(c.Backing.Stratum.Root, c.Path)
		if err == nil {
			return c, fi, nil
		}
		if isNotExist(err) {
			continue
		}
		return Candidate{}, nil, err
	}
	return Candidate{}, nil, eio.E(eio.Absent)
}

// OpenFirst iterates candidates in priority order and returns the first
// whose scoped open succeeds. The caller owns the returned file and must
// close it.
func OpenFirst(ex *rootedio.Executor, entry *routing.ConfiguredEntry, tail string, flag int, perm os.FileMode) (Candidate, *os.File, error) {
	cands := candidates(entry, tail)
	if len(cands) == 0 && len(entry.Backing) > 0 {
		return Candidate{}, nil, eio.E(eio.NameTooLong)
	}
	for _, c := range cands {
		f, err := ex.Open(c.Backing.Stratum.Root, c.Path, flag, perm)
		if err == nil {
			return c, f, nil
		}
		if isNotExist(err) {
			continue
		}
		return Candidate{}, nil, err
	}
	return Candidate{}, nil, eio.E(eio.Absent)
}

// LocateFirst iterates candidates in priority order using a
// symlink-tolerant probe (the candidate counts as existing even if it is
// a symlink whose target is missing) and returns the winning candidate.
func LocateFirst(ex *rootedio.Executor, entry *routing.ConfiguredEntry, tail string) (Candidate, error) {
	cands := candidates(entry, tail)
	for _, c := range cands {
		if _, err := ex.Readlink(c.Backing.Stratum.Root, c.Path); err == nil {
			return c, nil
		}
		// Not a symlink (or some other issue); fall back to stat to decide
		// existence.
		if _, err := ex.Stat(c.Backing.Stratum.Root, c.Path); err == nil {
			return c, nil
		} else if !isNotExist(err) {
			return Candidate{}, err
		}
	}
	return Candidate{}, eio.E(eio.Absent)
}

// ReadAllExisting reads the full content of every candidate that exists,
// in priority order, skipping candidates that don't exist. Used by the
// font filter, which must merge every backing file's key/value pairs
// rather than stopping at the first match.
func ReadAllExisting(ex *rootedio.Executor, entry *routing.ConfiguredEntry, tail string) ([][]byte, error) {
	var out [][]byte
	for _, c := range candidates(entry, tail) {
		data, err := ex.ReadFile(c.Backing.Stratum.Root, c.Path)
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// childPath joins a directory candidate path with one of its entry
// names.
func childPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// ListAll iterates every candidate and unions their directory entries,
// keyed by name, first occurrence (highest priority) winning. Candidates
// that don't exist or aren't directories are skipped. Each name's own
// stat is also checked, matching crossfs.c's fchroot_filldir: a name
// whose stat fails (a dangling symlink, a permission-denied entry) is
// left out of the listing rather than surfaced as an entry readdir
// can't otherwise resolve.
func ListAll(ex *rootedio.Executor, entry *routing.ConfiguredEntry, tail string) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, c := range candidates(entry, tail) {
		ents, err := ex.ReadDir(c.Backing.Stratum.Root, c.Path)
		if err != nil {
			continue
		}
		for _, name := range ents {
			if seen[name] {
				continue
			}
			if _, err := ex.Stat(c.Backing.Stratum.Root, childPath(c.Path, name)); err != nil {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}
