// Package dirsynth synthesizes directory listings for backed, virtual,
// and root directories.
package dirsynth

import (
	"strings"

	"bedrock.io/crossfs/internal/pathpred"
	"bedrock.io/crossfs/internal/resolve"
	"bedrock.io/crossfs/internal/rootedio"
	"bedrock.io/crossfs/internal/routing"
)

// withDots prepends "." and ".." to names.
func withDots(names []string) []string {
	return append([]string{".", ".."}, names...)
}

// Backed returns the union of entries from every backing directory of
// entry that exists at tail, keyed by entry name with first occurrence
// (highest priority) winning, prepended with "." and "..".
func Backed(ex *rootedio.Executor, entry *routing.ConfiguredEntry, tail string) ([]string, error) {
	names, err := resolve.ListAll(ex, entry, tail)
	if err != nil {
		return nil, err
	}
	return withDots(names), nil
}

// childSegment returns the first path segment of full beyond the length
// of prefix, and whether full has additional segments after it.
func childSegment(prefix, full string) (child string, hasMore bool) {
	rest := full[len(prefix):]
	rest = strings.TrimPrefix(rest, "/")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[:idx], true
	}
	return rest, false
}

// Virtual scans the table for Configured Entries nested beneath v and
// returns the set of immediate child segment names implied by them,
// de-duplicated and prepended with "." and "..". The caller must hold at
// least a read lock on table.
func Virtual(ex *rootedio.Executor, table *routing.Table, v string) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, e := range table.Entries() {
		nested := pathpred.IsProperPrefix(v, len(v), e.CPath, len(e.CPath))
		if v == "/" {
			// The path predicates leave the root to their callers: every
			// configured path other than "/" itself is nested beneath it.
			nested = len(e.CPath) > 1
		}
		if !nested {
			continue
		}
		child, hasMore := childSegment(v, e.CPath)
		if child == "" {
			continue
		}
		if !hasMore {
			// e.CPath is itself an immediate child of v: only show it if at
			// least one backing entry resolves to an existing object.
			if _, err := resolve.LocateFirst(ex, e, ""); err != nil {
				continue
			}
		}
		if seen[child] {
			continue
		}
		seen[child] = true
		names = append(names, child)
	}
	return withDots(names), nil
}

// Root returns the virtual-directory synthesis at "/" plus the literal
// name of the control file.
func Root(ex *rootedio.Executor, table *routing.Table, controlName string) ([]string, error) {
	names, err := Virtual(ex, table, "/")
	if err != nil {
		return nil, err
	}
	return append(names, controlName), nil
}
