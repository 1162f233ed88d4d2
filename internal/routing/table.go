// Package routing implements the routing table: an ordered list of
// configured paths, each carrying a filter tag and an ordered list of
// backing locations anchored to stratum roots.
package routing

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Filter names one of the four content transforms a Configured Entry can
// apply to its backing files.
type Filter string

// The four recognized filters.
const (
	FilterPass Filter = "pass"
	FilterBin  Filter = "bin"
	FilterIni  Filter = "ini"
	FilterFont Filter = "font"
)

// ValidFilter reports whether name is one of the four recognized filters.
func ValidFilter(name string) bool {
	switch Filter(name) {
	case FilterPass, FilterBin, FilterIni, FilterFont:
		return true
	}
	return false
}

// StratumHandle is a reference-counted handle to a stratum's root
// directory. It is created the first time its stratum appears in the
// table and shared by every Backing Entry naming that stratum; refs
// counts those entries. It holds the root's path, not an open directory,
// so nothing is opened when it is created or closed when it is dropped.
type StratumHandle struct {
	Label string
	Root  string // absolute path of the stratum's root directory
	refs  int
}

// BackingEntry is one candidate location that may fulfill a backed path:
// a stratum plus a path local to that stratum's root.
type BackingEntry struct {
	Stratum   *StratumHandle
	LocalPath string
}

// ConfiguredEntry is an absolute path in the unified namespace, its
// filter, and its ordered (highest-priority-first) list of backing
// locations.
type ConfiguredEntry struct {
	CPath   string
	Filter  Filter
	Backing []*BackingEntry
}

// HasBacking reports whether (stratum, localPath) is already present.
func (e *ConfiguredEntry) HasBacking(stratum, localPath string) bool {
	for _, b := range e.Backing {
		if b.Stratum.Label == stratum && b.LocalPath == localPath {
			return true
		}
	}
	return false
}

// Table is the ordered sequence of Configured Entries, mutated only by
// the control-file protocol.
type Table struct {
	mu         sync.RWMutex
	strataRoot string
	entries    []*ConfiguredEntry
	strata     map[string]*StratumHandle
	size       int // aggregate byte length of the textual projection
}

// NewTable creates an empty routing table. strataRoot is the directory
// under which stratum labels resolve to root directories.
func NewTable(strataRoot string) *Table {
	return &Table{
		strataRoot: strataRoot,
		strata:     make(map[string]*StratumHandle),
	}
}

// RLock and RUnlock expose the table's reader lock to callers (getattr,
// readdir, open, read, getxattr) that must observe a point-in-time
// consistent view.
func (t *Table) RLock()   { t.mu.RLock() }
func (t *Table) RUnlock() { t.mu.RUnlock() }

// Lock and Unlock expose the table's writer lock to the control-file
// write path.
func (t *Table) Lock()   { t.mu.Lock() }
func (t *Table) Unlock() { t.mu.Unlock() }

// Entries returns the current entries in insertion order. Callers must
// hold at least a read lock for the duration of use.
func (t *Table) Entries() []*ConfiguredEntry {
	return t.entries
}

// Size returns the cached aggregate size of the table's textual
// projection. Callers must hold at least a read lock.
func (t *Table) Size() int {
	return t.size
}

// stratumHandle returns (creating if necessary) the shared handle for
// label. Must be called with the writer lock held.
func (t *Table) stratumHandle(label string) *StratumHandle {
	if h, ok := t.strata[label]; ok {
		return h
	}
	h := &StratumHandle{
		Label: label,
		Root:  filepath.Join(t.strataRoot, label),
	}
	t.strata[label] = h
	return h
}

func canonicalLine(filter Filter, cpath, stratum, lpath string) string {
	return fmt.Sprintf("add %s %s %s:%s\n", filter, cpath, stratum, lpath)
}

// Add appends a Backing Entry to the Configured Entry for cpath, creating
// it with the given filter if this is the first add for cpath. The
// filter of an existing entry is fixed after creation; a later add with a
// different filter is accepted but its filter argument is silently
// ignored. A duplicate (cpath, stratum, lpath) triple is a no-op success.
// Must be called with the writer lock held.
func (t *Table) Add(filter Filter, cpath, stratum, lpath string) {
	var entry *ConfiguredEntry
	for _, e := range t.entries {
		if e.CPath == cpath {
			entry = e
			break
		}
	}
	if entry == nil {
		entry = &ConfiguredEntry{CPath: cpath, Filter: filter}
		t.entries = append(t.entries, entry)
	}
	if entry.HasBacking(stratum, lpath) {
		return
	}
	handle := t.stratumHandle(stratum)
	handle.refs++
	entry.Backing = append(entry.Backing, &BackingEntry{Stratum: handle, LocalPath: lpath})
	t.size += len(canonicalLine(entry.Filter, cpath, stratum, lpath))
}

// Clear drops the entire table, including every stratum handle; no
// directory is held open, so there is nothing to close. Must be called
// with the writer lock held.
func (t *Table) Clear() {
	t.entries = nil
	t.strata = make(map[string]*StratumHandle)
	t.size = 0
}

// Dump returns the canonical textual projection of the table: one
// "add <filter> <cpath> <stratum>:<lpath>\n" line per Backing Entry, in
// insertion order. Must be called with at least a read lock held.
func (t *Table) Dump() []byte {
	var b strings.Builder
	b.Grow(t.size)
	for _, e := range t.entries {
		for _, back := range e.Backing {
			b.WriteString(canonicalLine(e.Filter, e.CPath, back.Stratum.Label, back.LocalPath))
		}
	}
	return []byte(b.String())
}

// Lookup returns the Configured Entry for cpath, or nil if none exists.
// Must be called with at least a read lock held.
func (t *Table) Lookup(cpath string) *ConfiguredEntry {
	for _, e := range t.entries {
		if e.CPath == cpath {
			return e
		}
	}
	return nil
}
