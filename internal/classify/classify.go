// Package classify maps an incoming path to one of the five classes the
// dispatcher acts on.
package classify

import (
	"bedrock.io/crossfs/internal/pathpred"
	"bedrock.io/crossfs/internal/routing"
)

// Class is one of the five outcomes of classifying an incoming path.
type Class int

const (
	// Backed means the path is fulfilled by a Configured Entry's backing
	// files.
	Backed Class = iota
	// VirtualDir means the path is a directory that exists only because
	// some Configured Entry is nested beneath it.
	VirtualDir
	// Root is the mount root, "/".
	Root
	// Control is the control-file path.
	Control
	// Absent means none of the above apply.
	Absent
)

// Result is the outcome of classifying a path.
type Result struct {
	Class Class
	Entry *routing.ConfiguredEntry // set for Backed and VirtualDir
}

// Classify returns the first applicable class for path, scanning the
// table's entries in insertion order. The caller must hold at least a
// read lock on table for the duration of the call.
//
// Backed is checked before VirtualDir because the steady-state common
// case is an access beneath an already-configured path.
func Classify(table *routing.Table, path, controlPath string) Result {
	pLen := len(path)
	for _, e := range table.Entries() {
		if pathpred.IsEqualOrPrefix(e.CPath, len(e.CPath), path, pLen) {
			return Result{Class: Backed, Entry: e}
		}
	}
	for _, e := range table.Entries() {
		if pathpred.IsProperPrefix(path, pLen, e.CPath, len(e.CPath)) {
			return Result{Class: VirtualDir, Entry: e}
		}
	}
	if path == "/" {
		return Result{Class: Root}
	}
	if path == controlPath {
		return Result{Class: Control}
	}
	return Result{Class: Absent}
}
