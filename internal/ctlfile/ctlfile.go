// Package ctlfile implements the control-file protocol: the append-only
// line commands that mutate the routing table, and the text dump served
// on read.
package ctlfile

import (
	"strings"

	"bedrock.io/crossfs/internal/eio"
	"bedrock.io/crossfs/internal/routing"
)

// maxCommand bounds a single control-file write, mirroring the platform
// path-length bound named in the specification.
const maxCommand = 4096

// CheckCaller enforces that the control file is only readable and
// writable by uid 0, the one principal crossfs recognizes.
func CheckCaller(uid uint32) error {
	if uid != 0 {
		return eio.E(eio.Op("control"), eio.Permission)
	}
	return nil
}

// Write applies one control-file command: "clear\n" drops the entire
// table, and "add <filter> <cpath> <stratum>:<lpath>\n" appends a
// Backing Entry. It returns the number of bytes consumed (== len(buf) on
// success) so callers can report it as the write's return value. The
// caller must hold the table's writer lock.
func Write(table *routing.Table, buf []byte) (int, error) {
	if len(buf) > maxCommand {
		return 0, eio.E(eio.Op("write"), eio.NameTooLong)
	}
	if string(buf) == "clear\n" {
		table.Clear()
		return len(buf), nil
	}
	if err := applyAdd(table, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// applyAdd parses and applies a single "add ..." command. Partial
// progress on a rejected command leaves the table unchanged: the table
// is only mutated once every field has been validated.
func applyAdd(table *routing.Table, buf []byte) error {
	const op = eio.Op("write")
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		return eio.E(op, eio.Invalid)
	}
	line := string(buf[:len(buf)-1])

	tokens := strings.SplitN(line, " ", 4)
	if len(tokens) != 4 {
		return eio.E(op, eio.Invalid)
	}
	if tokens[0] != "add" {
		return eio.E(op, eio.Invalid)
	}
	filterName := tokens[1]
	if !routing.ValidFilter(filterName) {
		return eio.E(op, eio.Invalid)
	}
	cpath := tokens[2]
	if !strings.HasPrefix(cpath, "/") {
		return eio.E(op, eio.Invalid)
	}
	stratumAndLpath := tokens[3]
	colon := strings.IndexByte(stratumAndLpath, ':')
	if colon < 0 {
		return eio.E(op, eio.Invalid)
	}
	stratum := stratumAndLpath[:colon]
	lpath := stratumAndLpath[colon+1:]
	if stratum == "" || strings.Contains(stratum, "/") {
		return eio.E(op, eio.Invalid)
	}
	if !strings.HasPrefix(lpath, "/") {
		return eio.E(op, eio.Invalid)
	}

	table.Add(routing.Filter(filterName), cpath, stratum, lpath)
	return nil
}

// Read returns the byte range [offset, offset+size) of the table's
// canonical textual projection. The caller must hold at least the
// table's reader lock.
func Read(table *routing.Table, offset int64, size int) []byte {
	dump := table.Dump()
	if offset < 0 || offset >= int64(len(dump)) {
		return nil
	}
	end := offset + int64(size)
	if end > int64(len(dump)) {
		end = int64(len(dump))
	}
	return dump[offset:end]
}
