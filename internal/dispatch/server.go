// Package dispatch binds crossfs's routing, classification, resolution,
// filtering, and control-file logic to bazil.org/fuse's high-level fs
// interfaces, implementing the seven dispatcher entry points: getattr,
// lookup, readdir, open, read, write, and getxattr.
package dispatch

import (
	"os"
	"path/filepath"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"bedrock.io/crossfs/internal/elog"
	"bedrock.io/crossfs/internal/filter"
	"bedrock.io/crossfs/internal/resolve"
	"bedrock.io/crossfs/internal/rootedio"
	"bedrock.io/crossfs/internal/routing"
)

// Server is the root of the fs.FS tree: the shared state every node
// consults to classify and resolve the path it was looked up at.
type Server struct {
	Table       *routing.Table
	Exec        *rootedio.Executor
	ControlPath string // e.g. "/.config-filesystem"
	ControlName string // e.g. ".config-filesystem"
	StratTool   string // path inserted into rewritten ini exec lines
	Redirector  []byte // bytes served verbatim for bin-filtered regular files
}

var _ fs.FS = (*Server)(nil)
var _ fs.FSDestroyer = (*Server)(nil)

// Root returns the node for "/", the mount root.
func (s *Server) Root() (fs.Node, error) {
	return &node{s: s, path: "/"}, nil
}

// Destroy restores the process's original root directory, undoing every
// chroot the rooted-I/O executor performed on the daemon's behalf. It
// runs once, after the kernel has quiesced all in-flight requests and
// is unmounting.
func (s *Server) Destroy() {
	if err := s.Exec.Restore(); err != nil {
		elog.Error.Printf("restoring initial root: %v", err)
	}
}

// contentFor materializes the full byte stream a read of entry's backed
// path (the incoming path beyond entry.CPath) should deliver, applying
// whichever filter entry carries. isDir reports whether the resolved
// backing object is a directory, in which case data is nil and no filter
// is applied. cand is the winning candidate, which getattr stats for the
// attributes it reports alongside the filtered size.
func (s *Server) contentFor(entry *routing.ConfiguredEntry, path string) (data []byte, isDir bool, cand resolve.Candidate, err error) {
	tail := path[len(entry.CPath):]
	cand, fi, err := resolve.StatFirst(s.Exec, entry, tail)
	if err != nil {
		return nil, false, resolve.Candidate{}, err
	}
	if fi.IsDir() {
		return nil, true, cand, nil
	}
	switch entry.Filter {
	case routing.FilterPass:
		data, err = s.Exec.ReadFile(cand.Backing.Stratum.Root, cand.Path)
	case routing.FilterBin:
		data = s.Redirector
	case routing.FilterIni:
		data, err = s.Exec.ReadFile(cand.Backing.Stratum.Root, cand.Path)
		if err == nil {
			data = filter.Ini(data, s.StratTool, cand.Backing.Stratum.Label)
		}
	case routing.FilterFont:
		base := filepath.Base(path)
		if !filter.IsFontIndex(base) {
			data, err = s.Exec.ReadFile(cand.Backing.Stratum.Root, cand.Path)
			break
		}
		var files [][]byte
		files, err = resolve.ReadAllExisting(s.Exec, entry, tail)
		if err == nil {
			data = filter.MergeFonts(base, files)
		}
	}
	if err != nil {
		return nil, false, resolve.Candidate{}, err
	}
	return data, false, cand, nil
}

// scrubMode clears the bits crossfs never exposes through the unified
// namespace: setuid, setgid, sticky, and every write bit. The mount is
// read-only outside the control file regardless of the backing file's
// real permissions.
func scrubMode(mode os.FileMode) os.FileMode {
	mode &^= os.ModeSetuid | os.ModeSetgid | os.ModeSticky
	mode &^= 0222
	return mode
}

// fillAttrFromInfo copies a resolved backing file's stat information into
// a, after scrubbing the mode bits the mount never exposes.
func fillAttrFromInfo(a *fuse.Attr, fi os.FileInfo) {
	a.Size = uint64(fi.Size())
	a.Mode = scrubMode(fi.Mode())
	a.Mtime = fi.ModTime()
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		a.Uid = st.Uid
		a.Gid = st.Gid
		a.Nlink = uint32(st.Nlink)
		a.Inode = st.Ino
	}
}

// fillVirtualAttr fills a for a synthesized directory (virtual directory
// or the mount root), which has no backing stat of its own.
func fillVirtualAttr(a *fuse.Attr) {
	a.Mode = os.ModeDir | 0555
	a.Size = 0
}

// fillControlAttr fills a for the control file, whose size is always the
// routing table's current textual projection length.
func fillControlAttr(a *fuse.Attr, size int) {
	a.Mode = 0600
	a.Size = uint64(size)
}
