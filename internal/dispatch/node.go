package dispatch

import (
	"context"
	"os"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"bedrock.io/crossfs/internal/classify"
	"bedrock.io/crossfs/internal/ctlfile"
	"bedrock.io/crossfs/internal/dirsynth"
	"bedrock.io/crossfs/internal/resolve"
)

// node is the fs.Node (and, since it implements the handle methods too,
// fs.Handle) for one incoming path. It carries no cached classification
// or stat: every method re-classifies and re-resolves path against the
// live routing table, since the table can change between a lookup and
// the request that follows it.
type node struct {
	s    *Server
	path string
}

var _ fs.Node = (*node)(nil)
var _ fs.NodeStringLookuper = (*node)(nil)
var _ fs.NodeOpener = (*node)(nil)
var _ fs.HandleReadDirAller = (*node)(nil)
var _ fs.HandleReader = (*node)(nil)
var _ fs.HandleWriter = (*node)(nil)
var _ fs.NodeGetxattrer = (*node)(nil)

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// Attr implements the getattr operation.
func (n *node) Attr(ctx context.Context, a *fuse.Attr) error {
	n.s.Table.RLock()
	defer n.s.Table.RUnlock()

	res := classify.Classify(n.s.Table, n.path, n.s.ControlPath)
	switch res.Class {
	case classify.Backed:
		data, isDir, cand, err := n.s.contentFor(res.Entry, n.path)
		if err != nil {
			return toErrno(err)
		}
		fi, err := n.s.Exec.Stat(cand.Backing.Stratum.Root, cand.Path)
		if err != nil {
			return toErrno(err)
		}
		fillAttrFromInfo(a, fi)
		if !isDir {
			a.Size = uint64(len(data))
		}
		return nil
	case classify.VirtualDir, classify.Root:
		fillVirtualAttr(a)
		return nil
	case classify.Control:
		fillControlAttr(a, n.s.Table.Size())
		return nil
	default:
		return syscall.ENOENT
	}
}

// Lookup implements path-component resolution beneath this node,
// returning ENOENT for anything classify reports Absent.
func (n *node) Lookup(ctx context.Context, name string) (fs.Node, error) {
	child := joinPath(n.path, name)

	n.s.Table.RLock()
	res := classify.Classify(n.s.Table, child, n.s.ControlPath)
	n.s.Table.RUnlock()

	if res.Class == classify.Absent {
		return nil, syscall.ENOENT
	}
	return &node{s: n.s, path: child}, nil
}

// Open implements the open operation. crossfs keeps no handle state
// across calls, so the returned handle is the node itself; every
// subsequent Read/Write/ReadDirAll re-resolves from scratch.
func (n *node) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	return withIdentityHandle(req.Header.Uid, req.Header.Gid, func() (fs.Handle, error) {
		n.s.Table.RLock()
		defer n.s.Table.RUnlock()
		res := classify.Classify(n.s.Table, n.path, n.s.ControlPath)

		switch res.Class {
		case classify.Backed:
			tail := n.path[len(res.Entry.CPath):]
			_, fi, err := resolve.StatFirst(n.s.Exec, res.Entry, tail)
			if err != nil {
				return nil, toErrno(err)
			}
			if fi.IsDir() {
				return n, nil
			}
			if !req.Flags.IsReadOnly() {
				return nil, syscall.EROFS
			}
			// Try-open first: a real open(2), under the caller's impersonated
			// identity, so a mode or ACL that forbids reading the winning
			// candidate is rejected here rather than at the first Read. No
			// handle state is kept across calls, so the file is closed
			// immediately once the open has proven permission.
			_, f, err := resolve.OpenFirst(n.s.Exec, res.Entry, tail, os.O_RDONLY, 0)
			if err != nil {
				return nil, toErrno(err)
			}
			f.Close()
			return n, nil
		case classify.VirtualDir, classify.Root:
			return n, nil
		case classify.Control:
			if err := ctlfile.CheckCaller(req.Header.Uid); err != nil {
				return nil, toErrno(err)
			}
			return n, nil
		default:
			return nil, syscall.ENOENT
		}
	})
}

// withIdentityHandle adapts withCallerIdentity to a function returning
// (fs.Handle, error), since Open's signature doesn't fit the plain
// func() error shape the other operations use.
func withIdentityHandle(uid, gid uint32, fn func() (fs.Handle, error)) (fs.Handle, error) {
	var h fs.Handle
	err := withCallerIdentity(uid, gid, func() error {
		var err error
		h, err = fn()
		return err
	})
	return h, err
}

// ReadDirAll implements the readdir operation for backed, virtual, and
// root directories.
func (n *node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	n.s.Table.RLock()
	defer n.s.Table.RUnlock()

	res := classify.Classify(n.s.Table, n.path, n.s.ControlPath)
	var names []string
	var err error
	switch res.Class {
	case classify.Backed:
		tail := n.path[len(res.Entry.CPath):]
		names, err = dirsynth.Backed(n.s.Exec, res.Entry, tail)
	case classify.VirtualDir:
		names, err = dirsynth.Virtual(n.s.Exec, n.s.Table, n.path)
	case classify.Root:
		names, err = dirsynth.Root(n.s.Exec, n.s.Table, n.s.ControlName)
	default:
		return nil, syscall.ENOENT
	}
	if err != nil {
		return nil, toErrno(err)
	}
	ents := make([]fuse.Dirent, 0, len(names))
	for _, nm := range names {
		ents = append(ents, fuse.Dirent{Name: nm})
	}
	return ents, nil
}

// Read implements the read operation for backed files and the control
// file. Virtual and root directories aren't readable as files.
func (n *node) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	return withCallerIdentity(req.Header.Uid, req.Header.Gid, func() error {
		n.s.Table.RLock()
		defer n.s.Table.RUnlock()

		res := classify.Classify(n.s.Table, n.path, n.s.ControlPath)
		switch res.Class {
		case classify.Backed:
			data, isDir, _, err := n.s.contentFor(res.Entry, n.path)
			if err != nil {
				return toErrno(err)
			}
			if isDir {
				return syscall.EISDIR
			}
			resp.Data = sliceRange(data, req.Offset, req.Size)
			return nil
		case classify.Control:
			if err := ctlfile.CheckCaller(req.Header.Uid); err != nil {
				return toErrno(err)
			}
			resp.Data = ctlfile.Read(n.s.Table, req.Offset, req.Size)
			return nil
		case classify.VirtualDir, classify.Root:
			return syscall.EISDIR
		default:
			return syscall.ENOENT
		}
	})
}

func sliceRange(data []byte, offset int64, size int) []byte {
	if offset < 0 || offset >= int64(len(data)) {
		return nil
	}
	end := offset + int64(size)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end]
}

// Write implements the write operation: the only path that ever accepts
// a write is the control file, and every write there mutates the routing
// table under its writer lock.
func (n *node) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	return withCallerIdentity(req.Header.Uid, req.Header.Gid, func() error {
		n.s.Table.RLock()
		res := classify.Classify(n.s.Table, n.path, n.s.ControlPath)
		n.s.Table.RUnlock()

		if res.Class != classify.Control {
			return syscall.EROFS
		}
		if err := ctlfile.CheckCaller(req.Header.Uid); err != nil {
			return toErrno(err)
		}

		n.s.Table.Lock()
		defer n.s.Table.Unlock()
		written, err := ctlfile.Write(n.s.Table, req.Data)
		if err != nil {
			return toErrno(err)
		}
		resp.Size = written
		return nil
	})
}

// The two extended attributes crossfs exposes on backed, virtual, root,
// and control paths: which stratum answered the request, and the local
// path within that stratum.
const (
	xattrStratum   = "bedrock.stratum"
	xattrLocalPath = "bedrock.local_path"
)

// Getxattr implements the getxattr operation, per the read lock resolved
// for it (the same reader lock getattr/readdir/open/read take, since a
// getxattr is itself a read-only lookup against the routing table).
func (n *node) Getxattr(ctx context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	return withCallerIdentity(req.Header.Uid, req.Header.Gid, func() error {
		n.s.Table.RLock()
		defer n.s.Table.RUnlock()

		res := classify.Classify(n.s.Table, n.path, n.s.ControlPath)
		var value string
		switch res.Class {
		case classify.Backed:
			tail := n.path[len(res.Entry.CPath):]
			cand, err := resolve.LocateFirst(n.s.Exec, res.Entry, tail)
			if err != nil {
				return toErrno(err)
			}
			switch req.Name {
			case xattrStratum:
				value = cand.Backing.Stratum.Label
			case xattrLocalPath:
				value = cand.Path
			default:
				return syscall.ENODATA
			}
		case classify.VirtualDir, classify.Root, classify.Control:
			switch req.Name {
			case xattrStratum:
				value = "virtual"
			case xattrLocalPath:
				value = "/"
			default:
				return syscall.ENODATA
			}
		default:
			return syscall.ENOENT
		}

		out, err := FillXattr(value, int(req.Size))
		if err != nil {
			return toErrno(err)
		}
		resp.Xattr = out
		return nil
	})
}
