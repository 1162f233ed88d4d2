//go:build unix

// Package rootedio performs open/stat/readlink/opendir/fopen-style calls
// against a path interpreted relative to a specific stratum's root
// directory.
//
// The only way to scope a path lookup to an arbitrary root directory
// without manually walking and resolving every symlink component by hand
// is to temporarily chroot(2) the process. That call is not reentrant
// across goroutines (the kernel changes the apparent root for the whole
// process, not just the calling thread's view), so every call that needs
// re-scoping is serialized through a single mutex, exactly as crossfs.c's
// own comment explains: a hand-rolled, lock-free path walker was tried
// and measured slower, primarily from the volume of extra readlink(2)
// calls it required.
package rootedio

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"bedrock.io/crossfs/internal/eio"
)

// Executor serializes chroot-scoped filesystem calls and remembers which
// stratum root is currently active so that back-to-back calls against the
// same stratum skip the re-scoping step.
type Executor struct {
	mu         sync.Mutex
	active     string // absolute path of the currently chrooted-to root, "" if at the initial root
	initialDir *os.File
}

// NewExecutor opens a handle to the process's current root directory so
// that Restore can return to it later, then constructs an Executor.
func NewExecutor() (*Executor, error) {
	f, err := os.Open("/")
	if err != nil {
		return nil, err
	}
	return &Executor{initialDir: f}, nil
}

// scope chroots the process into root if it isn't already scoped there.
// Must be called with mu held.
func (e *Executor) scope(root string) error {
	if e.active == root {
		return nil
	}
	// root names a directory in the initial root's namespace, so return
	// there first: a chroot issued from inside another stratum would
	// resolve root beneath that stratum instead.
	if err := e.initialDir.Chdir(); err != nil {
		e.active = ""
		return eio.E(eio.Other, err)
	}
	if err := unix.Chroot("."); err != nil {
		e.active = ""
		return eio.E(eio.Other, err)
	}
	if err := unix.Chroot(root); err != nil {
		// The active root is now unknown; force the next call to re-scope.
		e.active = ""
		return eio.E(eio.Other, err)
	}
	if err := unix.Chdir("/"); err != nil {
		e.active = ""
		return eio.E(eio.Other, err)
	}
	e.active = root
	return nil
}

// Stat performs stat(2) on path relative to root.
func (e *Executor) Stat(root, path string) (os.FileInfo, error) {
	var fi os.FileInfo
	err := e.do(root, func() error {
		var err error
		fi, err = os.Stat(path)
		return err
	})
	return fi, err
}

// Open performs open(2) on path relative to root with the given flags.
func (e *Executor) Open(root, path string, flag int, perm os.FileMode) (*os.File, error) {
	var f *os.File
	err := e.do(root, func() error {
		var err error
		f, err = os.OpenFile(path, flag, perm)
		return err
	})
	return f, err
}

// Readlink performs readlink(2) on path relative to root.
func (e *Executor) Readlink(root, path string) (string, error) {
	var target string
	err := e.do(root, func() error {
		var err error
		target, err = os.Readlink(path)
		return err
	})
	return target, err
}

// ReadDir performs opendir/readdir on path relative to root and returns
// the entry names, excluding "." and "..".
func (e *Executor) ReadDir(root, path string) ([]string, error) {
	var names []string
	err := e.do(root, func() error {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		names = make([]string, 0, len(entries))
		for _, ent := range entries {
			names = append(names, ent.Name())
		}
		return nil
	})
	return names, err
}

// ReadFile performs a full fopen+read of path relative to root.
func (e *Executor) ReadFile(root, path string) ([]byte, error) {
	var data []byte
	err := e.do(root, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}

// do scopes the executor to root, then invokes fn. It serializes the
// scoping step and the nested call through mu, so that no other goroutine
// can re-scope the process root in between. fn must not block
// indefinitely; the executor exposes no suspension points to callers.
func (e *Executor) do(root string, fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.scope(root); err != nil {
		return err
	}
	return fn()
}

// Restore chroots the process back to its initial root. It is called once,
// from the destroy operation, when no in-flight requests remain.
func (e *Executor) Restore() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.initialDir.Chdir(); err != nil {
		return err
	}
	if err := unix.Chroot("."); err != nil {
		return err
	}
	e.active = ""
	return e.initialDir.Close()
}
