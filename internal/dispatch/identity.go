package dispatch

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// withCallerIdentity runs fn with the calling thread's filesystem uid/gid
// set to the caller's, restoring the previous identity before returning.
// The fsuid and fsgid belong to one OS thread, so the goroutine stays
// locked to its thread until the previous identity is restored. This is
// the Go equivalent of crossfs.c's set_caller_fsid/restore_root_fsid pair:
// every rooted-I/O call made on a caller's behalf must be subject to the
// same permission checks the caller would face, not the daemon's own root
// identity.
//
// setfsuid(2) and setfsgid(2) always succeed for a process with
// CAP_SETUID/CAP_SETGID (the daemon requires uid 0 to start), returning
// the previous value, so their error results are not checked and there
// is nothing here for the caller to check beyond fn's own result.
func withCallerIdentity(uid, gid uint32, fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	oldGid, _ := unix.SetfsgidRetGid(int(gid))
	oldUid, _ := unix.SetfsuidRetUid(int(uid))
	defer func() {
		unix.Setfsuid(oldUid)
		unix.Setfsgid(oldGid)
	}()
	return fn()
}
