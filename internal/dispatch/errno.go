package dispatch

import (
	"syscall"

	"bedrock.io/crossfs/internal/eio"
)

// toErrno translates an internal eio.Error (or any other error) to the
// syscall.Errno value bazil.org/fuse expects a dispatcher method to
// return. A syscall.Errno satisfies the error interface directly, so the
// kernel sees exactly the errno named here with no string formatting in
// the hot path.
func toErrno(err error) error {
	if err == nil {
		return nil
	}
	switch eio.ClassOf(err) {
	case eio.Absent:
		return syscall.ENOENT
	case eio.Permission:
		return syscall.EACCES
	case eio.ReadOnly:
		return syscall.EROFS
	case eio.RangeError:
		return syscall.ERANGE
	case eio.NameTooLong:
		return syscall.ENAMETOOLONG
	case eio.Invalid:
		return syscall.EINVAL
	case eio.IsADir:
		return syscall.EISDIR
	case eio.NoMemory:
		return syscall.ENOMEM
	default:
		return syscall.EIO
	}
}
