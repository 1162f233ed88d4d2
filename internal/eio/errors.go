// Package eio defines the error handling used throughout crossfs.
package eio

import (
	"bytes"
	"fmt"
	"runtime"
)

// Op describes the operation that failed, usually the dispatcher method
// being invoked (Getattr, Readdir, Read, ...).
type Op string

// Error is the type returned by every internal crossfs operation that can
// fail. It carries enough structure that the FUSE binding layer can map it
// to the right errno without parsing strings.
type Error struct {
	// Path is the incoming path involved in the operation, if any.
	Path string
	// Op is the operation being performed.
	Op Op
	// Class classifies the error for errno translation.
	Class Class
	// Err is the underlying error that triggered this one, if any.
	Err error
}

var _ error = (*Error)(nil)

// Class is the kind of error, used by the FUSE binding to pick an errno.
type Class uint8

// The error classes named in the specification's error-handling design.
const (
	Other       Class = iota // Unclassified error.
	Absent                   // Classification or resolution failed: no such entry.
	Permission               // Control-file access by a non-root caller.
	ReadOnly                 // Write to anything but the control file, or open for write.
	RangeError               // Undersized non-zero buffer on an extended-attribute read.
	NameTooLong              // A synthesized backing path exceeds the platform bound.
	Invalid                  // Malformed control-file command or other bad argument.
	IsADir                   // Read issued against a virtual or root path.
	NoMemory                 // Allocation failure while mutating the routing table.
)

func (c Class) String() string {
	switch c {
	case Absent:
		return "no such file or directory"
	case Permission:
		return "permission denied"
	case ReadOnly:
		return "read-only file system"
	case RangeError:
		return "result too large"
	case NameTooLong:
		return "file name too long"
	case Invalid:
		return "invalid argument"
	case IsADir:
		return "is a directory"
	case NoMemory:
		return "cannot allocate memory"
	case Other:
		return "other error"
	}
	return "unknown error class"
}

// E builds an *Error from its arguments. The type of each argument
// determines its meaning; at most one argument of each type may be
// present (the last one wins). Recognized types:
//
//	eio.Op      the operation being performed
//	string      the path involved
//	eio.Class   the error class
//	error       the underlying error that triggered this one
func E(args ...interface{}) error {
	if len(args) == 0 {
		return nil
	}
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Op:
			e.Op = arg
		case string:
			e.Path = arg
		case Class:
			e.Class = arg
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			return fmt.Errorf("eio.E: bad call from %s:%d: %v", file, line, args)
		}
	}
	return e
}

func pad(b *bytes.Buffer, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Error() string {
	b := new(bytes.Buffer)
	if e.Path != "" {
		b.WriteString(e.Path)
	}
	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}
	if e.Class != 0 {
		pad(b, ": ")
		b.WriteString(e.Class.String())
	}
	if e.Err != nil {
		if _, ok := e.Err.(*Error); ok {
			pad(b, ":\n\t")
		} else {
			pad(b, ": ")
		}
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// ClassOf returns the Class of err if it is an *Error, else Other. An
// *Error held inside another error is not searched for.
func ClassOf(err error) Class {
	if err == nil {
		return Other
	}
	if e, ok := err.(*Error); ok {
		return e.Class
	}
	return Other
}

// Is reports whether err is an *Error of the given class.
func Is(err error, c Class) bool {
	return ClassOf(err) == c
}
