package vfs

import (
	"errors"
	"syscall"
)

// Errno collapses err to the errno it carries. Host errors keep their
// original number through os.PathError and os.SyscallError wrapping; an
// error with no errno in its chain reports EIO. A nil err reports 0.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}
