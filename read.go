package mirrorfs

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/emufs/mirrorfs/vfs"
)

// The read family delegates each call directly to the node's open handle
// and returns the host result unmodified: no buffering, no retries, no
// short-read looping. End-of-file arrives the way os.File reports it, as
// io.EOF. Every operation is a bad-handle error when no file is open.

func (backend) Close(node *vfs.Node) error {
	state, err := nodeStateOf(node)
	if err != nil {
		return err
	}
	if state.file == nil {
		return syscall.EBADF
	}
	err = state.file.Close()
	state.file = nil
	return err
}

func (backend) Read(node *vfs.Node, p []byte) (int, error) {
	state, err := nodeStateOf(node)
	if err != nil {
		return 0, err
	}
	if state.file == nil {
		return 0, syscall.EBADF
	}
	return state.file.Read(p)
}

func (backend) Readv(node *vfs.Node, bufs [][]byte) (int, error) {
	state, err := nodeStateOf(node)
	if err != nil {
		return 0, err
	}
	if state.file == nil {
		return 0, syscall.EBADF
	}
	return unix.Readv(int(state.file.Fd()), bufs)
}

func (backend) Pread(node *vfs.Node, p []byte, off int64) (int, error) {
	state, err := nodeStateOf(node)
	if err != nil {
		return 0, err
	}
	if state.file == nil {
		return 0, syscall.EBADF
	}
	return state.file.ReadAt(p, off)
}

func (backend) Seek(node *vfs.Node, off int64, whence int) (int64, error) {
	state, err := nodeStateOf(node)
	if err != nil {
		return 0, err
	}
	if state.file == nil {
		return 0, syscall.EBADF
	}
	return state.file.Seek(off, whence)
}
