package mirrorfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/emufs/mirrorfs/vfs"
)

// dirCursor is host directory iteration state. Entries come back in host
// order, one per call, without "." and "..". Positions are ordinal tokens:
// the token for an entry is the count of entries yielded before it, valid
// for the cursor's lifetime.
type dirCursor struct {
	f   *os.File
	pos int64
}

func openDirCursor(hostPath string) (*dirCursor, error) {
	f, err := os.Open(hostPath)
	if err != nil {
		return nil, err
	}
	return &dirCursor{f: f}, nil
}

// next yields the following entry, or (nil, nil) once the stream is
// exhausted. The host inode is recovered when the entry is still statable;
// a concurrently removed entry keeps its name with a zero inode.
func (c *dirCursor) next() (*vfs.DirEntry, error) {
	entries, err := c.f.ReadDir(1)
	if errors.Is(err, io.EOF) || (err == nil && len(entries) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.pos++

	e := entries[0]
	entry := &vfs.DirEntry{Name: e.Name(), Mode: sysModeBits(e.Type())}
	if info, ierr := e.Info(); ierr == nil {
		if sys, ok := info.Sys().(*syscall.Stat_t); ok {
			entry.Ino = sys.Ino
		}
	}
	return entry, nil
}

// rewind restarts the stream from the first entry.
func (c *dirCursor) rewind() error {
	if _, err := c.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	c.pos = 0
	return nil
}

// seek repositions the cursor to the ordinal token loc. Moving backward
// restarts the host stream and skips forward again; seeking past the end
// just leaves the stream exhausted.
func (c *dirCursor) seek(loc int64) error {
	if loc < c.pos {
		if err := c.rewind(); err != nil {
			return err
		}
	}
	for c.pos < loc {
		entries, err := c.f.ReadDir(1)
		if errors.Is(err, io.EOF) || (err == nil && len(entries) == 0) {
			return nil
		}
		if err != nil {
			return err
		}
		c.pos++
	}
	return nil
}

// tell reports the token of the next entry to be yielded.
func (c *dirCursor) tell() int64 {
	return c.pos
}

func (c *dirCursor) close() error {
	return c.f.Close()
}

// sysModeBits maps a directory entry's type to raw S_IF* bits.
func sysModeBits(m fs.FileMode) uint32 {
	switch {
	case m.IsDir():
		return syscall.S_IFDIR
	case m&fs.ModeSymlink != 0:
		return syscall.S_IFLNK
	case m&fs.ModeNamedPipe != 0:
		return syscall.S_IFIFO
	case m&fs.ModeSocket != 0:
		return syscall.S_IFSOCK
	case m&fs.ModeCharDevice != 0:
		return syscall.S_IFCHR
	case m&fs.ModeDevice != 0:
		return syscall.S_IFBLK
	default:
		return syscall.S_IFREG
	}
}
