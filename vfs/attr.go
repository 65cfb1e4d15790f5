package vfs

import (
	"syscall"
	"time"
)

// Attr is a stat result with virtualized identity. Dev and Ino never expose
// host values; everything else is whatever the host reported.
type Attr struct {
	Dev     uint64
	Ino     uint64
	Nlink   uint64
	Mode    uint32 // type and permission bits
	Uid     uint32
	Gid     uint32
	Size    int64
	Blksize int64
	Blocks  int64
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time
}

// IsDir reports whether the attr describes a directory.
func (a *Attr) IsDir() bool {
	return IsDir(a.Mode)
}

// DirEntry is a single directory entry as the host reported it. Ino is the
// host inode number when the backend could recover it cheaply, else zero.
type DirEntry struct {
	Name string
	Ino  uint64
	Mode uint32 // file type bits only
}

// IsDir reports whether mode's type bits name a directory.
func IsDir(mode uint32) bool {
	return mode&syscall.S_IFMT == syscall.S_IFDIR
}
