// Package fuse bridges the vfs node model to the kernel through go-fuse.
// Bridge inodes hold one backend node reference each and drop it when the
// kernel forgets the inode; file handles do the same for their open node.
package fuse

import (
	"context"
	"io"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// bridgeNode adapts one backend node to the kernel inode model.
type bridgeNode struct {
	gofuse.Inode

	dev  *vfs.Device
	node *vfs.Node
}

var (
	_ gofuse.InodeEmbedder   = (*bridgeNode)(nil)
	_ gofuse.NodeLookuper    = (*bridgeNode)(nil)
	_ gofuse.NodeGetattrer   = (*bridgeNode)(nil)
	_ gofuse.NodeAccesser    = (*bridgeNode)(nil)
	_ gofuse.NodeOpener      = (*bridgeNode)(nil)
	_ gofuse.NodeReaddirer   = (*bridgeNode)(nil)
	_ gofuse.NodeReadlinker  = (*bridgeNode)(nil)
	_ gofuse.NodeOnForgetter = (*bridgeNode)(nil)
)

// newBridgeNode wraps node, taking ownership of one reference to it.
func newBridgeNode(dev *vfs.Device, node *vfs.Node) *bridgeNode {
	return &bridgeNode{dev: dev, node: node}
}

func (b *bridgeNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	child, err := b.dev.Ops.Finddir(b.node, name)
	if err != nil {
		return nil, vfs.Errno(err)
	}

	attr, err := b.dev.Ops.Fstat(child)
	if err != nil {
		_ = child.DecRef()
		return nil, vfs.Errno(err)
	}
	fillAttr(attr, &out.Attr)

	bn := newBridgeNode(b.dev, child)
	inode := b.NewInode(ctx, bn, gofuse.StableAttr{Mode: child.Mode, Ino: child.Ino})
	if inode.Operations() != gofuse.InodeEmbedder(bn) {
		// An inode with this identity already exists and bn was discarded
		// without a forget, so its reference is ours to drop.
		_ = child.DecRef()
	}
	return inode, 0
}

func (b *bridgeNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if fga, ok := f.(gofuse.FileGetattrer); ok {
		return fga.Getattr(ctx, out)
	}

	attr, err := b.dev.Ops.Fstat(b.node)
	if err != nil {
		return vfs.Errno(err)
	}
	fillAttr(attr, &out.Attr)
	return 0
}

func (b *bridgeNode) Access(ctx context.Context, mask uint32) syscall.Errno {
	// The mount root has no parent record; it was validated at init and
	// never grants write permission.
	if b.node.Parent == nil {
		if mask&unix.W_OK != 0 {
			return syscall.EACCES
		}
		return 0
	}
	return vfs.Errno(b.dev.Ops.Access(b.node.Parent, b.node.Name, mask, 0))
}

func (b *bridgeNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	// Directories take the opendir path; a file open needs a parent to
	// resolve against.
	if b.node.Parent == nil {
		return nil, 0, syscall.EISDIR
	}

	opened, err := b.dev.Ops.Open(b.node.Parent, b.node.Name, int(flags), 0)
	if err != nil {
		return nil, 0, vfs.Errno(err)
	}
	return &bridgeFile{dev: b.dev, node: opened}, 0, 0
}

func (b *bridgeNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	if _, err := b.dev.Ops.Opendir(b.node); err != nil {
		return nil, vfs.Errno(err)
	}

	// Drain the cursor in one pass; the slice serves the kernel's offsets.
	var entries []fuse.DirEntry
	for {
		entry, err := b.dev.Ops.Readdir(b.node)
		if err != nil {
			_ = b.dev.Ops.Closedir(b.node)
			return nil, vfs.Errno(err)
		}
		if entry == nil {
			break
		}
		entries = append(entries, fuse.DirEntry{Name: entry.Name, Mode: entry.Mode, Ino: entry.Ino})
	}

	if err := b.dev.Ops.Closedir(b.node); err != nil {
		return nil, vfs.Errno(err)
	}
	return &sliceDirStream{entries: entries}, 0
}

func (b *bridgeNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := b.dev.Ops.Readlink(b.node)
	if err != nil {
		return nil, vfs.Errno(err)
	}
	return []byte(target), 0
}

func (b *bridgeNode) OnForget() {
	if err := b.node.DecRef(); err != nil {
		util.GetLogger("FuseBridge").Warn().Err(err).Msg("release on forget failed")
	}
}

// bridgeFile carries the backend node that holds an open host handle.
type bridgeFile struct {
	dev  *vfs.Device
	node *vfs.Node
}

var (
	_ gofuse.FileReader    = (*bridgeFile)(nil)
	_ gofuse.FileGetattrer = (*bridgeFile)(nil)
	_ gofuse.FileLseeker   = (*bridgeFile)(nil)
	_ gofuse.FileReleaser  = (*bridgeFile)(nil)
)

func (f *bridgeFile) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := f.dev.Ops.Pread(f.node, dest, off)
	if err != nil && err != io.EOF {
		return nil, vfs.Errno(err)
	}
	// A short read is how the kernel learns about end of file.
	return fuse.ReadResultData(dest[:n]), 0
}

func (f *bridgeFile) Getattr(ctx context.Context, out *fuse.AttrOut) syscall.Errno {
	attr, err := f.dev.Ops.Fstat(f.node)
	if err != nil {
		return vfs.Errno(err)
	}
	fillAttr(attr, &out.Attr)
	return 0
}

func (f *bridgeFile) Lseek(ctx context.Context, off uint64, whence uint32) (uint64, syscall.Errno) {
	pos, err := f.dev.Ops.Seek(f.node, int64(off), int(whence))
	if err != nil {
		return 0, vfs.Errno(err)
	}
	return uint64(pos), 0
}

func (f *bridgeFile) Release(ctx context.Context) syscall.Errno {
	err := f.dev.Ops.Close(f.node)
	if derr := f.node.DecRef(); derr != nil && err == nil {
		err = derr
	}
	return vfs.Errno(err)
}

// fillAttr copies backend attributes into the kernel reply shape.
func fillAttr(attr *vfs.Attr, out *fuse.Attr) {
	out.Ino = attr.Ino
	out.Size = uint64(attr.Size)
	out.Blocks = uint64(attr.Blocks)
	out.Blksize = uint32(attr.Blksize)
	out.Mode = attr.Mode
	out.Nlink = uint32(attr.Nlink)
	out.Uid = attr.Uid
	out.Gid = attr.Gid

	atime, mtime, ctime := attr.Atime, attr.Mtime, attr.Ctime
	out.SetTimes(&atime, &mtime, &ctime)
}

// sliceDirStream implements fs.DirStream from a slice of entries.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool {
	return s.index < len(s.entries)
}

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}
