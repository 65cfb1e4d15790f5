package mirrorfs

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/emufs/mirrorfs/vfs"
)

// attrFromStat virtualizes a host stat result: the inode becomes the
// identity hash of the host (device, inode) pair and the device becomes the
// node's virtual id. Everything else passes through.
func attrFromStat(st *syscall.Stat_t, virtualDev uint64) *vfs.Attr {
	return &vfs.Attr{
		Dev:     virtualDev,
		Ino:     identityHash(uint64(st.Dev), st.Ino),
		Nlink:   uint64(st.Nlink),
		Mode:    st.Mode,
		Uid:     st.Uid,
		Gid:     st.Gid,
		Size:    st.Size,
		Blksize: int64(st.Blksize),
		Blocks:  st.Blocks,
		Atime:   time.Unix(st.Atim.Unix()),
		Mtime:   time.Unix(st.Mtim.Unix()),
		Ctime:   time.Unix(st.Ctim.Unix()),
	}
}

// Access answers a permission probe for name under parent. Write probes are
// denied outright; anything else goes to the host access check, whose result
// passes through unmodified. The flags argument is accepted for contract
// shape; the host check takes none.
func (backend) Access(parent *vfs.Node, name string, mode uint32, flags int) error {
	pstate, err := nodeStateOf(parent)
	if err != nil {
		return err
	}
	if mode&unix.W_OK != 0 {
		return syscall.EACCES
	}

	hostPath, err := childHostPath(pstate, name)
	if err != nil {
		return err
	}
	return unix.Access(hostPath, mode)
}

// Stat queries metadata for name under parent, without following the final
// symlink when AT_SYMLINK_NOFOLLOW is set. The caller never observes raw
// host identity.
func (backend) Stat(parent *vfs.Node, name string, flags int) (*vfs.Attr, error) {
	pstate, err := nodeStateOf(parent)
	if err != nil {
		return nil, err
	}

	hostPath, err := childHostPath(pstate, name)
	if err != nil {
		return nil, err
	}

	var st syscall.Stat_t
	if flags&unix.AT_SYMLINK_NOFOLLOW != 0 {
		err = syscall.Lstat(hostPath, &st)
	} else {
		err = syscall.Stat(hostPath, &st)
	}
	if err != nil {
		return nil, err
	}
	return attrFromStat(&st, parent.Dev), nil
}

// Fstat queries metadata through the node's open handle when it has one,
// falling back to a host stat of the recorded path. A node with neither is
// a bad handle.
func (backend) Fstat(node *vfs.Node) (*vfs.Attr, error) {
	state, err := nodeStateOf(node)
	if err != nil {
		return nil, err
	}

	var st syscall.Stat_t
	switch {
	case state.file != nil:
		err = syscall.Fstat(int(state.file.Fd()), &st)
	case state.hostPath != "":
		err = syscall.Stat(state.hostPath, &st)
	default:
		return nil, syscall.EBADF
	}
	if err != nil {
		return nil, err
	}
	return attrFromStat(&st, node.Dev), nil
}
