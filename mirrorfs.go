// Package mirrorfs is a read-only passthrough backend for the vfs node
// model: it projects a subtree of the host filesystem as a virtual node
// tree. Host identity never leaks; stat results carry a virtual device id
// and an inode hashed from the host (device, inode) pair. Every mutating
// entry point is rejected before the host sees a call.
//
// The backend takes no locks of its own. Callers serialize operations on a
// given node; see the framework contract in package vfs.
package mirrorfs

import (
	"os"
	"strings"
	"syscall"

	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// DefaultSource is the host directory mirrored when a mount names none.
const DefaultSource = "/mirror"

// System is the backend descriptor for registration with a mount table.
var System = vfs.System{
	Name:  "mirrorfs",
	NoDev: true,
	Init:  Init,
}

// backend implements the vfs operation contract. It is stateless; all
// per-mount and per-node state lives in device and node payloads.
type backend struct{}

var (
	_ vfs.Backend   = backend{}
	_ vfs.DirSeeker = backend{}
)

// deviceState is the per-device payload.
type deviceState struct {
	source string // mirrored host root, trailing separator trimmed
}

// Init mounts a read-only mirror of the host directory source. An empty
// source falls back to DefaultSource. The source must exist and be a
// directory; the existence check's host error propagates verbatim. The
// returned device and mount root each hold a reference the caller owns; the
// device keeps only a weak back-reference to the root.
func Init(source string, flags uint64, data any) (*vfs.Device, *vfs.Mount, error) {
	logger := util.GetLogger("mirrorfs")

	src := source
	if src == "" {
		src = DefaultSource
	}

	st, err := os.Stat(src)
	if err != nil {
		return nil, nil, err
	}
	if !st.IsDir() {
		return nil, nil, syscall.ENOTDIR
	}
	sys := st.Sys().(*syscall.Stat_t)

	// Nothing below can fail, so there are no partial teardown paths here;
	// FreeNode and FreeDevice carry the cleanup duties from now on.
	src = strings.TrimSuffix(src, "/")

	dev := vfs.NewDevice(backend{})
	dev.Data = &deviceState{source: src}

	root := vfs.NewNode()
	root.Mode = sys.Mode
	root.Dev = dev.ID
	root.Ino = identityHash(uint64(sys.Dev), sys.Ino)
	root.Device = dev.IncRef()
	root.Data = &nodeState{mode: sys.Mode, hostPath: src}

	// Weak reference
	dev.Root = root

	logger.Info().Str("source", src).Uint64("dev", dev.ID).Msg("mounted mirror device")
	return dev, &vfs.Mount{Root: root}, nil
}

// FreeDevice releases the per-device payload. Idempotent on nil.
func (backend) FreeDevice(data any) error {
	if data == nil {
		return nil
	}
	logger := util.GetLogger("mirrorfs")
	logger.Trace().Msg("releasing mirror device")

	state := data.(*deviceState)
	state.source = ""
	return nil
}

// Readlink always rejects: symbolic links are not a concept this backend
// supports, even when the underlying host entry is one.
func (backend) Readlink(node *vfs.Node) (string, error) {
	return "", syscall.EINVAL
}
