package mirrorfs

import (
	"os"
	"syscall"

	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// Open opens name under a directory node for reading. Any write intent in
// flags (access mode, create, truncate, append) is refused before the host
// sees a call; mode is accepted for contract shape and ignored. The host
// open uses exactly O_RDONLY, so a directory opens without error and yields
// a node with a handle but no cursor. Metadata comes from the opened handle,
// never a second path walk.
func (backend) Open(parent *vfs.Node, name string, flags int, mode uint32) (*vfs.Node, error) {
	logger := util.GetLogger("mirrorfs")

	pstate, err := nodeStateOf(parent)
	if err != nil {
		return nil, err
	}
	if !parent.IsDir() {
		return nil, syscall.ENOTDIR
	}

	if flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		return nil, syscall.EACCES
	}
	if flags&(syscall.O_CREAT|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return nil, syscall.EACCES
	}

	hostPath, err := childHostPath(pstate, name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(hostPath, os.O_RDONLY, 0)
	if err != nil {
		logger.Trace().Str("path", hostPath).Err(err).Msg("open failed")
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	sys := st.Sys().(*syscall.Stat_t)
	logger.Trace().Str("path", hostPath).Msg("opened read-only")

	node := vfs.NewNode()
	node.Name = name
	node.Mode = sys.Mode
	node.Dev = parent.Dev
	node.Ino = identityHash(uint64(sys.Dev), sys.Ino)
	node.Device = parent.Device.IncRef()
	node.Parent = parent.IncRef()
	node.Data = &nodeState{mode: sys.Mode, hostPath: hostPath, file: f}

	return node, nil
}
