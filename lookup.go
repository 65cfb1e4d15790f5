package mirrorfs

import (
	"os"
	"syscall"

	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// Finddir resolves one child name under a directory node. The host is
// queried with a following stat, so a host symlink resolves to its target's
// metadata here even though readlink is refused. The returned node holds
// fresh references on the parent and its device.
func (backend) Finddir(parent *vfs.Node, name string) (*vfs.Node, error) {
	logger := util.GetLogger("mirrorfs")

	pstate, err := nodeStateOf(parent)
	if err != nil {
		return nil, err
	}
	if !parent.IsDir() {
		return nil, syscall.ENOTDIR
	}

	hostPath, err := childHostPath(pstate, name)
	if err != nil {
		return nil, err
	}

	st, err := os.Stat(hostPath)
	if err != nil {
		logger.Trace().Str("path", hostPath).Err(err).Msg("lookup miss")
		return nil, err
	}
	sys := st.Sys().(*syscall.Stat_t)
	logger.Trace().Str("path", hostPath).Uint32("mode", sys.Mode).Msg("lookup hit")

	node := vfs.NewNode()
	node.Name = name
	node.Mode = sys.Mode
	node.Dev = parent.Dev
	node.Ino = identityHash(uint64(sys.Dev), sys.Ino)
	node.Device = parent.Device.IncRef()
	node.Parent = parent.IncRef()
	node.Data = &nodeState{mode: sys.Mode, hostPath: hostPath}

	return node, nil
}
