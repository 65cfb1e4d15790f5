package mirrorfs

import (
	"os"
	"syscall"

	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// nodeState is the per-node payload: the entry's recorded host mode, the
// host path it mirrors, and whatever host resources are open on it. A nil
// file means no open handle; a nil dir means no open cursor; an empty
// hostPath means the record has been released.
type nodeState struct {
	mode     uint32
	hostPath string
	file     *os.File
	dir      *dirCursor
}

// nodeStateOf unwraps the backend payload of a framework node. A missing
// node or payload is a caller fault.
func nodeStateOf(n *vfs.Node) (*nodeState, error) {
	if n == nil || n.Data == nil {
		return nil, syscall.EFAULT
	}
	state, ok := n.Data.(*nodeState)
	if !ok {
		return nil, syscall.EFAULT
	}
	return state, nil
}

// FreeNode tears down a node payload: directory cursor first, then the file
// handle, then the path record. Idempotent on nil. The first close failure
// is reported but never stops the rest of the teardown.
func (backend) FreeNode(data any) error {
	if data == nil {
		return nil
	}
	logger := util.GetLogger("mirrorfs")

	state := data.(*nodeState)
	logger.Trace().Str("path", state.hostPath).Msg("releasing node")

	var err error
	if state.dir != nil {
		err = state.dir.close()
		state.dir = nil
	}
	if state.file != nil {
		if cerr := state.file.Close(); err == nil {
			err = cerr
		}
		state.file = nil
	}
	state.hostPath = ""
	return err
}
