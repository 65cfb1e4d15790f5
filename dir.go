package mirrorfs

import (
	"syscall"

	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// Opendir starts enumerating a directory node. Iteration state lives on the
// node itself: the cursor is stored in the node's payload and the same node
// comes back holding one more reference, which Closedir releases. Opening
// again over a live cursor replaces it; the stale cursor is closed rather
// than leaked.
func (backend) Opendir(node *vfs.Node) (*vfs.Node, error) {
	logger := util.GetLogger("mirrorfs")

	state, err := nodeStateOf(node)
	if err != nil {
		return nil, err
	}
	if !vfs.IsDir(state.mode) {
		return nil, syscall.ENOTDIR
	}
	if state.hostPath == "" {
		return nil, syscall.EBADF
	}

	cursor, err := openDirCursor(state.hostPath)
	if err != nil {
		return nil, err
	}
	if state.dir != nil {
		if cerr := state.dir.close(); cerr != nil {
			logger.Warn().Str("path", state.hostPath).Err(cerr).Msg("closing stale cursor")
		}
	}
	state.dir = cursor

	logger.Trace().Str("path", state.hostPath).Msg("opendir")
	return node.IncRef(), nil
}

// Readdir yields the cursor's next entry. A nil entry with nil error means
// either the stream is exhausted or no cursor is open; the two states are
// deliberately indistinguishable.
func (backend) Readdir(node *vfs.Node) (*vfs.DirEntry, error) {
	state, err := nodeStateOf(node)
	if err != nil {
		return nil, err
	}
	if state.dir == nil {
		return nil, nil
	}
	return state.dir.next()
}

// Rewinddir resets an open cursor and silently does nothing without one.
func (backend) Rewinddir(node *vfs.Node) error {
	state, err := nodeStateOf(node)
	if err != nil {
		return err
	}
	if state.dir == nil {
		return nil
	}
	return state.dir.rewind()
}

// Seekdir repositions an open cursor to a token from Telldir and silently
// does nothing without one.
func (backend) Seekdir(node *vfs.Node, loc int64) error {
	state, err := nodeStateOf(node)
	if err != nil {
		return err
	}
	if state.dir == nil {
		return nil
	}
	return state.dir.seek(loc)
}

// Telldir reports the open cursor's position token.
func (backend) Telldir(node *vfs.Node) (int64, error) {
	state, err := nodeStateOf(node)
	if err != nil {
		return 0, err
	}
	if state.dir == nil {
		return 0, syscall.EBADF
	}
	return state.dir.tell(), nil
}

// Closedir closes the open cursor and releases the node reference taken at
// Opendir time. A close failure leaves the cursor in place, mirroring the
// host contract.
func (backend) Closedir(node *vfs.Node) error {
	state, err := nodeStateOf(node)
	if err != nil {
		return err
	}
	if state.dir == nil {
		return syscall.EBADF
	}

	if err := state.dir.close(); err != nil {
		return err
	}
	state.dir = nil
	return node.DecRef()
}
