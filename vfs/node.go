package vfs

import "sync/atomic"

// Node is one virtual filesystem object. Identity fields carry virtualized
// values; Data belongs to the owning device's backend.
type Node struct {
	Name   string
	Mode   uint32  // raw host mode bits including the file type
	Dev    uint64  // virtual device id
	Ino    uint64  // virtual inode number
	Device *Device // owning device; counted
	Parent *Node   // counted; nil for a mount root
	Data   any     // backend payload

	refs atomic.Int64
}

// NewNode returns a node holding its creator's reference.
func NewNode() *Node {
	n := &Node{}
	n.refs.Store(1)
	return n
}

// IncRef takes an additional reference and returns n for assignment chains.
// Safe on nil.
func (n *Node) IncRef() *Node {
	if n == nil {
		return nil
	}
	if n.refs.Add(1) <= 1 {
		panic("vfs: IncRef on released node")
	}
	return n
}

// DecRef drops one reference. At zero the backend payload is freed first,
// then the parent reference, then the device reference. Safe on nil.
func (n *Node) DecRef() error {
	if n == nil {
		return nil
	}
	refs := n.refs.Add(-1)
	if refs < 0 {
		panic("vfs: DecRef on released node")
	}
	if refs > 0 {
		return nil
	}

	var err error
	if n.Device != nil && n.Device.Ops != nil {
		err = n.Device.Ops.FreeNode(n.Data)
	}
	n.Data = nil

	if perr := n.Parent.DecRef(); err == nil {
		err = perr
	}
	n.Parent = nil

	if derr := n.Device.DecRef(); err == nil {
		err = derr
	}
	n.Device = nil

	return err
}

// Refs reports the current reference count. Meant for tests and debug
// logging; the value may be stale by the time the caller looks at it.
func (n *Node) Refs() int64 {
	return n.refs.Load()
}

// IsDir reports whether the node's recorded mode is a directory.
func (n *Node) IsDir() bool {
	return IsDir(n.Mode)
}
