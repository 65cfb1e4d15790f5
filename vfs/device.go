package vfs

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/emufs/mirrorfs/internal/util"
)

// Device is one mounted backend instance.
type Device struct {
	ID   uint64  // virtual device id, unique within the process
	Ops  Backend // operation table; shared by all nodes on the device
	Data any     // backend payload
	Root *Node   // weak back-reference to the mount root; never counted

	refs atomic.Int64
}

var (
	deviceIDs atomic.Uint64
	devices   = xsync.NewMapOf[uint64, *Device]()
)

// NewDevice registers a device for ops and returns it holding its creator's
// reference. IDs start at 1 so a zero Dev on a node always means "unset".
func NewDevice(ops Backend) *Device {
	d := &Device{ID: deviceIDs.Add(1), Ops: ops}
	d.refs.Store(1)
	devices.Store(d.ID, d)

	logger := util.GetLogger("vfs")
	logger.Trace().Uint64("dev", d.ID).Msg("device registered")

	return d
}

// LookupDevice finds a live device by its virtual id.
func LookupDevice(id uint64) (*Device, bool) {
	return devices.Load(id)
}

// IncRef takes an additional reference and returns d for assignment chains.
// Safe on nil.
func (d *Device) IncRef() *Device {
	if d == nil {
		return nil
	}
	if d.refs.Add(1) <= 1 {
		panic("vfs: IncRef on released device")
	}
	return d
}

// DecRef drops one reference. At zero the device is deregistered and its
// backend payload freed. Safe on nil.
func (d *Device) DecRef() error {
	if d == nil {
		return nil
	}
	refs := d.refs.Add(-1)
	if refs < 0 {
		panic("vfs: DecRef on released device")
	}
	if refs > 0 {
		return nil
	}

	devices.Delete(d.ID)
	d.Root = nil

	logger := util.GetLogger("vfs")
	logger.Trace().Uint64("dev", d.ID).Msg("device released")

	if d.Ops == nil {
		return nil
	}
	err := d.Ops.FreeDevice(d.Data)
	d.Data = nil
	return err
}

// Refs reports the current reference count, for tests and debug logging.
func (d *Device) Refs() int64 {
	return d.refs.Load()
}
