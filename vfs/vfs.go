// Package vfs defines the node and device model that filesystem backends
// plug into: reference-counted nodes and devices, the backend operation
// contract, and the errno conventions shared by every backend.
//
// Mount tables and path resolution live with the embedding program; this
// package only models what a backend needs to exist.
package vfs

import "syscall"

// System describes a backend available for mounting.
type System struct {
	Name  string
	NoDev bool // mounts without a backing block device
	Init  InitFunc
}

// InitFunc builds a device and its mount from a backend-specific source
// string. Implementations must release everything they acquired before
// returning an error.
type InitFunc func(source string, flags uint64, data any) (*Device, *Mount, error)

// Mount ties a mounted device to its root node.
type Mount struct {
	Root *Node
}

// Backend is the operation contract a read-side backend implements. Errors
// are errno-carrying: either a syscall.Errno directly or a host error that
// wraps one. Readdir signals exhaustion (and a missing cursor) with a nil
// entry and nil error.
type Backend interface {
	// FreeNode releases a node's backend payload. Must tolerate nil.
	FreeNode(data any) error
	// FreeDevice releases a device's backend payload. Must tolerate nil.
	FreeDevice(data any) error

	Finddir(parent *Node, name string) (*Node, error)
	Open(parent *Node, name string, flags int, mode uint32) (*Node, error)
	Access(parent *Node, name string, mode uint32, flags int) error
	Stat(parent *Node, name string, flags int) (*Attr, error)
	Fstat(node *Node) (*Attr, error)

	Close(node *Node) error
	Read(node *Node, p []byte) (int, error)
	Readv(node *Node, bufs [][]byte) (int, error)
	Pread(node *Node, p []byte, off int64) (int, error)
	Seek(node *Node, off int64, whence int) (int64, error)

	Opendir(node *Node) (*Node, error)
	Readdir(node *Node) (*DirEntry, error)
	Rewinddir(node *Node) error
	Closedir(node *Node) error

	Readlink(node *Node) (string, error)
}

// DirSeeker is the optional cursor-positioning capability. Backends whose
// host platform cannot restore directory positions simply don't implement
// it; callers type-assert.
type DirSeeker interface {
	Seekdir(node *Node, loc int64) error
	Telldir(node *Node) (int64, error)
}

// UnimplementedBackend returns ENOSYS from every operation. Backends may
// embed it so the contract can grow without breaking them; it also stands in
// for backends under test.
type UnimplementedBackend struct{}

func (UnimplementedBackend) FreeNode(any) error   { return nil }
func (UnimplementedBackend) FreeDevice(any) error { return nil }

func (UnimplementedBackend) Finddir(*Node, string) (*Node, error) { return nil, syscall.ENOSYS }
func (UnimplementedBackend) Open(*Node, string, int, uint32) (*Node, error) {
	return nil, syscall.ENOSYS
}
func (UnimplementedBackend) Access(*Node, string, uint32, int) error { return syscall.ENOSYS }
func (UnimplementedBackend) Stat(*Node, string, int) (*Attr, error)  { return nil, syscall.ENOSYS }
func (UnimplementedBackend) Fstat(*Node) (*Attr, error)              { return nil, syscall.ENOSYS }

func (UnimplementedBackend) Close(*Node) error                   { return syscall.ENOSYS }
func (UnimplementedBackend) Read(*Node, []byte) (int, error)     { return 0, syscall.ENOSYS }
func (UnimplementedBackend) Readv(*Node, [][]byte) (int, error)  { return 0, syscall.ENOSYS }
func (UnimplementedBackend) Pread(*Node, []byte, int64) (int, error) {
	return 0, syscall.ENOSYS
}
func (UnimplementedBackend) Seek(*Node, int64, int) (int64, error) { return 0, syscall.ENOSYS }

func (UnimplementedBackend) Opendir(*Node) (*Node, error)     { return nil, syscall.ENOSYS }
func (UnimplementedBackend) Readdir(*Node) (*DirEntry, error) { return nil, syscall.ENOSYS }
func (UnimplementedBackend) Rewinddir(*Node) error            { return syscall.ENOSYS }
func (UnimplementedBackend) Closedir(*Node) error             { return syscall.ENOSYS }

func (UnimplementedBackend) Readlink(*Node) (string, error) { return "", syscall.ENOSYS }
