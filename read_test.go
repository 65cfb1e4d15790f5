package mirrorfs

import (
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emufs/mirrorfs/vfs"
)

func openForRead(t *testing.T, dev *vfs.Device, root *vfs.Node, name string) *vfs.Node {
	t.Helper()
	node, err := dev.Ops.Open(root, name, os.O_RDONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		if node.Refs() > 0 {
			require.NoError(t, node.DecRef())
		}
	})
	return node
}

func TestRead_SequentialConsumesFile(t *testing.T) {
	dev, root, _ := mountMirror(t)
	node := openForRead(t, dev, root, "top.txt")

	var got []byte
	buf := make([]byte, 7)
	for {
		n, err := dev.Ops.Read(node, buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, fileContent, string(got))

	// Drained; nothing more to give
	n, err := dev.Ops.Read(node, buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRead_PreadIgnoresCursor(t *testing.T) {
	dev, root, _ := mountMirror(t)
	node := openForRead(t, dev, root, "top.txt")

	buf := make([]byte, 6)
	n, err := dev.Ops.Pread(node, buf, 7)
	require.NoError(t, err)
	assert.Equal(t, fileContent[7:13], string(buf[:n]))

	// Positioned reads leave the sequential cursor at zero
	n, err = dev.Ops.Read(node, buf)
	require.NoError(t, err)
	assert.Equal(t, fileContent[:6], string(buf[:n]))
}

func TestRead_PreadShortAtTail(t *testing.T) {
	dev, root, _ := mountMirror(t)
	node := openForRead(t, dev, root, "top.txt")

	off := int64(len(fileContent) - 4)
	buf := make([]byte, 32)
	n, err := dev.Ops.Pread(node, buf, off)
	assert.Equal(t, 4, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, fileContent[off:], string(buf[:n]))
}

func TestRead_VectoredFillsInOrder(t *testing.T) {
	dev, root, _ := mountMirror(t)
	node := openForRead(t, dev, root, "top.txt")

	first := make([]byte, 5)
	second := make([]byte, 4)
	n, err := dev.Ops.Readv(node, [][]byte{first, second})
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, fileContent[:5], string(first))
	assert.Equal(t, fileContent[5:9], string(second))
}

func TestSeek_MovesCursor(t *testing.T) {
	dev, root, _ := mountMirror(t)
	node := openForRead(t, dev, root, "top.txt")

	pos, err := dev.Ops.Seek(node, 7, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 7, pos)

	buf := make([]byte, len(fileContent))
	n, _ := dev.Ops.Read(node, buf)
	assert.Equal(t, fileContent[7:], string(buf[:n]))

	pos, err = dev.Ops.Seek(node, -4, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, len(fileContent)-4, pos)
}

func TestRead_HandleRequired(t *testing.T) {
	dev, root, _ := mountMirror(t)

	// Lookup produces a node without an open handle
	node, err := dev.Ops.Finddir(root, "top.txt")
	require.NoError(t, err)
	defer func() { require.NoError(t, node.DecRef()) }()

	buf := make([]byte, 8)
	_, err = dev.Ops.Read(node, buf)
	assert.ErrorIs(t, err, syscall.EBADF)
	_, err = dev.Ops.Readv(node, [][]byte{buf})
	assert.ErrorIs(t, err, syscall.EBADF)
	_, err = dev.Ops.Pread(node, buf, 0)
	assert.ErrorIs(t, err, syscall.EBADF)
	_, err = dev.Ops.Seek(node, 0, io.SeekStart)
	assert.ErrorIs(t, err, syscall.EBADF)
	assert.ErrorIs(t, dev.Ops.Close(node), syscall.EBADF)
}

func TestClose_ClearsHandle(t *testing.T) {
	dev, root, _ := mountMirror(t)
	node := openForRead(t, dev, root, "top.txt")

	require.NotNil(t, mustState(t, node).file)
	require.NoError(t, dev.Ops.Close(node))
	assert.Nil(t, mustState(t, node).file)

	// The handle is gone; a second close has nothing to act on
	assert.ErrorIs(t, dev.Ops.Close(node), syscall.EBADF)
}

func TestRead_DirectoryHandle(t *testing.T) {
	dev, root, _ := mountMirror(t)

	// Directories open fine; the host complains at read time
	node := openForRead(t, dev, root, "sub")
	_, err := dev.Ops.Read(node, make([]byte, 16))
	assert.ErrorIs(t, err, syscall.EISDIR)
}
