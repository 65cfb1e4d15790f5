package mirrorfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_ReadOnlySucceeds(t *testing.T) {
	dev, root, src := mountMirror(t)

	node, err := dev.Ops.Open(root, "top.txt", os.O_RDONLY, 0)
	require.NoError(t, err)
	defer func() { require.NoError(t, node.DecRef()) }()

	state := mustState(t, node)
	assert.NotNil(t, state.file)
	assert.Nil(t, state.dir)
	assert.Equal(t, src+"/top.txt", state.hostPath)

	host := hostStat(t, filepath.Join(src, "top.txt"))
	assert.Equal(t, identityHash(uint64(host.Dev), host.Ino), node.Ino)
	assert.Equal(t, root.Dev, node.Dev)
}

func TestOpen_WriteIntentRejected(t *testing.T) {
	dev, root, _ := mountMirror(t)

	tests := []struct {
		name  string
		flags int
	}{
		{"write only", os.O_WRONLY},
		{"read write", os.O_RDWR},
		{"append", os.O_RDONLY | os.O_APPEND},
		{"create", os.O_RDONLY | os.O_CREATE},
		{"truncate", os.O_RDONLY | os.O_TRUNC},
		{"create write truncate", os.O_WRONLY | os.O_CREATE | os.O_TRUNC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootRefs, devRefs := root.Refs(), dev.Refs()

			node, err := dev.Ops.Open(root, "top.txt", tt.flags, 0o644)
			assert.ErrorIs(t, err, syscall.EACCES)
			assert.Nil(t, node)

			// Refusal acquires nothing
			assert.Equal(t, rootRefs, root.Refs())
			assert.Equal(t, devRefs, dev.Refs())
		})
	}
}

func TestOpen_RejectionPrecedesHostAccess(t *testing.T) {
	dev, root, src := mountMirror(t)

	// The name does not exist; a host round-trip would say ENOENT. The
	// flag gate answers first.
	_, err := dev.Ops.Open(root, "brand-new.txt", os.O_WRONLY|os.O_CREATE, 0o644)
	assert.ErrorIs(t, err, syscall.EACCES)

	// And the host tree is untouched
	_, err = os.Stat(filepath.Join(src, "brand-new.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpen_MissingEntry(t *testing.T) {
	dev, root, _ := mountMirror(t)

	_, err := dev.Ops.Open(root, "no-such-file", os.O_RDONLY, 0)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpen_FileParentIsNotDirectory(t *testing.T) {
	dev, root, _ := mountMirror(t)

	file, err := dev.Ops.Finddir(root, "top.txt")
	require.NoError(t, err)
	defer func() { require.NoError(t, file.DecRef()) }()

	_, err = dev.Ops.Open(file, "anything", os.O_RDONLY, 0)
	assert.ErrorIs(t, err, syscall.ENOTDIR)
}

func TestOpen_DirectoryQuirk(t *testing.T) {
	dev, root, _ := mountMirror(t)

	// Opening a directory read-only is allowed; the node carries a handle
	// and no cursor until an explicit opendir
	node, err := dev.Ops.Open(root, "sub", os.O_RDONLY, 0)
	require.NoError(t, err)
	defer func() { require.NoError(t, node.DecRef()) }()

	assert.True(t, node.IsDir())
	state := mustState(t, node)
	assert.NotNil(t, state.file)
	assert.Nil(t, state.dir)
}
