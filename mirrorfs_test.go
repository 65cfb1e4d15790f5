package mirrorfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emufs/mirrorfs/vfs"
)

const fileContent = "mirror me, mirror me\n"

// seedHost builds the host tree the tests mirror: sub/file.txt with known
// bytes plus a top-level file.
func seedHost(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "file.txt"), []byte(fileContent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("top\n"), 0o644))
	return dir
}

// mountMirror mounts a seeded host tree. The base device and root
// references are dropped on cleanup; tests release only what they acquire
// on top of those.
func mountMirror(t *testing.T) (*vfs.Device, *vfs.Node, string) {
	t.Helper()
	src := seedHost(t)
	dev, mnt, err := Init(src, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mnt.Root.DecRef()
		_ = dev.DecRef()
	})
	return dev, mnt.Root, src
}

func mustState(t *testing.T, n *vfs.Node) *nodeState {
	t.Helper()
	state, err := nodeStateOf(n)
	require.NoError(t, err)
	return state
}

func hostStat(t *testing.T, path string) *syscall.Stat_t {
	t.Helper()
	var st syscall.Stat_t
	require.NoError(t, syscall.Stat(path, &st))
	return &st
}

// countFDs counts this process's open descriptors via /proc/self/fd. The
// listing includes the descriptor reading it, identically on every call, so
// equal counts mean nothing leaked in between.
func countFDs(t *testing.T) int {
	t.Helper()
	ents, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	return len(ents)
}

func TestInit_MountsDirectory(t *testing.T) {
	src := seedHost(t)

	dev, mnt, err := Init(src, 0, nil)
	require.NoError(t, err)
	root := mnt.Root

	assert.True(t, root.IsDir())
	assert.Equal(t, dev.ID, root.Dev)

	host := hostStat(t, src)
	assert.Equal(t, identityHash(uint64(host.Dev), host.Ino), root.Ino)

	state := mustState(t, root)
	assert.Equal(t, src, state.hostPath)
	assert.Nil(t, state.file)
	assert.Nil(t, state.dir)

	// Weak back-reference plus the two owned references
	assert.Same(t, root, dev.Root)
	assert.Equal(t, int64(2), dev.Refs())
	assert.Equal(t, int64(1), root.Refs())

	found, ok := vfs.LookupDevice(dev.ID)
	require.True(t, ok)
	assert.Same(t, dev, found)

	require.NoError(t, root.DecRef())
	require.NoError(t, dev.DecRef())
	_, ok = vfs.LookupDevice(dev.ID)
	assert.False(t, ok)
}

func TestInit_TrailingSeparatorTrimmed(t *testing.T) {
	src := seedHost(t)

	dev, mnt, err := Init(src+"/", 0, nil)
	require.NoError(t, err)

	assert.Equal(t, src, dev.Data.(*deviceState).source)
	assert.Equal(t, src, mustState(t, mnt.Root).hostPath)

	require.NoError(t, mnt.Root.DecRef())
	require.NoError(t, dev.DecRef())
}

func TestInit_OnlyOneSeparatorTrimmed(t *testing.T) {
	src := seedHost(t)

	dev, mnt, err := Init(src+"//", 0, nil)
	require.NoError(t, err)

	// Verbatim path policy: nothing beyond the single trailing trim
	assert.Equal(t, src+"/", mustState(t, mnt.Root).hostPath)

	require.NoError(t, mnt.Root.DecRef())
	require.NoError(t, dev.DecRef())
}

func TestInit_MissingSourceFails(t *testing.T) {
	before := countFDs(t)

	_, _, err := Init(filepath.Join(t.TempDir(), "missing"), 0, nil)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.Equal(t, before, countFDs(t))
}

func TestInit_FileSourceIsNotDirectory(t *testing.T) {
	src := seedHost(t)

	_, _, err := Init(filepath.Join(src, "top.txt"), 0, nil)
	assert.ErrorIs(t, err, syscall.ENOTDIR)
}

func TestInit_EmptySourceUsesDefault(t *testing.T) {
	if _, err := os.Stat(DefaultSource); err == nil {
		t.Skipf("%s exists on this host", DefaultSource)
	}

	_, _, err := Init("", 0, nil)
	require.Error(t, err)

	var perr *fs.PathError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, DefaultSource, perr.Path)
}

func TestReadlink_AlwaysInvalid(t *testing.T) {
	dev, root, src := mountMirror(t)

	require.NoError(t, os.Symlink("top.txt", filepath.Join(src, "alias")))

	// Even a node that mirrors a real host symlink is refused
	alias, err := dev.Ops.Finddir(root, "alias")
	require.NoError(t, err)
	defer func() { require.NoError(t, alias.DecRef()) }()

	_, err = dev.Ops.Readlink(alias)
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = dev.Ops.Readlink(root)
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = dev.Ops.Readlink(nil)
	assert.ErrorIs(t, err, syscall.EINVAL)
}

func TestScenario_WalkOpenRead(t *testing.T) {
	dev, root, src := mountMirror(t)
	ops := dev.Ops

	sub, err := ops.Finddir(root, "sub")
	require.NoError(t, err)
	assert.Equal(t, src+"/sub", mustState(t, sub).hostPath)

	file, err := ops.Finddir(sub, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, src+"/sub/file.txt", mustState(t, file).hostPath)

	handle, err := ops.Open(sub, "file.txt", os.O_RDONLY, 0)
	require.NoError(t, err)

	buf := make([]byte, len(fileContent)+16)
	n, err := ops.Read(handle, buf)
	require.NoError(t, err)
	assert.Equal(t, fileContent, string(buf[:n]))

	// The write attempt is refused and holds nothing open
	wnode, err := ops.Open(sub, "file.txt", os.O_WRONLY, 0)
	assert.ErrorIs(t, err, syscall.EACCES)
	assert.Nil(t, wnode)

	// Tear down the walk; only the mount's own references remain
	require.NoError(t, handle.DecRef())
	require.NoError(t, file.DecRef())
	require.NoError(t, sub.DecRef())
	assert.Equal(t, int64(1), root.Refs())
	assert.Equal(t, int64(2), dev.Refs())
}

func TestScenario_DestroyClosesEverything(t *testing.T) {
	src := seedHost(t)
	before := countFDs(t)

	dev, mnt, err := Init(src, 0, nil)
	require.NoError(t, err)
	root := mnt.Root
	ops := dev.Ops

	// One node carrying both a file handle and a directory cursor
	node, err := ops.Open(root, "sub", os.O_RDONLY, 0)
	require.NoError(t, err)
	opened, err := ops.Opendir(node)
	require.NoError(t, err)
	assert.Same(t, node, opened)

	state := mustState(t, node)
	require.NotNil(t, state.file)
	require.NotNil(t, state.dir)
	heldFile, heldCursor := state.file, state.dir.f

	// Drop every reference without polite closes; teardown must reclaim
	require.NoError(t, node.DecRef())
	require.NoError(t, node.DecRef())
	require.NoError(t, root.DecRef())
	require.NoError(t, dev.DecRef())

	_, ferr := heldFile.Read(make([]byte, 1))
	assert.ErrorIs(t, ferr, os.ErrClosed)
	_, derr := heldCursor.Read(make([]byte, 1))
	assert.ErrorIs(t, derr, os.ErrClosed)

	assert.Equal(t, before, countFDs(t))
}
