package cmd

import (
	"path"
	"strings"
	"syscall"

	"github.com/emufs/mirrorfs"
	"github.com/emufs/mirrorfs/config"
	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// initCmdLogger maps a verbosity count onto the internal log level and
// brings up the global logger. Utility commands default to errors only so
// their stdout stays clean.
func initCmdLogger(verbose int) {
	cfg := config.NewConfig(&config.ConfigOverride{LogLvl: &verbose})
	util.InitializeLogger(cfg.LogLvl)
}

// openSource brings the mirror backend up on a host directory without any
// kernel involvement. The caller owns the returned references; release them
// with closeSource when done.
func openSource(source string) (*vfs.Device, *vfs.Node, error) {
	dev, mnt, err := mirrorfs.System.Init(source, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	return dev, mnt.Root, nil
}

// closeSource releases the base references handed out by openSource.
func closeSource(dev *vfs.Device, root *vfs.Node) {
	_ = root.DecRef()
	_ = dev.DecRef()
}

// resolveNode walks rel from the mount root one lookup at a time. The
// returned node is counted; release it with DecRef when done. Components
// never climb upward: ".." is refused rather than resolved, since the host
// mapping appends names verbatim.
func resolveNode(dev *vfs.Device, root *vfs.Node, rel string) (*vfs.Node, error) {
	rel = path.Clean(strings.Trim(rel, "/"))
	if rel == "" || rel == "." {
		return root.IncRef(), nil
	}

	cur := root
	for _, name := range strings.Split(rel, "/") {
		if name == ".." {
			if cur != root {
				_ = cur.DecRef()
			}
			return nil, syscall.EINVAL
		}
		child, err := dev.Ops.Finddir(cur, name)
		if err != nil {
			if cur != root {
				_ = cur.DecRef()
			}
			return nil, err
		}
		// The child's parent link keeps the rest of the chain alive.
		if cur != root {
			_ = cur.DecRef()
		}
		cur = child
	}
	return cur, nil
}

// splitEntry separates rel into parent directory and final name for
// operations that address a child by name under a directory node. The
// mirror root itself comes back as (".", "").
func splitEntry(rel string) (dir, name string) {
	rel = path.Clean(strings.Trim(rel, "/"))
	if rel == "" || rel == "." {
		return ".", ""
	}
	dir, name = path.Split(rel)
	dir = strings.Trim(dir, "/")
	if dir == "" {
		dir = "."
	}
	return dir, name
}

// typeChar is the ls-style type marker for a host mode word.
func typeChar(mode uint32) byte {
	switch mode & syscall.S_IFMT {
	case syscall.S_IFDIR:
		return 'd'
	case syscall.S_IFLNK:
		return 'l'
	case syscall.S_IFIFO:
		return 'p'
	case syscall.S_IFSOCK:
		return 's'
	case syscall.S_IFCHR:
		return 'c'
	case syscall.S_IFBLK:
		return 'b'
	default:
		return '-'
	}
}
