package fuse

import (
	"os"
	"sync"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/emufs/mirrorfs"
	"github.com/emufs/mirrorfs/config"
	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// Server exposes a mirror device through the kernel FUSE protocol with
// abstractions over the underlying wire implementation.
type Server struct {
	cfg    *config.Config
	dev    *vfs.Device
	root   *vfs.Node
	server *fuse.Server

	closeOnce sync.Once
}

// New initializes the mirror backend for cfg.Source. Source validation
// happens here, before any kernel involvement, so a bad source fails fast.
func New(cfg *config.Config) (*Server, error) {
	dev, mnt, err := mirrorfs.System.Init(cfg.Source, 0, nil)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, dev: dev, root: mnt.Root}, nil
}

// Serve mounts and serves the filesystem at the given mountPoint. It
// returns once the mount is live; use Wait to block until it goes away.
func (s *Server) Serve(mountPoint string) error {
	logger := util.GetLogger("FuseServer")

	if err := os.MkdirAll(mountPoint, 0o755); err != nil {
		return err
	}

	attrTimeout := secondsDuration(s.cfg.AttrTimeout)
	entryTimeout := secondsDuration(s.cfg.EntryTimeout)
	opts := &gofuse.Options{
		AttrTimeout:  &attrTimeout,
		EntryTimeout: &entryTimeout,
		MountOptions: fuse.MountOptions{
			Name:       s.cfg.Name,
			FsName:     s.cfg.FsName,
			AllowOther: s.cfg.AllowOther,
			Debug:      s.cfg.Debug || s.cfg.LogLvl == util.TraceLevel,
			Logger:     util.NewLogLogger("FuseServer", util.TraceLevel),
		},
	}

	// The root bridge owns its own node reference, released when the
	// kernel connection goes down.
	srv, err := gofuse.Mount(mountPoint, newBridgeNode(s.dev, s.root.IncRef()), opts)
	if err != nil {
		_ = s.root.DecRef()
		return err
	}
	s.server = srv

	logger.Info().Str("mountPoint", mountPoint).Str("source", s.cfg.Source).Msg("mirror mounted")
	return nil
}

// ServeAsync mounts in the background and reports the outcome on the
// returned channel.
func (s *Server) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Wait blocks until the filesystem is unmounted.
func (s *Server) Wait() {
	if s.server == nil {
		return
	}
	s.server.Wait()
}

// Unmount cleanly unmounts the filesystem.
func (s *Server) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}

// Close releases the backend references taken at New. Call it after the
// mount is down; kernel handles are gone by then.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.root.DecRef()
		if derr := s.dev.DecRef(); derr != nil && err == nil {
			err = derr
		}
	})
	return err
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
