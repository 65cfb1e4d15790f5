package cmd

import (
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emufs/mirrorfs/config"
	"github.com/emufs/mirrorfs/fuse"
	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/version"
)

// NewMountCmd creates and returns the mount subcommand for the mirrorfs CLI.
// It mounts a read-only mirror of a host directory at a mountpoint.
func NewMountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount SOURCE MOUNTPOINT",
		Short: "Mount a read-only mirror of a host directory",
		Long: `Mount a read-only mirror of a host directory at the specified mountpoint.

SOURCE is the host directory to project.
MOUNTPOINT is the directory where the mirror will be mounted.

Every object under SOURCE appears under MOUNTPOINT with rewritten device
and inode identity. Reads pass through to the host; anything that implies
a write is refused with EACCES before the host is touched.`,
		Args: cobra.ExactArgs(2),
		Run:  runMount,
	}

	cmd.Flags().StringP("config", "c", "", "Path to a YAML or JSON config file")
	cmd.Flags().IntP("verbose", "v", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	cmd.Flags().BoolP("umount", "u", false,
		"Unmount the mountpoint first if needed before mounting again. Useful for debuggers that don't exit properly.")
	cmd.Flags().Bool("allow-other", false, "Allow users besides the mounter to access the mirror")
	cmd.Flags().String("fsname", "", "Filesystem source name reported to the kernel")
	cmd.Flags().String("name", "", "Filesystem type name reported to the kernel")
	cmd.Flags().Bool("debug", false, "Log raw kernel protocol traffic")

	return cmd
}

func runMount(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()
	verbose, _ := flags.GetInt("verbose")

	// Bring the logger up from the flag level first so config file problems
	// are reported in the normal format. A verbose key in the config file may
	// still adjust the level below.
	cfg := config.NewConfig(&config.ConfigOverride{LogLvl: &verbose})
	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	if configPath, _ := flags.GetString("config"); configPath != "" {
		override, err := config.LoadConfigOverrideFile(configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
		if flags.Changed("verbose") {
			// An explicit flag outranks the file.
			override.LogLvl = nil
		}
		cfg.Merge(override)
	}
	if flags.Changed("allow-other") {
		cfg.AllowOther, _ = flags.GetBool("allow-other")
	}
	if flags.Changed("fsname") {
		cfg.FsName, _ = flags.GetString("fsname")
	}
	if flags.Changed("name") {
		cfg.Name, _ = flags.GetString("name")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	util.InitializeLogger(cfg.LogLvl) // once more in case the file adjusted verbosity

	source := absPath(args[0])
	mountPoint := absPath(args[1])
	cfg.Source = source

	logger.Info().
		Str("version", version.GetFullVersion()).
		Str("source", source).
		Str("mountpoint", mountPoint).
		Msg("Mirror initializing")

	// A mountpoint inside the source would let the mirror see itself and
	// recurse; a source inside the mountpoint would be shadowed by the mount.
	if pathsOverlap(source, mountPoint) {
		logger.Fatal().Str("source", source).Str("mountpoint", mountPoint).
			Msg("Source and mountpoint must not overlap")
	}

	// Try unmount if requested
	if umount, _ := flags.GetBool("umount"); umount { // send cli command
		umountCmd := exec.Command("fusermount", "-u", mountPoint)
		// we ignore error here if not already mounted
		umountCmd.Run() // nolint:errcheck
	}

	srv, err := fuse.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("source", source).Msg("Failed to open mirror source")
	}

	if err := srv.Serve(mountPoint); err != nil {
		logger.Fatal().Err(err).Msg("Failed to mount filesystem")
	}

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	served := make(chan struct{})
	go func() {
		srv.Wait()
		close(served)
	}()

	logger.Info().Str("mountpoint", mountPoint).Msg("Filesystem mounted successfully")

	select {
	case sig := <-signalChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
		if err := srv.Unmount(); err != nil {
			logger.Error().Err(err).Msg("Failed to unmount filesystem")
		} else {
			<-served
		}
	case <-served:
		// Someone else unmounted us, e.g. fusermount -u by hand.
		logger.Info().Msg("Mount went away, shutting down")
	}

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to release mirror backend")
	} else {
		logger.Info().Msg("Filesystem unmounted successfully")
	}
}

// absPath normalizes a CLI path argument, falling back to the argument as
// given when the working directory is unavailable.
func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// pathsOverlap reports whether one cleaned path contains the other or the
// two are equal. The comparison is lexical; callers pass absolute paths
// when they want filesystem-level certainty.
func pathsOverlap(path1, path2 string) bool {
	path1 = filepath.Clean(path1)
	path2 = filepath.Clean(path2)
	if path1 == path2 {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path1, path2+sep) || strings.HasPrefix(path2, path1+sep)
}
