package cmd

import (
	"github.com/spf13/cobra"

	"github.com/emufs/mirrorfs/version"
)

// NewRootCmd creates and returns the root cobra command for the mirrorfs CLI.
// It sets up all subcommands, command groups, and basic configuration.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mirrorfs",
		Short: "mirrorfs - a read-only FUSE mirror of a host directory tree",
		Long: `mirrorfs projects a host directory tree as a read-only filesystem.

The mirror never issues a write to the host: any write intent is refused
with EACCES before the host sees a call. File identity is rewritten so the
projection has its own device and inode namespace, stable across remounts,
regardless of where the host files actually live.

Use subcommands to perform different operations:
  - mount: Mount a mirror of a host directory at a mountpoint
  - ls: List a directory through the backend without mounting
  - cat: Print file contents through the backend without mounting
  - stat: Show rewritten identity and attributes for paths
  - seed: Generate a throwaway host tree for exercising the mirror`,
		Version: version.GetFullVersion(),
	}

	groupUtilities := "utilities"
	groupFilesystem := "filesystem"

	// Add command groups for better organization
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupFilesystem,
		Title: "Filesystem Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	mountCmd := NewMountCmd()
	lsCmd := NewLsCmd()
	catCmd := NewCatCmd()
	statCmd := NewStatCmd()
	seedCmd := NewSeedCmd()

	mountCmd.GroupID = groupFilesystem
	lsCmd.GroupID = groupUtilities
	catCmd.GroupID = groupUtilities
	statCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities

	// Add subcommands
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(seedCmd)

	return rootCmd
}
