package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/emufs/mirrorfs/internal/util"
	"github.com/emufs/mirrorfs/vfs"
)

// NewCatCmd creates and returns the cat subcommand for the mirrorfs CLI.
// It streams file contents through the backend without mounting anything.
func NewCatCmd() *cobra.Command {
	var verbose int

	cmd := &cobra.Command{
		Use:   "cat SOURCE PATH [PATH...]",
		Short: "Print file contents through the mirror backend",
		Long: `Print the contents of one or more files exactly as the mirror serves
them, without mounting anything.

Each PATH is relative to SOURCE. The read path is the same one a mounted
mirror uses: a read-only host handle opened through the backend, consumed
sequentially, and closed when drained.`,
		Args: cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			runCat(args[0], args[1:], verbose)
		},
	}

	cmd.Flags().IntVarP(&verbose, "verbose", "v", 1, "Log verbosity level between 1 (error) and 5 (trace)")

	return cmd
}

func runCat(source string, rels []string, verbose int) {
	initCmdLogger(verbose)
	logger := util.GetLogger("main")

	dev, root, err := openSource(source)
	if err != nil {
		logger.Fatal().Err(err).Str("source", source).Msg("Failed to open mirror source")
	}
	defer closeSource(dev, root)

	for _, rel := range rels {
		dir, name := splitEntry(rel)
		if name == "" {
			logger.Error().Str("path", rel).Msg("Path names the mirror root, not a file")
			continue
		}

		parent, err := resolveNode(dev, root, dir)
		if err != nil {
			logger.Error().Err(err).Str("path", rel).Msg("Failed to resolve parent directory")
			continue
		}

		file, err := dev.Ops.Open(parent, name, os.O_RDONLY, 0)
		// The open handle holds its own parent link from here on.
		_ = parent.DecRef()
		if err != nil {
			logger.Error().Err(err).Str("path", rel).Msg("Failed to open file")
			continue
		}

		if err := streamFile(dev, file); err != nil {
			logger.Fatal().Err(err).Str("path", rel).Msg("Read failed")
		}

		if err := dev.Ops.Close(file); err != nil {
			logger.Error().Err(err).Str("path", rel).Msg("Failed to close file")
		}
		_ = file.DecRef()
	}
}

// streamFile copies a file node to stdout through sequential backend reads.
func streamFile(dev *vfs.Device, file *vfs.Node) error {
	buf := make([]byte, 64*1024)
	for {
		n, err := dev.Ops.Read(file, buf)
		if n > 0 {
			if _, werr := os.Stdout.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
