package cmd

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emufs/mirrorfs/config"
	"github.com/emufs/mirrorfs/internal/util"
)

// NewSeedCmd creates and returns the seed subcommand for the mirrorfs CLI.
// It generates a disposable host tree with enough variety to exercise a
// mirror: nested directories, files of assorted sizes, and symlinks.
func NewSeedCmd() *cobra.Command {
	var (
		outputPath string
		fileCount  int
		withLinks  bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a throwaway host tree for exercising the mirror",
		Long: `Generate a host directory tree suitable as a mirror source.

Files land in a YYYY/MM/DD hierarchy with randomized placement depth and
randomized sizes; each file holds repeated UUID lines. A sprinkling of
relative symlinks to earlier files is included so lookups that follow
links and readlink refusal both have something to chew on.`,
		Run: func(cmd *cobra.Command, args []string) {
			runSeed(outputPath, fileCount, withLinks, verbose)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().IntVarP(&fileCount, "count", "c", 1000, "Number of entries to generate")
	cmd.Flags().BoolVar(&withLinks, "symlinks", true, "Include relative symlinks to earlier files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("output") // nolint:errcheck

	return cmd
}

func runSeed(outputPath string, fileCount int, withLinks, verbose bool) {
	initCmdLogger(config.InfoVerbose)
	logger := util.GetLogger("main")

	if verbose {
		fmt.Printf("Generating %d entries in %s\n", fileCount, outputPath)
	}

	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		logger.Fatal().Err(err).Str("output", outputPath).Msg("Failed to create output directory")
	}

	// Generate pool of 50 UUIDs
	uuidPool := make([]string, 50)
	for i := range uuidPool {
		uuidPool[i] = uuid.New().String()
	}

	var (
		created       []string // regular files, candidate symlink targets
		linksCreated  int
		entriesMade   int
		dirFileCounts = make(map[string]int)
	)

	// Start from a base time and vary it
	baseTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for entriesMade < fileCount {
		dayOffset := randomBelow(365)
		fileTime := baseTime.AddDate(0, 0, int(dayOffset))

		// Placement depth: some files sit high in the tree, most at the
		// deepest level.
		var dirPath string
		switch depthRand := randomBelow(100); {
		case depthRand < 10: // 10% at year level
			dirPath = filepath.Join(outputPath, fmt.Sprintf("%04d", fileTime.Year()))
		case depthRand < 30: // 20% at month level
			dirPath = filepath.Join(outputPath,
				fmt.Sprintf("%04d", fileTime.Year()),
				fmt.Sprintf("%02d", fileTime.Month()))
		default: // 70% at day level
			dirPath = filepath.Join(outputPath,
				fmt.Sprintf("%04d", fileTime.Year()),
				fmt.Sprintf("%02d", fileTime.Month()),
				fmt.Sprintf("%02d", fileTime.Day()))
		}

		// Check if directory has too many files
		if dirFileCounts[dirPath] >= 1000 {
			continue // Try a different time/directory
		}

		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			logger.Warn().Err(err).Str("dir", dirPath).Msg("Failed to create directory")
			continue
		}

		// Random filename (lowercase hex)
		ext := ".txt"
		if randomBelow(2) == 1 {
			ext = ".json"
		}
		filename := fmt.Sprintf("%08x%s", randomBelow(0xFFFFFFFF), ext)
		filePath := filepath.Join(dirPath, filename)

		// Skip if the entry already exists
		if _, err := os.Lstat(filePath); err == nil {
			continue
		}

		// Roughly one entry in twenty is a symlink to an earlier file.
		if withLinks && len(created) > 0 && randomBelow(20) == 0 {
			target := created[randomBelow(int64(len(created)))]
			relTarget, err := filepath.Rel(dirPath, target)
			if err != nil {
				continue
			}
			if err := os.Symlink(relTarget, filePath); err != nil {
				logger.Warn().Err(err).Str("link", filePath).Msg("Failed to create symlink")
				continue
			}
			linksCreated++
		} else {
			// Repeated UUID lines give a spread of file sizes.
			line := uuidPool[randomBelow(int64(len(uuidPool)))] + "\n"
			content := bytes.Repeat([]byte(line), int(1+randomBelow(32)))
			if err := os.WriteFile(filePath, content, 0o644); err != nil {
				logger.Warn().Err(err).Str("file", filePath).Msg("Failed to write file")
				continue
			}
			created = append(created, filePath)
		}

		dirFileCounts[dirPath]++
		entriesMade++

		if verbose && entriesMade%1000 == 0 {
			fmt.Printf("Created %d/%d entries...\n", entriesMade, fileCount)
		}
	}

	if verbose {
		fmt.Printf("Successfully created %d entries (%d files, %d symlinks)\n",
			entriesMade, len(created), linksCreated)
		fmt.Printf("Entries distributed across %d directories\n", len(dirFileCounts))
	}
}

// randomBelow draws a uniform integer in [0, n) from the system source.
func randomBelow(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0
	}
	return v.Int64()
}
