// Package cmd provides the command-line interface implementation for mirrorfs.
//
// This package contains all the subcommand implementations for the mirrorfs
// CLI tool. It uses the Cobra library for command structure and Fang for
// styled help and error output.
//
// The package is organized into the following commands:
//   - root: Main command coordinator and entry point
//   - mount: FUSE mounting of a read-only mirror
//   - ls: Directory listing through the backend without a kernel mount
//   - cat: File content streaming through the backend without a kernel mount
//   - stat: Attribute and rewritten-identity inspection
//   - seed: Throwaway host tree generation for exercising the mirror
//
// Each command is implemented as a separate file with its own constructor
// function that returns a *cobra.Command. The ls, cat, and stat utilities
// drive the backend operation table directly, so they double as a way to
// observe exactly what a mounted mirror would serve without needing
// /dev/fuse or mount privileges.
package cmd
