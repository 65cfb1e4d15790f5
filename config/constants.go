package config

import "github.com/emufs/mirrorfs/internal/util"

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultFsName = "mirrorfs"
	DefaultName   = "mirrorfs"

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0

	// DefaultAllowOther keeps mounts private to the mounting user
	DefaultAllowOther = false
)

// DefaultLogLvl keeps mounts quiet until -v flags ask for more
const DefaultLogLvl = util.InfoLevel

// CLI verbosity scale. Stacked -v flags count up this scale; Merge turns
// the count into a [util.LogLevel] and clamps anything outside it.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)
