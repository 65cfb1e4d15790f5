// Package version reports build metadata for the mirrorfs binary.
//
// Release builds stamp Version, Commit, and Date via -ldflags. Anything
// left unset falls back to the module build info embedded by the Go
// toolchain, so `go install` builds still report a usable revision.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set by build flags; the defaults mark a from-source development build.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the full set of version fields in one marshalable struct.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Package string `json:"package"`
}

// GetVersion returns the release version, preferring the compile-time
// value over module build info.
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "development"
}

// GetCommit returns the VCS revision the binary was built from.
func GetCommit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	return buildSetting("vcs.revision", "unknown")
}

// GetBuildDate returns the commit timestamp of the build.
func GetBuildDate() string {
	if Date != "unknown" && Date != "" {
		return Date
	}
	return buildSetting("vcs.time", "unknown")
}

// GetInfo returns the complete version information.
func GetInfo() Info {
	return Info{
		Version: GetVersion(),
		Commit:  GetCommit(),
		Date:    GetBuildDate(),
		Package: "mirrorfs",
	}
}

// GetFullVersion formats the version with short commit and build date
// when they are known, e.g. "v0.3.1 (9f2c4ab, built 2026-08-01)".
func GetFullVersion() string {
	info := GetInfo()
	if info.Commit != "unknown" && len(info.Commit) > 7 {
		short := info.Commit[:7]
		if info.Date != "unknown" {
			return fmt.Sprintf("%s (%s, built %s)", info.Version, short, info.Date)
		}
		return fmt.Sprintf("%s (%s)", info.Version, short)
	}
	return info.Version
}

func buildSetting(key, fallback string) string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == key {
				return setting.Value
			}
		}
	}
	return fallback
}
