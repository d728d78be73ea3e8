// Package version carries build metadata injected at link time.
package version

import "fmt"

// Set with -ldflags "-X github.com/nyarchlinux/nyarchify/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for `nyarchify version`
func String() string {
	if Commit == "unknown" {
		return Version
	}
	short := Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, short, Date)
}
