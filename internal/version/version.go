// Package version holds build metadata stamped via ldflags.
package version

// Populated at build time:
//
//	-ldflags "-X github.com/kognita/dimrank/internal/version.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
