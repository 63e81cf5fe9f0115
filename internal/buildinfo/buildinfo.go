// Package buildinfo holds build-time variables injected via ldflags.
package buildinfo

import "fmt"

// Populated by -ldflags at build time:
//
//	go build -ldflags "-X github.com/go-ports/vecture/internal/buildinfo.Version=v1.2.0"
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// String renders the build information as printed by `vecture --version`.
func String() string {
	commit := GitCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, commit, BuildDate)
}
