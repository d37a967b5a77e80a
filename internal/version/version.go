package version

import "fmt"

// Stamped by release builds:
// go build -ldflags "-X github.com/alexeyismirnov/deep-crawl/internal/version.Version=v1.2.0".
// Unstamped builds report "unknown" rather than an empty string.
var (
	Version   = "unknown"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String renders the one-line form the version command prints.
func String() string {
	return fmt.Sprintf("deepcrawl %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
