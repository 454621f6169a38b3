// Package release downloads and unpacks kittengrid agent release archives.
package release

import (
	"errors"
	"fmt"

	"github.com/kittengrid/actions/internal/pkg/platform"
)

// AgentVersion is the agent release launched by the actions.
const AgentVersion = "0.0.11"

// DefaultBaseURL is where agent releases are published.
const DefaultBaseURL = "https://github.com/kittengrid"

var (
	// ErrDownloadFailed indicates the archive could not be fetched.
	ErrDownloadFailed = errors.New("download failed")

	// ErrExtractionFailed indicates the archive could not be unpacked into a single executable.
	ErrExtractionFailed = errors.New("extraction failed")
)

// DownloadResult describes an agent binary on disk. It only exists for a
// fully successful fetch and extraction.
type DownloadResult struct {
	SourceURL     string
	ExtractedPath string
}

// ArchiveURL returns the release archive URL of target under baseURL.
func ArchiveURL(baseURL string, target platform.ReleaseTarget) string {
	return fmt.Sprintf("%s/agent/releases/download/v%s/kittengrid-agent-%s-%s.tar.gz",
		baseURL, target.Version, target.OperatingSystem, target.Architecture)
}
