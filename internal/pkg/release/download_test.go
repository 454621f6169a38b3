package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kittengrid/actions/internal/pkg/platform"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReleaseServer(t *testing.T, archive []byte) (*httptest.Server, *atomic.Value) {
	t.Helper()

	requested := &atomic.Value{}
	requested.Store("")

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requested.Store(request.URL.Path)

		if request.Header.Get("User-Agent") != userAgent {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}

		switch {
		case strings.HasSuffix(request.URL.Path, "missing.tar.gz"):
			http.NotFound(writer, request)
		case strings.HasSuffix(request.URL.Path, "json"):
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"slideshow": {"author": "Yours Truly"}}`))
		default:
			_, _ = writer.Write(archive)
		}
	}))
	t.Cleanup(server.Close)

	return server, requested
}

func TestDownloader_DownloadAndExtract(t *testing.T) {
	archive := buildArchive(t, archiveEntry{name: "kittengrid-agent", body: "#!/bin/sh\necho agent\n"})
	server, _ := newReleaseServer(t, archive)

	outputDir := t.TempDir()
	downloader := NewDownloader(afero.NewOsFs())

	url := server.URL + "/kittengrid/agent/releases/download/v0.0.11/kittengrid-agent-linux-amd64.tar.gz"
	result, err := downloader.DownloadAndExtract(context.Background(), url, outputDir)
	require.NoError(t, err)

	assert.Equal(t, url, result.SourceURL)
	assert.Equal(t, filepath.Join(outputDir, "kittengrid-agent"), result.ExtractedPath)
	assert.True(t, strings.HasPrefix(result.ExtractedPath, outputDir))

	info, err := os.Stat(result.ExtractedPath)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Positive(t, info.Size())
	assert.NotZero(t, info.Mode().Perm()&0100, "extracted file must be executable")
}

func TestDownloader_DownloadAndExtract_NotFound(t *testing.T) {
	server, _ := newReleaseServer(t, nil)

	url := server.URL + "/nonexistent/repo/releases/download/v1.0.0/missing.tar.gz"
	_, err := NewDownloader(afero.NewMemMapFs()).DownloadAndExtract(context.Background(), url, "/out")

	require.ErrorIs(t, err, ErrDownloadFailed)
	assert.ErrorContains(t, err, url)
	assert.ErrorContains(t, err, "404 Not Found")
}

func TestDownloader_DownloadAndExtract_NotAnArchive(t *testing.T) {
	server, _ := newReleaseServer(t, nil)

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0755))

	_, err := NewDownloader(fs).DownloadAndExtract(context.Background(), server.URL+"/json", "/out")
	require.ErrorIs(t, err, ErrExtractionFailed)
	assert.NotErrorIs(t, err, ErrDownloadFailed)
}

func TestDownloader_DownloadAndExtract_EmptyFile(t *testing.T) {
	archive := buildArchive(t, archiveEntry{name: "kittengrid-agent"})
	server, _ := newReleaseServer(t, archive)

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0755))

	_, err := NewDownloader(fs).DownloadAndExtract(context.Background(), server.URL+"/agent.tar.gz", "/out")
	require.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorContains(t, err, "is empty")
}

func TestDownloader_DownloadAndExtract_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/agent.tar.gz"
	server.Close()

	_, err := NewDownloader(afero.NewMemMapFs()).DownloadAndExtract(context.Background(), url, "/out")
	require.ErrorIs(t, err, ErrDownloadFailed)
	assert.ErrorContains(t, err, url)
}

func TestDownloader_DownloadAgent(t *testing.T) {
	archive := buildArchive(t, archiveEntry{name: "kittengrid-agent", body: "agent-binary"})
	server, requested := newReleaseServer(t, archive)

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/runner/temp", 0755))

	downloader := NewDownloader(fs,
		WithBaseURL(server.URL+"/kittengrid"),
		WithRootDir("/runner/temp"),
	)

	result, err := downloader.DownloadAgent(context.Background(), platform.Facts{Arch: "x64", OS: "linux"})
	require.NoError(t, err)

	assert.Equal(t, "/kittengrid/agent/releases/download/v"+AgentVersion+"/kittengrid-agent-linux-amd64.tar.gz", requested.Load())
	assert.True(t, strings.HasPrefix(result.ExtractedPath, "/runner/temp/"+downloadDirPattern))
	assert.Equal(t, "kittengrid-agent", filepath.Base(result.ExtractedPath))

	info, err := fs.Stat(result.ExtractedPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestDownloader_DownloadAgent_UnsupportedPlatform(t *testing.T) {
	server, requested := newReleaseServer(t, nil)
	downloader := NewDownloader(afero.NewMemMapFs(), WithBaseURL(server.URL))

	t.Run("architecture", func(t *testing.T) {
		_, err := downloader.DownloadAgent(context.Background(), platform.Facts{Arch: "unsupported", OS: "linux"})
		require.ErrorIs(t, err, platform.ErrUnsupportedArchitecture)
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("os", func(t *testing.T) {
		_, err := downloader.DownloadAgent(context.Background(), platform.Facts{Arch: "arm64", OS: "win32"})
		require.ErrorIs(t, err, platform.ErrUnsupportedOS)
		assert.ErrorContains(t, err, "win32")
	})

	assert.Equal(t, "", requested.Load(), "no request may be issued for an unsupported platform")
}

func TestArchiveURL(t *testing.T) {
	target := platform.ReleaseTarget{
		Architecture:    platform.ARM64,
		OperatingSystem: platform.Linux,
		Version:         "0.0.8",
	}

	assert.Equal(t,
		"https://github.com/kittengrid/agent/releases/download/v0.0.8/kittengrid-agent-linux-arm64.tar.gz",
		ArchiveURL(DefaultBaseURL, target))
}

func TestNewDownloader_Defaults(t *testing.T) {
	downloader := NewDownloader(afero.NewMemMapFs())
	assert.Equal(t, AgentVersion, downloader.Version())
	assert.Equal(t, DefaultBaseURL, downloader.baseURL)
	assert.NotNil(t, downloader.fetcher)
}
