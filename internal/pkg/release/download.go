package release

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/kittengrid/actions/internal/pkg/platform"
	"github.com/spf13/afero"
)

const downloadDirPattern = "download-agent-"

// Downloader acquires agent binaries: resolve, fetch, extract, mark executable.
type Downloader struct {
	fs        afero.Fs
	fetcher   *Fetcher
	extractor *Extractor

	baseURL string
	version string
	rootDir string
}

// DownloaderOption customises a Downloader.
type DownloaderOption func(downloader *Downloader)

// WithFetcher replaces the default fetcher.
func WithFetcher(fetcher *Fetcher) DownloaderOption {
	return func(downloader *Downloader) {
		downloader.fetcher = fetcher
	}
}

// WithBaseURL replaces the release host and organisation prefix.
func WithBaseURL(baseURL string) DownloaderOption {
	return func(downloader *Downloader) {
		downloader.baseURL = baseURL
	}
}

// WithRootDir sets the parent of per-invocation download directories.
// An empty root selects the OS temporary directory.
func WithRootDir(rootDir string) DownloaderOption {
	return func(downloader *Downloader) {
		downloader.rootDir = rootDir
	}
}

// NewDownloader creates a Downloader writing into fs.
func NewDownloader(fs afero.Fs, options ...DownloaderOption) *Downloader {
	downloader := &Downloader{
		fs:        fs,
		fetcher:   NewFetcher(nil),
		extractor: NewExtractor(fs),
		baseURL:   DefaultBaseURL,
		version:   AgentVersion,
	}

	for _, option := range options {
		option(downloader)
	}

	return downloader
}

// Version returns the agent version the downloader fetches.
func (downloader *Downloader) Version() string {
	return downloader.version
}

// DownloadAndExtract fetches the archive at url and extracts its single file into outputDir.
// The extracted file is made executable.
func (downloader *Downloader) DownloadAndExtract(ctx context.Context, url string, outputDir string) (DownloadResult, error) {
	body, err := downloader.fetcher.Fetch(ctx, url)
	if err != nil {
		return DownloadResult{}, err
	}
	defer func() { _ = body.Close() }()

	extractedPath, err := downloader.extractor.Extract(body, outputDir)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("extract %s: %w", url, err)
	}

	info, err := downloader.fs.Stat(extractedPath)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("%w: stat %s: %w", ErrExtractionFailed, extractedPath, err)
	}

	if info.Size() == 0 {
		return DownloadResult{}, fmt.Errorf("%w: %s is empty", ErrExtractionFailed, extractedPath)
	}

	if err := downloader.fs.Chmod(extractedPath, 0755); err != nil {
		return DownloadResult{}, fmt.Errorf("mark %s executable: %w", extractedPath, err)
	}

	slog.Info("Agent archive extracted.",
		slog.String("url", url),
		slog.String("path", extractedPath),
		slog.String("size", humanize.Bytes(uint64(info.Size()))),
	)

	return DownloadResult{
		SourceURL:     url,
		ExtractedPath: extractedPath,
	}, nil
}

// DownloadAgent resolves facts to a release target and downloads the agent into a
// fresh temporary directory. Failures are returned as-is, without retries.
func (downloader *Downloader) DownloadAgent(ctx context.Context, facts platform.Facts) (DownloadResult, error) {
	target, err := platform.ResolveTarget(facts, downloader.version)
	if err != nil {
		return DownloadResult{}, err
	}

	url := ArchiveURL(downloader.baseURL, target)

	outputDir, err := afero.TempDir(downloader.fs, downloader.rootDir, downloadDirPattern)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("create download directory: %w", err)
	}

	slog.Debug("Downloading agent.",
		slog.String("url", url),
		slog.String("outputDir", outputDir),
	)

	return downloader.DownloadAndExtract(ctx, url, outputDir)
}
