package release

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// maxEntrySize bounds a single extracted file to guard against decompression bombs.
const maxEntrySize = 1 << 30

// Extractor unpacks single-file tar+gzip streams.
type Extractor struct {
	fs afero.Fs
}

// NewExtractor creates an Extractor writing into fs.
func NewExtractor(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

// Extract decompresses stream and writes its file entry into outputDir, returning the
// path of the written file. Every regular entry is flattened to its base name; when the
// archive holds more than one, the last one wins. Malformed archives, non-file entries
// and archives without a file entry fail with ErrExtractionFailed.
func (extractor *Extractor) Extract(stream io.Reader, outputDir string) (string, error) {
	gzipReader, err := gzip.NewReader(stream)
	if err != nil {
		return "", fmt.Errorf("%w: open gzip stream: %w", ErrExtractionFailed, err)
	}
	defer func() { _ = gzipReader.Close() }()

	tarReader := tar.NewReader(gzipReader)

	var extractedPath string

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: read tar entry: %w", ErrExtractionFailed, err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
		default:
			return "", fmt.Errorf("%w: unsupported entry type %q for %s", ErrExtractionFailed, header.Typeflag, header.Name)
		}

		name := path.Base(header.Name)
		if name == "." || name == "/" || name == ".." {
			return "", fmt.Errorf("%w: invalid entry name %q", ErrExtractionFailed, header.Name)
		}

		target := filepath.Join(outputDir, name)

		written, err := extractor.writeEntry(target, tarReader)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}

		slog.Debug("Archive entry extracted.",
			slog.String("entry", header.Name),
			slog.String("path", target),
			slog.String("size", humanize.Bytes(uint64(written))),
		)

		extractedPath = target
	}

	// The tar reader stops at the end-of-archive marker; draining the rest
	// makes the gzip reader verify its checksum and size trailer.
	if _, err := io.Copy(io.Discard, gzipReader); err != nil {
		return "", fmt.Errorf("%w: verify gzip stream: %w", ErrExtractionFailed, err)
	}

	if extractedPath == "" {
		return "", fmt.Errorf("%w: archive contains no file", ErrExtractionFailed)
	}

	return extractedPath, nil
}

func (extractor *Extractor) writeEntry(target string, reader io.Reader) (int64, error) {
	file, err := extractor.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", target, err)
	}

	written, err := io.Copy(file, io.LimitReader(reader, maxEntrySize+1))
	if err != nil {
		_ = file.Close()
		return written, fmt.Errorf("write %s: %w", target, err)
	}

	if written > maxEntrySize {
		_ = file.Close()
		return written, fmt.Errorf("write %s: entry exceeds %s", target, humanize.Bytes(maxEntrySize))
	}

	if err := file.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", target, err)
	}

	return written, nil
}
