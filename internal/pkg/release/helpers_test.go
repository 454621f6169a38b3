package release

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

type archiveEntry struct {
	name     string
	body     string
	typeflag byte
}

func buildArchive(t *testing.T, entries ...archiveEntry) []byte {
	t.Helper()

	buffer := &bytes.Buffer{}
	gzipWriter := gzip.NewWriter(buffer)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, entry := range entries {
		typeflag := entry.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}

		header := &tar.Header{
			Name:     entry.name,
			Mode:     0644,
			Size:     int64(len(entry.body)),
			Typeflag: typeflag,
		}
		if typeflag != tar.TypeReg {
			header.Size = 0
		}
		if typeflag == tar.TypeSymlink {
			header.Linkname = "/etc/passwd"
		}

		require.NoError(t, tarWriter.WriteHeader(header))
		if typeflag == tar.TypeReg {
			_, err := tarWriter.Write([]byte(entry.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tarWriter.Close())
	require.NoError(t, gzipWriter.Close())

	return buffer.Bytes()
}

// corruptChecksum flips a bit of the CRC32 in the gzip trailer.
func corruptChecksum(archive []byte) []byte {
	corrupted := bytes.Clone(archive)
	corrupted[len(corrupted)-8] ^= 0xff
	return corrupted
}
