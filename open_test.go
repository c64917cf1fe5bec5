package ubnt

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, data []byte, compression Compression) string {
	t.Helper()

	var buf bytes.Buffer
	switch compression {
	case CompressionGzip:
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	case CompressionZstd:
		enc, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = enc.Write(data)
		require.NoError(t, err)
		require.NoError(t, enc.Close())
	default:
		buf.Write(data)
	}

	path := filepath.Join(t.TempDir(), "firmware.bin")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestOpen(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	for _, compression := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			t.Parallel()

			path := writeImage(t, data, compression)
			tmp := t.TempDir()

			c, err := Open(path, WithTempDir(tmp))
			require.NoError(t, err)
			assert.Equal(t, compression, c.Compression())
			assert.Equal(t, fixtureName, c.Name())
			assert.Equal(t, 6, c.Len())

			out := t.TempDir()
			stats, err := c.ExtractAll(context.Background(), out, ExtractWithWorkers(2))
			require.NoError(t, err)
			assert.Equal(t, 6, stats.FileCount)
			for _, f := range fixtureFiles {
				got, err := os.ReadFile(filepath.Join(out, f.name))
				require.NoError(t, err)
				assert.True(t, bytes.Equal(f.content, got), f.name)
			}

			require.NoError(t, c.Close())
			require.NoError(t, c.Close())

			leftovers, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, leftovers, "spooled image is removed on Close")
		})
	}
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	require.ErrorIs(t, err, ErrIOFailure)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpen_InvalidImage(t *testing.T) {
	t.Parallel()

	for _, compression := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		path := writeImage(t, []byte("this is not a firmware image at all"), compression)
		tmp := t.TempDir()

		_, err := Open(path, WithTempDir(tmp))
		require.ErrorIs(t, err, ErrInvalidFormat, compression.String())

		leftovers, err := os.ReadDir(tmp)
		require.NoError(t, err)
		assert.Empty(t, leftovers, compression.String())
	}

	path := writeImage(t, []byte("UBNT"), CompressionNone)
	_, err := Open(path)
	require.ErrorIs(t, err, ErrTruncatedInput)
}

func TestOpen_MaxDecompressedSize(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	path := writeImage(t, data, CompressionZstd)

	_, err := Open(path, WithTempDir(t.TempDir()), WithMaxDecompressedSize(1024))
	require.ErrorIs(t, err, ErrSizeOverflow)

	c, err := Open(path, WithTempDir(t.TempDir()), WithMaxDecompressedSize(0))
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestOpen_CorruptCompression(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.bin.gz")
	require.NoError(t, os.WriteFile(path, []byte{0x1f, 0x8b, 0x08, 0x00, 0xff}, 0o600))

	_, err := Open(path, WithTempDir(t.TempDir()))
	require.ErrorIs(t, err, ErrDecompression)
}
