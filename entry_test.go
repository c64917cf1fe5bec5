package ubnt

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/ubnt/internal/testutil"
)

func TestExtract_BoundedByLength(t *testing.T) {
	t.Parallel()

	content := []byte("exactly this much")
	garbage := bytes.Repeat([]byte("GARBAGE!"), 64)
	b := testutil.NewBuilder("fw").
		FileWithFooter("a", content, 0, 0, garbage).
		File("b", []byte("next entry"), 0)
	data := b.Bytes()

	sources := map[string]func() io.ReadSeeker{
		"reader at": func() io.ReadSeeker { return bytes.NewReader(data) },
		"seek only": func() io.ReadSeeker { return &testutil.SeekOnly{R: bytes.NewReader(data)} },
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := Parse(src(), WithChunkSize(3))
			require.NoError(t, err)

			e, ok := c.Entry("a")
			require.True(t, ok)
			var out bytes.Buffer
			n, err := e.Extract(&out)
			require.NoError(t, err)
			assert.Equal(t, int64(len(content)), n)
			assert.Equal(t, content, out.Bytes())
			assert.Equal(t, data[e.Start():e.Start()+int64(e.Length())], out.Bytes())

			last, ok := c.Entry("b")
			require.True(t, ok)
			out.Reset()
			_, err = last.Extract(&out)
			require.NoError(t, err)
			assert.Equal(t, "next entry", out.String())
		})
	}
}

func TestExtract_Repeatable(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	c := parseBytes(t, data)
	e, _ := c.Entry("u-boot")

	for range 3 {
		var out bytes.Buffer
		_, err := e.Extract(&out)
		require.NoError(t, err)
		assert.Equal(t, fixtureFiles[2].content, out.Bytes())
	}
}

func TestExtract_EmptyEntry(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	c := parseBytes(t, data)
	e, ok := c.Entry("empty")
	require.True(t, ok)

	var out bytes.Buffer
	n, err := e.Extract(&out)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, out.Len())
}

func TestExtract_WriteFailure(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	c := parseBytes(t, data)
	e, _ := c.Entry("kernel0")

	_, err := e.Extract(testutil.FailingWriter{})
	require.ErrorIs(t, err, ErrIOFailure)
	require.ErrorIs(t, err, testutil.ErrInjected)
}

func TestExtract_Concurrent(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	for name, rs := range map[string]io.ReadSeeker{
		"reader at": bytes.NewReader(data),
		"seek only": &testutil.SeekOnly{R: bytes.NewReader(data)},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := Parse(rs, WithChunkSize(512))
			require.NoError(t, err)

			var wg sync.WaitGroup
			for _, f := range fixtureFiles {
				e, ok := c.Entry(f.name)
				require.True(t, ok)
				for range 4 {
					wg.Go(func() {
						var out bytes.Buffer
						_, err := e.Extract(&out)
						assert.NoError(t, err)
						assert.Equal(t, len(f.content), out.Len(), f.name)
						assert.True(t, bytes.Equal(f.content, out.Bytes()), f.name)
					})
				}
			}
			wg.Wait()
		})
	}
}

func TestExtractFile(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	c := parseBytes(t, data)
	e, _ := c.Entry("u-boot-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "env.bin")

	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("stale"), 100), 0o600))
	require.NoError(t, e.ExtractFile(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fixtureFiles[3].content, got, "existing file is truncated")

	err = e.ExtractFile(filepath.Join(dir, "missing", "env.bin"))
	require.ErrorIs(t, err, ErrIOFailure)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_ClosedStream(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	path := filepath.Join(t.TempDir(), "fw.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	c, err := Parse(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	e, _ := c.Entry("rootfs")
	_, err = e.Extract(io.Discard)
	require.ErrorIs(t, err, ErrIOFailure)
}

func TestDigestAndDescriptor(t *testing.T) {
	t.Parallel()

	_, data := buildFixture(t)
	c := parseBytes(t, data)
	e, _ := c.Entry("rootfs")

	dgst, err := e.Digest()
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes(fixtureFiles[1].content), dgst)

	desc, err := e.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, MediaTypeEntry, desc.MediaType)
	assert.Equal(t, dgst, desc.Digest)
	assert.Equal(t, int64(len(fixtureFiles[1].content)), desc.Size)
	assert.Equal(t, "rootfs", desc.Annotations[ocispec.AnnotationTitle])
	assert.Equal(t, "0x00000002", desc.Annotations[AnnotationFlags])
	assert.Equal(t, "0x12345678", desc.Annotations[AnnotationChecksum])

	descs, err := c.Descriptors()
	require.NoError(t, err)
	require.Len(t, descs, len(fixtureFiles))
	for i, f := range fixtureFiles {
		assert.Equal(t, f.name, descs[i].Annotations[ocispec.AnnotationTitle])
		assert.Equal(t, fixtureName, descs[i].Annotations[AnnotationFirmware])
		assert.Equal(t, digest.FromBytes(f.content), descs[i].Digest)
	}
}
