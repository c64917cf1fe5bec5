package stream

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/ubnt/internal/fwtype"
	"github.com/meigma/ubnt/internal/testutil"
)

func TestCursor_ReadAndSkip(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789")
	r := bytes.NewReader(data)
	_, err := r.Seek(2, io.SeekStart)
	require.NoError(t, err)

	c, err := NewCursor(r)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Pos())
	assert.Equal(t, int64(10), c.Size())

	buf := make([]byte, 3)
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("234"), buf)
	assert.Equal(t, int64(5), c.Pos())

	require.NoError(t, c.Skip(3))
	assert.Equal(t, int64(8), c.Pos())

	_, err = io.ReadFull(c, buf[:2])
	require.NoError(t, err)
	assert.Equal(t, []byte("89"), buf[:2])

	require.NoError(t, c.Skip(0))
}

func TestCursor_SkipPastEnd(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(bytes.NewReader(make([]byte, 10)))
	require.NoError(t, err)

	require.NoError(t, c.Skip(10))
	err = c.Skip(1)
	require.ErrorIs(t, err, fwtype.ErrTruncatedInput)
	assert.Equal(t, int64(10), c.Pos(), "failed skip must not move the cursor")
}

func TestSource_CopyRange(t *testing.T) {
	t.Parallel()

	data := []byte("headerCONTENTtrailing-garbage")
	sources := map[string]io.ReadSeeker{
		"reader at": bytes.NewReader(data),
		"seek only": &testutil.SeekOnly{R: bytes.NewReader(data)},
	}

	for name, rs := range sources {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := NewSource(rs, int64(len(data)), 4)
			var out bytes.Buffer
			n, err := s.CopyRange(&out, 6, 7)
			require.NoError(t, err)
			assert.Equal(t, int64(7), n)
			assert.Equal(t, "CONTENT", out.String())
		})
	}
}

func TestSource_Concurrent(t *testing.T) {
	t.Parallel()

	data := []byte("abc")
	assert.True(t, NewSource(bytes.NewReader(data), 3, 0).Concurrent())
	assert.False(t, NewSource(&testutil.SeekOnly{R: bytes.NewReader(data)}, 3, 0).Concurrent())
}

func TestSource_CopyRangeTruncated(t *testing.T) {
	t.Parallel()

	data := []byte("short")
	for _, rs := range []io.ReadSeeker{bytes.NewReader(data), &testutil.SeekOnly{R: bytes.NewReader(data)}} {
		s := NewSource(rs, int64(len(data)), 0)
		n, err := s.CopyRange(io.Discard, 2, 10)
		require.ErrorIs(t, err, fwtype.ErrTruncatedInput)
		assert.Equal(t, int64(3), n)
	}
}

func TestSource_CopyRangeWriteFailure(t *testing.T) {
	t.Parallel()

	s := NewSource(bytes.NewReader([]byte("content")), 7, 0)
	_, err := s.CopyRange(testutil.FailingWriter{}, 0, 7)
	require.ErrorIs(t, err, fwtype.ErrIOFailure)
	require.ErrorIs(t, err, testutil.ErrInjected)
}

func TestSource_SerializedSeeks(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("a"), 1000)
	data = append(data, bytes.Repeat([]byte("b"), 1000)...)
	s := NewSource(&testutil.SeekOnly{R: bytes.NewReader(data)}, int64(len(data)), 16)

	var wg sync.WaitGroup
	results := make([]string, 20)
	for i := range results {
		wg.Go(func() {
			var out bytes.Buffer
			off := int64(0)
			if i%2 == 1 {
				off = 1000
			}
			_, err := s.CopyRange(&out, off, 1000)
			assert.NoError(t, err)
			results[i] = out.String()
		})
	}
	wg.Wait()

	for i, got := range results {
		want := string(data[:1000])
		if i%2 == 1 {
			want = string(data[1000:])
		}
		assert.Equal(t, want, got, "copy %d", i)
	}
}
