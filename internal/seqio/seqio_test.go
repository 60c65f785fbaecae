package seqio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuvtool/internal/yuv"
)

func frame(t *testing.T, fill byte) *yuv.Seq {
	t.Helper()
	s, err := yuv.NewSeq(yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 8})
	require.NoError(t, err)
	for i := range s.Buf {
		s.Buf[i] = fill + byte(i)
	}
	return s
}

func writeFrames(t *testing.T, path string, n int) {
	t.Helper()
	w, err := Create(path)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, w.WriteFrame(frame(t, byte(i*10))))
	}
	assert.Equal(t, n, w.Frames())
	assert.Equal(t, int64(n*192), w.Bytes())
	require.NoError(t, w.Close())
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"seq.yuv", "seq.yuv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			writeFrames(t, path, 3)

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			got := frame(t, 0)
			for i := 0; i < 3; i++ {
				require.NoError(t, r.ReadFrame(got))
				assert.Equal(t, frame(t, byte(i*10)).Frame(), got.Frame(), "frame %d", i)
			}
			assert.ErrorIs(t, r.ReadFrame(got), io.EOF)
			assert.Equal(t, 3, r.Frames())
		})
	}
}

func TestZstdIsCompressed(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, filepath.Join(dir, "a.zst"), 4)
	raw, err := os.ReadFile(filepath.Join(dir, "a.zst"))
	require.NoError(t, err)
	// zstd frame magic
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4])
}

func TestSkip(t *testing.T) {
	for _, name := range []string{"seq.yuv", "seq.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			writeFrames(t, path, 4)

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			require.NoError(t, r.Skip(2, 192))
			got := frame(t, 0)
			require.NoError(t, r.ReadFrame(got))
			assert.Equal(t, frame(t, 20).Frame(), got.Frame())
			assert.Equal(t, 3, r.Frames())

			err = r.Skip(5, 192)
			if err == nil {
				err = r.ReadFrame(got)
			}
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestPartialFrame(t *testing.T) {
	data := bytes.Repeat([]byte{1}, 192+50)
	r := NewReader(bytes.NewReader(data))
	s := frame(t, 0)
	require.NoError(t, r.ReadFrame(s))
	assert.ErrorIs(t, r.ReadFrame(s), io.ErrUnexpectedEOF)
}

func TestNewReaderSeeks(t *testing.T) {
	data := make([]byte, 3*192)
	data[2*192] = 0xab
	r := NewReader(bytes.NewReader(data))
	require.NoError(t, r.Skip(2, 192))
	s := frame(t, 0)
	require.NoError(t, r.ReadFrame(s))
	assert.Equal(t, byte(0xab), s.Buf[0])
}

func TestWriterToBuffer(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteFrame(frame(t, 7)))
	assert.Zero(t, buf.Len(), "buffered until Close")
	require.NoError(t, w.Close())
	assert.Equal(t, frame(t, 7).Frame(), buf.Bytes())
}

func TestShortBuffer(t *testing.T) {
	s := &yuv.Seq{}
	require.NoError(t, s.SetLayout(yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 8}))
	r := NewReader(bytes.NewReader(make([]byte, 192)))
	assert.True(t, errors.Is(r.ReadFrame(s), yuv.ErrShapeMismatch))
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.yuv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, IsZstd("a/B.ZST"))
	assert.False(t, IsZstd("a.yuv"))
}
