package compare

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuvtool/internal/yuv"
)

func newSeq(t *testing.T, l yuv.Layout) *yuv.Seq {
	t.Helper()
	s, err := yuv.NewSeq(l)
	require.NoError(t, err)
	return s
}

func TestDiff_Identical(t *testing.T) {
	l := yuv.Layout{Width: 176, Height: 144, Format: yuv.Format420P, BitDepth: 8}
	a := newSeq(t, l)
	rand.New(rand.NewSource(1)).Read(a.Buf)
	b := newSeq(t, l)
	copy(b.Buf, a.Buf)

	st, err := Diff(a, b, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(176*144*3/2), st.Count)
	assert.Zero(t, st.SSD)
	assert.True(t, st.Equal())
	assert.True(t, math.IsInf(st.PSNR(8), 1))
}

func TestDiff_SingleSample(t *testing.T) {
	l := yuv.Layout{Width: 16, Height: 8, Format: yuv.Format422SP, BitDepth: 8}
	a, b, d := newSeq(t, l), newSeq(t, l), newSeq(t, l)
	b.Buf[a.YSize+3] = 5

	st, err := Diff(a, b, d)
	require.NoError(t, err)
	assert.Equal(t, Stat{Count: 256, SAD: 5, SSD: 25}, st)
	assert.Equal(t, byte(5), d.Buf[a.YSize+3])
	assert.InDelta(t, 10*math.Log10(65025*256.0/25), st.PSNR(8), 1e-9)
	assert.Equal(t, "cnt=256 sad=5 ssd=25", st.String())
}

func TestDiff_16bit(t *testing.T) {
	l := yuv.Layout{Width: 4, Height: 2, Format: yuv.FormatUYVY, BitDepth: 16, ActiveBits: 10}
	a, b, d := newSeq(t, l), newSeq(t, l), newSeq(t, l)
	binary.LittleEndian.PutUint16(a.Buf[2:], 1000)
	binary.LittleEndian.PutUint16(b.Buf[2:], 10)

	st, err := Diff(a, b, d)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), st.Count)
	assert.Equal(t, uint64(990), st.SAD)
	assert.Equal(t, uint64(990*990), st.SSD)
	assert.Equal(t, uint16(990), binary.LittleEndian.Uint16(d.Buf[2:]))
}

func TestDiff_Errors(t *testing.T) {
	a := newSeq(t, yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 8})
	b := newSeq(t, yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420SP, BitDepth: 8})
	_, err := Diff(a, b, nil)
	assert.True(t, errors.Is(err, yuv.ErrShapeMismatch))

	c := newSeq(t, yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 10})
	d := newSeq(t, yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 10})
	_, err = Diff(c, d, nil)
	assert.True(t, errors.Is(err, yuv.ErrUnsupportedFormat))
}

func TestStatAdd(t *testing.T) {
	var total Stat
	total.Add(Stat{Count: 4, SAD: 2, SSD: 2})
	total.Add(Stat{Count: 4, SAD: 3, SSD: 9})
	assert.Equal(t, Stat{Count: 8, SAD: 5, SSD: 11}, total)
	assert.True(t, math.IsInf(Stat{}.PSNR(8), 1))
}
