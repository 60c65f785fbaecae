package remap

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yuvtool/internal/bitdepth"
	"yuvtool/internal/yuv"
)

func newSeq(t *testing.T, l yuv.Layout) *yuv.Seq {
	t.Helper()
	s, err := yuv.NewSeq(l)
	require.NoError(t, err)
	return s
}

func randomize(s *yuv.Seq, seed int64) {
	rand.New(rand.NewSource(seed)).Read(s.Buf)
}

// random10 fills a 16-bit frame with values below 1024.
func random10(s *yuv.Seq, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i+1 < len(s.Buf); i += 2 {
		binary.LittleEndian.PutUint16(s.Buf[i:], uint16(rng.Intn(1024)))
	}
}

// planeRows collects the meaningful bytes of every plane row.
func planeRows(s *yuv.Seq) [][]byte {
	var out [][]byte
	for _, p := range s.Planes() {
		for y := 0; y < p.Height; y++ {
			out = append(out, s.Buf[p.Offset+y*p.Stride:][:p.RowBytes])
		}
	}
	return out
}

func TestTile8_RoundTrip(t *testing.T) {
	cases := []yuv.Layout{
		{Width: 64, Height: 64, Format: yuv.Format420P, BitDepth: 8},
		{Width: 20, Height: 10, Format: yuv.Format420P, BitDepth: 8},
		{Width: 24, Height: 8, Format: yuv.FormatUYVY, BitDepth: 8},
		{Width: 16, Height: 12, Format: yuv.Format422SP, BitDepth: 8, Stride: 20},
		{Width: 13, Height: 7, Format: yuv.Format400P, BitDepth: 8},
	}
	for i, l := range cases {
		raster := newSeq(t, l)
		randomize(raster, int64(i))

		tl := l
		tl.Tiled, tl.Stride = true, 0
		tiled := newSeq(t, tl)
		require.NoError(t, Tile8(tiled, raster, ToTiles))

		back := newSeq(t, l)
		require.NoError(t, Tile8(tiled, back, Untile))
		assert.Equal(t, planeRows(raster), planeRows(back), "%+v", l)
	}
}

func TestTile8_Addressing(t *testing.T) {
	raster := newSeq(t, yuv.Layout{Width: 64, Height: 64, Format: yuv.Format400P, BitDepth: 8})
	raster.Buf[5*64+9] = 0x5a
	tiled := newSeq(t, yuv.Layout{Width: 64, Height: 64, Format: yuv.Format400P, BitDepth: 8, Tiled: true})
	require.NoError(t, Tile8(tiled, raster, ToTiles))

	// tile (1,1), row 1, byte 1
	assert.Equal(t, byte(0x5a), tiled.Buf[256+32+8+1])
	n := 0
	for _, b := range tiled.Buf {
		if b != 0 {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestTile8_ClearsClippedCells(t *testing.T) {
	raster := newSeq(t, yuv.Layout{Width: 30, Height: 18, Format: yuv.Format420P, BitDepth: 8})
	randomize(raster, 30)
	clean := newSeq(t, yuv.Layout{Width: 30, Height: 18, Format: yuv.Format420P, BitDepth: 8, Tiled: true})
	require.NoError(t, Tile8(clean, raster, ToTiles))

	dirty := newSeq(t, clean.Layout())
	for i := range dirty.Buf {
		dirty.Buf[i] = 0xee
	}
	require.NoError(t, Tile8(dirty, raster, ToTiles))
	assert.Equal(t, clean.Frame(), dirty.Frame())

	// last cell of the first luma tile row: columns 24..29 of rows 0..3
	cell := dirty.Buf[3*32:][:32]
	for r := 0; r < 4; r++ {
		assert.Equal(t, []byte{0, 0}, cell[r*8+6:r*8+8], "row %d", r)
	}
}

func TestPickKernel(t *testing.T) {
	tp := yuv.Plane{Offset: 0, Stride: 256, Width: 64}
	rp := yuv.Plane{Offset: 0, Stride: 64, Width: 64}
	assert.Equal(t, kernelRow8, pickKernel(yuv.Tile8, tp, rp))

	tp.Width, rp.Width = 20, 20
	assert.Equal(t, kernelWord4, pickKernel(yuv.Tile8, tp, rp))

	rp.Stride = 21
	assert.Equal(t, kernelBytes, pickKernel(yuv.Tile8, tp, rp))

	wide := yuv.TileGeometry{Width: 16, Height: 2, Size: 32}
	assert.Equal(t, kernelWord8, pickKernel(wide, yuv.Plane{Stride: 64, Width: 32}, yuv.Plane{Stride: 32, Width: 32}))
}

func TestCopyRow_AllKernelsAgree(t *testing.T) {
	src := make([]byte, 24)
	rand.New(rand.NewSource(3)).Read(src)
	for _, k := range []copyKernel{kernelBytes, kernelWord4, kernelWord8} {
		for _, n := range []int{1, 3, 4, 7, 8, 13, 24} {
			dst := make([]byte, 24)
			copyRow(k, dst, src, n)
			assert.Equal(t, src[:n], dst[:n], "%s n=%d", k, n)
			assert.Equal(t, make([]byte, 24-n), dst[n:], "%s n=%d", k, n)
		}
	}
	dst := make([]byte, 8)
	copyRow(kernelRow8, dst, src, 8)
	assert.Equal(t, src[:8], dst)
}

func TestTile10_RoundTrip(t *testing.T) {
	cases := []yuv.Layout{
		{Width: 48, Height: 32, Format: yuv.Format420P, BitDepth: 16, ActiveBits: 10},
		{Width: 10, Height: 6, Format: yuv.Format420SP, BitDepth: 16, ActiveBits: 10},
		{Width: 8, Height: 5, Format: yuv.FormatYUYV, BitDepth: 16, ActiveBits: 10},
	}
	var scratch Scratch
	for i, l := range cases {
		raster := newSeq(t, l)
		random10(raster, int64(i))

		tl := l
		tl.BitDepth, tl.ActiveBits, tl.Tiled = 10, 0, true
		tiled := newSeq(t, tl)
		require.NoError(t, Tile10(tiled, raster, ToTiles, &scratch))

		back := newSeq(t, l)
		require.NoError(t, Tile10(tiled, back, Untile, nil))
		assert.Equal(t, planeRows(raster), planeRows(back), "%+v", l)
	}
}

func TestTile10_ColumnMajor(t *testing.T) {
	raster := newSeq(t, yuv.Layout{Width: 3, Height: 4, Format: yuv.Format400P, BitDepth: 16})
	// sample (x=1, y=2)
	binary.LittleEndian.PutUint16(raster.Buf[2*3*2+2*1:], 0x2ab)
	tiled := newSeq(t, yuv.Layout{Width: 3, Height: 4, Format: yuv.Format400P, BitDepth: 10, Tiled: true})
	tiled.Buf[15] = 0xee
	require.NoError(t, Tile10(tiled, raster, ToTiles, nil))

	wide := make([]byte, 24)
	bitdepth.UnpackLine10(wide, tiled.Buf, 12)
	assert.Equal(t, uint16(0x2ab), binary.LittleEndian.Uint16(wide[2*(1*4+2):]))
	assert.Equal(t, byte(0), tiled.Buf[15], "padding cleared")
}

func TestTile_Errors(t *testing.T) {
	raster := newSeq(t, yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 8})
	other := newSeq(t, yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 8})
	assert.True(t, errors.Is(Tile8(other, raster, ToTiles), yuv.ErrShapeMismatch))

	tiled := newSeq(t, yuv.Layout{Width: 24, Height: 8, Format: yuv.Format420P, BitDepth: 8, Tiled: true})
	assert.True(t, errors.Is(Tile8(tiled, raster, ToTiles), yuv.ErrShapeMismatch))

	tiled10 := newSeq(t, yuv.Layout{Width: 16, Height: 8, Format: yuv.Format420P, BitDepth: 10, Tiled: true})
	assert.True(t, errors.Is(Tile8(tiled10, raster, Untile), yuv.ErrUnsupportedFormat))
	assert.True(t, errors.Is(Tile10(tiled10, raster, Untile, nil), yuv.ErrUnsupportedFormat))
}

func TestMergeChroma_QCIF(t *testing.T) {
	src := newSeq(t, yuv.Layout{Width: 176, Height: 144, Format: yuv.Format420P, BitDepth: 8})
	randomize(src, 11)
	dst := newSeq(t, yuv.Layout{Width: 176, Height: 144, Format: yuv.Format420SP, BitDepth: 8})
	require.NoError(t, MergeChroma(dst, src))

	assert.Equal(t, src.Buf[:25344], dst.Buf[:25344])
	u := src.Buf[25344 : 25344+6336]
	v := src.Buf[25344+6336 : 25344+2*6336]
	uv := dst.Buf[25344 : 25344+12672]
	for i := 0; i < 6336; i++ {
		require.Equal(t, u[i], uv[2*i])
		require.Equal(t, v[i], uv[2*i+1])
	}

	back := newSeq(t, src.Layout())
	require.NoError(t, SplitChroma(back, dst))
	assert.Equal(t, src.Frame(), back.Frame())
}

func TestSplitChroma_16bit(t *testing.T) {
	src := newSeq(t, yuv.Layout{Width: 4, Height: 2, Format: yuv.Format422SPA, BitDepth: 16})
	uv := src.Planes()[1]
	for y := 0; y < 2; y++ {
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint16(src.Buf[uv.Offset+y*uv.Stride+2*i:], uint16(1000+10*y+i))
		}
	}
	dst := newSeq(t, yuv.Layout{Width: 4, Height: 2, Format: yuv.Format422P, BitDepth: 16})
	require.NoError(t, SplitChroma(dst, src))
	p := dst.Planes()
	get := func(pl yuv.Plane, x, y int) uint16 {
		return binary.LittleEndian.Uint16(dst.Buf[pl.Offset+y*pl.Stride+2*x:])
	}
	assert.Equal(t, uint16(1000), get(p[1], 0, 0))
	assert.Equal(t, uint16(1001), get(p[2], 0, 0))
	assert.Equal(t, uint16(1012), get(p[1], 1, 1))
	assert.Equal(t, uint16(1013), get(p[2], 1, 1))
}

func TestPacked_ByteOrder(t *testing.T) {
	planar := newSeq(t, yuv.Layout{Width: 4, Height: 1, Format: yuv.Format422P, BitDepth: 8})
	copy(planar.Buf, []byte{
		'a', 'b', 'c', 'd', // Y
		'U', 'u', // U
		'V', 'v', // V
	})

	yuyv := newSeq(t, yuv.Layout{Width: 4, Height: 1, Format: yuv.FormatYUYV, BitDepth: 8})
	require.NoError(t, MergePacked(yuyv, planar))
	assert.Equal(t, "aUbVcudv", string(yuyv.Frame()))

	uyvy := newSeq(t, yuv.Layout{Width: 4, Height: 1, Format: yuv.FormatUYVY, BitDepth: 8})
	require.NoError(t, MergePacked(uyvy, planar))
	assert.Equal(t, "UaVbucvd", string(uyvy.Frame()))

	back := newSeq(t, planar.Layout())
	require.NoError(t, SplitPacked(back, uyvy))
	assert.Equal(t, planar.Frame(), back.Frame())
}

func TestPacked_RoundTrip16(t *testing.T) {
	src := newSeq(t, yuv.Layout{Width: 8, Height: 3, Format: yuv.FormatYUYV, BitDepth: 16, Stride: 40})
	randomize(src, 5)
	planar := newSeq(t, yuv.Layout{Width: 8, Height: 3, Format: yuv.Format422P, BitDepth: 16})
	require.NoError(t, SplitPacked(planar, src))
	back := newSeq(t, src.Layout())
	require.NoError(t, MergePacked(back, planar))
	assert.Equal(t, planeRows(src), planeRows(back))
}

func TestResample_422To420(t *testing.T) {
	src := newSeq(t, yuv.Layout{Width: 4, Height: 4, Format: yuv.Format422P, BitDepth: 8})
	p := src.Planes()
	for c := 1; c < 3; c++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 2; x++ {
				src.Buf[p[c].Offset+y*p[c].Stride+x] = byte(c*100 + y*10 + x)
			}
		}
	}
	dst := newSeq(t, yuv.Layout{Width: 4, Height: 4, Format: yuv.Format420P, BitDepth: 8})
	require.NoError(t, Resample(dst, src))
	// U rows 0 and 2, then V rows 0 and 2
	assert.Equal(t, []byte{100, 101, 120, 121, 200, 201, 220, 221}, dst.Buf[16:24])

	up := newSeq(t, src.Layout())
	require.NoError(t, Resample(up, dst))
	assert.Equal(t, []byte{100, 101, 100, 101, 120, 121, 120, 121}, up.Buf[16:24])
}

func TestResample_Mono(t *testing.T) {
	mono := newSeq(t, yuv.Layout{Width: 4, Height: 2, Format: yuv.Format400P, BitDepth: 8})
	randomize(mono, 9)
	color := newSeq(t, yuv.Layout{Width: 4, Height: 2, Format: yuv.Format420P, BitDepth: 8})
	require.NoError(t, Resample(color, mono))
	assert.Equal(t, mono.Frame(), color.Buf[:8])
	assert.Equal(t, []byte{0x80, 0x80, 0x80, 0x80}, color.Buf[8:12])

	back := newSeq(t, mono.Layout())
	require.NoError(t, Resample(back, color))
	assert.Equal(t, mono.Frame(), back.Frame())

	mono16 := newSeq(t, yuv.Layout{Width: 2, Height: 1, Format: yuv.Format400P, BitDepth: 16, ActiveBits: 10})
	color16 := newSeq(t, yuv.Layout{Width: 2, Height: 1, Format: yuv.Format422P, BitDepth: 16, ActiveBits: 10})
	require.NoError(t, Resample(color16, mono16))
	assert.Equal(t, uint16(512), binary.LittleEndian.Uint16(color16.Buf[4:]))
	assert.Equal(t, uint16(512), binary.LittleEndian.Uint16(color16.Buf[6:]))
}

func TestRemap_Errors(t *testing.T) {
	p420 := newSeq(t, yuv.Layout{Width: 8, Height: 4, Format: yuv.Format420P, BitDepth: 8})
	sp422 := newSeq(t, yuv.Layout{Width: 8, Height: 4, Format: yuv.Format422SP, BitDepth: 8})
	assert.True(t, errors.Is(SplitChroma(p420, sp422), yuv.ErrUnsupportedFormat))
	assert.True(t, errors.Is(MergePacked(sp422, p420), yuv.ErrUnsupportedFormat))

	wide := newSeq(t, yuv.Layout{Width: 16, Height: 4, Format: yuv.Format420SP, BitDepth: 8})
	assert.True(t, errors.Is(MergeChroma(wide, p420), yuv.ErrShapeMismatch))

	p10 := newSeq(t, yuv.Layout{Width: 8, Height: 4, Format: yuv.Format420P, BitDepth: 10})
	sp10 := newSeq(t, yuv.Layout{Width: 8, Height: 4, Format: yuv.Format420SP, BitDepth: 10})
	assert.True(t, errors.Is(MergeChroma(sp10, p10), yuv.ErrUnsupportedFormat))

	short := &yuv.Seq{}
	require.NoError(t, short.SetLayout(p420.Layout()))
	assert.True(t, errors.Is(Resample(short, p420), yuv.ErrShapeMismatch))
}
