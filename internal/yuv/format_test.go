package yuv

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)

		got, err = ParseFormat("%" + f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseFormat(" UYVY ")
	require.NoError(t, err)
	assert.Equal(t, FormatUYVY, got)

	got, err = ParseFormat("nv12")
	assert.Equal(t, FormatUnsupported, got)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFormatFamilies(t *testing.T) {
	assert.Equal(t, Format420P, Format420SPA.Base())
	assert.Equal(t, Format422P, FormatUYVY.Base())
	assert.Equal(t, Format422P, Format422SP.Base())
	assert.Equal(t, Format400P, Format400P.Base())
	assert.Equal(t, FormatUnsupported, FormatUnsupported.Base())

	for _, f := range Formats() {
		kinds := 0
		for _, b := range []bool{f.IsMono(), f.IsPlanar(), f.IsSemiPlanar(), f.IsPacked()} {
			if b {
				kinds++
			}
		}
		assert.Equal(t, 1, kinds, "%s belongs to exactly one storage family", f)
	}

	w, h := Format420SP.ChromaRatio()
	assert.Equal(t, [2]int{2, 2}, [2]int{w, h})
	w, h = Format422P.ChromaRatio()
	assert.Equal(t, [2]int{2, 1}, [2]int{w, h})
	w, h = FormatYUYV.ChromaRatio()
	assert.Equal(t, [2]int{0, 0}, [2]int{w, h})

	assert.Equal(t, "unsupported", FormatUnsupported.String())
	assert.Equal(t, "unsupported", PixelFormat(-1).String())
}

func TestParseSize(t *testing.T) {
	cases := map[string][2]int{
		"qcif":    {176, 144},
		"%1080":   {1920, 1080},
		"4K+":     {3840, 2176},
		"640x480": {640, 480},
		" 16x8 ":  {16, 8},
	}
	for in, want := range cases {
		w, h, err := ParseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, [2]int{w, h}, in)
	}

	for _, bad := range []string{"", "vga", "0x10", "10x", "x10", "-2x4"} {
		_, _, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestTileFor(t *testing.T) {
	tile, err := TileFor(8)
	require.NoError(t, err)
	assert.Equal(t, "8x4/32", tile.String())
	require.NoError(t, tile.Validate(8))

	tile, err = TileFor(10)
	require.NoError(t, err)
	assert.Equal(t, "3x4/16", tile.String())
	require.NoError(t, tile.Validate(10))

	_, err = TileFor(16)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	err = TileGeometry{Width: 4, Height: 4, Size: 12}.Validate(8)
	assert.True(t, errors.Is(err, ErrInvalidGeometry))
	err = TileGeometry{Width: 8, Height: 4, Size: 16}.Validate(8)
	assert.True(t, errors.Is(err, ErrInvalidGeometry))
}

func TestErrorKinds(t *testing.T) {
	err := NewError(KindShapeMismatch, "convert", "width 16 vs 32")
	assert.Equal(t, "yuv: convert: shape mismatch: width 16 vs 32", err.Error())
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	assert.False(t, errors.Is(err, ErrAllocation))

	wrapped := fmt.Errorf("frame 3: %w", err)
	assert.Equal(t, KindShapeMismatch, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrShapeMismatch))

	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindUnsupportedFormat, KindOf(errors.New("boom")))
	assert.Equal(t, "invalid geometry", KindInvalidGeometry.String())
}
