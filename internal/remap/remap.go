// Package remap moves samples between plane arrangements without changing
// their values: tile and raster storage, semi-planar and planar chroma,
// packed and planar 4:2:2, and 4:2:0 and 4:2:2 chroma sampling.
package remap

import (
	"fmt"

	"yuvtool/internal/yuv"
)

// Scratch is working memory owned by the caller and reused across calls.
// The zero value is ready to use.
type Scratch struct {
	buf []byte
}

// Get returns n bytes, growing the backing array when needed. The content
// is unspecified.
func (s *Scratch) Get(n int) []byte {
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	return s.buf[:n]
}

// checkPair validates that a and b describe frames of the same size and
// bit depth, each with a buffer covering its layout.
func checkPair(op string, a, b *yuv.Seq) error {
	if !yuv.SameShape(a, b) || a.BitDepth != b.BitDepth {
		return yuv.NewError(yuv.KindShapeMismatch, op,
			fmt.Sprintf("%dx%d %d-bit vs %dx%d %d-bit", a.Width, a.Height, a.BitDepth, b.Width, b.Height, b.BitDepth))
	}
	if err := a.CheckBuffer(op); err != nil {
		return err
	}
	return b.CheckBuffer(op)
}

// checkRaster rejects tiled frames and compact 10-bit samples, returning
// the byte width of one sample.
func checkRaster(op string, seqs ...*yuv.Seq) (int, error) {
	nb := 0
	for _, s := range seqs {
		if s.Tiled {
			return 0, yuv.NewError(yuv.KindUnsupportedFormat, op, "tiled frames")
		}
		nb = s.SampleBytes()
		if nb == 0 {
			return 0, yuv.NewError(yuv.KindUnsupportedFormat, op, fmt.Sprintf("%d-bit samples", s.BitDepth))
		}
	}
	return nb, nil
}

func checkFormats(op string, dst, src *yuv.Seq, want bool) error {
	if !want {
		return yuv.NewError(yuv.KindUnsupportedFormat, op, fmt.Sprintf("%s to %s", src.Format, dst.Format))
	}
	return nil
}

// copyLuma copies plane 0 of src into plane 0 of dst.
func copyLuma(dst, src *yuv.Seq) {
	dp, sp := dst.Planes()[0], src.Planes()[0]
	yuv.CopyRect(sp.RowBytes, sp.Rows, dst.Buf[dp.Offset:], dp.Stride, src.Buf[sp.Offset:], sp.Stride)
}
