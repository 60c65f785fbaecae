package remap

import (
	"encoding/binary"

	"yuvtool/internal/yuv"
)

// Resample converts between planar base formats (400p, 420p, 422p).
//
// 4:2:2 to 4:2:0 keeps the even chroma rows, 4:2:0 to 4:2:2 repeats each
// chroma row twice. Color to mono drops chroma; mono to color fills it
// with the neutral mid value of the sample range.
func Resample(dst, src *yuv.Seq) error {
	const op = "resample"
	if err := checkPair(op, dst, src); err != nil {
		return err
	}
	nb, err := checkRaster(op, dst, src)
	if err != nil {
		return err
	}
	planar := func(f yuv.PixelFormat) bool { return f.IsMono() || f.IsPlanar() }
	if err := checkFormats(op, dst, src, planar(src.Format) && planar(dst.Format)); err != nil {
		return err
	}

	copyLuma(dst, src)
	if dst.Format.IsMono() {
		return nil
	}
	dp := dst.Planes()
	if src.Format.IsMono() {
		fillNeutral(dst, dp[1], nb)
		fillNeutral(dst, dp[2], nb)
		return nil
	}
	sp := src.Planes()
	for c := 1; c < 3; c++ {
		resampleRows(dst.Buf, dp[c], src.Buf, sp[c], dp[c].Width*nb)
	}
	return nil
}

// resampleRows fills each destination row from the source row at the same
// relative height. With equal row counts this is a plain copy.
func resampleRows(dst []byte, dp yuv.Plane, src []byte, sp yuv.Plane, n int) {
	for r := 0; r < dp.Height; r++ {
		sr := r * sp.Height / dp.Height
		copy(dst[dp.Offset+r*dp.Stride:][:n], src[sp.Offset+sr*sp.Stride:])
	}
}

// neutral is the chroma value carrying no color at the frame's depth.
func neutral(s *yuv.Seq) uint16 {
	if s.BitDepth == 8 {
		return 0x80
	}
	return 1 << (s.ActiveBits - 1)
}

func fillNeutral(s *yuv.Seq, p yuv.Plane, nb int) {
	v := neutral(s)
	for r := 0; r < p.Height; r++ {
		row := s.Buf[p.Offset+r*p.Stride:][:p.Width*nb]
		if nb == 1 {
			for i := range row {
				row[i] = byte(v)
			}
			continue
		}
		for i := 0; i < len(row); i += 2 {
			binary.LittleEndian.PutUint16(row[i:], v)
		}
	}
}
