package remap

import "yuvtool/internal/yuv"

// SplitChroma de-interleaves the UV plane of a semi-planar frame into the
// two chroma planes of its planar base. U is the first sample of each pair
// for every semi-planar variant.
func SplitChroma(dst, src *yuv.Seq) error {
	const op = "split chroma"
	if err := checkPair(op, dst, src); err != nil {
		return err
	}
	nb, err := checkRaster(op, dst, src)
	if err != nil {
		return err
	}
	if err := checkFormats(op, dst, src, src.Format.IsSemiPlanar() && dst.Format == src.Format.Base()); err != nil {
		return err
	}
	copyLuma(dst, src)
	sp, dp := src.Planes(), dst.Planes()
	uv, u, v := sp[1], dp[1], dp[2]
	pairs := src.Width / 2
	for y := 0; y < uv.Height; y++ {
		s := src.Buf[uv.Offset+y*uv.Stride:]
		du := dst.Buf[u.Offset+y*u.Stride:]
		dv := dst.Buf[v.Offset+y*v.Stride:]
		for i := 0; i < pairs; i++ {
			copy(du[i*nb:(i+1)*nb], s[2*i*nb:])
			copy(dv[i*nb:(i+1)*nb], s[(2*i+1)*nb:])
		}
	}
	return nil
}

// MergeChroma interleaves the two chroma planes of a planar frame into the
// UV plane of the semi-planar dst.
func MergeChroma(dst, src *yuv.Seq) error {
	const op = "merge chroma"
	if err := checkPair(op, dst, src); err != nil {
		return err
	}
	nb, err := checkRaster(op, dst, src)
	if err != nil {
		return err
	}
	if err := checkFormats(op, dst, src, dst.Format.IsSemiPlanar() && src.Format == dst.Format.Base()); err != nil {
		return err
	}
	copyLuma(dst, src)
	sp, dp := src.Planes(), dst.Planes()
	u, v, uv := sp[1], sp[2], dp[1]
	pairs := src.Width / 2
	for y := 0; y < uv.Height; y++ {
		d := dst.Buf[uv.Offset+y*uv.Stride:]
		su := src.Buf[u.Offset+y*u.Stride:]
		sv := src.Buf[v.Offset+y*v.Stride:]
		for i := 0; i < pairs; i++ {
			copy(d[2*i*nb:(2*i+1)*nb], su[i*nb:])
			copy(d[(2*i+1)*nb:(2*i+2)*nb], sv[i*nb:])
		}
	}
	return nil
}
