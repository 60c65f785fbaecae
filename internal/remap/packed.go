package remap

import "yuvtool/internal/yuv"

// packedOrder returns the sample positions of Y0, U, Y1 and V inside one
// four-sample group: Y U Y V for YUYV, U Y V Y for UYVY.
func packedOrder(f yuv.PixelFormat) (y0, u, y1, v int) {
	if f == yuv.FormatUYVY {
		return 1, 0, 3, 2
	}
	return 0, 1, 2, 3
}

// SplitPacked converts a UYVY or YUYV frame into 4:2:2 planar.
func SplitPacked(dst, src *yuv.Seq) error {
	const op = "split packed"
	if err := checkPair(op, dst, src); err != nil {
		return err
	}
	nb, err := checkRaster(op, dst, src)
	if err != nil {
		return err
	}
	if err := checkFormats(op, dst, src, src.Format.IsPacked() && dst.Format == yuv.Format422P); err != nil {
		return err
	}
	oy0, ou, oy1, ov := packedOrder(src.Format)
	p := src.Planes()[0]
	dp := dst.Planes()
	ly, cu, cv := dp[0], dp[1], dp[2]
	groups := src.Width / 2
	for y := 0; y < src.Height; y++ {
		s := src.Buf[p.Offset+y*p.Stride:]
		dy := dst.Buf[ly.Offset+y*ly.Stride:]
		du := dst.Buf[cu.Offset+y*cu.Stride:]
		dv := dst.Buf[cv.Offset+y*cv.Stride:]
		for i := 0; i < groups; i++ {
			g := s[4*i*nb:]
			copy(dy[2*i*nb:(2*i+1)*nb], g[oy0*nb:])
			copy(dy[(2*i+1)*nb:(2*i+2)*nb], g[oy1*nb:])
			copy(du[i*nb:(i+1)*nb], g[ou*nb:])
			copy(dv[i*nb:(i+1)*nb], g[ov*nb:])
		}
	}
	return nil
}

// MergePacked converts a 4:2:2 planar frame into UYVY or YUYV.
func MergePacked(dst, src *yuv.Seq) error {
	const op = "merge packed"
	if err := checkPair(op, dst, src); err != nil {
		return err
	}
	nb, err := checkRaster(op, dst, src)
	if err != nil {
		return err
	}
	if err := checkFormats(op, dst, src, dst.Format.IsPacked() && src.Format == yuv.Format422P); err != nil {
		return err
	}
	oy0, ou, oy1, ov := packedOrder(dst.Format)
	p := dst.Planes()[0]
	sp := src.Planes()
	ly, cu, cv := sp[0], sp[1], sp[2]
	groups := dst.Width / 2
	for y := 0; y < dst.Height; y++ {
		d := dst.Buf[p.Offset+y*p.Stride:]
		sy := src.Buf[ly.Offset+y*ly.Stride:]
		su := src.Buf[cu.Offset+y*cu.Stride:]
		sv := src.Buf[cv.Offset+y*cv.Stride:]
		for i := 0; i < groups; i++ {
			g := d[4*i*nb:]
			copy(g[oy0*nb:(oy0+1)*nb], sy[2*i*nb:])
			copy(g[oy1*nb:(oy1+1)*nb], sy[(2*i+1)*nb:])
			copy(g[ou*nb:(ou+1)*nb], su[i*nb:])
			copy(g[ov*nb:(ov+1)*nb], sv[i*nb:])
		}
	}
	return nil
}
