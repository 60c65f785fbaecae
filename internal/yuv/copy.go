package yuv

import "fmt"

// CopyRect copies h rows of n bytes between two strided regions.
func CopyRect(n, h int, dst []byte, dstStride int, src []byte, srcStride int) {
	for y := 0; y < h; y++ {
		copy(dst[y*dstStride:y*dstStride+n], src[y*srcStride:y*srcStride+n])
	}
}

func checkSameStorage(op string, dst, src *Seq) error {
	if dst.Format != src.Format || !SameShape(dst, src) || dst.BitDepth != src.BitDepth {
		return &Error{Kind: KindShapeMismatch, Op: op, Msg: fmt.Sprintf("src %s %dx%d %d-bit, dst %s %dx%d %d-bit",
			src.Format, src.Width, src.Height, src.BitDepth, dst.Format, dst.Width, dst.Height, dst.BitDepth)}
	}
	if dst.Tiled != src.Tiled || (dst.Tiled && dst.Tile != src.Tile) {
		return &Error{Kind: KindShapeMismatch, Op: op, Msg: "tile mode differs"}
	}
	if err := src.CheckBuffer(op); err != nil {
		return err
	}
	return dst.CheckBuffer(op)
}

// CopyFrame copies every plane of src into dst. Both must describe the
// same format, size, bit depth and tiling; strides and I/O sizes may differ.
func CopyFrame(dst, src *Seq) error {
	const op = "copy frame"
	if err := checkSameStorage(op, dst, src); err != nil {
		return err
	}
	dp, sp := dst.Planes(), src.Planes()
	for i := range sp {
		CopyRect(sp[i].RowBytes, sp[i].Rows,
			dst.Buf[dp[i].Offset:], dp[i].Stride,
			src.Buf[sp[i].Offset:], sp[i].Stride)
	}
	return nil
}

// Valid reports whether r is a non-empty rectangle inside a w×h frame.
func (r Rect) Valid(w, h int) bool {
	return !r.Empty() &&
		r.X >= 0 && r.X+r.W <= w &&
		r.Y >= 0 && r.Y+r.H <= h
}

// CopyROI copies the region src.ROI into dst at dst.ROI's origin. dst.ROI
// takes src.ROI's size. Only raster 8- and 16-bit frames are supported;
// packed formats copy whole pixel pairs and need X origins of equal parity.
func CopyROI(dst, src *Seq) error {
	const op = "copy roi"
	if err := checkSameStorage(op, dst, src); err != nil {
		return err
	}
	if src.Tiled {
		return &Error{Kind: KindUnsupportedFormat, Op: op, Msg: "tiled frames"}
	}
	nb := src.SampleBytes()
	if nb == 0 {
		return &Error{Kind: KindUnsupportedFormat, Op: op, Msg: fmt.Sprintf("%d-bit samples", src.BitDepth)}
	}
	roi := Rect{X: dst.ROI.X, Y: dst.ROI.Y, W: src.ROI.W, H: src.ROI.H}
	if !src.ROI.Valid(src.Width, src.Height) || !roi.Valid(dst.Width, dst.Height) {
		return &Error{Kind: KindInvalidGeometry, Op: op, Msg: fmt.Sprintf("roi %+v -> %+v outside %dx%d", src.ROI, roi, src.Width, src.Height)}
	}
	// packed rows move whole Y/C pairs; both origins must sit at the same
	// position within a pair
	if src.Format.IsPacked() && (src.ROI.X-roi.X)%2 != 0 {
		return &Error{Kind: KindInvalidGeometry, Op: op, Msg: fmt.Sprintf("%s roi x %d -> %d splits a pixel pair", src.Format, src.ROI.X, roi.X)}
	}
	dst.ROI = roi

	dp, sp := dst.Planes(), src.Planes()
	for i := range sp {
		sx, sy, w, h := planeRect(src, i, src.ROI)
		dx, dy, _, _ := planeRect(dst, i, roi)
		CopyRect(w*nb, h,
			dst.Buf[dp[i].Offset+dy*dp[i].Stride+dx*nb:], dp[i].Stride,
			src.Buf[sp[i].Offset+sy*sp[i].Stride+sx*nb:], sp[i].Stride)
	}
	return nil
}

// planeRect maps a luma rectangle onto plane i in sample units.
func planeRect(s *Seq, i int, r Rect) (x, y, w, h int) {
	if i == 0 {
		if s.Format.IsPacked() {
			// whole Y/C pairs only
			x0, x1 := r.X&^1, (r.X+r.W+1)&^1
			return 2 * x0, r.Y, 2 * (x1 - x0), r.H
		}
		return r.X, r.Y, r.W, r.H
	}
	rw, rh := s.Format.ChromaRatio()
	x, w = r.X/rw, (r.X+r.W)/rw-r.X/rw
	y, h = r.Y/rh, (r.Y+r.H)/rh-r.Y/rh
	if s.Format.IsSemiPlanar() {
		x, w = 2*x, 2*w
	}
	return x, y, w, h
}
