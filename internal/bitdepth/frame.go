package bitdepth

import (
	"fmt"

	"yuvtool/internal/yuv"
)

// Direction selects which way a compact 10-bit conversion runs.
type Direction uint8

const (
	// Unpack expands compact 10-bit into 16-bit containers.
	Unpack Direction = iota
	// Pack compacts 16-bit containers into 10-bit.
	Pack
)

func (d Direction) String() string {
	if d == Pack {
		return "pack"
	}
	return "unpack"
}

// Convert10 moves a frame between its compact 10-bit raster form and its
// 16-bit container form. Both descriptors must share format and shape;
// with Unpack packed is read and wide written, with Pack the reverse.
func Convert10(packed, wide *yuv.Seq, dir Direction) error {
	op := dir.String() + "10"
	if err := checkPair(op, packed, 10, wide, 16); err != nil {
		return err
	}
	pp, wp := packed.Planes(), wide.Planes()
	for i := range pp {
		p, w := pp[i], wp[i]
		for y := 0; y < p.Height; y++ {
			prow := packed.Buf[p.Offset+y*p.Stride:]
			wrow := wide.Buf[w.Offset+y*w.Stride:]
			if dir == Pack {
				PackLine10(prow, wrow, p.Width)
			} else {
				UnpackLine10(wrow, prow, p.Width)
			}
		}
	}
	return nil
}

// Narrow converts a 16-bit frame to 8 bits, shifting by
// NarrowShift(src.ActiveBits).
func Narrow(dst, src *yuv.Seq) error {
	const op = "narrow"
	if err := checkPair(op, dst, 8, src, 16); err != nil {
		return err
	}
	shift := NarrowShift(src.ActiveBits)
	eachRow(dst, src, func(d, s []byte, n int) { NarrowLine(d, s, n, shift) })
	return nil
}

// Widen converts an 8-bit frame into 16-bit containers, shifting by
// NarrowShift(dst.ActiveBits).
func Widen(dst, src *yuv.Seq) error {
	const op = "widen"
	if err := checkPair(op, dst, 16, src, 8); err != nil {
		return err
	}
	shift := NarrowShift(dst.ActiveBits)
	eachRow(dst, src, func(d, s []byte, n int) { WidenLine(d, s, n, shift) })
	return nil
}

// Rescale realigns the active bits of a 16-bit frame from src.ActiveBits
// to dst.ActiveBits. dst and src may share a buffer.
func Rescale(dst, src *yuv.Seq) error {
	const op = "rescale"
	if err := checkPair(op, dst, 16, src, 16); err != nil {
		return err
	}
	shift := RescaleShift(src.ActiveBits, dst.ActiveBits)
	eachRow(dst, src, func(d, s []byte, n int) { RescaleLine(d, s, n, shift) })
	return nil
}

func eachRow(dst, src *yuv.Seq, fn func(d, s []byte, n int)) {
	dp, sp := dst.Planes(), src.Planes()
	for i := range sp {
		d, s := dp[i], sp[i]
		for y := 0; y < s.Height; y++ {
			fn(dst.Buf[d.Offset+y*d.Stride:], src.Buf[s.Offset+y*s.Stride:], s.Width)
		}
	}
}

func checkPair(op string, a *yuv.Seq, aBits int, b *yuv.Seq, bBits int) error {
	if a.BitDepth != aBits || b.BitDepth != bBits {
		return yuv.NewError(yuv.KindShapeMismatch, op,
			fmt.Sprintf("want %d-bit and %d-bit, got %d-bit and %d-bit", aBits, bBits, a.BitDepth, b.BitDepth))
	}
	if a.Tiled || b.Tiled {
		return yuv.NewError(yuv.KindUnsupportedFormat, op, "tiled frames")
	}
	if a.Format != b.Format || !yuv.SameShape(a, b) {
		return yuv.NewError(yuv.KindShapeMismatch, op,
			fmt.Sprintf("%s %dx%d vs %s %dx%d", a.Format, a.Width, a.Height, b.Format, b.Width, b.Height))
	}
	if err := a.CheckBuffer(op); err != nil {
		return err
	}
	return b.CheckBuffer(op)
}
