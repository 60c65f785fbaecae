// Package compare computes per-sample difference statistics between two
// frames of the same layout.
package compare

import (
	"encoding/binary"
	"fmt"
	"math"

	"yuvtool/internal/yuv"
)

// Stat accumulates absolute differences over Count samples.
type Stat struct {
	Count uint64
	SAD   uint64
	SSD   uint64
}

// Add folds o into s.
func (s *Stat) Add(o Stat) {
	s.Count += o.Count
	s.SAD += o.SAD
	s.SSD += o.SSD
}

// Equal reports no difference at all.
func (s Stat) Equal() bool { return s.SSD == 0 }

// PSNR is the peak signal to noise ratio in dB for samples of the given
// active bit width. Identical frames give +Inf.
func (s Stat) PSNR(activeBits int) float64 {
	if s.SSD == 0 || s.Count == 0 {
		return math.Inf(1)
	}
	peak := float64(uint64(1)<<activeBits - 1)
	return 10 * math.Log10(peak*peak*float64(s.Count)/float64(s.SSD))
}

func (s Stat) String() string {
	return fmt.Sprintf("cnt=%d sad=%d ssd=%d", s.Count, s.SAD, s.SSD)
}

// Diff compares a and b plane by plane. When diff is not nil it receives
// the absolute difference of every sample; it must share a's layout.
// Only raster 8- and 16-bit frames are supported.
func Diff(a, b, diff *yuv.Seq) (Stat, error) {
	const op = "diff"
	seqs := []*yuv.Seq{a, b}
	if diff != nil {
		seqs = append(seqs, diff)
	}
	for _, s := range seqs[1:] {
		if s.Format != a.Format || !yuv.SameShape(s, a) || s.BitDepth != a.BitDepth {
			return Stat{}, yuv.NewError(yuv.KindShapeMismatch, op,
				fmt.Sprintf("%s %dx%d %d-bit vs %s %dx%d %d-bit", a.Format, a.Width, a.Height, a.BitDepth, s.Format, s.Width, s.Height, s.BitDepth))
		}
	}
	for _, s := range seqs {
		if s.Tiled || s.SampleBytes() == 0 {
			return Stat{}, yuv.NewError(yuv.KindUnsupportedFormat, op, fmt.Sprintf("%d-bit tiled=%t", s.BitDepth, s.Tiled))
		}
		if err := s.CheckBuffer(op); err != nil {
			return Stat{}, err
		}
	}

	var st Stat
	ap, bp := a.Planes(), b.Planes()
	var dp []yuv.Plane
	if diff != nil {
		dp = diff.Planes()
	}
	for i := range ap {
		for y := 0; y < ap[i].Height; y++ {
			ra := a.Buf[ap[i].Offset+y*ap[i].Stride:]
			rb := b.Buf[bp[i].Offset+y*bp[i].Stride:]
			var rd []byte
			if diff != nil {
				rd = diff.Buf[dp[i].Offset+y*dp[i].Stride:]
			}
			if a.BitDepth == 8 {
				st.Add(row8(rd, ra, rb, ap[i].Width))
			} else {
				st.Add(row16(rd, ra, rb, ap[i].Width))
			}
		}
	}
	return st, nil
}

func row8(d, a, b []byte, n int) Stat {
	st := Stat{Count: uint64(n)}
	for i := 0; i < n; i++ {
		v := int(a[i]) - int(b[i])
		if v < 0 {
			v = -v
		}
		if d != nil {
			d[i] = byte(v)
		}
		st.SAD += uint64(v)
		st.SSD += uint64(v * v)
	}
	return st
}

func row16(d, a, b []byte, n int) Stat {
	st := Stat{Count: uint64(n)}
	for i := 0; i < n; i++ {
		v := int(binary.LittleEndian.Uint16(a[2*i:])) - int(binary.LittleEndian.Uint16(b[2*i:]))
		if v < 0 {
			v = -v
		}
		if d != nil {
			binary.LittleEndian.PutUint16(d[2*i:], uint16(v))
		}
		st.SAD += uint64(v)
		st.SSD += uint64(v * v)
	}
	return st
}
