package bitdepth

import "encoding/binary"

// NarrowShift is the right shift taking a 16-bit container with activeBits
// meaningful bits down to 8 bits, and the left shift of the way back.
// Zero activeBits means unset and shifts by 8; fewer than 8 active bits
// already fit and do not shift.
func NarrowShift(activeBits int) uint {
	switch {
	case activeBits == 0:
		return 8
	case activeBits <= 8:
		return 0
	default:
		return uint(activeBits - 8)
	}
}

// RescaleShift is the shift realigning a 16-bit sample from srcActive to
// dstActive meaningful bits: (16-srcActive)-(16-dstActive). Positive
// values shift left.
func RescaleShift(srcActive, dstActive int) int {
	return (16 - srcActive) - (16 - dstActive)
}

// NarrowLine writes n 8-bit samples to dst from n little-endian 16-bit
// samples in src, shifted right by shift. Values above 255 after the shift
// saturate.
func NarrowLine(dst, src []byte, n int, shift uint) {
	src = src[:2*n]
	dst = dst[:n]
	for i := range dst {
		v := binary.LittleEndian.Uint16(src[2*i:]) >> shift
		if v > 0xff {
			v = 0xff
		}
		dst[i] = byte(v)
	}
}

// WidenLine writes n little-endian 16-bit samples to dst from n 8-bit
// samples in src, shifted left by shift.
func WidenLine(dst, src []byte, n int, shift uint) {
	src = src[:n]
	dst = dst[:2*n]
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v)<<shift)
	}
}

// RescaleLine shifts n little-endian 16-bit samples from src into dst,
// left for a positive shift and right for a negative one. dst and src may
// be the same slice.
func RescaleLine(dst, src []byte, n int, shift int) {
	src = src[:2*n]
	dst = dst[:2*n]
	switch {
	case shift > 0:
		for i := 0; i < 2*n; i += 2 {
			binary.LittleEndian.PutUint16(dst[i:], binary.LittleEndian.Uint16(src[i:])<<uint(shift))
		}
	case shift < 0:
		for i := 0; i < 2*n; i += 2 {
			binary.LittleEndian.PutUint16(dst[i:], binary.LittleEndian.Uint16(src[i:])>>uint(-shift))
		}
	default:
		copy(dst, src)
	}
}
