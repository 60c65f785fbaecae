// Package bitdepth converts sample containers: compact 10-bit to and from
// 16-bit, 16-bit to and from 8-bit, and active-bit realignment inside
// 16-bit containers.
package bitdepth

import "encoding/binary"

const mask10 = 0x3ff

// PackedLen is the number of bytes n compact 10-bit samples occupy.
func PackedLen(n int) int { return (n*10 + 7) / 8 }

// UnpackLine10 expands n compact 10-bit samples from src into little-endian
// 16-bit containers in dst.
//
// Samples are laid out LSB first inside little-endian 32-bit words; a field
// may straddle two words. src must hold PackedLen(n) bytes and dst 2*n.
func UnpackLine10(dst, src []byte, n int) {
	src = src[:PackedLen(n)]
	dst = dst[:2*n]

	// acc carries up to two words: the remainder of the previous one and
	// the next one pulled in behind it.
	var acc uint64
	var valid uint
	pos := 0
	for i := 0; i < n; i++ {
		if valid < 10 {
			if pos+4 <= len(src) {
				acc |= uint64(binary.LittleEndian.Uint32(src[pos:])) << valid
				pos += 4
				valid += 32
			} else {
				// short tail word
				for ; pos < len(src); pos++ {
					acc |= uint64(src[pos]) << valid
					valid += 8
				}
			}
		}
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(acc&mask10))
		acc >>= 10
		valid -= 10
	}
}

// PackLine10 is the inverse of UnpackLine10: it keeps the low 10 bits of
// each of the n 16-bit containers in src and writes PackedLen(n) bytes to
// dst. A trailing partial word is flushed byte by byte, unused high bits
// of the last byte are zero.
func PackLine10(dst, src []byte, n int) {
	src = src[:2*n]
	dst = dst[:PackedLen(n)]

	var acc uint64
	var valid uint
	pos := 0
	for i := 0; i < n; i++ {
		acc |= uint64(binary.LittleEndian.Uint16(src[2*i:])&mask10) << valid
		valid += 10
		if valid >= 32 {
			binary.LittleEndian.PutUint32(dst[pos:], uint32(acc))
			pos += 4
			acc >>= 32
			valid -= 32
		}
	}
	for ; valid > 0; valid -= min(valid, 8) {
		dst[pos] = byte(acc)
		pos++
		acc >>= 8
	}
}
