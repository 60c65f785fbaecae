package yuv

import "strings"

// PixelFormat identifies how luma and chroma samples are arranged in a frame.
type PixelFormat int

const (
	Format400P   PixelFormat = iota // luma only
	Format420P                      // Y + U + V, chroma halved both ways
	Format420SP                     // Y + interleaved UV, chroma halved both ways
	Format420SPA                    // 4:2:0 semi-planar, alternate plane-order label
	Format422P                      // Y + U + V, chroma halved horizontally
	Format422SP                     // Y + interleaved UV, chroma halved horizontally
	Format422SPA                    // 4:2:2 semi-planar, alternate plane-order label
	FormatUYVY                      // packed U Y V Y
	FormatYUYV                      // packed Y U Y V
	FormatUnsupported
)

var formatNames = [...]string{
	Format400P:   "400p",
	Format420P:   "420p",
	Format420SP:  "420sp",
	Format420SPA: "420spa",
	Format422P:   "422p",
	Format422SP:  "422sp",
	Format422SPA: "422spa",
	FormatUYVY:   "uyvy",
	FormatYUYV:   "yuyv",
}

func (f PixelFormat) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unsupported"
}

// Formats lists every supported format in declaration order.
func Formats() []PixelFormat {
	out := make([]PixelFormat, 0, len(formatNames))
	for i := range formatNames {
		out = append(out, PixelFormat(i))
	}
	return out
}

// ParseFormat maps a format name ("420p", "%420sp", "UYVY") to its value.
func ParseFormat(name string) (PixelFormat, error) {
	n := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "%"))
	for i, s := range formatNames {
		if s == n {
			return PixelFormat(i), nil
		}
	}
	return FormatUnsupported, &Error{Kind: KindUnsupportedFormat, Op: "parse format", Msg: "unknown format " + name}
}

// Valid reports whether f is a supported format.
func (f PixelFormat) Valid() bool { return f >= Format400P && f < FormatUnsupported }

func (f PixelFormat) Is420() bool {
	return f == Format420P || f == Format420SP || f == Format420SPA
}

func (f PixelFormat) Is422() bool {
	switch f {
	case Format422P, Format422SP, Format422SPA, FormatUYVY, FormatYUYV:
		return true
	}
	return false
}

// IsPacked reports luma and chroma interleaved in a single plane.
func (f PixelFormat) IsPacked() bool { return f == FormatUYVY || f == FormatYUYV }

// IsPlanar reports three separate planes.
func (f PixelFormat) IsPlanar() bool { return f == Format420P || f == Format422P }

// IsSemiPlanar reports a luma plane followed by one interleaved chroma plane.
func (f PixelFormat) IsSemiPlanar() bool {
	switch f {
	case Format420SP, Format420SPA, Format422SP, Format422SPA:
		return true
	}
	return false
}

func (f PixelFormat) IsMono() bool { return f == Format400P }

// Base returns the planar family representative of f.
func (f PixelFormat) Base() PixelFormat {
	switch {
	case f == Format400P:
		return Format400P
	case f.Is420():
		return Format420P
	case f.Is422():
		return Format422P
	default:
		return FormatUnsupported
	}
}

// ChromaRatio returns the horizontal and vertical chroma subsampling
// divisors, or 0, 0 when the format has no separate chroma plane.
func (f PixelFormat) ChromaRatio() (w, h int) {
	switch {
	case f.IsMono() || f.IsPacked() || !f.Valid():
		return 0, 0
	case f.Is420():
		return 2, 2
	default:
		return 2, 1
	}
}
