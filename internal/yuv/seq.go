package yuv

import (
	"fmt"
	"log/slog"
)

// MaxBufferSize bounds buffer growth; larger requests fail with
// KindAllocation instead of exhausting memory.
var MaxBufferSize = 1 << 31

// Layout holds the parameters a Seq is derived from.
//
// Stride and IOSize are lower bounds: zero means "computed", a larger value
// forces row or frame padding.
type Layout struct {
	Width      int
	Height     int
	Format     PixelFormat
	BitDepth   int
	ActiveBits int
	Tiled      bool
	Stride     int
	IOSize     int
}

// Rect is a region of interest in luma sample coordinates.
type Rect struct {
	X, Y, W, H int
}

// Empty reports a zero rectangle.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Seq describes one frame of a raw YUV sequence and the buffer holding it.
//
// All sizes are in bytes. Buf is owned by whoever allocated it; its length
// is the allocated size and only grows.
type Seq struct {
	Width      int
	Height     int
	Format     PixelFormat
	BitDepth   int
	ActiveBits int
	Tiled      bool
	Tile       TileGeometry

	YStride  int
	UVStride int
	YSize    int
	UVSize   int // per chroma plane
	IOSize   int

	ROI Rect
	Buf []byte
}

// ComputeLayout derives a descriptor without a buffer.
func ComputeLayout(l Layout) (Seq, error) {
	var s Seq
	if err := s.SetLayout(l); err != nil {
		return Seq{}, err
	}
	return s, nil
}

// NewSeq derives a descriptor and allocates its buffer.
func NewSeq(l Layout) (*Seq, error) {
	s := &Seq{}
	if err := s.Resize(l); err != nil {
		return nil, err
	}
	return s, nil
}

// SetLayout recomputes every derived field of s from l. The buffer and ROI
// are kept; s is left untouched when l is rejected.
func (s *Seq) SetLayout(l Layout) error {
	n, err := compute(l)
	if err != nil {
		return err
	}
	n.Buf, n.ROI = s.Buf, s.ROI
	*s = n
	return nil
}

// Resize is SetLayout followed by Grow.
func (s *Seq) Resize(l Layout) error {
	if err := s.SetLayout(l); err != nil {
		return err
	}
	return s.Grow()
}

// CopyLayout stamps dst with the shape of src and grows dst's buffer to fit.
func CopyLayout(dst, src *Seq) error {
	return dst.Resize(src.Layout())
}

// Layout returns the parameters that reproduce s.
func (s *Seq) Layout() Layout {
	return Layout{
		Width:      s.Width,
		Height:     s.Height,
		Format:     s.Format,
		BitDepth:   s.BitDepth,
		ActiveBits: s.ActiveBits,
		Tiled:      s.Tiled,
		Stride:     s.YStride,
		IOSize:     s.IOSize,
	}
}

// Grow makes the buffer at least IOSize bytes. Existing content is kept
// and the buffer never shrinks.
func (s *Seq) Grow() error {
	return s.Reserve(s.IOSize)
}

// Reserve makes the buffer at least n bytes.
func (s *Seq) Reserve(n int) error {
	if len(s.Buf) >= n {
		return nil
	}
	if n < 0 || n > MaxBufferSize {
		return &Error{Kind: KindAllocation, Op: "grow", Msg: fmt.Sprintf("%d bytes exceeds limit %d", n, MaxBufferSize)}
	}
	buf := make([]byte, n)
	copy(buf, s.Buf)
	s.Buf = buf
	return nil
}

// BufSize is the allocated buffer size.
func (s *Seq) BufSize() int { return len(s.Buf) }

// Frame returns the IOSize bytes of the current frame.
func (s *Seq) Frame() []byte { return s.Buf[:s.IOSize] }

// CheckBuffer reports a buffer shorter than the layout requires.
func (s *Seq) CheckBuffer(op string) error {
	if len(s.Buf) < s.IOSize {
		return &Error{Kind: KindShapeMismatch, Op: op, Msg: fmt.Sprintf("buffer holds %d bytes, layout needs %d", len(s.Buf), s.IOSize)}
	}
	return nil
}

// SampleBytes is the byte width of one sample, 0 for compact 10-bit.
func (s *Seq) SampleBytes() int {
	switch s.BitDepth {
	case 8:
		return 1
	case 16:
		return 2
	default:
		return 0
	}
}

func compute(l Layout) (Seq, error) {
	const op = "layout"
	if !l.Format.Valid() {
		return Seq{}, &Error{Kind: KindUnsupportedFormat, Op: op, Msg: fmt.Sprintf("format %d", int(l.Format))}
	}
	if l.Width <= 0 || l.Height <= 0 {
		return Seq{}, &Error{Kind: KindInvalidGeometry, Op: op, Msg: fmt.Sprintf("size %dx%d", l.Width, l.Height)}
	}
	switch l.BitDepth {
	case 8, 10, 16:
	default:
		return Seq{}, &Error{Kind: KindUnsupportedFormat, Op: op, Msg: fmt.Sprintf("bit depth %d", l.BitDepth)}
	}
	if l.ActiveBits < 0 || l.ActiveBits > l.BitDepth {
		return Seq{}, &Error{Kind: KindUnsupportedFormat, Op: op, Msg: fmt.Sprintf("active bits %d exceed bit depth %d", l.ActiveBits, l.BitDepth)}
	}
	if l.Stride < 0 || l.IOSize < 0 {
		return Seq{}, &Error{Kind: KindInvalidGeometry, Op: op, Msg: "negative stride or io size"}
	}
	if l.Format.Is420() && l.Format.IsSemiPlanar() && l.Height%2 != 0 {
		return Seq{}, &Error{Kind: KindInvalidGeometry, Op: op, Msg: fmt.Sprintf("%s needs an even height, got %d", l.Format, l.Height)}
	}
	if l.Format.IsPacked() && l.Width%2 != 0 {
		return Seq{}, &Error{Kind: KindInvalidGeometry, Op: op, Msg: fmt.Sprintf("%s needs an even width, got %d", l.Format, l.Width)}
	}

	s := Seq{
		Width:      l.Width,
		Height:     l.Height,
		Format:     l.Format,
		BitDepth:   l.BitDepth,
		ActiveBits: l.ActiveBits,
		Tiled:      l.Tiled,
	}
	if s.ActiveBits == 0 || s.BitDepth != 16 {
		s.ActiveBits = s.BitDepth
	}
	if s.Tiled {
		t, err := TileFor(s.BitDepth)
		if err != nil {
			return Seq{}, err
		}
		if err := t.Validate(s.BitDepth); err != nil {
			return Seq{}, err
		}
		s.Tile = t
	}

	w := l.Width
	if l.Format.IsPacked() {
		w *= 2
	}
	s.YStride = max(s.rowBytes(w), l.Stride)
	s.YSize = s.YStride * s.memRows(l.Height)

	rw, rh := l.Format.ChromaRatio()
	switch {
	case l.Format.IsPlanar():
		s.UVStride = max(s.YStride/2, s.rowBytes(l.Width/rw))
		s.UVSize = max(s.YSize/(rw*rh), s.UVStride*s.memRows(l.Height/rh))
		s.IOSize = s.YSize + 2*s.UVSize
	case l.Format.IsSemiPlanar():
		s.UVStride = s.YStride
		s.UVSize = max(s.YSize/rh, s.UVStride*s.memRows(l.Height/rh))
		s.IOSize = s.YSize + s.UVSize
	default:
		s.IOSize = s.YSize
	}
	s.IOSize = max(s.IOSize, l.IOSize)
	return s, nil
}

// rowBytes is the bytes one memory row of n samples needs.
func (s *Seq) rowBytes(n int) int {
	if s.Tiled {
		return ceilDiv(n, s.Tile.Width) * s.Tile.Size
	}
	return ceilDiv(n*s.BitDepth, 8)
}

// memRows is the number of memory rows holding n sample rows.
func (s *Seq) memRows(n int) int {
	if s.Tiled {
		return ceilDiv(n, s.Tile.Height)
	}
	return n
}

func ceilDiv(num, den int) int {
	return (num + den - 1) / den
}

// Plane is one contiguous sample region of a frame.
type Plane struct {
	Offset   int `json:"offset"`    // from the start of the buffer
	Stride   int `json:"stride"`    // bytes between memory rows
	Width    int `json:"width"`     // samples per row
	Height   int `json:"height"`    // sample rows
	Rows     int `json:"rows"`      // memory rows; tile rows when tiled
	RowBytes int `json:"row_bytes"` // bytes of a memory row that carry samples
}

// Planes enumerates the planes of s in buffer order: luma, then either two
// chroma planes (planar) or one interleaved chroma plane (semi-planar).
// Packed formats are a single plane of 2*Width samples per row.
func (s *Seq) Planes() []Plane {
	w := s.Width
	if s.Format.IsPacked() {
		w *= 2
	}
	out := []Plane{s.plane(0, s.YStride, w, s.Height)}

	_, rh := s.Format.ChromaRatio()
	switch {
	case s.Format.IsPlanar():
		out = append(out,
			s.plane(s.YSize, s.UVStride, s.Width/2, s.Height/rh),
			s.plane(s.YSize+s.UVSize, s.UVStride, s.Width/2, s.Height/rh))
	case s.Format.IsSemiPlanar():
		out = append(out, s.plane(s.YSize, s.UVStride, s.Width, s.Height/rh))
	}
	return out
}

func (s *Seq) plane(off, stride, w, h int) Plane {
	return Plane{
		Offset:   off,
		Stride:   stride,
		Width:    w,
		Height:   h,
		Rows:     s.memRows(h),
		RowBytes: s.rowBytes(w),
	}
}

// SameShape reports equal frame dimensions.
func SameShape(a, b *Seq) bool {
	return a.Width == b.Width && a.Height == b.Height
}

func (s *Seq) String() string {
	if s == nil {
		return "<nil>"
	}
	storage := "raster"
	if s.Tiled {
		storage = "tile " + s.Tile.String()
	}
	return fmt.Sprintf("%s %dx%d %d/%d-bit %s stride=%d/%d size=%d/%d io=%d buf=%d",
		s.Format, s.Width, s.Height, s.ActiveBits, s.BitDepth, storage,
		s.YStride, s.UVStride, s.YSize, s.UVSize, s.IOSize, len(s.Buf))
}

// LogValue exposes the descriptor fields to slog.
func (s *Seq) LogValue() slog.Value {
	if s == nil {
		return slog.StringValue("<nil>")
	}
	attrs := []slog.Attr{
		slog.String("fmt", s.Format.String()),
		slog.Int("width", s.Width),
		slog.Int("height", s.Height),
		slog.Int("nbit", s.BitDepth),
		slog.Int("nlsb", s.ActiveBits),
		slog.Bool("tiled", s.Tiled),
		slog.Int("y_stride", s.YStride),
		slog.Int("uv_stride", s.UVStride),
		slog.Int("y_size", s.YSize),
		slog.Int("uv_size", s.UVSize),
		slog.Int("io_size", s.IOSize),
		slog.Int("buf_size", len(s.Buf)),
	}
	if s.Tiled {
		attrs = append(attrs, slog.String("tile", s.Tile.String()))
	}
	return slog.GroupValue(attrs...)
}
