package yuv

import "errors"

// Kind classifies conversion failures.
type Kind uint8

const (
	// KindNone is reported for nil errors.
	KindNone Kind = iota

	// KindUnsupportedFormat is a format, bit depth or tiling combination
	// that no codec or remapper routine implements.
	KindUnsupportedFormat

	// KindShapeMismatch is an operation on descriptors whose width,
	// height, bit depth or buffer length disagree.
	KindShapeMismatch

	// KindInvalidGeometry is a dimension the layout cannot represent,
	// e.g. odd height for 4:2:0 semi-planar.
	KindInvalidGeometry

	// KindAllocation is a failed buffer growth.
	KindAllocation
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindShapeMismatch:
		return "shape mismatch"
	case KindInvalidGeometry:
		return "invalid geometry"
	case KindAllocation:
		return "allocation error"
	default:
		return "unknown"
	}
}

// Error is a typed conversion error.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := "yuv: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is reports whether target is an *Error of the same kind, so the
// sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrShapeMismatch     = &Error{Kind: KindShapeMismatch}
	ErrInvalidGeometry   = &Error{Kind: KindInvalidGeometry}
	ErrAllocation        = &Error{Kind: KindAllocation}
)

// KindOf returns the kind carried by err, KindNone for nil and
// KindUnsupportedFormat for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnsupportedFormat
}

// NewError builds a typed error; packages outside yuv use it to report
// failures with the shared taxonomy.
func NewError(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}
