package yuv

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is a named frame size accepted wherever a WxH is expected.
type Resolution struct {
	Name          string
	Width, Height int
}

// Resolutions are the common frame size aliases.
var Resolutions = []Resolution{
	{"qcif", 176, 144},
	{"cif", 352, 288},
	{"360", 640, 360},
	{"480", 720, 480},
	{"720", 1280, 720},
	{"1080", 1920, 1080},
	{"2k", 1920, 1080},
	{"1088", 1920, 1088},
	{"2k+", 1920, 1088},
	{"2160", 3840, 2160},
	{"4k", 3840, 2160},
	{"2176", 3840, 2176},
	{"4k+", 3840, 2176},
}

// ParseSize parses "176x144" or a resolution alias ("qcif", "%1080").
func ParseSize(s string) (w, h int, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := strings.CutPrefix(s, "%"); ok {
		s = alias
	}
	for _, r := range Resolutions {
		if r.Name == s {
			return r.Width, r.Height, nil
		}
	}
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH or a known alias", s)
	}
	w, err = strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: bad width: %w", s, err)
	}
	h, err = strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: bad height: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: dimensions must be positive", s)
	}
	return w, h, nil
}
