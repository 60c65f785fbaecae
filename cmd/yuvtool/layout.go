package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"yuvtool/internal/yuv"
)

// layoutFlags collects the descriptor parameters of one side of a command.
type layoutFlags struct {
	format string
	bits   int
	nlsb   int
	stride int
	iosize int
	tile   bool
}

// register adds -<prefix>fmt<suffix>, -<prefix>bits<suffix> and friends
// to fs.
func (lf *layoutFlags) register(fs *flag.FlagSet, prefix, suffix, defFormat string, defBits int) {
	name := func(s string) string { return prefix + s + suffix }
	fs.StringVar(&lf.format, name("fmt"), defFormat, "pixel format (400p, 420p, 420sp, 420spa, 422p, 422sp, 422spa, uyvy, yuyv)")
	fs.IntVar(&lf.bits, name("bits"), defBits, "storage bit depth: 8, 10 (compact) or 16")
	fs.IntVar(&lf.nlsb, name("nlsb"), 0, "meaningful bits of 16-bit samples, 0 for all")
	fs.IntVar(&lf.stride, name("stride"), 0, "minimum luma stride in bytes")
	fs.IntVar(&lf.iosize, name("iosize"), 0, "minimum frame size in bytes")
	fs.BoolVar(&lf.tile, name("tile"), false, "tiled storage")
}

// layout builds the layout for a w x h frame. An empty format or zero bit
// depth falls back to base; a bit depth taken from base brings its active
// bits along unless -nlsb is set.
func (lf *layoutFlags) layout(w, h int, base *yuv.Layout) (yuv.Layout, error) {
	l := yuv.Layout{
		Width:      w,
		Height:     h,
		BitDepth:   lf.bits,
		ActiveBits: lf.nlsb,
		Tiled:      lf.tile,
		Stride:     lf.stride,
		IOSize:     lf.iosize,
	}
	switch {
	case lf.format != "":
		f, err := yuv.ParseFormat(lf.format)
		if err != nil {
			return l, err
		}
		l.Format = f
	case base != nil:
		l.Format = base.Format
	default:
		return l, fmt.Errorf("missing pixel format")
	}
	if l.BitDepth == 0 && base != nil {
		l.BitDepth = base.BitDepth
		if l.ActiveBits == 0 {
			l.ActiveBits = base.ActiveBits
		}
	}
	return l, nil
}

func parseSizeFlag(size string) (int, int, error) {
	if size == "" {
		return 0, 0, fmt.Errorf("missing -size")
	}
	return yuv.ParseSize(size)
}

func runLayout(args []string, stdout, stderr io.Writer) error {
	fs, level := newFlagSet("layout", stderr)
	size := fs.String("size", "", "frame size, WxH or an alias such as qcif or 1080")
	asJSON := fs.Bool("json", false, "print JSON")
	var lf layoutFlags
	lf.register(fs, "", "", "420p", 8)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := setupLogging(*level, stderr); err != nil {
		return err
	}
	w, h, err := parseSizeFlag(*size)
	if err != nil {
		return err
	}
	l, err := lf.layout(w, h, nil)
	if err != nil {
		return err
	}
	s, err := yuv.ComputeLayout(l)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Info())
	}
	fmt.Fprintln(stdout, s.String())
	for i, p := range s.Planes() {
		fmt.Fprintf(stdout, "plane %d: offset=%d stride=%d %dx%d rows=%d row_bytes=%d\n",
			i, p.Offset, p.Stride, p.Width, p.Height, p.Rows, p.RowBytes)
	}
	return nil
}
