package main

import (
	"errors"
	"fmt"
	"io"

	"yuvtool/internal/compare"
	"yuvtool/internal/convert"
	"yuvtool/internal/logs"
	"yuvtool/internal/seqio"
	"yuvtool/internal/yuv"
)

// cmpSide is one input of cmp: its reader, frame and arena.
type cmpSide struct {
	r     *seqio.Reader
	frame *yuv.Seq
	arena *convert.Arena
}

// next reads and converts one frame. ok is false at the end of input.
func (s *cmpSide) next(target yuv.Layout) (res *yuv.Seq, ok bool, err error) {
	if err := s.r.ReadFrame(s.frame); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, nil
		}
		return nil, false, err
	}
	res, err = s.arena.Convert(target, s.frame)
	return res, err == nil, err
}

// compareTarget is the common planar layout both inputs are converted to:
// the planar base of a's format, 8-bit when both sides are 8-bit and
// 16-bit with the wider active bit count otherwise.
func compareTarget(a, b *yuv.Seq) yuv.Layout {
	t := yuv.Layout{Width: a.Width, Height: a.Height, Format: a.Format.Base(), BitDepth: 8}
	if a.BitDepth != 8 || b.BitDepth != 8 {
		t.BitDepth = 16
		t.ActiveBits = max(a.ActiveBits, b.ActiveBits)
	}
	return t
}

func runCmp(args []string, stdout, stderr io.Writer) error {
	fs, level := newFlagSet("cmp", stderr)
	in0 := fs.String("i0", "", "first sequence")
	in1 := fs.String("i1", "", "second sequence")
	size := fs.String("size", "", "frame size, WxH or an alias such as qcif or 1080")
	diffOut := fs.String("diff", "", "write absolute per-sample differences to this sequence")
	start := fs.Int("start", 0, "frames to skip in both inputs")
	frames := fs.Int("frames", 0, "frames to compare, 0 for all")
	quiet := fs.Bool("q", false, "print only the total")
	var lf0, lf1, lfDiff layoutFlags
	lf0.register(fs, "", "0", "420p", 8)
	lf1.register(fs, "", "1", "", 0)
	lfDiff.register(fs, "diff-", "", "", 0)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := setupLogging(*level, stderr); err != nil {
		return err
	}
	if *in0 == "" || *in1 == "" {
		return errors.New("both -i0 and -i1 are required")
	}
	w, h, err := parseSizeFlag(*size)
	if err != nil {
		return err
	}
	l0, err := lf0.layout(w, h, nil)
	if err != nil {
		return err
	}
	l1, err := lf1.layout(w, h, &l0)
	if err != nil {
		return err
	}

	sides := [2]*cmpSide{}
	for i, c := range []struct {
		path string
		l    yuv.Layout
	}{{*in0, l0}, {*in1, l1}} {
		frame, err := yuv.NewSeq(c.l)
		if err != nil {
			return err
		}
		r, err := seqio.Open(c.path)
		if err != nil {
			return err
		}
		defer r.Close()
		if err := r.Skip(*start, frame.IOSize); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		sides[i] = &cmpSide{r: r, frame: frame, arena: convert.NewArena(2)}
	}
	target := compareTarget(sides[0].frame, sides[1].frame)
	for _, s := range sides {
		if _, err := convert.Plan(target, s.frame); err != nil {
			return err
		}
	}

	// differences are computed in the target layout and written in the
	// -diff-* layout, which defaults to the target
	var (
		diff      *yuv.Seq
		diffL     yuv.Layout
		diffArena *convert.Arena
		dw        *seqio.Writer
	)
	if *diffOut != "" {
		if diff, err = yuv.NewSeq(target); err != nil {
			return err
		}
		if diffL, err = lfDiff.layout(w, h, &target); err != nil {
			return err
		}
		if _, err := convert.Plan(diffL, diff); err != nil {
			return err
		}
		diffArena = convert.NewArena(2)
		if dw, err = seqio.Create(*diffOut); err != nil {
			return err
		}
		defer dw.Close()
	}

	var total compare.Stat
	var activeBits, n int
	counts := [2]int{}
	for *frames <= 0 || n < *frames {
		a, okA, err := sides[0].next(target)
		if err != nil {
			return fmt.Errorf("%s frame %d: %w", *in0, *start+n, err)
		}
		b, okB, err := sides[1].next(target)
		if err != nil {
			return fmt.Errorf("%s frame %d: %w", *in1, *start+n, err)
		}
		if okA {
			counts[0]++
		}
		if okB {
			counts[1]++
		}
		if !okA || !okB {
			break
		}
		st, err := compare.Diff(a, b, diff)
		if err != nil {
			return err
		}
		activeBits = a.ActiveBits
		total.Add(st)
		if !*quiet {
			fmt.Fprintf(stdout, "frame %d: %s psnr=%.2f\n", *start+n, st, st.PSNR(activeBits))
		}
		if dw != nil {
			out, err := diffArena.Convert(diffL, diff)
			if err != nil {
				return fmt.Errorf("diff frame %d: %w", *start+n, err)
			}
			if err := dw.WriteFrame(out); err != nil {
				return err
			}
		}
		n++
	}
	if dw != nil {
		if err := dw.Close(); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "total %d frames: %s psnr=%.2f\n", n, total, total.PSNR(activeBits))
	if counts[0] != counts[1] {
		logs.Logger().Warn("frame counts differ", "i0", counts[0], "i1", counts[1])
		fmt.Fprintf(stdout, "frame count mismatch: %d vs %d\n", counts[0], counts[1])
		return errDiffer
	}
	if !total.Equal() {
		return errDiffer
	}
	return nil
}
