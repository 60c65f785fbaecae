// Package convert turns one frame layout into another by chaining the
// bit-depth and remapping stages it needs.
package convert

import (
	"fmt"
	"strings"

	"yuvtool/internal/yuv"
)

// Stage is one step of the conversion pipeline.
type Stage uint8

const (
	StageUnpack10 Stage = iota // compact 10-bit raster to 16-bit
	StageUntile10              // 10-bit tiles to 16-bit raster
	StageUntile8               // 8-bit tiles to raster
	StageNarrow                // 16-bit to 8-bit
	StageWiden                 // 8-bit to 16-bit
	StageRescale               // 16-bit active bits realignment
	StageSplit                 // semi-planar or packed to planar base
	StageResample              // planar base to planar base
	StageMerge                 // planar base to semi-planar or packed
	StagePack10                // 16-bit to compact 10-bit raster
	StageTile10                // 16-bit raster to 10-bit tiles
	StageTile8                 // 8-bit raster to tiles
	StageRelayout              // stride or frame size change only
)

var stageNames = [...]string{
	StageUnpack10: "unpack10",
	StageUntile10: "untile10",
	StageUntile8:  "untile8",
	StageNarrow:   "narrow",
	StageWiden:    "widen",
	StageRescale:  "rescale",
	StageSplit:    "split",
	StageResample: "resample",
	StageMerge:    "merge",
	StagePack10:   "pack10",
	StageTile10:   "tile10",
	StageTile8:    "tile8",
	StageRelayout: "relayout",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Step is a stage together with the layout it writes.
type Step struct {
	Stage Stage
	Out   yuv.Layout
}

func (s Step) String() string {
	storage := ""
	if s.Out.Tiled {
		storage = " tiled"
	}
	return fmt.Sprintf("%s->%s/%d/%d%s", s.Stage, s.Out.Format, s.Out.BitDepth, s.Out.ActiveBits, storage)
}

// Steps formats a plan for logs.
func Steps(steps []Step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// resolve fills a zero width or height of dst from src and validates the
// request against src.
func resolve(dst yuv.Layout, src *yuv.Seq) (yuv.Layout, yuv.Seq, error) {
	const op = "plan"
	if dst.Width == 0 {
		dst.Width = src.Width
	}
	if dst.Height == 0 {
		dst.Height = src.Height
	}
	if dst.Width != src.Width || dst.Height != src.Height {
		return dst, yuv.Seq{}, yuv.NewError(yuv.KindShapeMismatch, op,
			fmt.Sprintf("source %dx%d, destination %dx%d", src.Width, src.Height, dst.Width, dst.Height))
	}
	want, err := yuv.ComputeLayout(dst)
	if err != nil {
		return dst, yuv.Seq{}, err
	}
	return dst, want, nil
}

// Plan lists, in execution order, the stages converting src into the
// layout dst asks for. A zero dst width or height means "same as src".
// An empty plan means src already has the requested layout.
func Plan(dst yuv.Layout, src *yuv.Seq) ([]Step, error) {
	dst, want, err := resolve(dst, src)
	if err != nil {
		return nil, err
	}
	if _, err := yuv.ComputeLayout(src.Layout()); err != nil {
		return nil, err
	}

	cur := src.Layout()
	var steps []Step
	add := func(st Stage, l yuv.Layout) {
		l.Stride, l.IOSize = 0, 0
		steps = append(steps, Step{Stage: st, Out: l})
		cur = l
	}

	same := cur.BitDepth == want.BitDepth && cur.Tiled == want.Tiled &&
		cur.ActiveBits == want.ActiveBits && cur.Format == want.Format
	if !same {
		// 1. into a raster container the remappers understand
		switch {
		case cur.BitDepth == 10:
			st := StageUnpack10
			if cur.Tiled {
				st = StageUntile10
			}
			l := cur
			l.BitDepth, l.ActiveBits, l.Tiled = 16, 10, false
			add(st, l)
		case cur.Tiled:
			l := cur
			l.Tiled = false
			add(StageUntile8, l)
		}

		// 2. bit depth; 10-bit output travels as 16-bit with 10 active bits
		bits, active := want.BitDepth, want.ActiveBits
		if bits == 10 {
			bits, active = 16, 10
		}
		switch {
		case cur.BitDepth == 16 && bits == 8:
			l := cur
			l.BitDepth, l.ActiveBits = 8, 8
			add(StageNarrow, l)
		case cur.BitDepth == 8 && bits == 16:
			l := cur
			l.BitDepth, l.ActiveBits = 16, active
			add(StageWiden, l)
		case cur.BitDepth == 16 && cur.ActiveBits != active:
			l := cur
			l.ActiveBits = active
			add(StageRescale, l)
		}

		// 3. format family
		if cur.Format != want.Format {
			if !cur.Format.IsPlanar() && !cur.Format.IsMono() {
				l := cur
				l.Format = cur.Format.Base()
				add(StageSplit, l)
			}
			if base := want.Format.Base(); cur.Format != base {
				l := cur
				l.Format = base
				add(StageResample, l)
			}
			if cur.Format != want.Format {
				l := cur
				l.Format = want.Format
				add(StageMerge, l)
			}
		}

		// 4. destination container
		switch {
		case want.BitDepth == 10:
			st := StagePack10
			if want.Tiled {
				st = StageTile10
			}
			l := cur
			l.BitDepth, l.ActiveBits, l.Tiled = 10, 10, want.Tiled
			add(st, l)
		case want.Tiled:
			l := cur
			l.Tiled = true
			add(StageTile8, l)
		}
	}

	// 5. padding
	produced, err := yuv.ComputeLayout(cur)
	if err != nil {
		return nil, err
	}
	if produced.YStride != want.YStride || produced.IOSize != want.IOSize {
		out := dst
		out.ActiveBits = want.ActiveBits
		steps = append(steps, Step{Stage: StageRelayout, Out: out})
	}
	return steps, nil
}
