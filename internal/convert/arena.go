package convert

import (
	"yuvtool/internal/bitdepth"
	"yuvtool/internal/logs"
	"yuvtool/internal/remap"
	"yuvtool/internal/yuv"
)

// Arena owns the scratch frames a conversion alternates between. Each
// stage reads the previous result and writes the next slot that holds
// neither that result nor the source, so the source frame is never
// written. With two slots a source that is itself an earlier result of the
// arena is overwritten once it has been read; three slots avoid that.
//
// An Arena is not safe for concurrent use. Results returned by Convert
// stay valid until the next call.
type Arena struct {
	slots   []*yuv.Seq
	cur     int // slot holding the last result, -1 for the source
	scratch remap.Scratch
}

// NewArena returns an arena with n scratch frames, n clamped to [2, 3].
func NewArena(n int) *Arena {
	n = min(max(n, 2), 3)
	a := &Arena{slots: make([]*yuv.Seq, n), cur: -1}
	for i := range a.slots {
		a.slots[i] = &yuv.Seq{}
	}
	return a
}

// Reserve grows every slot to at least n bytes up front so frame loops do
// not reallocate.
func (a *Arena) Reserve(n int) error {
	for _, s := range a.slots {
		if err := s.Reserve(n); err != nil {
			return err
		}
	}
	return nil
}

// Convert converts src into the layout dst asks for and returns the frame
// holding the result: src itself when nothing needs to change, otherwise
// one of the arena's slots. A zero dst width or height takes src's.
func (a *Arena) Convert(dst yuv.Layout, src *yuv.Seq) (*yuv.Seq, error) {
	incFramesIn()
	if err := src.CheckBuffer("convert"); err != nil {
		incFramesFailed()
		return nil, err
	}
	steps, err := Plan(dst, src)
	if err != nil {
		incFramesFailed()
		return nil, err
	}
	log := logs.Logger()
	if len(steps) == 0 {
		incFramesPassthrough()
		a.cur = -1
		log.Debug("convert: passthrough", "src", src)
		return src, nil
	}
	log.Debug("convert: plan", "src", src, "steps", Steps(steps))

	a.cur = a.slotOf(src)
	in := src
	for _, st := range steps {
		next := a.pick(in, src)
		out := a.slots[next]
		if err := out.Resize(st.Out); err != nil {
			incFramesFailed()
			return nil, err
		}
		out.ROI = yuv.Rect{}
		if err := a.run(st.Stage, out, in); err != nil {
			incFramesFailed()
			return nil, err
		}
		incStagesRun()
		a.cur, in = next, out
	}
	incFramesConverted()
	incBytesOut(in.IOSize)
	log.Debug("convert: done", "dst", in)
	return in, nil
}

// Current returns the slot holding the last result, nil before the first
// conversion or after a passthrough.
func (a *Arena) Current() *yuv.Seq {
	if a.cur < 0 {
		return nil
	}
	return a.slots[a.cur]
}

func (a *Arena) slotOf(s *yuv.Seq) int {
	for i, slot := range a.slots {
		if slot == s {
			return i
		}
	}
	return -1
}

// pick returns the slot after the current one that is not in, preferring
// one that is not src either.
func (a *Arena) pick(in, src *yuv.Seq) int {
	n := len(a.slots)
	fallback := -1
	for i := 1; i <= n; i++ {
		j := (a.cur + i + n) % n
		switch a.slots[j] {
		case in:
		case src:
			if fallback < 0 {
				fallback = j
			}
		default:
			return j
		}
	}
	return fallback
}

func (a *Arena) run(st Stage, out, in *yuv.Seq) error {
	switch st {
	case StageUnpack10:
		return bitdepth.Convert10(in, out, bitdepth.Unpack)
	case StageUntile10:
		return remap.Tile10(in, out, remap.Untile, &a.scratch)
	case StageUntile8:
		return remap.Tile8(in, out, remap.Untile)
	case StageNarrow:
		return bitdepth.Narrow(out, in)
	case StageWiden:
		return bitdepth.Widen(out, in)
	case StageRescale:
		return bitdepth.Rescale(out, in)
	case StageSplit:
		if in.Format.IsPacked() {
			return remap.SplitPacked(out, in)
		}
		return remap.SplitChroma(out, in)
	case StageResample:
		return remap.Resample(out, in)
	case StageMerge:
		if out.Format.IsPacked() {
			return remap.MergePacked(out, in)
		}
		return remap.MergeChroma(out, in)
	case StagePack10:
		return bitdepth.Convert10(out, in, bitdepth.Pack)
	case StageTile10:
		return remap.Tile10(out, in, remap.ToTiles, &a.scratch)
	case StageTile8:
		return remap.Tile8(out, in, remap.ToTiles)
	case StageRelayout:
		return yuv.CopyFrame(out, in)
	}
	return yuv.NewError(yuv.KindUnsupportedFormat, "convert", "unknown stage "+st.String())
}

// ConvertFrame is Convert on a private arena. The result is src itself or
// a frame owned by the caller.
func ConvertFrame(dst yuv.Layout, src *yuv.Seq) (*yuv.Seq, error) {
	return NewArena(2).Convert(dst, src)
}
