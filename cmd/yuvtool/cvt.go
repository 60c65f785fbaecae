package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"yuvtool/internal/convert"
	"yuvtool/internal/logs"
	"yuvtool/internal/preview"
	"yuvtool/internal/rtpraw"
	"yuvtool/internal/seqio"
	"yuvtool/internal/yuv"
)

func runCvt(args []string, stdout, stderr io.Writer) error {
	fs, level := newFlagSet("cvt", stderr)
	in := fs.String("i", seqio.Stdio, "input sequence, - for stdin, .zst for zstd")
	out := fs.String("o", "", "output sequence, - for stdout, .zst for zstd")
	size := fs.String("size", "", "frame size, WxH or an alias such as qcif or 1080")
	start := fs.Int("start", 0, "frames to skip")
	frames := fs.Int("frames", 0, "frames to convert, 0 for all")
	slots := fs.Int("slots", 2, "scratch frames per conversion (2 or 3)")
	previewPath := fs.String("preview", "", "write the first converted frame's luma to a .tif or .bmp")
	rtpAddrs := fs.String("rtp", "", "comma separated host:port list to stream 8-bit uyvy frames to as RFC 4175")
	mtu := fs.Int("mtu", rtpraw.DefaultMTU, "RTP payload budget in bytes")
	fps := fs.Float64("fps", 30, "frame rate for RTP timestamps and pacing")
	var src, dst layoutFlags
	src.register(fs, "src-", "", "420p", 8)
	dst.register(fs, "dst-", "", "", 0)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := setupLogging(*level, stderr); err != nil {
		return err
	}
	log := logs.Logger()

	w, h, err := parseSizeFlag(*size)
	if err != nil {
		return err
	}
	if *out == "" && *rtpAddrs == "" {
		return errors.New("nothing to do: set -o or -rtp")
	}
	srcL, err := src.layout(w, h, nil)
	if err != nil {
		return err
	}
	dstL, err := dst.layout(w, h, &srcL)
	if err != nil {
		return err
	}
	frame, err := yuv.NewSeq(srcL)
	if err != nil {
		return err
	}
	// reject impossible requests before touching any file
	if _, err := convert.Plan(dstL, frame); err != nil {
		return err
	}

	r, err := seqio.Open(*in)
	if err != nil {
		return err
	}
	defer r.Close()

	var wr *seqio.Writer
	if *out != "" {
		if *out == seqio.Stdio {
			wr = seqio.NewWriter(stdout)
		} else if wr, err = seqio.Create(*out); err != nil {
			return err
		}
		defer wr.Close()
	}

	var sender *rtpraw.Sender
	if *rtpAddrs != "" {
		if sender, err = rtpraw.Dial(strings.Split(*rtpAddrs, ","), *mtu); err != nil {
			return err
		}
		defer sender.Close()
		if *fps > 0 {
			sender.SetPace(time.Duration(float64(time.Second) / *fps))
		}
	}

	if err := r.Skip(*start, frame.IOSize); err != nil {
		if errors.Is(err, io.EOF) {
			log.Warn("input ends before the first frame", "start", *start)
			return nil
		}
		return err
	}

	arena := convert.NewArena(*slots)
	n := 0
	for *frames <= 0 || n < *frames {
		if err := r.ReadFrame(frame); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				log.Warn("trailing partial frame ignored", "frame", *start+n)
				break
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		res, err := arena.Convert(dstL, frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", *start+n, err)
		}
		if n == 0 {
			log.Info("converting", "src", frame, "dst", res)
			if *previewPath != "" {
				if err := preview.WriteFile(*previewPath, res, fmt.Sprintf("#%d %s", *start, res.Format)); err != nil {
					return err
				}
			}
		}
		if wr != nil {
			if err := wr.WriteFrame(res); err != nil {
				return err
			}
		}
		if sender != nil {
			if _, err := sender.SendFrame(res, rtpraw.Timestamp(n, *fps)); err != nil {
				return fmt.Errorf("frame %d: %w", *start+n, err)
			}
		}
		n++
	}

	attrs := []any{"frames", n}
	if wr != nil {
		if err := wr.Close(); err != nil {
			return err
		}
		attrs = append(attrs, "bytes", wr.Bytes())
	}
	if sender != nil {
		attrs = append(attrs, "rtp", sender.Counters())
	}
	log.Info("done", attrs...)
	return nil
}
