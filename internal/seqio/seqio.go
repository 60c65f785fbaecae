// Package seqio reads and writes raw frame sequences: frames of IOSize
// bytes back to back, optionally inside a zstd stream.
package seqio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"yuvtool/internal/yuv"
)

// Stdio is the path naming stdin for readers and stdout for writers.
const Stdio = "-"

// IsZstd reports whether path names a zstd-compressed sequence.
func IsZstd(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".zst")
}

// Reader yields whole frames from a sequence.
type Reader struct {
	r       io.Reader
	seeker  io.Seeker
	buf     *bufio.Reader // wraps seeker when set
	closers []func() error
	frames  int
}

// NewReader reads frames from r. r is not closed by Close.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{r: r}
	if s, ok := r.(io.Seeker); ok {
		rd.seeker = s
	}
	return rd
}

// Open opens path for reading; "-" is stdin and ".zst" paths are
// decompressed on the fly.
func Open(path string) (*Reader, error) {
	var f *os.File
	if path == Stdio {
		f = os.Stdin
	} else {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}
	rd := &Reader{}
	if f != os.Stdin {
		rd.closers = append(rd.closers, f.Close)
	}
	if IsZstd(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			rd.Close()
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		rd.closers = append([]func() error{func() error { dec.Close(); return nil }}, rd.closers...)
		rd.r = dec
		return rd, nil
	}
	rd.buf = bufio.NewReaderSize(f, 1<<20)
	rd.r = rd.buf
	if f != os.Stdin {
		rd.seeker = f
	}
	return rd, nil
}

// ReadFrame fills s.Frame() with the next frame. It returns io.EOF at a
// clean end of stream and io.ErrUnexpectedEOF when the stream ends inside
// a frame.
func (r *Reader) ReadFrame(s *yuv.Seq) error {
	if err := s.CheckBuffer("read frame"); err != nil {
		return err
	}
	if _, err := io.ReadFull(r.r, s.Frame()); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return err
		}
		return fmt.Errorf("read frame %d: %w", r.frames, err)
	}
	r.frames++
	return nil
}

// Skip advances past n frames of frameSize bytes. Running out of input is
// reported as io.EOF, by Skip itself or, on seekable files, by the next
// ReadFrame.
func (r *Reader) Skip(n, frameSize int) error {
	if n <= 0 {
		return nil
	}
	total := int64(n) * int64(frameSize)
	// seeking under a buffer is only safe before it has read anything
	if r.seeker != nil && (r.buf == nil || r.frames == 0 && r.buf.Buffered() == 0) {
		if _, err := r.seeker.Seek(total, io.SeekCurrent); err == nil {
			r.frames += n
			return nil
		}
	}
	copied, err := io.CopyN(io.Discard, r.r, total)
	r.frames += int(copied / int64(max(frameSize, 1)))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("skip %d frames: %w", n, err)
	}
	return nil
}

// Frames is the number of frames read or skipped so far.
func (r *Reader) Frames() int { return r.frames }

// Close releases the decoder and the file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Writer appends whole frames to a sequence.
type Writer struct {
	w       io.Writer
	flush   []func() error
	frames  int
	written int64
}

// NewWriter writes frames to w. Close flushes but does not close w.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriterSize(w, 1<<20)
	return &Writer{w: bw, flush: []func() error{bw.Flush}}
}

// Create truncates or creates path; "-" is stdout and ".zst" paths are
// compressed.
func Create(path string) (*Writer, error) {
	var f *os.File
	if path == Stdio {
		f = os.Stdout
	} else {
		var err error
		if f, err = os.Create(path); err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	w := &Writer{w: bw}
	if IsZstd(path) {
		enc, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			if f != os.Stdout {
				f.Close()
			}
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		w.w = enc
		w.flush = append(w.flush, enc.Close)
	}
	w.flush = append(w.flush, bw.Flush)
	if f != os.Stdout {
		w.flush = append(w.flush, f.Close)
	}
	return w, nil
}

// WriteFrame writes the IOSize bytes of s.
func (w *Writer) WriteFrame(s *yuv.Seq) error {
	if err := s.CheckBuffer("write frame"); err != nil {
		return err
	}
	n, err := w.w.Write(s.Frame())
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("write frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

// Frames is the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Bytes is the number of uncompressed bytes written so far.
func (w *Writer) Bytes() int64 { return w.written }

// Close flushes the encoder and buffers, then closes the file.
func (w *Writer) Close() error {
	var errs []error
	for _, f := range w.flush {
		errs = append(errs, f())
	}
	w.flush = nil
	return errors.Join(errs...)
}
