// Package preview renders the luma plane of a frame as a grayscale image
// for quick visual checks.
package preview

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/tiff"

	"yuvtool/internal/yuv"
)

// Encoding is an output image format.
type Encoding uint8

const (
	TIFF Encoding = iota
	BMP
)

func (e Encoding) String() string {
	if e == BMP {
		return "bmp"
	}
	return "tiff"
}

// EncodingFor picks the encoding from a file extension.
func EncodingFor(path string) (Encoding, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return TIFF, nil
	case ".bmp":
		return BMP, nil
	}
	return 0, fmt.Errorf("preview %s: want .tif, .tiff or .bmp", path)
}

// Luma extracts the luma plane of a raster 8- or 16-bit frame. 8-bit
// frames give an *image.Gray; 16-bit frames an *image.Gray16 with the
// active bits moved to the top of the range.
func Luma(s *yuv.Seq) (draw.Image, error) {
	const op = "preview"
	if s.Tiled || s.SampleBytes() == 0 {
		return nil, yuv.NewError(yuv.KindUnsupportedFormat, op, fmt.Sprintf("%d-bit tiled=%t", s.BitDepth, s.Tiled))
	}
	if err := s.CheckBuffer(op); err != nil {
		return nil, err
	}
	p := s.Planes()[0]
	// position of luma sample x within a row, in samples
	at := func(x int) int { return x }
	switch s.Format {
	case yuv.FormatYUYV:
		at = func(x int) int { return 2 * x }
	case yuv.FormatUYVY:
		at = func(x int) int { return 2*x + 1 }
	}
	r := image.Rect(0, 0, s.Width, s.Height)

	if s.BitDepth == 8 {
		img := image.NewGray(r)
		for y := 0; y < s.Height; y++ {
			row := s.Buf[p.Offset+y*p.Stride:]
			dst := img.Pix[y*img.Stride:]
			for x := 0; x < s.Width; x++ {
				dst[x] = row[at(x)]
			}
		}
		return img, nil
	}

	shift := uint(16 - s.ActiveBits)
	img := image.NewGray16(r)
	for y := 0; y < s.Height; y++ {
		row := s.Buf[p.Offset+y*p.Stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < s.Width; x++ {
			v := binary.LittleEndian.Uint16(row[2*at(x):]) << shift
			binary.BigEndian.PutUint16(dst[2*x:], v)
		}
	}
	return img, nil
}

// Caption draws text in the top-left corner of img.
func Caption(img draw.Image, text string) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, basicfont.Face7x13.Ascent+2),
	}
	d.DrawString(text)
}

// Encode writes img in the given encoding.
func Encode(w io.Writer, img image.Image, enc Encoding) error {
	if enc == BMP {
		return bmp.Encode(w, img)
	}
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// WriteFile renders the luma of s, captioned, to path. The encoding comes
// from the file extension.
func WriteFile(path string, s *yuv.Seq, caption string) error {
	enc, err := EncodingFor(path)
	if err != nil {
		return err
	}
	img, err := Luma(s)
	if err != nil {
		return err
	}
	Caption(img, caption)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := Encode(f, img, enc); err != nil {
		f.Close()
		return fmt.Errorf("preview %s: %w", enc, err)
	}
	return f.Close()
}
