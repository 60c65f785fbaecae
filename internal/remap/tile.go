package remap

import (
	"encoding/binary"
	"fmt"

	"yuvtool/internal/bitdepth"
	"yuvtool/internal/yuv"
)

// Direction selects which way a tile conversion runs.
type Direction uint8

const (
	// Untile reads the tiled frame and writes the raster one.
	Untile Direction = iota
	// ToTiles reads the raster frame and writes the tiled one.
	ToTiles
)

func (d Direction) String() string {
	if d == ToTiles {
		return "tile"
	}
	return "untile"
}

// copyKernel is the unit a tile row is moved in.
type copyKernel uint8

const (
	kernelBytes copyKernel = iota
	kernelWord4
	kernelWord8
	kernelRow8 // tile rows of exactly 8 bytes, never clipped
)

func (k copyKernel) String() string {
	return [...]string{"bytes", "word4", "word8", "row8"}[k]
}

// pickKernel chooses the widest unit every offset, stride and row width of
// a plane copy is a multiple of.
func pickKernel(tile yuv.TileGeometry, tp, rp yuv.Plane) copyKernel {
	if tile.Width == 8 && tp.Width%8 == 0 && rp.Offset%8 == 0 && rp.Stride%8 == 0 && tp.Offset%8 == 0 {
		return kernelRow8
	}
	all := []int{tile.Width, tile.Size, tp.Offset, tp.Stride, rp.Offset, rp.Stride, tp.Width}
	fits := func(unit int) bool {
		for _, v := range all {
			if v%unit != 0 {
				return false
			}
		}
		return true
	}
	switch {
	case fits(8):
		return kernelWord8
	case fits(4):
		return kernelWord4
	default:
		return kernelBytes
	}
}

func copyRow(k copyKernel, dst, src []byte, n int) {
	switch k {
	case kernelRow8:
		binary.LittleEndian.PutUint64(dst, binary.LittleEndian.Uint64(src))
	case kernelWord8:
		i := 0
		for ; i+8 <= n; i += 8 {
			binary.LittleEndian.PutUint64(dst[i:], binary.LittleEndian.Uint64(src[i:]))
		}
		copy(dst[i:n], src[i:n])
	case kernelWord4:
		i := 0
		for ; i+4 <= n; i += 4 {
			binary.LittleEndian.PutUint32(dst[i:], binary.LittleEndian.Uint32(src[i:]))
		}
		copy(dst[i:n], src[i:n])
	default:
		for i := 0; i < n; i++ {
			dst[i] = src[i]
		}
	}
}

func checkTilePair(op string, tiled, raster *yuv.Seq, tiledBits, rasterBits int) error {
	if !tiled.Tiled || raster.Tiled {
		return yuv.NewError(yuv.KindShapeMismatch, op, "want one tiled and one raster frame")
	}
	if tiled.BitDepth != tiledBits || raster.BitDepth != rasterBits {
		return yuv.NewError(yuv.KindUnsupportedFormat, op,
			fmt.Sprintf("tiled %d-bit with raster %d-bit", tiled.BitDepth, raster.BitDepth))
	}
	if tiled.Format != raster.Format || !yuv.SameShape(tiled, raster) {
		return yuv.NewError(yuv.KindShapeMismatch, op,
			fmt.Sprintf("%s %dx%d vs %s %dx%d", tiled.Format, tiled.Width, tiled.Height, raster.Format, raster.Width, raster.Height))
	}
	if err := tiled.Tile.Validate(tiledBits); err != nil {
		return err
	}
	if err := tiled.CheckBuffer(op); err != nil {
		return err
	}
	return raster.CheckBuffer(op)
}

// Tile8 converts an 8-bit frame between tiled and raster storage.
//
// Each tile holds Tile.Height rows of Tile.Width bytes back to back; tiles
// of one tile row follow each other every Tile.Size bytes and tile rows
// are a plane stride apart. Cells on the right and bottom edges are
// clipped to the frame; when tiling, their unused bytes are cleared.
func Tile8(tiled, raster *yuv.Seq, dir Direction) error {
	op := dir.String() + "8"
	if err := checkTilePair(op, tiled, raster, 8, 8); err != nil {
		return err
	}
	tile := tiled.Tile
	full := tile.Width*tile.Height == tile.Size
	tps, rps := tiled.Planes(), raster.Planes()
	for i := range tps {
		tp, rp := tps[i], rps[i]
		k := pickKernel(tile, tp, rp)
		for ty := 0; ty < tp.Rows; ty++ {
			rows := min(tile.Height, tp.Height-ty*tile.Height)
			for tx := 0; tx*tile.Width < tp.Width; tx++ {
				n := min(tile.Width, tp.Width-tx*tile.Width)
				tbase := tp.Offset + ty*tp.Stride + tx*tile.Size
				rbase := rp.Offset + ty*tile.Height*rp.Stride + tx*tile.Width
				if dir == ToTiles && (!full || n < tile.Width || rows < tile.Height) {
					clear(tiled.Buf[tbase:][:tile.Size])
				}
				for r := 0; r < rows; r++ {
					t := tiled.Buf[tbase+r*tile.Width:]
					s := raster.Buf[rbase+r*rp.Stride:]
					if dir == ToTiles {
						copyRow(k, t, s, n)
					} else {
						copyRow(k, s, t, n)
					}
				}
			}
		}
	}
	return nil
}

// Tile10 converts between a tiled compact 10-bit frame and its raster
// 16-bit container form.
//
// A tile stores its Width×Height samples column by column (sample (x, y)
// at index x*Height+y) as one run of compact 10-bit, followed by padding
// up to Tile.Size. scratch holds the unpacked tile; nil allocates one.
func Tile10(tiled, raster *yuv.Seq, dir Direction, scratch *Scratch) error {
	op := dir.String() + "10"
	if err := checkTilePair(op, tiled, raster, 10, 16); err != nil {
		return err
	}
	if scratch == nil {
		scratch = &Scratch{}
	}
	tile := tiled.Tile
	cells := tile.Width * tile.Height
	packedLen := bitdepth.PackedLen(cells)
	wide := scratch.Get(2 * cells)

	tps, rps := tiled.Planes(), raster.Planes()
	for i := range tps {
		tp, rp := tps[i], rps[i]
		for ty := 0; ty < tp.Rows; ty++ {
			rows := min(tile.Height, tp.Height-ty*tile.Height)
			for tx := 0; tx*tile.Width < tp.Width; tx++ {
				cols := min(tile.Width, tp.Width-tx*tile.Width)
				t := tiled.Buf[tp.Offset+ty*tp.Stride+tx*tile.Size:][:tile.Size]
				rbase := rp.Offset + ty*tile.Height*rp.Stride + 2*tx*tile.Width

				if dir == Untile {
					bitdepth.UnpackLine10(wide, t, cells)
					for x := 0; x < cols; x++ {
						for y := 0; y < rows; y++ {
							copy(raster.Buf[rbase+y*rp.Stride+2*x:][:2], wide[2*(x*tile.Height+y):])
						}
					}
					continue
				}

				clear(wide)
				for x := 0; x < cols; x++ {
					for y := 0; y < rows; y++ {
						copy(wide[2*(x*tile.Height+y):][:2], raster.Buf[rbase+y*rp.Stride+2*x:])
					}
				}
				bitdepth.PackLine10(t, wide, cells)
				clear(t[packedLen:])
			}
		}
	}
	return nil
}
