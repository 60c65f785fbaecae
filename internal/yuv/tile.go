package yuv

import "fmt"

// TileGeometry describes one tile of a tiled layout.
//
//	   Width
//	  ---^---
//	  x x x x  |
//	  x x x x  > Height
//	  x x x x  |
//
// Size is the byte footprint of a tile and may exceed the bytes its
// samples need (padding).
type TileGeometry struct {
	Width  int
	Height int
	Size   int
}

var (
	// Tile8 is the tile geometry for 8-bit samples.
	Tile8 = TileGeometry{Width: 8, Height: 4, Size: 32}
	// Tile10 is the tile geometry for compact 10-bit samples.
	Tile10 = TileGeometry{Width: 3, Height: 4, Size: 16}
)

// TileFor returns the tile geometry used at the given bit depth.
func TileFor(bitDepth int) (TileGeometry, error) {
	switch bitDepth {
	case 8:
		return Tile8, nil
	case 10:
		return Tile10, nil
	default:
		return TileGeometry{}, &Error{Kind: KindUnsupportedFormat, Op: "tile", Msg: fmt.Sprintf("no tile mode for %d-bit samples", bitDepth)}
	}
}

// Validate checks the tile for use at bitDepth.
func (t TileGeometry) Validate(bitDepth int) error {
	if t.Width <= 0 || t.Height <= 0 || t.Size <= 0 {
		return &Error{Kind: KindInvalidGeometry, Op: "tile", Msg: fmt.Sprintf("non-positive tile %dx%d/%d", t.Width, t.Height, t.Size)}
	}
	if t.Size%8 != 0 {
		return &Error{Kind: KindInvalidGeometry, Op: "tile", Msg: fmt.Sprintf("tile size %d is not a multiple of 8", t.Size)}
	}
	if t.Width*t.Height*bitDepth > t.Size*8 {
		return &Error{Kind: KindInvalidGeometry, Op: "tile", Msg: fmt.Sprintf("%dx%d %d-bit samples do not fit %d bytes", t.Width, t.Height, bitDepth, t.Size)}
	}
	return nil
}

func (t TileGeometry) String() string {
	return fmt.Sprintf("%dx%d/%d", t.Width, t.Height, t.Size)
}
