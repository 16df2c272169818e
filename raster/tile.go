package raster

import "image/color"

// Slice restricts processing to a rectangle of the image, measured in
// 8x8 tiles. The zero value means "not configured": the whole image is
// used, and its dimensions must then be a multiple of 8 pixels.
type Slice struct {
	Left, Top, Width, Height int
}

func (s Slice) configured() bool {
	return s != Slice{}
}

// ResolveSlice validates and, if unset, derives a Slice from the image
// dimensions, per the ingester's validation rules (spec.md §4.2).
func ResolveSlice(width, height int, s Slice) (Slice, error) {
	if !s.configured() {
		if width%8 != 0 || height%8 != 0 {
			return Slice{}, ErrBadDimensions
		}
		return Slice{Left: 0, Top: 0, Width: width / 8, Height: height / 8}, nil
	}

	if s.Left < 0 || s.Top < 0 || s.Width <= 0 || s.Height <= 0 ||
		(s.Left+s.Width)*8 > width || (s.Top+s.Height)*8 > height {
		return Slice{}, ErrSliceOutOfBounds
	}

	return s, nil
}

// Tile is one 8x8 window of an Image, given in tile coordinates
// relative to the slice's origin.
type Tile struct {
	X, Y   int
	Pixels [8][8]color.RGBA
}

// TileIterator is a lazy, finite, non-restartable sequence of Tiles
// drawn from a slice of an Image, in row-major or column-major visiting
// order.
type TileIterator struct {
	img          *Image
	slice        Slice
	columnMajor  bool
	i            int
}

// Tiles returns a TileIterator over s in the requested visitation
// order. Consumers that need a second pass must collect the tiles
// themselves; the iterator cannot be restarted.
func (img *Image) Tiles(s Slice, columnMajor bool) *TileIterator {
	return &TileIterator{img: img, slice: s, columnMajor: columnMajor}
}

// Len returns the total number of tiles the iterator will yield.
func (it *TileIterator) Len() int {
	return it.slice.Width * it.slice.Height
}

// Next returns the next tile, or ok=false once the sequence is
// exhausted.
func (it *TileIterator) Next() (Tile, bool) {
	if it.i >= it.Len() {
		return Tile{}, false
	}

	var tx, ty int
	if it.columnMajor {
		tx, ty = it.i/it.slice.Height, it.i%it.slice.Height
	} else {
		tx, ty = it.i%it.slice.Width, it.i/it.slice.Width
	}
	it.i++

	tile := Tile{X: tx, Y: ty}
	baseX := (it.slice.Left + tx) * 8
	baseY := (it.slice.Top + ty) * 8
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tile.Pixels[y][x] = it.img.At(baseX+x, baseY+y)
		}
	}

	return tile, true
}
