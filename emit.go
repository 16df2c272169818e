package rgbgfx

import (
	"os"

	"github.com/bodgit/rgbgfx/palette"
	"github.com/bodgit/rgbgfx/raster"
	"github.com/bodgit/rgbgfx/tileset"
)

// emitAll writes whichever of the five output artifacts cfg names,
// per spec.md §4.8. Each file is opened, written and closed in turn;
// an empty output path means "do not emit" for that artifact.
func emitAll(cfg *Config, slice raster.Slice, entries []attrmapEntry, mapping []int, sorted []palette.Palette, unique *tileset.UniqueTiles, noDedupTiles []tileset.TileData) error {
	rowMajor := toRowMajor(entries, slice)

	if cfg.OutputTileData != "" {
		tiles := noDedupTiles
		if cfg.dedupEnabled() {
			tiles = unique.Tiles()
		}
		if err := writeFile(cfg.OutputTileData, tileDataBytes(tiles, cfg.BitDepth, cfg.Trim)); err != nil {
			return err
		}
	}

	if cfg.OutputTilemap != "" {
		if err := writeFile(cfg.OutputTilemap, tilemapBytes(rowMajor, cfg.BaseTileIDs)); err != nil {
			return err
		}
	}

	if cfg.OutputAttrmap != "" {
		if err := writeFile(cfg.OutputAttrmap, attrmapBytes(rowMajor, mapping, cfg.BasePalID)); err != nil {
			return err
		}
	}

	if cfg.OutputPalmap != "" {
		if err := writeFile(cfg.OutputPalmap, palmapBytes(rowMajor, mapping, cfg.BasePalID)); err != nil {
			return err
		}
	}

	if cfg.OutputPalettes != "" {
		if err := writeFile(cfg.OutputPalettes, paletteFileBytes(sorted)); err != nil {
			return err
		}
	}

	return nil
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// toRowMajor reorders entries (collected in whichever order the tile
// iterator visited them, row- or column-major per cfg.ColumnMajor)
// back into row-major order: the column-major option only affects
// dedup visitation, never output ordering (spec.md §6).
func toRowMajor(entries []attrmapEntry, slice raster.Slice) []attrmapEntry {
	out := make([]attrmapEntry, len(entries))
	for _, e := range entries {
		out[e.y*slice.Width+e.x] = e
	}
	return out
}

// tileDataBytes emits the bit-exact tile stream: every unique tile up
// to len(tiles)-trim, in insertion order, 16 bytes at 2bpp or the 8
// even-indexed (low-plane) bytes at 1bpp.
func tileDataBytes(tiles []tileset.TileData, bitDepth, trim int) []byte {
	n := len(tiles) - trim
	if n < 0 {
		n = 0
	}

	bytesPerTile := 16
	if bitDepth == 1 {
		bytesPerTile = 8
	}

	out := make([]byte, 0, n*bytesPerTile)
	for _, t := range tiles[:n] {
		if bitDepth == 1 {
			for row := 0; row < 8; row++ {
				out = append(out, t.Bytes[row*2])
			}
		} else {
			out = append(out, t.Bytes[:]...)
		}
	}
	return out
}

// tilemapBytes emits one byte per entry: the base tile ID for
// BACKGROUND tiles, otherwise the entry's resolved tileId.
func tilemapBytes(entries []attrmapEntry, baseTileIDs [2]int) []byte {
	out := make([]byte, len(entries))
	for i, e := range entries {
		if e.isBackground() {
			out[i] = byte(baseTileIDs[0])
			continue
		}
		out[i] = byte(e.tileID)
	}
	return out
}

// attrmapBytes emits one byte per entry, packing palette id, bank and
// mirror flags per spec.md §4.8's bit layout.
func attrmapBytes(entries []attrmapEntry, mapping []int, basePalID int) []byte {
	out := make([]byte, len(entries))
	for i, e := range entries {
		palID := mapping[e.protoID] + basePalID

		var b byte
		b |= byte(palID) & 0b111
		if e.bank != 0 {
			b |= 1 << 3
		}
		if e.xFlip {
			b |= 1 << 5
		}
		if e.yFlip {
			b |= 1 << 6
		}
		out[i] = b
	}
	return out
}

// palmapBytes emits one byte per entry: the resolved palette id.
func palmapBytes(entries []attrmapEntry, mapping []int, basePalID int) []byte {
	out := make([]byte, len(entries))
	for i, e := range entries {
		out[i] = byte(mapping[e.protoID] + basePalID)
	}
	return out
}

// paletteFileBytes concatenates every palette's serialized slots.
func paletteFileBytes(palettes []palette.Palette) []byte {
	var out []byte
	for _, p := range palettes {
		out = append(out, p.MarshalBinary()...)
	}
	return out
}
