package rgbgfx

import (
	"fmt"
	"image/color"
	"io"

	"github.com/bodgit/rgbgfx/gbcolor"
	"github.com/bodgit/rgbgfx/gbgfxerr"
	"github.com/bodgit/rgbgfx/palette"
	"github.com/bodgit/rgbgfx/palpack"
	"github.com/bodgit/rgbgfx/protopal"
	"github.com/bodgit/rgbgfx/raster"
	"github.com/bodgit/rgbgfx/tileset"
)

// Result carries the non-fatal byproducts of a Convert call: the
// warnings accumulated along the way (currently just FUSION events),
// surfacing them is the caller's job.
type Result struct {
	Warnings []*gbgfxerr.Event
}

// attrmapEntry is the per-tile record described in spec.md §3. bank,
// tileID and the flip flags default to their BACKGROUND values
// (0, 0, false, false) and are only overwritten for non-bypassed
// tiles.
type attrmapEntry struct {
	x, y     int
	sentinel protopal.Sentinel
	protoID  int

	tileID int
	bank   int
	xFlip  bool
	yFlip  bool
}

func (e attrmapEntry) isBackground() bool {
	return e.sentinel == protopal.SentinelBackground
}

// tileRecord holds one tile's raw pixels plus its proto-palette
// classification. The tile iterator in raster is non-restartable, so
// the proto-palette pass collects every tile once here; the tile codec
// pass below runs entirely off this slice.
type tileRecord struct {
	x, y     int
	pixels   [8][8]color.RGBA
	sentinel protopal.Sentinel
	protoID  int
}

// Convert runs the full pipeline against a single PNG read from r,
// writing whichever output artifacts cfg names. It returns the
// warnings accumulated along the way on success, or the first fatal
// error - possibly a *gbgfxerr.CheckpointError wrapping every
// recoverable error collected up to the checkpoint that aborted.
func Convert(cfg *Config, r io.Reader) (*Result, error) {
	logger := cfg.logger()
	var acc gbgfxerr.Accumulator

	img, err := raster.Decode(r)
	if err != nil {
		return nil, fatalDecodeError(err)
	}
	logger.Printf("decoded %dx%d image\n", img.Width(), img.Height())

	slice, err := raster.ResolveSlice(img.Width(), img.Height(), cfg.InputSlice)
	if err != nil {
		return nil, fatalSliceError(err)
	}

	imgPalette, hasTransparentPixels := registerColors(img, cfg, &acc)
	logger.Printf("registered %d distinct colors, hasTransparentPixels=%v\n", imgPalette.Len(), hasTransparentPixels)

	builder := protopal.NewBuilder(cfg.NbColorsPerPal, cfg.BGColor)
	records, err := buildProtoPalettes(img, slice, cfg, builder, &acc)
	if err != nil {
		return nil, err
	}

	if err := acc.Checkpoint(); err != nil {
		return nil, err
	}

	protos := builder.Entries()
	logger.Printf("%d proto-palettes from %d tiles\n", len(protos), len(records))

	mapping, palettes, err := sourcePalettes(cfg, protos, imgPalette, img.EmbeddedPalette(), hasTransparentPixels, &acc)
	if err != nil {
		return nil, err
	}

	if err := acc.Checkpoint(); err != nil {
		return nil, err
	}

	if len(palettes) > cfg.NbPalettes {
		return nil, gbgfxerr.New(gbgfxerr.TooManyPalettes, gbgfxerr.SeverityFatal,
			fmt.Errorf("packer produced %d palettes, exceeding the configured limit of %d", len(palettes), cfg.NbPalettes))
	}

	sorted := sortPalettes(cfg, palettes, imgPalette, hasTransparentPixels)

	unique := tileset.NewUniqueTiles(cfg.AllowMirrorX, cfg.AllowMirrorY)
	if len(cfg.InputTileset) > 0 {
		for _, i := range unique.LoadInputTileset(cfg.InputTileset) {
			acc.Add(gbgfxerr.New(gbgfxerr.InputTilesetRedundant, gbgfxerr.SeverityRecoverable,
				fmt.Errorf("input tileset entry %d dedups against an earlier entry", i)))
		}
	}

	entries, noDedupTiles := encodeTiles(cfg, records, mapping, sorted, unique, &acc)

	if err := acc.Checkpoint(); err != nil {
		return nil, err
	}

	nbEmittedTiles := unique.Len()
	if !cfg.dedupEnabled() {
		nbEmittedTiles = len(noDedupTiles)
	}
	if nbEmittedTiles > cfg.MaxNbTiles[0]+cfg.MaxNbTiles[1] {
		return nil, gbgfxerr.New(gbgfxerr.TileBudgetExceeded, gbgfxerr.SeverityFatal,
			fmt.Errorf("%d tiles exceeds the configured budget of %d", nbEmittedTiles, cfg.MaxNbTiles[0]+cfg.MaxNbTiles[1]))
	}

	if err := emitAll(cfg, slice, entries, mapping, sorted, unique, noDedupTiles); err != nil {
		return nil, gbgfxerr.New(gbgfxerr.IOError, gbgfxerr.SeverityFatal, err)
	}

	var warnings []*gbgfxerr.Event
	for _, e := range acc.Events() {
		if e.Severity == gbgfxerr.SeverityWarning {
			warnings = append(warnings, e)
		}
	}

	return &Result{Warnings: warnings}, nil
}

func fatalDecodeError(err error) error {
	switch {
	case errIs(err, raster.ErrUnsupportedInterlace):
		return gbgfxerr.New(gbgfxerr.InputNotPNG, gbgfxerr.SeverityFatal, err)
	case errIs(err, raster.ErrInputTooShort), errIs(err, raster.ErrNotAPNG):
		return gbgfxerr.New(gbgfxerr.InputNotPNG, gbgfxerr.SeverityFatal, err)
	default:
		return gbgfxerr.New(gbgfxerr.IOError, gbgfxerr.SeverityFatal, err)
	}
}

func fatalSliceError(err error) error {
	switch {
	case errIs(err, raster.ErrBadDimensions):
		return gbgfxerr.New(gbgfxerr.BadDimensions, gbgfxerr.SeverityFatal, err)
	case errIs(err, raster.ErrSliceOutOfBounds):
		return gbgfxerr.New(gbgfxerr.SliceOutOfBounds, gbgfxerr.SeverityFatal, err)
	default:
		return gbgfxerr.New(gbgfxerr.IOError, gbgfxerr.SeverityFatal, err)
	}
}

// errIs walks err's Unwrap chain looking for target, matching by
// identity - every sentinel in this module is a package-level
// errors.New value, so identity comparison is sufficient and avoids
// importing errors here solely for errors.Is.
func errIs(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// registerColors builds the image-wide ImagePalette (spec.md §4.3) and
// derives hasTransparentPixels. It scans the whole decoded image, not
// just the configured slice: registration and grayscale/DMG detection
// are properties of the source image, independent of which tiles get
// processed.
func registerColors(img *raster.Image, cfg *Config, acc *gbgfxerr.Accumulator) (*gbcolor.ImagePalette, bool) {
	pal := gbcolor.NewImagePalette()
	sawTransparent := false

	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			px := img.At(x, y)

			switch {
			case gbcolor.IsIndeterminateAlpha(px.A):
				key := fmt.Sprintf("%d,%d,%d,%d", px.R, px.G, px.B, px.A)
				acc.AddOnce("indeterminate:"+key, gbgfxerr.New(gbgfxerr.IndeterminateAlpha, gbgfxerr.SeverityRecoverable,
					fmt.Errorf("pixel (%d,%d) has indeterminate alpha %d", x, y, px.A)))
			case gbcolor.IsTransparentAlpha(px.A):
				sawTransparent = true
			default:
				gc := gbcolor.Quantize(px, cfg.UseColorCurve)
				if fused, prev := pal.Register(gc, px); fused {
					acc.AddOnce("fusion:"+fusionKey(prev, px), gbgfxerr.New(gbgfxerr.Fusion, gbgfxerr.SeverityWarning,
						fmt.Errorf("colors %v and %v both quantize to %#04x", prev, px, uint16(gc))))
				}
			}
		}
	}

	hasTransparentPixels := sawTransparent && (cfg.BGColor == nil || !cfg.BGColor.IsTransparent())

	return pal, hasTransparentPixels
}

// fusionKey identifies an unordered pair of RGBAs so a FUSION warning
// fires once per pair regardless of which one is seen first.
func fusionKey(a, b color.RGBA) string {
	pa, pb := packRGBA(a), packRGBA(b)
	if pa > pb {
		pa, pb = pb, pa
	}
	return fmt.Sprintf("%08x-%08x", pa, pb)
}

func packRGBA(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// buildProtoPalettes iterates the configured slice exactly once,
// classifying every tile's opaque colors into the Builder and
// recording each tile's pixels for the later codec pass.
func buildProtoPalettes(img *raster.Image, slice raster.Slice, cfg *Config, builder *protopal.Builder, acc *gbgfxerr.Accumulator) ([]tileRecord, error) {
	it := img.Tiles(slice, cfg.ColumnMajor)
	records := make([]tileRecord, 0, it.Len())

	for {
		tile, ok := it.Next()
		if !ok {
			break
		}

		seen := make(map[gbcolor.GBColor]bool)
		var colors []gbcolor.GBColor
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				px := tile.Pixels[y][x]
				if gbcolor.IsTransparentAlpha(px.A) {
					continue
				}
				gc := gbcolor.Quantize(px, cfg.UseColorCurve)
				if !seen[gc] {
					seen[gc] = true
					colors = append(colors, gc)
				}
			}
		}

		id, sentinel, err := builder.AddTile(colors)
		if err != nil {
			switch err {
			case protopal.ErrTooManyColors:
				acc.Add(gbgfxerr.New(gbgfxerr.TooManyColors, gbgfxerr.SeverityRecoverable,
					fmt.Errorf("tile (%d,%d): %w", tile.X, tile.Y, err)))
			case protopal.ErrBGInTile:
				return nil, gbgfxerr.New(gbgfxerr.BGInTile, gbgfxerr.SeverityFatal,
					fmt.Errorf("tile (%d,%d): %w", tile.X, tile.Y, err))
			}
		}

		records = append(records, tileRecord{x: tile.X, y: tile.Y, pixels: tile.Pixels, sentinel: sentinel, protoID: id})
	}

	return records, nil
}

// sourcePalettes dispatches on cfg.PalSpecMode, implementing spec.md
// §4.4's palette-sourcing modes and, for PalSpecNone, running the
// packer described in §4.5.
func sourcePalettes(cfg *Config, protos []protopal.ProtoPalette, imgPalette *gbcolor.ImagePalette, embedded color.Palette, hasTransparentPixels bool, acc *gbgfxerr.Accumulator) ([]int, [][]gbcolor.GBColor, error) {
	switch cfg.PalSpecMode {
	case PalSpecExplicit:
		return mapExplicit(cfg.ExplicitPalettes, protos, acc), cfg.ExplicitPalettes, nil

	case PalSpecEmbedded:
		explicit := [][]gbcolor.GBColor{protopal.EmbeddedPalette(embedded, cfg.UseColorCurve, cfg.NbColorsPerPal)}
		return mapExplicit(explicit, protos, acc), explicit, nil

	case PalSpecDMG:
		dmg, err := protopal.DMGPalette(imgPalette, hasTransparentPixels, cfg.NbColorsPerPal)
		if err != nil {
			return nil, nil, gbgfxerr.New(gbgfxerr.DMGIncompatible, gbgfxerr.SeverityFatal, err)
		}
		explicit := [][]gbcolor.GBColor{dmg}
		return mapExplicit(explicit, protos, acc), explicit, nil

	default:
		result := palpack.Pack(protos, cfg.NbColorsPerPal)
		return result.Mapping, result.Palettes, nil
	}
}

// mapExplicit maps every proto-palette against explicit, recording an
// UNMAPPABLE event per unmappable entry instead of failing fast, so a
// single Convert call surfaces every offending tile at once.
func mapExplicit(explicit [][]gbcolor.GBColor, protos []protopal.ProtoPalette, acc *gbgfxerr.Accumulator) []int {
	mapping := make([]int, len(protos))
	for i, p := range protos {
		idx, ok := protopal.MapSubset(p, explicit)
		if !ok {
			acc.Add(gbgfxerr.New(gbgfxerr.Unmappable, gbgfxerr.SeverityRecoverable,
				fmt.Errorf("proto-palette %d (%v) is not a subset of any specified palette", i, p.Colors())))
			continue
		}
		mapping[i] = idx
	}
	return mapping
}

// sortPalettes orders each packed palette's colors into output slots,
// per spec.md §4.6. Explicit and Embedded sourcing preserve the
// caller's order; DMG and grayscale-suitable images bucket by gray
// index; everything else falls back to luma-weighted sort.
func sortPalettes(cfg *Config, palettes [][]gbcolor.GBColor, imgPalette *gbcolor.ImagePalette, hasTransparentPixels bool) []palette.Palette {
	mode := palette.ModeGeneral
	switch {
	case cfg.PalSpecMode == PalSpecDMG:
		mode = palette.ModeGray
	case cfg.PalSpecMode == PalSpecExplicit || cfg.PalSpecMode == PalSpecEmbedded:
		mode = palette.ModeExplicit
	case imgPalette.IsGrayscaleSuitable(cfg.NbColorsPerPal):
		mode = palette.ModeGray
	}

	out := make([]palette.Palette, len(palettes))
	for i, colors := range palettes {
		out[i] = palette.Sort(colors, cfg.NbColorsPerPal, mode, colors, hasTransparentPixels)
	}
	return out
}

// encodeTiles runs the tile codec and mirror-aware deduper (spec.md
// §4.7) over every collected tile record, in the same order they were
// visited during proto-palette construction. BACKGROUND tiles bypass
// the codec entirely. When dedup is disabled, noDedupTiles collects
// every non-BACKGROUND tile's encoding in attrmap order for the
// tile-data emitter, since there is no UniqueTiles index to read back
// from in that mode.
func encodeTiles(cfg *Config, records []tileRecord, mapping []int, sorted []palette.Palette, unique *tileset.UniqueTiles, acc *gbgfxerr.Accumulator) ([]attrmapEntry, []tileset.TileData) {
	entries := make([]attrmapEntry, len(records))
	dedup := cfg.dedupEnabled()

	var noDedupTiles []tileset.TileData
	seq := 0

	for i, rec := range records {
		entries[i].x = rec.x
		entries[i].y = rec.y
		entries[i].sentinel = rec.sentinel
		entries[i].protoID = rec.protoID

		if rec.sentinel == protopal.SentinelBackground {
			continue
		}

		var indices [8][8]int
		if rec.protoID < len(mapping) {
			pal := sorted[mapping[rec.protoID]]
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					gc := gbcolor.Quantize(rec.pixels[y][x], cfg.UseColorCurve)
					if idx := pal.IndexOf(gc); idx >= 0 {
						indices[y][x] = idx
					}
				}
			}
		}

		td := tileset.Encode(indices, cfg.AllowMirrorX)

		if !dedup {
			entries[i].tileID = seq
			seq++
			noDedupTiles = append(noDedupTiles, td)
			continue
		}

		id, match, isNew := unique.Add(td)
		if isNew && len(cfg.InputTileset) > 0 && cfg.OutputTileData == "" {
			acc.Add(gbgfxerr.New(gbgfxerr.TileNotInTileset, gbgfxerr.SeverityRecoverable,
				fmt.Errorf("tile (%d,%d) has no match in the input tileset", rec.x, rec.y)))
		}

		entries[i].tileID = id
		entries[i].xFlip = match == tileset.HFlip || match == tileset.VHFlip
		entries[i].yFlip = match == tileset.VFlip || match == tileset.VHFlip
	}

	for i, rec := range records {
		if rec.sentinel == protopal.SentinelBackground {
			continue
		}
		bank, tileID := tileset.BankAndID(entries[i].tileID, cfg.MaxNbTiles, cfg.BaseTileIDs)
		entries[i].bank = bank
		entries[i].tileID = tileID
	}

	return entries, noDedupTiles
}
