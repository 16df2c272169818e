/*
Package rgbgfx ties together the graphics conversion core: PNG
ingestion, color quantization, proto-palette construction, palette
packing and sorting, mirror-aware tile deduplication, and the bit-exact
output emitters.

Config mirrors the teacher's constructor-argument style
(megasd.New(db, logger)) rather than a config-file library: callers -
here, cmd/rgbgfx - build a Config by hand and pass it by reference into
Convert. No environment variables are consulted.
*/
package rgbgfx

import (
	"io"
	"log"

	"github.com/bodgit/rgbgfx/gbcolor"
	"github.com/bodgit/rgbgfx/raster"
	"github.com/bodgit/rgbgfx/tileset"
)

// PalSpecMode selects where palettes come from.
type PalSpecMode int

const (
	PalSpecNone PalSpecMode = iota
	PalSpecExplicit
	PalSpecEmbedded
	PalSpecDMG
)

// Config is the fully-resolved configuration record the core consumes.
// It corresponds directly to the table in spec.md §3; the lexer,
// command-line parser and at-file expander that would normally build
// one are out of scope for this module (spec.md §1).
type Config struct {
	BitDepth       int // 1 or 2
	NbPalettes     int // N, <= 256
	NbColorsPerPal int // K, <= 2^BitDepth

	PalSpecMode      PalSpecMode
	ExplicitPalettes [][]gbcolor.GBColor // used when PalSpecMode == PalSpecExplicit

	BGColor *gbcolor.GBColor // nil means unset

	AllowDedup   bool
	AllowMirrorX bool
	AllowMirrorY bool

	UseColorCurve bool

	MaxNbTiles  [2]int // per-bank tile caps, each <= 256
	BaseTileIDs [2]int
	BasePalID   int

	InputSlice  raster.Slice
	ColumnMajor bool
	Trim        int

	InputTileset []tileset.TileData

	OutputTileData string
	OutputTilemap  string
	OutputAttrmap  string
	OutputPalmap   string
	OutputPalettes string

	// Logger receives progress breadcrumbs, never fatal errors
	// (those are returned). Defaults to a logger writing to
	// io.Discard if nil, the same default the teacher's MegaSD
	// type uses before -v is passed.
	Logger *log.Logger
}

func (c *Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard, "", 0)
}

func (c *Config) allowMirrorAny() bool {
	return c.AllowMirrorX || c.AllowMirrorY
}

func (c *Config) dedupEnabled() bool {
	return c.AllowDedup || c.allowMirrorAny()
}
