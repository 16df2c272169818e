package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/bodgit/rgbgfx"
	"github.com/bodgit/rgbgfx/gbcolor"
	"github.com/bodgit/rgbgfx/raster"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "rgbgfx"
	app.Usage = "convert a PNG into Game Boy tile data, tilemap, attrmap, palmap and palette files"
	app.Version = "1.0.0"
	app.ArgsUsage = "[FILE]"

	app.Flags = []cli.Flag{
		&cli.IntFlag{
			Name:  "depth",
			Value: 2,
			Usage: "bits per pixel, 1 or 2",
		},
		&cli.IntFlag{
			Name:  "nb-palettes",
			Value: 8,
			Usage: "maximum number of palettes the packer may produce",
		},
		&cli.IntFlag{
			Name:  "colors-per-pal",
			Value: 4,
			Usage: "colors per palette",
		},
		&cli.StringFlag{
			Name:  "palspec",
			Value: "none",
			Usage: "palette sourcing mode: none, embedded or dmg",
		},
		&cli.StringSliceFlag{
			Name:  "palette",
			Usage: "explicit palette as comma-separated RGB555 hex colors; repeat for multiple palettes; implies --palspec explicit",
		},
		&cli.StringFlag{
			Name:  "bgcolor",
			Usage: "RGB555 hex background color; tiles of only this color are marked BACKGROUND",
		},
		&cli.BoolFlag{
			Name:  "dedup",
			Usage: "deduplicate identical tiles",
		},
		&cli.BoolFlag{
			Name:  "mirror-x",
			Usage: "deduplicate horizontally mirrored tiles (implies dedup)",
		},
		&cli.BoolFlag{
			Name:  "mirror-y",
			Usage: "deduplicate vertically mirrored tiles (implies dedup)",
		},
		&cli.BoolFlag{
			Name:  "color-curve",
			Usage: "use the S-curve 8-to-5-bit channel quantization",
		},
		&cli.IntFlag{
			Name:  "max-tiles0",
			Value: 256,
			Usage: "tile capacity of bank 0",
		},
		&cli.IntFlag{
			Name:  "max-tiles1",
			Usage: "tile capacity of bank 1",
		},
		&cli.IntFlag{
			Name: "base-tile-id0",
		},
		&cli.IntFlag{
			Name: "base-tile-id1",
		},
		&cli.IntFlag{
			Name: "base-pal-id",
		},
		&cli.StringFlag{
			Name:  "slice",
			Usage: "LEFT,TOP,WIDTH,HEIGHT in tiles; restricts processing to this rectangle",
		},
		&cli.BoolFlag{
			Name:  "column-major",
			Usage: "visit tiles column-major instead of row-major for dedup purposes",
		},
		&cli.IntFlag{
			Name:  "trim",
			Usage: "skip the last N tiles when emitting tile data",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "tile data output path",
		},
		&cli.StringFlag{
			Name:  "tilemap",
			Usage: "tilemap output path",
		},
		&cli.StringFlag{
			Name:  "attrmap",
			Usage: "attrmap output path",
		},
		&cli.StringFlag{
			Name:  "palmap",
			Usage: "palmap output path",
		},
		&cli.StringFlag{
			Name:  "palettes",
			Usage: "palette file output path",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Action = func(c *cli.Context) error {
		logger := log.New(io.Discard, "", 0)
		if c.Bool("verbose") {
			logger.SetOutput(os.Stderr)
		}

		cfg, err := configFromFlags(c)
		if err != nil {
			return cli.Exit(err, 1)
		}
		cfg.Logger = logger

		input := os.Stdin
		if name := c.Args().First(); name != "" && name != "-" {
			f, err := os.Open(name)
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer f.Close()
			input = f
		}

		result, err := rgbgfx.Convert(cfg, input)
		if err != nil {
			return cli.Exit(err, 1)
		}

		for _, w := range result.Warnings {
			logger.Println(w.Error())
		}

		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func configFromFlags(c *cli.Context) (*rgbgfx.Config, error) {
	cfg := &rgbgfx.Config{
		BitDepth:       c.Int("depth"),
		NbPalettes:     c.Int("nb-palettes"),
		NbColorsPerPal: c.Int("colors-per-pal"),
		AllowDedup:     c.Bool("dedup"),
		AllowMirrorX:   c.Bool("mirror-x"),
		AllowMirrorY:   c.Bool("mirror-y"),
		UseColorCurve:  c.Bool("color-curve"),
		MaxNbTiles:     [2]int{c.Int("max-tiles0"), c.Int("max-tiles1")},
		BaseTileIDs:    [2]int{c.Int("base-tile-id0"), c.Int("base-tile-id1")},
		BasePalID:      c.Int("base-pal-id"),
		ColumnMajor:    c.Bool("column-major"),
		Trim:           c.Int("trim"),
		OutputTileData: c.String("output"),
		OutputTilemap:  c.String("tilemap"),
		OutputAttrmap:  c.String("attrmap"),
		OutputPalmap:   c.String("palmap"),
		OutputPalettes: c.String("palettes"),
	}

	if s := c.String("bgcolor"); s != "" {
		gc, err := parseGBColor(s)
		if err != nil {
			return nil, fmt.Errorf("bgcolor: %w", err)
		}
		cfg.BGColor = &gc
	}

	if s := c.String("slice"); s != "" {
		slice, err := parseSlice(s)
		if err != nil {
			return nil, fmt.Errorf("slice: %w", err)
		}
		cfg.InputSlice = slice
	}

	palettes := c.StringSlice("palette")
	switch {
	case len(palettes) > 0:
		explicit, err := parsePalettes(palettes)
		if err != nil {
			return nil, fmt.Errorf("palette: %w", err)
		}
		cfg.PalSpecMode = rgbgfx.PalSpecExplicit
		cfg.ExplicitPalettes = explicit
	case c.String("palspec") == "embedded":
		cfg.PalSpecMode = rgbgfx.PalSpecEmbedded
	case c.String("palspec") == "dmg":
		cfg.PalSpecMode = rgbgfx.PalSpecDMG
	default:
		cfg.PalSpecMode = rgbgfx.PalSpecNone
	}

	return cfg, nil
}

func parseGBColor(s string) (gbcolor.GBColor, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	if err != nil {
		return 0, err
	}
	return gbcolor.GBColor(v), nil
}

func parsePalettes(specs []string) ([][]gbcolor.GBColor, error) {
	out := make([][]gbcolor.GBColor, len(specs))
	for i, spec := range specs {
		var colors []gbcolor.GBColor
		for _, tok := range strings.Split(spec, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			gc, err := parseGBColor(tok)
			if err != nil {
				return nil, err
			}
			colors = append(colors, gc)
		}
		out[i] = colors
	}
	return out, nil
}

func parseSlice(s string) (raster.Slice, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return raster.Slice{}, fmt.Errorf("expected LEFT,TOP,WIDTH,HEIGHT, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return raster.Slice{}, err
		}
		vals[i] = n
	}
	return raster.Slice{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}, nil
}
