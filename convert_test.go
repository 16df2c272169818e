package rgbgfx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/rgbgfx/gbcolor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tiledImage returns a wTiles x hTiles tile PNG (in 8-pixel tiles)
// where tile (tx, ty) is filled with fill(tx, ty).
func tiledImage(wTiles, hTiles int, fill func(tx, ty int) color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, wTiles*8, hTiles*8))
	for ty := 0; ty < hTiles; ty++ {
		for tx := 0; tx < wTiles; tx++ {
			c := fill(tx, ty)
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					img.SetRGBA(tx*8+x, ty*8+y, c)
				}
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func baseConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		BitDepth:       2,
		NbPalettes:     8,
		NbColorsPerPal: 4,
		MaxNbTiles:     [2]int{256, 256},
		OutputTileData: filepath.Join(dir, "tiles.bin"),
		OutputTilemap:  filepath.Join(dir, "tilemap.bin"),
		OutputAttrmap:  filepath.Join(dir, "attrmap.bin"),
		OutputPalmap:   filepath.Join(dir, "palmap.bin"),
		OutputPalettes: filepath.Join(dir, "palettes.bin"),
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

var red = color.RGBA{R: 255, A: 255}

func TestSolidTileSingleOpaquePalette(t *testing.T) {
	// S1: 8x8 solid red, no transparency anywhere in the image.
	pngBytes := tiledImage(1, 1, func(tx, ty int) color.RGBA { return red })

	cfg := baseConfig(t)
	_, err := Convert(cfg, bytes.NewReader(pngBytes))
	require.NoError(t, err)

	assert.Equal(t, [16]byte{}, [16]byte(readFile(t, cfg.OutputTileData)))
	assert.Equal(t, []byte{0x00}, readFile(t, cfg.OutputTilemap))

	pal := readFile(t, cfg.OutputPalettes)
	require.Len(t, pal, 8)
	redGC := gbcolor.Quantize(red, false)
	assert.Equal(t, byte(redGC), pal[0])
	assert.Equal(t, byte(redGC>>8), pal[1])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, pal[2:])
}

func TestHorizontalMirrorDedup(t *testing.T) {
	// S2: two tiles, both solid red, are mirror-identical and dedup to one.
	pngBytes := tiledImage(2, 1, func(tx, ty int) color.RGBA { return red })

	cfg := baseConfig(t)
	cfg.AllowMirrorX = true

	_, err := Convert(cfg, bytes.NewReader(pngBytes))
	require.NoError(t, err)

	assert.Equal(t, []byte{0x00, 0x00}, readFile(t, cfg.OutputTilemap))
	assert.Len(t, readFile(t, cfg.OutputTileData), 16) // one unique tile only
}

func TestVerticalMirrorSetsYFlip(t *testing.T) {
	// S3: left tile top-row-on, right tile bottom-row-on -> vertical mirror.
	on := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	off := color.RGBA{A: 255}

	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if y == 0 {
				img.SetRGBA(x, y, on)
			} else {
				img.SetRGBA(x, y, off)
			}
			if y == 7 {
				img.SetRGBA(8+x, y, on)
			} else {
				img.SetRGBA(8+x, y, off)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	cfg := baseConfig(t)
	cfg.AllowMirrorY = true

	_, err := Convert(cfg, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	attr := readFile(t, cfg.OutputAttrmap)
	require.Len(t, attr, 2)
	assert.Equal(t, byte(0), attr[0]&(1<<6))  // left tile: no yFlip
	assert.NotEqual(t, byte(0), attr[1]&(1<<6)) // right tile: yFlip set
}

func TestTooManyColorsIsRecoverableThenFatal(t *testing.T) {
	// S4: 5 distinct opaque colors in one tile, K=4.
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	palette := []color.RGBA{
		{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255},
		{R: 255, G: 255, A: 255}, {R: 255, B: 255, A: 255},
	}
	i := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, palette[i%len(palette)])
			i++
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	cfg := baseConfig(t)
	_, err := Convert(cfg, bytes.NewReader(buf.Bytes()))
	require.Error(t, err)

	_, statErr := os.Stat(cfg.OutputTileData)
	assert.True(t, os.IsNotExist(statErr), "no output should be written on a checkpoint failure")
}

func TestPackerMergesOverlappingProtoPalettes(t *testing.T) {
	// S5: tile A={a,b}, tile B={a,b,c}; with K=4 they pack into one palette.
	a := color.RGBA{R: 255, A: 255}
	b := color.RGBA{G: 255, A: 255}
	c := color.RGBA{B: 255, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
		for x := 0; x < 8; x++ {
			switch (x + y) % 3 {
			case 0:
				img.SetRGBA(8+x, y, a)
			case 1:
				img.SetRGBA(8+x, y, b)
			default:
				img.SetRGBA(8+x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	cfg := baseConfig(t)
	_, err := Convert(cfg, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	palmap := readFile(t, cfg.OutputPalmap)
	require.Len(t, palmap, 2)
	assert.Equal(t, palmap[0], palmap[1])
}

func TestExplicitPalSpecUnmappableTile(t *testing.T) {
	// S6: explicit palette {red, green, blue, white}; a tile with
	// {red, yellow} isn't a subset of it.
	redGC := gbcolor.Quantize(color.RGBA{R: 255, A: 255}, false)
	greenGC := gbcolor.Quantize(color.RGBA{G: 255, A: 255}, false)
	blueGC := gbcolor.Quantize(color.RGBA{B: 255, A: 255}, false)
	whiteGC := gbcolor.Quantize(color.RGBA{R: 255, G: 255, B: 255, A: 255}, false)
	yellow := color.RGBA{R: 255, G: 255, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, yellow)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	cfg := baseConfig(t)
	cfg.PalSpecMode = PalSpecExplicit
	cfg.ExplicitPalettes = [][]gbcolor.GBColor{{redGC, greenGC, blueGC, whiteGC}}

	_, err := Convert(cfg, bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	pngBytes := tiledImage(2, 2, func(tx, ty int) color.RGBA {
		if (tx+ty)%2 == 0 {
			return color.RGBA{R: 255, A: 255}
		}
		return color.RGBA{G: 255, A: 255}
	})

	run := func() []byte {
		cfg := baseConfig(t)
		_, err := Convert(cfg, bytes.NewReader(pngBytes))
		require.NoError(t, err)
		return readFile(t, cfg.OutputPalettes)
	}

	assert.Equal(t, run(), run())
}

func TestBitDepth1DropsHighPlaneBytes(t *testing.T) {
	pngBytes := tiledImage(1, 1, func(tx, ty int) color.RGBA { return red })

	cfg2 := baseConfig(t)
	_, err := Convert(cfg2, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	two := readFile(t, cfg2.OutputTileData)

	cfg1 := baseConfig(t)
	cfg1.BitDepth = 1
	_, err = Convert(cfg1, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	one := readFile(t, cfg1.OutputTileData)

	require.Len(t, one, 8)
	for i := 0; i < 8; i++ {
		assert.Equal(t, two[i*2], one[i])
	}
}

func TestPaletteFileLength(t *testing.T) {
	pngBytes := tiledImage(1, 1, func(tx, ty int) color.RGBA { return red })
	cfg := baseConfig(t)
	cfg.NbColorsPerPal = 4
	_, err := Convert(cfg, bytes.NewReader(pngBytes))
	require.NoError(t, err)

	assert.Len(t, readFile(t, cfg.OutputPalettes), 4*2)
}
