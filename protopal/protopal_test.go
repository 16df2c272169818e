package protopal

import (
	"image/color"
	"testing"

	"github.com/bodgit/rgbgfx/gbcolor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgba(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func colors(vs ...uint16) []gbcolor.GBColor {
	out := make([]gbcolor.GBColor, len(vs))
	for i, v := range vs {
		out[i] = gbcolor.GBColor(v)
	}
	return out
}

func TestCompareContainment(t *testing.T) {
	a := New(colors(1, 2, 3))
	b := New(colors(1, 2))

	assert.Equal(t, WeContainThem, a.Compare(b))
	assert.Equal(t, TheyContainUs, b.Compare(a))
}

func TestCompareEqualIsWeContainThem(t *testing.T) {
	a := New(colors(1, 2))
	b := New(colors(2, 1))
	assert.Equal(t, WeContainThem, a.Compare(b))
}

func TestCompareNeither(t *testing.T) {
	a := New(colors(1, 2))
	b := New(colors(2, 3))
	assert.Equal(t, Neither, a.Compare(b))
}

func TestBuilderTransparentTile(t *testing.T) {
	b := NewBuilder(4, nil)
	_, sentinel, err := b.AddTile(nil)
	require.NoError(t, err)
	assert.Equal(t, SentinelTransparent, sentinel)
}

func TestBuilderBackgroundTile(t *testing.T) {
	bg := gbcolor.GBColor(5)
	b := NewBuilder(4, &bg)
	_, sentinel, err := b.AddTile(colors(5))
	require.NoError(t, err)
	assert.Equal(t, SentinelBackground, sentinel)
}

func TestBuilderBGInTile(t *testing.T) {
	bg := gbcolor.GBColor(5)
	b := NewBuilder(4, &bg)
	_, _, err := b.AddTile(colors(5, 6))
	assert.ErrorIs(t, err, ErrBGInTile)
}

func TestBuilderTooManyColors(t *testing.T) {
	b := NewBuilder(4, nil)
	_, _, err := b.AddTile(colors(1, 2, 3, 4, 5))
	assert.ErrorIs(t, err, ErrTooManyColors)
}

func TestBuilderReusesSupersetID(t *testing.T) {
	b := NewBuilder(4, nil)
	idA, _, err := b.AddTile(colors(1, 2, 3))
	require.NoError(t, err)

	idB, _, err := b.AddTile(colors(1, 2))
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
	assert.Len(t, b.Entries(), 1)
}

func TestBuilderOverwritesWithSupersetKeepingID(t *testing.T) {
	b := NewBuilder(4, nil)
	idA, _, err := b.AddTile(colors(1, 2))
	require.NoError(t, err)

	idB, _, err := b.AddTile(colors(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
	assert.Equal(t, New(colors(1, 2, 3)), b.Entries()[idA])
}

func TestBuilderAppendsNewEntryOnNeither(t *testing.T) {
	b := NewBuilder(4, nil)
	idA, _, err := b.AddTile(colors(1, 2))
	require.NoError(t, err)
	idB, _, err := b.AddTile(colors(3, 4))
	require.NoError(t, err)
	assert.NotEqual(t, idA, idB)
	assert.Len(t, b.Entries(), 2)
}

func TestVerifySubset(t *testing.T) {
	explicit := [][]gbcolor.GBColor{colors(1, 2, 3, 4)}
	p := New(colors(1, 3))
	mapping, err := VerifySubset([]ProtoPalette{p}, explicit)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, mapping)
}

func TestVerifySubsetUnmappable(t *testing.T) {
	explicit := [][]gbcolor.GBColor{colors(1, 2, 3, 4)}
	p := New(colors(1, 9))
	_, err := VerifySubset([]ProtoPalette{p}, explicit)
	assert.ErrorIs(t, err, ErrUnmappable)
}

func TestDMGPalette(t *testing.T) {
	img := gbcolor.NewImagePalette()
	white := gbcolor.GBColor(0x1f<<10 | 0x1f<<5 | 0x1f)
	black := gbcolor.GBColor(0)
	img.Register(white, rgba(255, 255, 255))
	img.Register(black, rgba(0, 0, 0))

	slots, err := DMGPalette(img, false, 4)
	require.NoError(t, err)
	assert.Equal(t, white, slots[0])
	assert.Equal(t, black, slots[3])
}

func TestDMGPaletteIncompatibleWithTransparency(t *testing.T) {
	img := gbcolor.NewImagePalette()
	_, err := DMGPalette(img, true, 4)
	assert.ErrorIs(t, err, ErrDMGIncompatible)
}
