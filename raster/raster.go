/*
Package raster implements the PNG image ingester: it decodes a PNG into
an owned RGBA888 pixel grid and exposes a lazy, non-restartable 8x8 tile
iterator over a configurable slice of the image.

Go's standard image/png decoder performs all seven Adam7 interlace
passes internally before Decode returns, so an interlaced input is
already fully deinterlaced by the time this package sees it; no
separate interlace handling is required here.
*/
package raster

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// Sentinel fatal errors, per the ingester's validation rules.
var (
	ErrInputTooShort        = errors.New("raster: input too short to be a PNG")
	ErrNotAPNG              = errors.New("raster: input is not a PNG")
	ErrUnsupportedInterlace = errors.New("raster: unsupported interlace method")
	ErrBadDimensions        = errors.New("raster: image dimensions are not a multiple of 8 pixels")
	ErrSliceOutOfBounds     = errors.New("raster: slice rectangle exceeds image bounds")
)

// ColorType records which underlying pixel representation the source
// PNG used, mirroring the teacher's colorType-style classification in
// image/reader.go (paletted vs true color).
type ColorType int

const (
	ColorTypeRGBA ColorType = iota
	ColorTypeGray
	ColorTypePalette
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Image is a decoded PNG, flattened to a contiguous owned RGBA888
// buffer so that pixel data outlives the tile iterator even though the
// underlying decode path is a streaming one.
type Image struct {
	width, height   int
	pix             []color.RGBA
	embeddedPalette color.Palette
	colorType       ColorType
}

// Decode reads a PNG from r and flattens it to RGBA888.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	sig, err := br.Peek(len(pngSignature))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInputTooShort
		}
		return nil, err
	}
	if !bytes.Equal(sig, pngSignature[:]) {
		return nil, ErrNotAPNG
	}

	src, err := png.Decode(br)
	if err != nil {
		var fmtErr png.FormatError
		if errors.As(err, &fmtErr) {
			return nil, fmt.Errorf("%w: %s", ErrNotAPNG, err)
		}
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrInputTooShort
		}
		var unsupported png.UnsupportedError
		if errors.As(err, &unsupported) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedInterlace, err)
		}
		return nil, err
	}

	return flatten(src), nil
}

func flatten(src image.Image) *Image {
	b := src.Bounds()
	img := &Image{
		width:  b.Dx(),
		height: b.Dy(),
		pix:    make([]color.RGBA, b.Dx()*b.Dy()),
	}

	switch m := src.(type) {
	case *image.Paletted:
		img.embeddedPalette = m.Palette
		img.colorType = ColorTypePalette
	case *image.Gray, *image.Gray16:
		img.colorType = ColorTypeGray
	default:
		img.colorType = ColorTypeRGBA
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.pix[i] = color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			i++
		}
	}

	return img
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// At returns the RGBA888 pixel at (x, y).
func (img *Image) At(x, y int) color.RGBA {
	return img.pix[y*img.width+x]
}

// EmbeddedPalette returns the PNG's embedded palette, or nil if the
// source wasn't a paletted PNG.
func (img *Image) EmbeddedPalette() color.Palette {
	return img.embeddedPalette
}

// ColorType reports which pixel representation the source PNG used.
func (img *Image) ColorType() ColorType {
	return img.colorType
}
