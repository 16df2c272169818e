package protopal

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/bodgit/rgbgfx/gbcolor"
)

// SourceMode selects how palettes are sourced, per spec.md §4.4.
type SourceMode int

const (
	SourceNone SourceMode = iota
	SourceExplicit
	SourceEmbedded
	SourceDMG
)

// ErrUnmappable is returned when a proto-palette isn't a subset of any
// explicitly specified palette.
var ErrUnmappable = errors.New("protopal: proto-palette is not a subset of any specified palette")

// ErrDMGIncompatible is returned when DMG sourcing is requested for an
// image that has transparency or isn't grayscale-suitable.
var ErrDMGIncompatible = errors.New("protopal: image is not DMG-compatible")

// VerifySubset maps each proto-palette to the index of the first
// explicit palette it is a subset of. It returns ErrUnmappable wrapping
// the index of the first proto-palette with no home; callers that want
// every failure collected should call MapSubset per-entry instead.
func VerifySubset(protos []ProtoPalette, explicit [][]gbcolor.GBColor) ([]int, error) {
	mapping := make([]int, len(protos))
	for i, p := range protos {
		idx, ok := MapSubset(p, explicit)
		if !ok {
			return nil, fmt.Errorf("%w: proto-palette %d", ErrUnmappable, i)
		}
		mapping[i] = idx
	}
	return mapping, nil
}

// MapSubset returns the index of the first explicit palette that p is
// a subset of.
func MapSubset(p ProtoPalette, explicit [][]gbcolor.GBColor) (int, bool) {
	for i, pal := range explicit {
		full := New(pal)
		if full.Compare(p) == WeContainThem {
			return i, true
		}
	}
	return 0, false
}

// EmbeddedPalette converts a PNG's embedded color.Palette (already
// including any tRNS-derived alpha) into an explicit palette spec,
// truncated to k colors.
func EmbeddedPalette(pal color.Palette, useColorCurve bool, k int) []gbcolor.GBColor {
	out := make([]gbcolor.GBColor, 0, k)
	seen := make(map[gbcolor.GBColor]bool)
	for _, c := range pal {
		if len(out) >= k {
			break
		}
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		gc := gbcolor.Quantize(rgba, useColorCurve)
		if gc.IsTransparent() || seen[gc] {
			continue
		}
		seen[gc] = true
		out = append(out, gc)
	}
	return out
}

// DMGPalette builds the single synthetic grayscale palette used by DMG
// sourcing: k slots ordered by grayIndex bin, populated from whichever
// gray shades the image actually registered. It returns
// ErrDMGIncompatible if img has transparent pixels or isn't
// grayscale-suitable for capacity k.
func DMGPalette(img *gbcolor.ImagePalette, hasTransparentPixels bool, k int) ([]gbcolor.GBColor, error) {
	if hasTransparentPixels || !img.IsGrayscaleSuitable(k) {
		return nil, ErrDMGIncompatible
	}

	slots := make([]gbcolor.GBColor, k)
	filled := make([]bool, k)
	for _, c := range img.Colors() {
		bin := gbcolor.GrayIndex(c, k)
		slots[bin] = c
		filled[bin] = true
	}
	// Unfilled bins stay black (GBColor(0)), which is never mapped
	// to by any registered tile color since IsGrayscaleSuitable
	// already verified every registered color claims a distinct bin.
	return slots, nil
}
