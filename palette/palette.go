/*
Package palette implements the Palette data type and the palette
sorter described in spec.md §3 and §4.6: ordering the colors packed
into each palette slot, reserving slot 0 for transparency when needed,
and serializing to the little-endian GBColor palette file format.

The general mode orders colors with sort.Slice on a luma comparison,
the grayscale mode places each color directly into its gbcolor.GrayIndex
slot without sorting, and the explicit mode walks the given order and
then the remaining colors.
*/
package palette

import (
	"sort"

	"github.com/bodgit/rgbgfx/gbcolor"
)

// Mode selects how a packed palette's colors are ordered into slots.
type Mode int

const (
	ModeGeneral Mode = iota
	ModeGray
	ModeExplicit
)

// Slot is one color slot in a Palette. An empty slot carries no color
// and serializes as 0xFFFF.
type Slot struct {
	Color gbcolor.GBColor
	Empty bool
}

// Palette is a fixed-capacity, ordered array of color slots.
type Palette struct {
	Slots []Slot
}

// EmptyPalette returns a Palette with k empty slots.
func EmptyPalette(k int) Palette {
	slots := make([]Slot, k)
	for i := range slots {
		slots[i].Empty = true
	}
	return Palette{Slots: slots}
}

func luma(c gbcolor.GBColor) int {
	// Weights approximate Rec. 601 luma on the 5-bit channels.
	return int(c.R())*299 + int(c.G())*587 + int(c.B())*114
}

// Sort orders colors (a packed palette's color union, unordered) into
// a Palette of capacity k according to mode.
//
//   - ModeGray buckets colors by gbcolor.GrayIndex.
//   - ModeExplicit preserves explicitOrder's order; any of colors not
//     named in explicitOrder are appended afterwards, in their
//     original encounter order.
//   - ModeGeneral sorts by luma-weighted value.
//
// If hasTransparentPixels, slot 0 is forced to gbcolor.Transparent and
// non-transparent colors start at slot 1.
func Sort(colors []gbcolor.GBColor, k int, mode Mode, explicitOrder []gbcolor.GBColor, hasTransparentPixels bool) Palette {
	pal := EmptyPalette(k)

	offset := 0
	if hasTransparentPixels {
		pal.Slots[0] = Slot{Color: gbcolor.Transparent}
		offset = 1
	}

	available := k - offset
	if available <= 0 {
		return pal
	}

	switch mode {
	case ModeGray:
		sortGray(colors, available, pal.Slots[offset:])
	case ModeExplicit:
		sortExplicit(colors, explicitOrder, pal.Slots[offset:])
	default:
		sortGeneral(colors, pal.Slots[offset:])
	}

	return pal
}

func sortGray(colors []gbcolor.GBColor, k int, slots []Slot) {
	for _, c := range colors {
		bin := gbcolor.GrayIndex(c, k)
		if bin >= 0 && bin < len(slots) {
			slots[bin] = Slot{Color: c}
		}
	}
}

func sortExplicit(colors []gbcolor.GBColor, explicitOrder []gbcolor.GBColor, slots []Slot) {
	present := make(map[gbcolor.GBColor]bool, len(colors))
	for _, c := range colors {
		present[c] = true
	}

	i := 0
	for _, c := range explicitOrder {
		if i >= len(slots) {
			return
		}
		if present[c] {
			slots[i] = Slot{Color: c}
			i++
			delete(present, c)
		}
	}

	for _, c := range colors {
		if i >= len(slots) {
			return
		}
		if present[c] {
			slots[i] = Slot{Color: c}
			i++
			delete(present, c)
		}
	}
}

func sortGeneral(colors []gbcolor.GBColor, slots []Slot) {
	sorted := append([]gbcolor.GBColor{}, colors...)
	sort.Slice(sorted, func(i, j int) bool {
		if luma(sorted[i]) != luma(sorted[j]) {
			return luma(sorted[i]) < luma(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	for i, c := range sorted {
		if i >= len(slots) {
			return
		}
		slots[i] = Slot{Color: c}
	}
}

// IndexOf returns the slot index holding c, or -1 if no slot holds it.
func (p Palette) IndexOf(c gbcolor.GBColor) int {
	for i, s := range p.Slots {
		if !s.Empty && s.Color == c {
			return i
		}
	}
	return -1
}

// MarshalBinary serializes a Palette as K little-endian 16-bit
// GBColors, with 0xFFFF for empty slots, per spec.md §4.8.
func (p Palette) MarshalBinary() []byte {
	out := make([]byte, len(p.Slots)*2)
	for i, s := range p.Slots {
		v := uint16(0xffff)
		if !s.Empty {
			v = uint16(s.Color)
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}
