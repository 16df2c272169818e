package gbcolor

import "image/color"

// ImagePalette is an insertion-only mapping from GBColor to the first
// RGBA888 pixel seen with that color. It exists solely to report
// fusions, decide grayscale suitability, and seed the DMG sort -
// mirroring the insertion-ordered map-plus-index-slice shape used by
// the teacher's metadata checksum-to-screenshot table.
type ImagePalette struct {
	first map[GBColor]color.RGBA
	order []GBColor
}

// NewImagePalette returns an empty ImagePalette.
func NewImagePalette() *ImagePalette {
	return &ImagePalette{
		first: make(map[GBColor]color.RGBA),
	}
}

// Register records rgba as having quantized to gc. It returns true and
// the previously registered RGBA if gc was already present with a
// different RGBA value (a "fusion"); registering the same RGBA twice,
// or a brand new GBColor, is not a fusion.
func (p *ImagePalette) Register(gc GBColor, rgba color.RGBA) (fused bool, previous color.RGBA) {
	existing, ok := p.first[gc]
	if !ok {
		p.first[gc] = rgba
		p.order = append(p.order, gc)
		return false, color.RGBA{}
	}
	if existing != rgba {
		return true, existing
	}
	return false, color.RGBA{}
}

// Len returns the number of distinct GBColors registered.
func (p *ImagePalette) Len() int {
	return len(p.order)
}

// Colors returns the registered GBColors in first-seen order.
func (p *ImagePalette) Colors() []GBColor {
	return p.order
}

// RGBA returns the first RGBA888 pixel registered for gc.
func (p *ImagePalette) RGBA(gc GBColor) (color.RGBA, bool) {
	c, ok := p.first[gc]
	return c, ok
}

// IsGrayscaleSuitable reports whether every registered color is gray,
// there are at most k of them, and each falls in a distinct grayIndex
// bin for capacity k.
func (p *ImagePalette) IsGrayscaleSuitable(k int) bool {
	if len(p.order) > k {
		return false
	}
	bins := make(map[int]bool, len(p.order))
	for _, gc := range p.order {
		if !gc.IsGray() {
			return false
		}
		bin := GrayIndex(gc, k)
		if bins[bin] {
			return false
		}
		bins[bin] = true
	}
	return true
}
