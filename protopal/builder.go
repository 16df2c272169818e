package protopal

import "github.com/bodgit/rgbgfx/gbcolor"

// Sentinel is the classification assigned to a tile that doesn't map
// to a real proto-palette slot.
type Sentinel int

const (
	// SentinelNone means the tile has a real proto-palette ID.
	SentinelNone Sentinel = iota
	// SentinelTransparent marks a tile with no opaque colors at all.
	SentinelTransparent
	// SentinelBackground marks a tile consisting solely of the
	// configured background color.
	SentinelBackground
)

// Builder incrementally constructs the deduplicated list of
// proto-palettes for an image, per spec.md §4.4.
type Builder struct {
	k       int
	bgColor *gbcolor.GBColor

	entries []ProtoPalette
}

// NewBuilder returns a Builder with palette capacity k. bgColor may be
// nil if no background color is configured.
func NewBuilder(k int, bgColor *gbcolor.GBColor) *Builder {
	return &Builder{k: k, bgColor: bgColor}
}

// Entries returns the deduplicated proto-palettes built so far, in
// first-seen order. IDs returned by AddTile index into this slice.
func (b *Builder) Entries() []ProtoPalette {
	return b.entries
}

// AddTile classifies one tile's distinct opaque colors and returns
// either a sentinel, or the proto-palette ID the tile was assigned
// (reusing an existing entry, overwriting one that the tile's colors
// strictly contain, or appending a new entry).
func (b *Builder) AddTile(colors []gbcolor.GBColor) (id int, sentinel Sentinel, err error) {
	if len(colors) == 0 {
		return 0, SentinelTransparent, nil
	}

	proto := New(colors)

	if b.bgColor != nil {
		hasBG := proto.Contains(*b.bgColor)
		if hasBG {
			if proto.Len() == 1 {
				return 0, SentinelBackground, nil
			}
			return 0, SentinelNone, ErrBGInTile
		}
	}

	if proto.Len() > b.k {
		return 0, SentinelNone, ErrTooManyColors
	}

	for i, existing := range b.entries {
		switch existing.Compare(proto) {
		case WeContainThem:
			return i, SentinelNone, nil
		case TheyContainUs:
			b.entries[i] = proto
			return i, SentinelNone, nil
		}
	}

	b.entries = append(b.entries, proto)
	return len(b.entries) - 1, SentinelNone, nil
}
