/*
Package protopal implements the proto-palette builder: for each tile it
reduces the set of opaque colors to a deduplicated, subset/superset
aware list of proto-palettes, as described in spec.md §4.4.

It generalizes the teacher's image/writer.go, which already computes
"is the difference between two palettes empty" (paletteDifference) as
a building block of its bin packer; here that same subset test is
promoted to a three-valued Compare used by the builder itself.
*/
package protopal

import (
	"errors"
	"sort"

	"github.com/bodgit/rgbgfx/gbcolor"
)

// Sentinel errors for tile classification failures (spec.md §4.4).
var (
	ErrTooManyColors = errors.New("protopal: tile has more opaque colors than the palette capacity")
	ErrBGInTile      = errors.New("protopal: tile contains the background color alongside other colors")
)

// Comparison is the three-valued result of comparing two proto-palettes
// by set containment. It is a total preorder, not a total order:
// Neither is the incomparable case.
type Comparison int

const (
	Neither Comparison = iota
	WeContainThem
	TheyContainUs
)

// ProtoPalette is the ordered set of up to K distinct opaque GBColors
// occurring in a single 8x8 tile, stored sorted for O(K) comparison.
type ProtoPalette struct {
	colors []gbcolor.GBColor
}

// New returns a ProtoPalette containing the distinct colors in cs,
// sorted ascending.
func New(cs []gbcolor.GBColor) ProtoPalette {
	seen := make(map[gbcolor.GBColor]bool, len(cs))
	uniq := make([]gbcolor.GBColor, 0, len(cs))
	for _, c := range cs {
		if !seen[c] {
			seen[c] = true
			uniq = append(uniq, c)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
	return ProtoPalette{colors: uniq}
}

// Len returns the number of distinct colors.
func (p ProtoPalette) Len() int { return len(p.colors) }

// Colors returns the sorted, deduplicated color list. Callers must not
// mutate the returned slice.
func (p ProtoPalette) Colors() []gbcolor.GBColor { return p.colors }

// Contains reports whether c is a member of p.
func (p ProtoPalette) Contains(c gbcolor.GBColor) bool {
	i := sort.Search(len(p.colors), func(i int) bool { return p.colors[i] >= c })
	return i < len(p.colors) && p.colors[i] == c
}

// containsAll reports whether every element of b is present in sorted
// slice a, via a single linear two-pointer scan.
func containsAll(a, b []gbcolor.GBColor) bool {
	i := 0
	for _, c := range b {
		for i < len(a) && a[i] < c {
			i++
		}
		if i >= len(a) || a[i] != c {
			return false
		}
	}
	return true
}

// Compare returns how p relates to o by set containment. When the two
// sets are equal, both containment directions hold; Compare reports
// WeContainThem in that case.
func (p ProtoPalette) Compare(o ProtoPalette) Comparison {
	switch {
	case containsAll(p.colors, o.colors):
		return WeContainThem
	case containsAll(o.colors, p.colors):
		return TheyContainUs
	default:
		return Neither
	}
}
