/*
Package palpack implements the palette packer: assigning proto-palettes
to a minimal number of fixed-capacity palette slots, using the
overload-and-remove algorithm described in spec.md §4.5.

It is grounded on the teacher's image/writer.go packPalette, a
first-fit-decreasing bin packer over paletteMap{palette, tiles} values;
this package keeps that "sort descending, place into best-fitting bin"
shape but adds the uniqueness tiebreak, overlap-maximizing placement,
and the repair pass spec.md §4.5 step 3 requires, since the teacher's
fixed cap of 3 bins of 16 colors lets it get away with plain
backtracking where this packer's open nbPalettes/nbColorsPerPal cannot.
*/
package palpack

import (
	"sort"

	"github.com/bodgit/rgbgfx/gbcolor"
	"github.com/bodgit/rgbgfx/protopal"
)

// Result is the outcome of packing a list of proto-palettes.
type Result struct {
	// Mapping maps each input proto-palette's index to a palette
	// index in [0, len(Palettes)).
	Mapping []int
	// Palettes holds the color sets assigned to each packed
	// palette, unordered.
	Palettes [][]gbcolor.GBColor
}

type bin struct {
	colors  map[gbcolor.GBColor]bool
	members []int // indices into the original proto-palette slice
}

func (b *bin) colorSlice() []gbcolor.GBColor {
	out := make([]gbcolor.GBColor, 0, len(b.colors))
	for c := range b.colors {
		out = append(out, c)
	}
	return out
}

func unionSize(existing map[gbcolor.GBColor]bool, p protopal.ProtoPalette) int {
	n := len(existing)
	for _, c := range p.Colors() {
		if !existing[c] {
			n++
		}
	}
	return n
}

func overlapSize(existing map[gbcolor.GBColor]bool, p protopal.ProtoPalette) int {
	n := 0
	for _, c := range p.Colors() {
		if existing[c] {
			n++
		}
	}
	return n
}

func addTo(b *bin, idx int, p protopal.ProtoPalette) {
	for _, c := range p.Colors() {
		b.colors[c] = true
	}
	b.members = append(b.members, idx)
}

// sortOrder computes the processing order of proto.Colors: descending
// size, then descending uniqueness (colors appearing in no other
// proto-palette), then ascending lexicographic color tuple - a stable,
// test-reproducible order per spec.md §4.5 step 1.
func sortOrder(protos []protopal.ProtoPalette) []int {
	occurrences := make(map[gbcolor.GBColor]int)
	for _, p := range protos {
		for _, c := range p.Colors() {
			occurrences[c]++
		}
	}

	uniqueness := make([]int, len(protos))
	for i, p := range protos {
		n := 0
		for _, c := range p.Colors() {
			if occurrences[c] == 1 {
				n++
			}
		}
		uniqueness[i] = n
	}

	order := make([]int, len(protos))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if protos[a].Len() != protos[b].Len() {
			return protos[a].Len() > protos[b].Len()
		}
		if uniqueness[a] != uniqueness[b] {
			return uniqueness[a] > uniqueness[b]
		}
		return lexLess(protos[a].Colors(), protos[b].Colors())
	})

	return order
}

func lexLess(a, b []gbcolor.GBColor) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Pack assigns each proto-palette to a palette index, minimizing the
// palette count subject to each palette's color union staying within
// capacity k. It never opens more than what the greedy placement plus
// repair pass needs; the caller is responsible for checking the
// resulting palette count against any configured maximum.
func Pack(protos []protopal.ProtoPalette, k int) Result {
	order := sortOrder(protos)

	var bins []*bin

	// place reports whether the placement changed any palette's color
	// set, which is what triggers a repair pass.
	place := func(idx int) bool {
		p := protos[idx]

		best := -1
		bestOverlap := -1
		for j, b := range bins {
			if unionSize(b.colors, p) > k {
				continue
			}
			ov := overlapSize(b.colors, p)
			if ov > bestOverlap {
				bestOverlap = ov
				best = j
			}
		}

		if best == -1 {
			nb := &bin{colors: make(map[gbcolor.GBColor]bool)}
			addTo(nb, idx, p)
			bins = append(bins, nb)
			return true
		}

		grew := unionSize(bins[best].colors, p) > len(bins[best].colors)
		addTo(bins[best], idx, p)
		return grew
	}

	for _, idx := range order {
		if place(idx) {
			repair(protos, &bins, k)
		}
	}

	mapping := make([]int, len(protos))
	palettes := make([][]gbcolor.GBColor, len(bins))
	for j, b := range bins {
		palettes[j] = b.colorSlice()
		for _, idx := range b.members {
			mapping[idx] = j
		}
	}

	return Result{Mapping: mapping, Palettes: palettes}
}

// rebuild recomputes a bin's color set from scratch given its member
// list, used after a repair pass removes a member.
func rebuild(protos []protopal.ProtoPalette, members []int) map[gbcolor.GBColor]bool {
	colors := make(map[gbcolor.GBColor]bool)
	for _, idx := range members {
		for _, c := range protos[idx].Colors() {
			colors[c] = true
		}
	}
	return colors
}

// repair implements spec.md §4.5 step 3: for each palette, try moving
// a member proto-palette to a different palette if doing so is
// possible and frees up space, iterating to a fixed point. See
// SPEC_FULL.md §13 for the concrete heuristic choices (candidate
// selection, "maximizes subsequent free space", and the loop bound).
//
// Each successful move strictly reduces the origin palette's color
// count without ever increasing any other palette's beyond k. The
// loop stops after the first pass that makes no move, and in any case
// after len(protos)+1 passes.
func repair(protos []protopal.ProtoPalette, bins *[]*bin, k int) {
	for pass := 0; pass < len(protos)+1; pass++ {
		moved := false

		for j, b := range *bins {
			for mi := 0; mi < len(b.members); mi++ {
				idx := b.members[mi]
				p := protos[idx]

				withoutMembers := append(append([]int{}, b.members[:mi]...), b.members[mi+1:]...)
				without := rebuild(protos, withoutMembers)
				if len(without) == len(b.colors) {
					// Removing it frees nothing; not a
					// useful repair candidate.
					continue
				}

				bestDest := -1
				bestFree := -1
				for jj, other := range *bins {
					if jj == j {
						continue
					}
					u := unionSize(other.colors, p)
					if u > k {
						continue
					}
					free := k - u
					if free > bestFree {
						bestFree = free
						bestDest = jj
					}
				}

				if bestDest == -1 {
					continue
				}

				b.members = withoutMembers
				b.colors = without
				addTo((*bins)[bestDest], idx, p)
				moved = true
				mi--
			}
		}

		// Drop any palette that repair emptied out.
		nonEmpty := (*bins)[:0]
		for _, b := range *bins {
			if len(b.members) > 0 {
				nonEmpty = append(nonEmpty, b)
			}
		}
		*bins = nonEmpty

		if !moved {
			return
		}
	}
}
