package palpack

import (
	"testing"

	"github.com/bodgit/rgbgfx/gbcolor"
	"github.com/bodgit/rgbgfx/protopal"
	"github.com/stretchr/testify/assert"
)

func pp(vs ...uint16) protopal.ProtoPalette {
	cs := make([]gbcolor.GBColor, len(vs))
	for i, v := range vs {
		cs[i] = gbcolor.GBColor(v)
	}
	return protopal.New(cs)
}

func TestPackMergesSubsetIntoSamePalette(t *testing.T) {
	// S5: tile A {a,b}, tile B {a,b,c}, K=4 -> one palette {a,b,c}.
	protos := []protopal.ProtoPalette{pp(1, 2), pp(1, 2, 3)}
	res := Pack(protos, 4)

	assert.Len(t, res.Palettes, 1)
	assert.Equal(t, res.Mapping[0], res.Mapping[1])
	assert.ElementsMatch(t, []gbcolor.GBColor{1, 2, 3}, res.Palettes[res.Mapping[0]])
}

func TestPackRespectsCapacity(t *testing.T) {
	protos := []protopal.ProtoPalette{pp(1, 2, 3, 4), pp(5, 6, 7, 8)}
	res := Pack(protos, 4)

	assert.Len(t, res.Palettes, 2)
	assert.NotEqual(t, res.Mapping[0], res.Mapping[1])
	for _, p := range res.Palettes {
		assert.LessOrEqual(t, len(p), 4)
	}
}

func TestPackEveryColorStaysWithinCapacityInvariant(t *testing.T) {
	protos := []protopal.ProtoPalette{
		pp(1, 2, 3), pp(2, 3, 4), pp(4, 5, 6), pp(1, 5), pp(6, 7, 8), pp(8, 9),
	}
	res := Pack(protos, 4)

	for _, p := range res.Palettes {
		assert.LessOrEqual(t, len(p), 4)
	}
	for i, p := range protos {
		pal := res.Palettes[res.Mapping[i]]
		set := make(map[gbcolor.GBColor]bool, len(pal))
		for _, c := range pal {
			set[c] = true
		}
		for _, c := range p.Colors() {
			assert.True(t, set[c], "color %v of proto %d missing from its packed palette", c, i)
		}
	}
}

func TestPackIsDeterministic(t *testing.T) {
	protos := []protopal.ProtoPalette{
		pp(1, 2, 3), pp(2, 3, 4), pp(4, 5, 6), pp(1, 5), pp(6, 7, 8), pp(8, 9),
	}
	a := Pack(protos, 4)
	b := Pack(protos, 4)
	assert.Equal(t, a.Mapping, b.Mapping)
}
