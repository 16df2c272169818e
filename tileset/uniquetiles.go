package tileset

// UniqueTiles is a hash set of TileData keyed by hash plus deep
// equality (via TryMatching), with an insertion-ordered index so every
// inserted tile gets a monotonically increasing global tile ID.
type UniqueTiles struct {
	allowMirrorX, allowMirrorY bool

	buckets map[uint16][]int // hash -> indices into order
	order   []TileData
}

// NewUniqueTiles returns an empty UniqueTiles using the given mirror
// dedup modes.
func NewUniqueTiles(allowMirrorX, allowMirrorY bool) *UniqueTiles {
	return &UniqueTiles{
		allowMirrorX: allowMirrorX,
		allowMirrorY: allowMirrorY,
		buckets:      make(map[uint16][]int),
	}
}

// Add looks up t against previously added tiles. If a match is found,
// it returns the existing tile's global ID, the match type, and
// isNew=false. Otherwise t is inserted with the next sequential ID and
// isNew=true is returned (match is meaningless in that case).
func (u *UniqueTiles) Add(t TileData) (id int, match MatchType, isNew bool) {
	for _, existingID := range u.buckets[t.Hash] {
		if m := TryMatching(u.order[existingID], t, u.allowMirrorX, u.allowMirrorY); m != NoMatch {
			return existingID, m, false
		}
	}

	id = len(u.order)
	u.order = append(u.order, t)
	u.buckets[t.Hash] = append(u.buckets[t.Hash], id)
	return id, Exact, true
}

// LoadInputTileset preloads tiles from an external tileset, in order.
// They must not dedup against each other; every index that does is
// returned so the caller can report each one rather than aborting at
// the first.
func (u *UniqueTiles) LoadInputTileset(tiles []TileData) (redundant []int) {
	for i, t := range tiles {
		_, _, isNew := u.Add(t)
		if !isNew {
			redundant = append(redundant, i)
		}
	}
	return redundant
}

// Len returns the number of unique tiles inserted so far.
func (u *UniqueTiles) Len() int {
	return len(u.order)
}

// Tiles returns the unique tiles in insertion order. Callers must not
// mutate the returned slice.
func (u *UniqueTiles) Tiles() []TileData {
	return u.order
}

// BankAndID derives the bank (0 or 1) and within-bank tile ID for a
// global tile ID, applying the per-bank capacity and base ID offsets
// from spec.md §4.7.
func BankAndID(globalTileID int, maxNbTiles [2]int, baseTileIDs [2]int) (bank, tileID int) {
	bank = 0
	if globalTileID >= maxNbTiles[0] && maxNbTiles[1] != 0 {
		bank = 1
	}

	off := 0
	if bank == 1 {
		off = maxNbTiles[0]
	}

	return bank, (globalTileID - off) + baseTileIDs[bank]
}
