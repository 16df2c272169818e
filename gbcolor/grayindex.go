package gbcolor

import "math"

// GrayIndex buckets an opaque gray GBColor into one of k bins, brightest
// first, consistent with the target display's DMG palette ordering.
func GrayIndex(c GBColor, k int) int {
	if k <= 1 {
		return 0
	}
	channel5 := int(c.R()) // R == G == B for a gray color
	idx := math.Round(float64((31-channel5)*(k-1)) / 31)
	return int(idx)
}
