package gbcolor

// curveTable maps an 8-bit channel value to a 5-bit channel value
// through an S-curve, rather than a plain linear truncation, when the
// color-curve option is enabled. Derived once at package init, the
// same way crc32.makeTable builds its table from a polynomial.
var curveTable [256]uint8

func init() {
	for i := range curveTable {
		x := float64(i) / 255
		// Smoothstep: biases mid-tones away from the linear
		// truncation's banding without touching the endpoints.
		y := x * x * (3 - 2*x)
		v := int(y*31 + 0.5)
		if v > 31 {
			v = 31
		}
		curveTable[i] = uint8(v)
	}
}
