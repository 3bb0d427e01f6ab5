package image

import "math"

// qimEmbed quantizes coefficient c to the nearest multiple of step q whose
// index has the parity matching bit, nudging to the adjacent lattice point
// when the plain nearest-rounding index has the wrong parity.
func qimEmbed(c, step float64, bit int) float64 {
	ratio := c / step
	index := math.Round(ratio)
	if mod2(int64(index)) != int64(bit) {
		if index < ratio {
			index++
		} else {
			index--
		}
	}
	return index * step
}

// qimExtract recovers the bit embedded in coefficient c.
func qimExtract(c, step float64) int {
	index := int64(math.Round(c / step))
	return int(mod2(index))
}

func mod2(n int64) int64 {
	m := n % 2
	if m < 0 {
		m += 2
	}
	return m
}
