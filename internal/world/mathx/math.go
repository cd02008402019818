// Package mathx holds the integer helpers the world packages share:
// floored division for world-to-chunk coordinate math, and cheap seeded
// coordinate hashes for terrain noise.
package mathx

// FloorDiv divides rounding toward negative infinity, so world coordinate
// -1 lands in chunk -1 rather than chunk 0. The divisor must be positive;
// chunk edges always are.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// Mod is the remainder paired with FloorDiv, always in [0, b).
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Hash2 hashes a seeded 2D column coordinate to 64 uniform bits.
func Hash2(seed int64, x, z int) uint64 {
	h := mix(uint64(seed))
	h = mix(h ^ spread(x))
	return mix(h ^ spread(z))
}

// Hash3 is Hash2 with the vertical coordinate folded in.
func Hash3(seed int64, x, y, z int) uint64 {
	h := mix(uint64(seed))
	h = mix(h ^ spread(x))
	h = mix(h ^ spread(y))
	return mix(h ^ spread(z))
}

// spread widens a signed coordinate so neighbouring values differ in high
// bits before mixing.
func spread(v int) uint64 {
	return uint64(uint32(int32(v))) * 0x9e3779b97f4a7c15
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
