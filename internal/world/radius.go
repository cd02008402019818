package world

import "sort"

// ChunkPositions enumerates the chunk coordinates within a cylindrical
// region around center: offsets with x²+z² strictly inside the horizontal
// radius (a disc, matching view-distance semantics, not a box), for every y
// in [-vertical, vertical). Absolute y is clamped to 0 so nothing below the
// world floor is ever requested, and clamp collisions are de-duplicated.
//
// Results are sorted nearest-first so load pipelines process close chunks
// before distant ones. All units are chunk-grid, not voxels.
func ChunkPositions(center Vec3i, horizontal, vertical int) []Vec3i {
	seen := map[Vec3i]struct{}{}
	out := make([]Vec3i, 0, horizontal*horizontal*vertical*4)
	for x := -horizontal; x < horizontal; x++ {
		for z := -horizontal; z < horizontal; z++ {
			if x*x+z*z >= horizontal*horizontal {
				continue
			}
			for y := -vertical; y < vertical; y++ {
				pos := center.Add(Vec3i{X: x, Y: y, Z: z})
				if pos.Y < 0 {
					pos.Y = 0
				}
				if _, dup := seen[pos]; dup {
					continue
				}
				seen[pos] = struct{}{}
				out = append(out, pos)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistSq(center) < out[j].DistSq(center)
	})
	return out
}

// InRadius reports whether pos falls inside the cylindrical region
// ChunkPositions enumerates around center.
func InRadius(center, pos Vec3i, horizontal, vertical int) bool {
	dx := pos.X - center.X
	dz := pos.Z - center.Z
	if dx*dx+dz*dz >= horizontal*horizontal {
		return false
	}
	dy := pos.Y - center.Y
	return dy >= -vertical && dy < vertical
}
