package world

import (
	"github.com/Fayzenx/Vinox/internal/world/mathx"
)

// Vec3i is an integer coordinate, in voxels or chunk-grid units depending
// on context.
type Vec3i struct {
	X, Y, Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i {
	return Vec3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// DistSq is the squared Euclidean distance between two coordinates.
func (v Vec3i) DistSq(o Vec3i) int {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// ChunkKey addresses one chunk on the chunk grid.
type ChunkKey struct {
	X, Y, Z int
}

// WorldToChunk maps a world voxel coordinate to the key of the chunk
// containing it.
func WorldToChunk(pos Vec3i, edge int) ChunkKey {
	return ChunkKey{
		X: mathx.FloorDiv(pos.X, edge),
		Y: mathx.FloorDiv(pos.Y, edge),
		Z: mathx.FloorDiv(pos.Z, edge),
	}
}

// WorldToLocal maps a world voxel coordinate to its chunk-local coordinate.
func WorldToLocal(pos Vec3i, edge int) Vec3i {
	return Vec3i{
		X: mathx.Mod(pos.X, edge),
		Y: mathx.Mod(pos.Y, edge),
		Z: mathx.Mod(pos.Z, edge),
	}
}

// ChunkOrigin is the world coordinate of a chunk's (0,0,0) voxel.
func ChunkOrigin(key ChunkKey, edge int) Vec3i {
	return Vec3i{X: key.X * edge, Y: key.Y * edge, Z: key.Z * edge}
}
