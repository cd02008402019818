package world

import (
	"github.com/Fayzenx/Vinox/internal/world/block"
	"github.com/Fayzenx/Vinox/internal/world/chunk"
	"github.com/Fayzenx/Vinox/internal/world/mathx"
)

// WorldGen fills chunks with deterministic seeded terrain. The storage core
// treats it as a black box that yields a block per voxel coordinate.
type WorldGen struct {
	Seed      int64
	BoundaryR int // voxels; 0 disables the boundary

	// Terrain shaping.
	SurfaceBase int // mean surface height, world voxels
	SurfaceVar  int // surface height swing
	CaveScale   int // permille of underground carved out as caves
}

func DefaultWorldGen(seed int64) WorldGen {
	return WorldGen{
		Seed:        seed,
		SurfaceBase: 24,
		SurfaceVar:  6,
		CaveScale:   120,
	}
}

// Generate fills ch with terrain for the chunk at key. Writes go through
// the normal Set path so the storage promotes and trims as it would under
// gameplay mutation.
func (g WorldGen) Generate(ch *chunk.ChunkData, key ChunkKey) {
	edge := ch.Edge()
	origin := ChunkOrigin(key, edge)

	air := block.Air()
	for z := 0; z < edge; z++ {
		for y := 0; y < edge; y++ {
			for x := 0; x < edge; x++ {
				wx := origin.X + x
				wy := origin.Y + y
				wz := origin.Z + z

				surface := g.surfaceHeight(wx, wz)
				switch {
				case wy > surface:
					ch.Set(x, y, z, air)
				case g.isCave(wx, wy, wz):
					ch.Set(x, y, z, air)
				case wy == surface:
					ch.Set(x, y, z, block.New(block.DefaultNamespace, "grass"))
				case wy >= surface-3:
					ch.Set(x, y, z, block.New(block.DefaultNamespace, "dirt"))
				default:
					ch.Set(x, y, z, g.stoneAt(wx, wy, wz))
				}
			}
		}
	}
}

func (g WorldGen) surfaceHeight(wx, wz int) int {
	if g.SurfaceVar <= 0 {
		return g.SurfaceBase
	}
	// Average four column hashes to soften the jaggedness of raw hash noise.
	n := g.columnNoise(wx, wz) + g.columnNoise(wx+1, wz) +
		g.columnNoise(wx, wz+1) + g.columnNoise(wx+1, wz+1)
	return g.SurfaceBase + n/4 - g.SurfaceVar/2
}

func (g WorldGen) columnNoise(wx, wz int) int {
	span := 2*g.SurfaceVar + 1
	return int(mathx.Hash2(g.Seed, wx, wz) % uint64(span))
}

func (g WorldGen) isCave(wx, wy, wz int) bool {
	if g.CaveScale <= 0 || wy <= 0 {
		return false
	}
	return int(mathx.Hash3(g.Seed+1, wx, wy, wz)%1000) < g.CaveScale
}

func (g WorldGen) stoneAt(wx, wy, wz int) block.Data {
	roll := mathx.Hash3(g.Seed+2, wx, wy, wz) % 1000
	switch {
	case roll < 5:
		return block.New(block.DefaultNamespace, "crystal_ore")
	case roll < 20:
		return block.New(block.DefaultNamespace, "iron_ore")
	case roll < 40:
		return block.New(block.DefaultNamespace, "copper_ore")
	case roll < 70:
		return block.New(block.DefaultNamespace, "coal_ore")
	case roll < 100:
		return block.New(block.DefaultNamespace, "gravel")
	default:
		return block.New(block.DefaultNamespace, "stone")
	}
}
