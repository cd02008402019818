package world

import (
	"sort"

	"github.com/Fayzenx/Vinox/internal/world/block"
	"github.com/Fayzenx/Vinox/internal/world/chunk"
)

// ChunkStore owns every loaded chunk and the generator that fills missing
// ones. Accessed only from the owning loop goroutine; chunks never leave
// the store's ownership.
type ChunkStore struct {
	gen       WorldGen
	edge      int
	trimEvery int

	chunks map[ChunkKey]*chunk.ChunkData
}

func NewChunkStore(gen WorldGen, edge, trimEvery int) *ChunkStore {
	if edge <= 0 {
		edge = chunk.DefaultEdge
	}
	if trimEvery <= 0 {
		trimEvery = chunk.DefaultTrimEvery
	}
	return &ChunkStore{
		gen:       gen,
		edge:      edge,
		trimEvery: trimEvery,
		chunks:    map[ChunkKey]*chunk.ChunkData{},
	}
}

// Edge returns the voxel edge length chunks are sized to.
func (s *ChunkStore) Edge() int { return s.edge }

// inBounds rejects coordinates below the world floor and, when a boundary
// radius is configured, outside it.
func (s *ChunkStore) inBounds(pos Vec3i) bool {
	if pos.Y < 0 {
		return false
	}
	if s.gen.BoundaryR > 0 {
		if pos.X < -s.gen.BoundaryR || pos.X > s.gen.BoundaryR || pos.Z < -s.gen.BoundaryR || pos.Z > s.gen.BoundaryR {
			return false
		}
	}
	return true
}

// LoadedKeys returns the keys of all resident chunks, sorted for
// deterministic iteration.
func (s *ChunkStore) LoadedKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		if keys[i].Y != keys[j].Y {
			return keys[i].Y < keys[j].Y
		}
		return keys[i].Z < keys[j].Z
	})
	return keys
}

// GetBlock reads the block at a world coordinate, generating the containing
// chunk if needed. Out-of-bounds coordinates read as air.
func (s *ChunkStore) GetBlock(pos Vec3i) block.Data {
	if !s.inBounds(pos) {
		return block.Air()
	}
	ch := s.getOrGen(WorldToChunk(pos, s.edge))
	l := WorldToLocal(pos, s.edge)
	return ch.Get(l.X, l.Y, l.Z)
}

// SetBlock writes the block at a world coordinate. Out-of-bounds writes are
// dropped.
func (s *ChunkStore) SetBlock(pos Vec3i, v block.Data) {
	if !s.inBounds(pos) {
		return
	}
	ch := s.getOrGen(WorldToChunk(pos, s.edge))
	l := WorldToLocal(pos, s.edge)
	ch.Set(l.X, l.Y, l.Z, v)
}

// Chunk returns the resident chunk for a key, or nil when not loaded.
func (s *ChunkStore) Chunk(key ChunkKey) *chunk.ChunkData {
	return s.chunks[key]
}

// Ensure returns the chunk for a key, generating it on first access.
func (s *ChunkStore) Ensure(key ChunkKey) *chunk.ChunkData {
	return s.getOrGen(key)
}

// Put installs a restored chunk (for example from a persisted snapshot),
// replacing any resident one.
func (s *ChunkStore) Put(key ChunkKey, ch *chunk.ChunkData) {
	s.chunks[key] = ch
}

// Evict drops a chunk from residency. Chunks hold no external resources, so
// releasing ownership is all that eviction takes.
func (s *ChunkStore) Evict(key ChunkKey) {
	delete(s.chunks, key)
}

func (s *ChunkStore) getOrGen(key ChunkKey) *chunk.ChunkData {
	if ch, ok := s.chunks[key]; ok {
		return ch
	}
	ch := chunk.New(s.edge, s.trimEvery)
	s.gen.Generate(ch, key)
	ch.Trim()
	ch.SetDirty(true)
	s.chunks[key] = ch
	return ch
}
