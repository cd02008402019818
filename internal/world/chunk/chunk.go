package chunk

import (
	"fmt"

	"github.com/Fayzenx/Vinox/internal/world/block"
)

// World-wide defaults. Both are constructor parameters so the storage can be
// exercised at smaller volumes in tests.
const (
	DefaultEdge      = 16
	DefaultTrimEvery = 500
)

// ChunkData owns the voxel storage of one chunk plus mutation bookkeeping:
// a dirty flag for mesh/cache invalidation and a write counter that
// amortizes storage trims instead of checking after every single write.
//
// A ChunkData is exclusively owned: the caller serializes all writes, and
// readers must not overlap a writer. No locking happens here.
type ChunkData struct {
	voxels     *Storage
	edge       int
	trimEvery  int
	writeCount int
	dirty      bool
}

// New creates an all-air chunk with the given edge length (voxels per axis)
// and trim threshold (writes between speculative trims).
func New(edge, trimEvery int) *ChunkData {
	if edge <= 0 {
		panic(fmt.Sprintf("chunk: edge %d must be positive", edge))
	}
	if trimEvery <= 0 {
		trimEvery = DefaultTrimEvery
	}
	return &ChunkData{
		voxels:    NewStorage(edge * edge * edge),
		edge:      edge,
		trimEvery: trimEvery,
		dirty:     true,
	}
}

// Edge returns the voxel edge length.
func (c *ChunkData) Edge() int { return c.edge }

// Size returns the logical volume, edge cubed.
func (c *ChunkData) Size() int { return c.voxels.Size() }

// Linearize maps a local coordinate to a flat slot index, x fastest, then
// y, then z. Coordinates outside [0, edge) are caller bugs and panic.
func (c *ChunkData) Linearize(x, y, z int) int {
	if x < 0 || x >= c.edge || y < 0 || y >= c.edge || z < 0 || z >= c.edge {
		panic(fmt.Sprintf("chunk: local coordinate (%d,%d,%d) out of edge %d", x, y, z, c.edge))
	}
	return x + y*c.edge + z*c.edge*c.edge
}

// Delinearize is the inverse of Linearize.
func (c *ChunkData) Delinearize(idx int) (x, y, z int) {
	z = idx / (c.edge * c.edge)
	idx -= z * c.edge * c.edge
	y = idx / c.edge
	x = idx - y*c.edge
	return x, y, z
}

// Get returns the block at a local coordinate.
func (c *ChunkData) Get(x, y, z int) block.Data {
	return c.voxels.Get(c.Linearize(x, y, z))
}

// GetIdentifier returns the "namespace:name" identifier at a local
// coordinate.
func (c *ChunkData) GetIdentifier(x, y, z int) string {
	v := c.voxels.Get(c.Linearize(x, y, z))
	return v.Identifier()
}

// Set writes v at a local coordinate, marks the chunk dirty, and triggers a
// storage trim once the write counter passes the trim threshold.
func (c *ChunkData) Set(x, y, z int, v block.Data) {
	c.voxels.Set(c.Linearize(x, y, z), v)
	c.writeCount++
	c.dirty = true

	if c.writeCount > c.trimEvery {
		c.voxels.Trim()
		c.writeCount = 0
	}
}

// IsUniform reports whether the backing storage is in uniform form.
func (c *ChunkData) IsUniform() bool { return c.voxels.IsUniform() }

// IsEmpty reports whether the chunk is uniform and its single value's
// visibility class is EMPTY. Identifiers missing from the table are never
// empty.
func (c *ChunkData) IsEmpty(t *block.Table) bool {
	return c.IsUniform() && c.voxels.Get(0).IsEmpty(t)
}

// IsDirty reports whether the chunk changed since SetDirty(false).
func (c *ChunkData) IsDirty() bool { return c.dirty }

// SetDirty flips the cache-invalidation flag; mesh rebuilders clear it once
// they have consumed the chunk.
func (c *ChunkData) SetDirty(dirty bool) { c.dirty = dirty }

// Trim asks the storage to demote to uniform form if it can.
func (c *ChunkData) Trim() { c.voxels.Trim() }

// Export projects the chunk to a compacted palette plus one index per slot;
// see Storage.Export.
func (c *ChunkData) Export() (values []block.Data, indices []uint32) {
	return c.voxels.Export()
}

// ToRaw snapshots the storage for persistence or transfer. Bookkeeping
// (dirty flag, write counter) is not part of the snapshot.
func (c *ChunkData) ToRaw() RawChunk {
	return RawChunk{Voxels: c.voxels.Clone()}
}

// FromRaw reconstructs a chunk from a snapshot. The snapshot's volume must
// match edge cubed; a mismatch means the snapshot is corrupt or was taken
// at a different world configuration.
func FromRaw(raw RawChunk, edge, trimEvery int) (*ChunkData, error) {
	if raw.Voxels == nil {
		return nil, fmt.Errorf("chunk: snapshot has no storage")
	}
	if raw.Voxels.Size() != edge*edge*edge {
		return nil, fmt.Errorf("chunk: snapshot volume %d does not match edge %d", raw.Voxels.Size(), edge)
	}
	if trimEvery <= 0 {
		trimEvery = DefaultTrimEvery
	}
	return &ChunkData{
		voxels:    raw.Voxels.Clone(),
		edge:      edge,
		trimEvery: trimEvery,
	}, nil
}
