package world

import (
	"testing"

	"github.com/Fayzenx/Vinox/internal/world/block"
	"github.com/Fayzenx/Vinox/internal/world/chunk"
)

func testGen() WorldGen {
	g := DefaultWorldGen(1337)
	g.BoundaryR = 256
	return g
}

func TestChunkStore_SetGetRoundTrip(t *testing.T) {
	s := NewChunkStore(testGen(), 16, 500)

	glass := block.New(block.DefaultNamespace, "glass")
	positions := []Vec3i{
		{X: 0, Y: 0, Z: 0},
		{X: 15, Y: 31, Z: 15},
		{X: -1, Y: 3, Z: -1},  // negative world coords straddle chunk -1
		{X: -17, Y: 0, Z: 40}, // several chunks out
	}
	for _, pos := range positions {
		s.SetBlock(pos, glass)
	}
	for _, pos := range positions {
		if got := s.GetBlock(pos); !got.Equal(glass) {
			t.Fatalf("block at %v: got %s, want glass", pos, got.Identifier())
		}
	}
	// A neighbor of a written voxel still holds generated terrain, proving
	// the write landed in the right local slot.
	if got := s.GetBlock(Vec3i{X: -2, Y: 3, Z: -1}); got.Equal(glass) {
		t.Fatalf("write bled into neighboring voxel")
	}
}

func TestChunkStore_OutOfBounds(t *testing.T) {
	s := NewChunkStore(testGen(), 16, 500)

	below := Vec3i{X: 0, Y: -1, Z: 0}
	if got := s.GetBlock(below); !got.Equal(block.Air()) {
		t.Fatalf("below-floor read: got %s, want air", got.Identifier())
	}
	s.SetBlock(below, block.New(block.DefaultNamespace, "stone"))
	if n := len(s.LoadedKeys()); n != 0 {
		t.Fatalf("below-floor write loaded %d chunks", n)
	}

	outside := Vec3i{X: 300, Y: 10, Z: 0}
	s.SetBlock(outside, block.New(block.DefaultNamespace, "stone"))
	if got := s.GetBlock(outside); !got.Equal(block.Air()) {
		t.Fatalf("boundary read: got %s, want air", got.Identifier())
	}
}

func TestChunkStore_GenerationDeterministic(t *testing.T) {
	a := NewChunkStore(testGen(), 16, 500)
	b := NewChunkStore(testGen(), 16, 500)

	for _, key := range []ChunkKey{{X: 0, Y: 0, Z: 0}, {X: -2, Y: 1, Z: 3}} {
		ca := a.Ensure(key)
		cb := b.Ensure(key)
		for i := 0; i < 16*16*16; i++ {
			x, y, z := ca.Delinearize(i)
			va, vb := ca.Get(x, y, z), cb.Get(x, y, z)
			if !va.Equal(vb) {
				t.Fatalf("chunk %v voxel (%d,%d,%d): %s vs %s",
					key, x, y, z, va.Identifier(), vb.Identifier())
			}
		}
	}
}

func TestChunkStore_GeneratedChunksStartDirty(t *testing.T) {
	s := NewChunkStore(testGen(), 16, 500)
	ch := s.Ensure(ChunkKey{X: 1, Y: 1, Z: 1})
	if !ch.IsDirty() {
		t.Fatalf("freshly generated chunk should be dirty")
	}
}

func TestChunkStore_HighAltitudeChunksTrimToAir(t *testing.T) {
	s := NewChunkStore(testGen(), 16, 500)
	// Far above any surface the generator produces.
	ch := s.Ensure(ChunkKey{X: 0, Y: 8, Z: 0})
	if !ch.IsUniform() {
		t.Fatalf("all-air chunk was not trimmed to uniform")
	}
	if got := ch.Get(0, 0, 0); !got.Equal(block.Air()) {
		t.Fatalf("sky chunk holds %s, want air", got.Identifier())
	}
}

func TestChunkStore_PutAndEvict(t *testing.T) {
	s := NewChunkStore(testGen(), 16, 500)
	key := ChunkKey{X: 4, Y: 0, Z: 4}

	gen := s.Ensure(key)
	if s.Chunk(key) != gen {
		t.Fatalf("Ensure did not retain the chunk")
	}

	raw := gen.ToRaw()
	restored, err := chunk.FromRaw(raw, 16, 500)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	s.Put(key, restored)
	if s.Chunk(key) != restored {
		t.Fatalf("Put did not replace the resident chunk")
	}
	if restored.IsDirty() {
		t.Fatalf("restored chunk should start clean")
	}

	s.Evict(key)
	if s.Chunk(key) != nil {
		t.Fatalf("Evict left the chunk resident")
	}
	if len(s.LoadedKeys()) != 0 {
		t.Fatalf("keys remain after eviction")
	}
}

func TestWorldToChunkAndLocal(t *testing.T) {
	cases := []struct {
		pos   Vec3i
		key   ChunkKey
		local Vec3i
	}{
		{Vec3i{X: 0, Y: 0, Z: 0}, ChunkKey{X: 0, Y: 0, Z: 0}, Vec3i{X: 0, Y: 0, Z: 0}},
		{Vec3i{X: 15, Y: 16, Z: 31}, ChunkKey{X: 0, Y: 1, Z: 1}, Vec3i{X: 15, Y: 0, Z: 15}},
		{Vec3i{X: -1, Y: 0, Z: -16}, ChunkKey{X: -1, Y: 0, Z: -1}, Vec3i{X: 15, Y: 0, Z: 0}},
		{Vec3i{X: -17, Y: 0, Z: -33}, ChunkKey{X: -2, Y: 0, Z: -3}, Vec3i{X: 15, Y: 0, Z: 15}},
	}
	for _, c := range cases {
		if key := WorldToChunk(c.pos, 16); key != c.key {
			t.Fatalf("WorldToChunk(%v) = %v, want %v", c.pos, key, c.key)
		}
		if local := WorldToLocal(c.pos, 16); local != c.local {
			t.Fatalf("WorldToLocal(%v) = %v, want %v", c.pos, local, c.local)
		}
	}
}
