package chunk

import (
	"testing"

	"github.com/Fayzenx/Vinox/internal/world/block"
)

func TestRawChunk_MarshalRoundTripUniform(t *testing.T) {
	s := NewStorage(512)
	raw := RawChunk{Voxels: s.Clone()}

	b, err := raw.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalRaw(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Voxels.IsUniform() {
		t.Fatalf("uniform snapshot decoded as paletted")
	}
	if got.Voxels.Size() != 512 {
		t.Fatalf("size %d, want 512", got.Voxels.Size())
	}
	if v := got.Voxels.Get(0); !v.Equal(block.Air()) {
		t.Fatalf("got %s want air", v.Identifier())
	}
}

func TestRawChunk_MarshalRoundTripPaletted(t *testing.T) {
	s := NewStorage(64)
	for i, name := range []string{"dirt", "stone", "sand", "gravel", "log"} {
		s.Set(i*3, namedBlock(name))
	}
	s.Set(3, block.Air()) // dead hole must survive the trip

	b, err := (RawChunk{Voxels: s}).Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalRaw(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Voxels.IsUniform() {
		t.Fatalf("paletted snapshot decoded as uniform")
	}
	for i := 0; i < 64; i++ {
		want := s.Get(i)
		if v := got.Voxels.Get(i); !v.Equal(want) {
			t.Fatalf("slot %d: got %s want %s", i, v.Identifier(), want.Identifier())
		}
	}
	// The restored storage keeps working: more writes and a trim.
	got.Voxels.Set(0, namedBlock("glass"))
	if sum := got.Voxels.refSumForTest(); sum != 64 {
		t.Fatalf("ref-count sum %d after restored write, want 64", sum)
	}
}

func TestUnmarshalRaw_RejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":       {},
		"bad version": {99, tagUniform},
		"bad tag":     {rawVersion, 7},
		"truncated":   {rawVersion, tagUniform, 64},
		"zero volume": {rawVersion, tagUniform, 0},
	}
	for name, data := range cases {
		if _, err := UnmarshalRaw(data); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestUnmarshalRaw_RejectsDanglingIndex(t *testing.T) {
	s := NewStorage(16)
	s.Set(0, namedBlock("dirt"))
	s.Set(0, block.Air()) // two entries, only air live

	// Point one slot past the palette. The ref-count sum is untouched, so
	// only a per-slot decode can see the problem.
	s.paletted.data.Set(12*s.paletted.indexBits, s.paletted.indexBits, 3)
	b, err := (RawChunk{Voxels: s}).Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := UnmarshalRaw(b); err == nil {
		t.Fatalf("expected dangling index error")
	}
}

func TestUnmarshalRaw_RejectsMismatchedOccupancy(t *testing.T) {
	s := NewStorage(16)
	s.Set(0, namedBlock("dirt"))
	s.Set(0, block.Air())

	// Shift a ref from the air entry to the dead one. The sum still equals
	// the volume, but no slot actually decodes to the second entry.
	s.paletted.palette.entries[0].refs--
	s.paletted.palette.entries[1].refs++
	b, err := (RawChunk{Voxels: s}).Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := UnmarshalRaw(b); err == nil {
		t.Fatalf("expected occupancy mismatch error")
	}
}

func TestUnmarshalRaw_RejectsBrokenRefCounts(t *testing.T) {
	s := NewStorage(64)
	s.Set(0, namedBlock("dirt"))
	b, err := (RawChunk{Voxels: s}).Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Re-encode with a mangled size so the ref-count sum no longer matches.
	mangled := RawChunk{Voxels: s.Clone()}
	mangled.Voxels.size--
	mangled.Voxels.paletted.size--
	mb, err := mangled.Marshal()
	if err != nil {
		t.Fatalf("marshal mangled: %v", err)
	}
	if _, err := UnmarshalRaw(mb); err == nil {
		t.Fatalf("expected ref-count mismatch error")
	}
	if _, err := UnmarshalRaw(b); err != nil {
		t.Fatalf("control decode failed: %v", err)
	}
}
