package chunk

import (
	"testing"

	"github.com/Fayzenx/Vinox/internal/world/block"
)

func testTable() *block.Table {
	return block.NewTable([]block.Def{
		{ID: "vinox:air", Visibility: block.VisibilityEmpty},
		{ID: "vinox:dirt", Visibility: block.VisibilityOpaque},
		{ID: "vinox:stone", Visibility: block.VisibilityOpaque},
		{ID: "vinox:water", Visibility: block.VisibilityTransparent},
	})
}

func TestChunkData_Scenario(t *testing.T) {
	c := New(16, DefaultTrimEvery)
	dirt := namedBlock("dirt")
	stone := namedBlock("stone")

	c.Set(0, 0, 0, dirt)
	c.Set(15, 15, 15, stone)
	c.Set(0, 0, 0, dirt) // same value again, a no-op content-wise

	if c.IsUniform() {
		t.Fatalf("chunk with three distinct values must be paletted")
	}
	if got := c.Get(0, 0, 0); !got.Equal(dirt) {
		t.Fatalf("(0,0,0): got %s want dirt", got.Identifier())
	}
	if got := c.Get(15, 15, 15); !got.Equal(stone) {
		t.Fatalf("(15,15,15): got %s want stone", got.Identifier())
	}
	if got := c.Get(1, 1, 1); !got.Equal(block.Air()) {
		t.Fatalf("(1,1,1): got %s want air", got.Identifier())
	}

	pal := c.voxels.paletted.palette
	if live := pal.liveCount(); live != 3 {
		t.Fatalf("live palette entries %d, want 3", live)
	}
	wantRefs := map[string]int{
		"vinox:air":   16*16*16 - 2,
		"vinox:dirt":  1,
		"vinox:stone": 1,
	}
	for _, e := range pal.entries {
		if e.refs == 0 {
			continue
		}
		if want, ok := wantRefs[e.value.Identifier()]; !ok || e.refs != want {
			t.Fatalf("entry %s: refs %d, want %d", e.value.Identifier(), e.refs, want)
		}
	}
}

func TestChunkData_Linearization(t *testing.T) {
	c := New(16, DefaultTrimEvery)
	if got := c.Linearize(1, 2, 3); got != 1+2*16+3*256 {
		t.Fatalf("linearize: got %d", got)
	}
	for _, idx := range []int{0, 1, 255, 4095, 16*16*16 - 1} {
		x, y, z := c.Delinearize(idx)
		if got := c.Linearize(x, y, z); got != idx {
			t.Fatalf("delinearize(%d) -> (%d,%d,%d) -> %d", idx, x, y, z, got)
		}
	}
}

func TestChunkData_CoordinateOutOfRangePanics(t *testing.T) {
	c := New(16, DefaultTrimEvery)
	for _, fn := range []func(){
		func() { c.Get(16, 0, 0) },
		func() { c.Get(0, -1, 0) },
		func() { c.Set(0, 0, 16, block.Air()) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			fn()
		}()
	}
}

func TestChunkData_GetIdentifier(t *testing.T) {
	c := New(8, DefaultTrimEvery)
	if got := c.GetIdentifier(0, 0, 0); got != "vinox:air" {
		t.Fatalf("fresh chunk identifier %q", got)
	}
	c.Set(1, 2, 3, namedBlock("stone"))
	if got := c.GetIdentifier(1, 2, 3); got != "vinox:stone" {
		t.Fatalf("identifier %q, want vinox:stone", got)
	}
}

func TestChunkData_DirtyTracking(t *testing.T) {
	c := New(8, DefaultTrimEvery)
	if !c.IsDirty() {
		t.Fatalf("fresh chunk starts dirty so consumers mesh it once")
	}
	c.SetDirty(false)
	c.Set(0, 0, 0, namedBlock("dirt"))
	if !c.IsDirty() {
		t.Fatalf("set must mark dirty")
	}
}

func TestChunkData_TrimAfterThreshold(t *testing.T) {
	// Small trim threshold: the chunk diverges, converges back, and the
	// write counter alone must eventually demote it.
	c := New(8, 10)
	c.Set(0, 0, 0, namedBlock("dirt"))
	c.Set(0, 0, 0, block.Air())
	if c.IsUniform() {
		t.Fatalf("no trim should have run yet")
	}
	for i := 0; i < 10; i++ {
		c.Set(1, 1, 1, block.Air())
	}
	if !c.IsUniform() {
		t.Fatalf("threshold writes must trigger a trim and demote")
	}
}

func TestChunkData_IsEmpty(t *testing.T) {
	table := testTable()
	c := New(8, DefaultTrimEvery)
	if !c.IsEmpty(table) {
		t.Fatalf("all-air chunk must be empty")
	}

	c.Set(0, 0, 0, namedBlock("stone"))
	if c.IsEmpty(table) {
		t.Fatalf("chunk with stone must not be empty")
	}

	// A uniform chunk of an unregistered block is not empty: unknown
	// visibility degrades to "present", never to "absent".
	u := New(8, DefaultTrimEvery)
	mystery := block.New("modpack", "mystery")
	for z := 0; z < 8; z++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				u.Set(x, y, z, mystery)
			}
		}
	}
	u.Trim()
	if !u.IsUniform() {
		t.Fatalf("fully overwritten chunk must trim to uniform")
	}
	if u.IsEmpty(table) {
		t.Fatalf("unknown identifier must not classify as empty")
	}
}

func TestChunkData_RawRoundTrip(t *testing.T) {
	c := New(8, DefaultTrimEvery)
	c.Set(0, 0, 0, namedBlock("dirt"))
	c.Set(7, 7, 7, namedBlock("stone"))
	chest := namedBlock("chest")
	chest.Direction = block.DirectionEast
	chest.Container = &block.Container{Items: []string{"vinox:coal_ore"}, MaxSize: 27}
	c.Set(3, 4, 5, chest)

	restored, err := FromRaw(c.ToRaw(), 8, DefaultTrimEvery)
	if err != nil {
		t.Fatalf("from raw: %v", err)
	}
	for z := 0; z < 8; z++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				want := c.Get(x, y, z)
				got := restored.Get(x, y, z)
				if !got.Equal(want) {
					t.Fatalf("(%d,%d,%d): got %s want %s", x, y, z, got.Identifier(), want.Identifier())
				}
			}
		}
	}
	if restored.IsDirty() {
		t.Fatalf("restored chunk must start clean")
	}
}

func TestChunkData_FromRawRejectsWrongVolume(t *testing.T) {
	c := New(8, DefaultTrimEvery)
	if _, err := FromRaw(c.ToRaw(), 16, DefaultTrimEvery); err == nil {
		t.Fatalf("expected volume mismatch error")
	}
}

func TestChunkData_ToRawIsDetached(t *testing.T) {
	c := New(8, DefaultTrimEvery)
	raw := c.ToRaw()
	c.Set(0, 0, 0, namedBlock("dirt"))
	if got := raw.Voxels.Get(0); !got.Equal(block.Air()) {
		t.Fatalf("snapshot mutated by later write: got %s", got.Identifier())
	}
}
