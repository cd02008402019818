package chunk

import (
	"fmt"

	"github.com/Fayzenx/Vinox/internal/world/block"
)

// initialIndexBits is the palette index width used on promotion. Two bits
// (capacity 4) because paletted form only exists once at least two distinct
// values are present.
const initialIndexBits = 2

// Storage holds the voxel contents of one chunk in whichever of two
// representations currently fits: uniform (one value, implicit for every
// slot) or paletted (bit-packed indices into a palette). Writes promote
// uniform storage the first time a second distinct value appears; Trim
// demotes paletted storage once a single live value remains.
//
// Exactly one of uniform/paletted is non-nil. Transitions replace the whole
// representation; nothing is shared across the switch.
type Storage struct {
	size     int
	uniform  *block.Data
	paletted *paletted
}

// paletted is the index-per-slot representation.
type paletted struct {
	size      int
	data      *BitBuffer
	palette   palette
	capacity  int // 2^indexBits
	indexBits int
}

// NewStorage begins uniform, holding the default air value for all size
// logical slots.
func NewStorage(size int) *Storage {
	if size <= 0 {
		panic(fmt.Sprintf("chunk: storage size %d must be positive", size))
	}
	air := block.Air()
	return &Storage{size: size, uniform: &air}
}

// Size returns the logical number of slots.
func (s *Storage) Size() int { return s.size }

// IsUniform reports whether the storage is currently in uniform form.
func (s *Storage) IsUniform() bool { return s.uniform != nil }

func (s *Storage) checkIndex(idx int) {
	if idx < 0 || idx >= s.size {
		panic(fmt.Sprintf("chunk: slot %d out of storage of %d slots", idx, s.size))
	}
}

// Get returns the value at slot idx. Pure; never changes representation.
func (s *Storage) Get(idx int) block.Data {
	s.checkIndex(idx)
	if s.uniform != nil {
		return s.uniform.Clone()
	}
	p := s.paletted
	pi := int(p.data.Get(idx*p.indexBits, p.indexBits))
	return p.palette.valueAt(pi).Clone()
}

// Set writes v into slot idx, promoting to paletted form if the write
// introduces a second distinct value.
func (s *Storage) Set(idx int, v block.Data) {
	s.checkIndex(idx)

	if s.uniform != nil {
		if s.uniform.Equal(v) {
			return
		}
		s.promote()
	}

	p := s.paletted
	cur := int(p.data.Get(idx*p.indexBits, p.indexBits))
	p.palette.decrement(cur)

	pi, ok := p.palette.findLive(v)
	if ok {
		p.palette.entries[pi].refs++
	} else if pi, ok = p.palette.recycle(v); !ok {
		if len(p.palette.entries) == p.capacity {
			p.grow()
		}
		p.palette.entries = append(p.palette.entries, paletteEntry{value: v.Clone(), refs: 1})
		pi = len(p.palette.entries) - 1
	}
	p.data.Set(idx*p.indexBits, p.indexBits, uint64(pi))
}

// Trim collapses back to uniform form when exactly one palette entry is
// still referenced. Cheap (O(palette), not O(volume)), so callers may
// invoke it speculatively.
func (s *Storage) Trim() {
	if s.uniform != nil {
		return
	}
	if s.paletted.palette.liveCount() != 1 {
		return
	}
	v, _ := s.paletted.palette.soleLive()
	s.uniform = &v
	s.paletted = nil
}

// promote switches uniform storage to paletted form: entry 0 seeds the old
// uniform value with every slot referencing it (a fresh bit buffer decodes
// to index 0 everywhere).
func (s *Storage) promote() {
	old := *s.uniform
	s.paletted = &paletted{
		size:      s.size,
		data:      NewBitBuffer(s.size * initialIndexBits),
		palette:   palette{entries: []paletteEntry{{value: old, refs: s.size}}},
		capacity:  1 << initialIndexBits,
		indexBits: initialIndexBits,
	}
	s.uniform = nil
}

// grow doubles the index width, reallocating the bit buffer and re-encoding
// every slot. The single most expensive operation here; its cost amortizes
// across the doubling.
func (p *paletted) grow() {
	indices := make([]uint64, p.size)
	for i := 0; i < p.size; i++ {
		indices[i] = p.data.Get(i*p.indexBits, p.indexBits)
	}

	p.indexBits <<= 1
	p.capacity = 1 << p.indexBits
	p.data = NewBitBuffer(p.size * p.indexBits)

	for i, idx := range indices {
		p.data.Set(i*p.indexBits, p.indexBits, idx)
	}
}

// Export projects the storage to a compacted palette plus one index per
// slot, for consumers that want a dense view (mesh builders, the wire
// protocol). Dead palette holes are dropped and indices remapped. A uniform
// storage exports a single value and nil indices.
func (s *Storage) Export() (values []block.Data, indices []uint32) {
	if s.uniform != nil {
		return []block.Data{s.uniform.Clone()}, nil
	}
	p := s.paletted
	remap := make([]int32, len(p.palette.entries))
	for i, e := range p.palette.entries {
		if e.refs > 0 {
			remap[i] = int32(len(values))
			values = append(values, e.value.Clone())
		} else {
			remap[i] = -1
		}
	}
	indices = make([]uint32, s.size)
	for i := 0; i < s.size; i++ {
		pi := int(p.data.Get(i*p.indexBits, p.indexBits))
		m := remap[pi]
		if m < 0 {
			panic(fmt.Sprintf("chunk: slot %d decodes to dead palette entry %d", i, pi))
		}
		indices[i] = uint32(m)
	}
	return values, indices
}

// Clone deep-copies the storage in either representation.
func (s *Storage) Clone() *Storage {
	c := &Storage{size: s.size}
	if s.uniform != nil {
		v := s.uniform.Clone()
		c.uniform = &v
		return c
	}
	p := s.paletted
	c.paletted = &paletted{
		size:      p.size,
		data:      p.data.Clone(),
		palette:   p.palette.clone(),
		capacity:  p.capacity,
		indexBits: p.indexBits,
	}
	return c
}
