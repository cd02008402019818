package chunk

import (
	"fmt"

	"github.com/Fayzenx/Vinox/internal/world/block"
)

// paletteEntry pairs a block value with the number of slots that currently
// decode to it. Entries with zero references stay in place as recyclable
// holes so that removals never force a re-index of the whole buffer.
type paletteEntry struct {
	value block.Data
	refs  int
}

type palette struct {
	entries []paletteEntry
}

// valueAt returns the block value stored at idx. Decoding an index without
// a palette entry means the ref-count bookkeeping is broken, which is a
// fatal contract violation rather than a data condition.
func (p *palette) valueAt(idx int) block.Data {
	if idx < 0 || idx >= len(p.entries) {
		panic(fmt.Sprintf("chunk: palette index %d out of %d entries", idx, len(p.entries)))
	}
	return p.entries[idx].value
}

// decrement releases one reference from the entry at idx. The slot is kept
// for reuse even at zero references.
func (p *palette) decrement(idx int) {
	if idx < 0 || idx >= len(p.entries) {
		panic(fmt.Sprintf("chunk: palette index %d out of %d entries", idx, len(p.entries)))
	}
	if p.entries[idx].refs == 0 {
		panic(fmt.Sprintf("chunk: ref-count underflow at palette index %d", idx))
	}
	p.entries[idx].refs--
}

// findLive returns the index of a live entry equal to v, if any.
func (p *palette) findLive(v block.Data) (int, bool) {
	for i, e := range p.entries {
		if e.refs > 0 && e.value.Equal(v) {
			return i, true
		}
	}
	return -1, false
}

// recycle overwrites the first dead entry with v, if one exists.
func (p *palette) recycle(v block.Data) (int, bool) {
	for i := range p.entries {
		if p.entries[i].refs == 0 {
			p.entries[i] = paletteEntry{value: v.Clone(), refs: 1}
			return i, true
		}
	}
	return -1, false
}

// liveCount counts entries still referenced by at least one slot.
func (p *palette) liveCount() int {
	n := 0
	for _, e := range p.entries {
		if e.refs > 0 {
			n++
		}
	}
	return n
}

// soleLive returns the single live entry, valid only when liveCount is 1.
func (p *palette) soleLive() (block.Data, bool) {
	var v block.Data
	found := false
	for _, e := range p.entries {
		if e.refs > 0 {
			if found {
				return block.Data{}, false
			}
			v = e.value
			found = true
		}
	}
	return v, found
}

// refSum is the total number of slots accounted for by the palette. In a
// consistent paletted storage it equals the logical volume size.
func (p *palette) refSum() int {
	n := 0
	for _, e := range p.entries {
		n += e.refs
	}
	return n
}

func (p *palette) clone() palette {
	entries := make([]paletteEntry, len(p.entries))
	for i, e := range p.entries {
		entries[i] = paletteEntry{value: e.value.Clone(), refs: e.refs}
	}
	return palette{entries: entries}
}
