package chunk

import (
	"encoding/binary"
	"fmt"
)

// BitBuffer is a fixed-length sequence of bits addressed by bit offset.
// Values are stored little-endian: the value's least significant bit lands
// at the lowest offset. Offsets past the end are caller bugs and panic.
//
// The rest of the package only ever touches bits through Get/Set, so the
// packing details stay contained here.
type BitBuffer struct {
	words []uint64
	size  int // total bits
}

// NewBitBuffer allocates a zero-filled buffer of exactly totalBits bits.
func NewBitBuffer(totalBits int) *BitBuffer {
	if totalBits < 0 {
		panic(fmt.Sprintf("chunk: negative bit buffer size %d", totalBits))
	}
	return &BitBuffer{
		words: make([]uint64, (totalBits+63)/64),
		size:  totalBits,
	}
}

// Len returns the buffer length in bits.
func (b *BitBuffer) Len() int { return b.size }

func (b *BitBuffer) checkRange(offset, length int) {
	if offset < 0 || length <= 0 || length > 64 || offset+length > b.size {
		panic(fmt.Sprintf("chunk: bit range [%d,%d) out of buffer of %d bits", offset, offset+length, b.size))
	}
}

// Set overwrites length bits starting at offset with the little-endian bit
// pattern of value. The caller guarantees value fits in length bits; excess
// high bits are masked off.
func (b *BitBuffer) Set(offset, length int, value uint64) {
	b.checkRange(offset, length)
	var mask uint64
	if length == 64 {
		mask = ^uint64(0)
	} else {
		mask = uint64(1)<<length - 1
	}
	value &= mask

	w := offset / 64
	o := uint(offset % 64)
	b.words[w] = b.words[w]&^(mask<<o) | value<<o

	if spill := int(o) + length - 64; spill > 0 {
		hiMask := uint64(1)<<spill - 1
		hi := value >> (64 - o)
		b.words[w+1] = b.words[w+1]&^hiMask | hi
	}
}

// Get decodes the little-endian unsigned integer stored in the length bits
// starting at offset.
func (b *BitBuffer) Get(offset, length int) uint64 {
	b.checkRange(offset, length)
	var mask uint64
	if length == 64 {
		mask = ^uint64(0)
	} else {
		mask = uint64(1)<<length - 1
	}

	w := offset / 64
	o := uint(offset % 64)
	v := b.words[w] >> o
	if int(o)+length > 64 {
		v |= b.words[w+1] << (64 - o)
	}
	return v & mask
}

// Clone returns an independent copy.
func (b *BitBuffer) Clone() *BitBuffer {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &BitBuffer{words: words, size: b.size}
}

// Bytes serializes the buffer to ceil(size/8) little-endian bytes.
func (b *BitBuffer) Bytes() []byte {
	out := make([]byte, (b.size+7)/8)
	for i, w := range b.words {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], w)
		copy(out[i*8:], tmp[:])
	}
	return out
}

// BitBufferFromBytes reconstructs a buffer serialized by Bytes.
func BitBufferFromBytes(totalBits int, data []byte) (*BitBuffer, error) {
	want := (totalBits + 7) / 8
	if len(data) != want {
		return nil, fmt.Errorf("chunk: bit buffer payload is %d bytes, want %d for %d bits", len(data), want, totalBits)
	}
	b := NewBitBuffer(totalBits)
	for i := range b.words {
		var tmp [8]byte
		copy(tmp[:], data[i*8:])
		b.words[i] = binary.LittleEndian.Uint64(tmp[:])
	}
	return b, nil
}
