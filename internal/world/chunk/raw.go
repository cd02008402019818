package chunk

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/Fayzenx/Vinox/internal/world/block"
)

// RawChunk is the storage-only projection of a chunk used for disk and wire
// transfer. It carries no dirty flag or write counter.
type RawChunk struct {
	Voxels *Storage
}

const (
	rawVersion = 1

	tagUniform  = 0
	tagPaletted = 1
)

// Marshal encodes the snapshot: a version byte, a representation tag, then
// either the single uniform value or the palette (values with ref-counts),
// index width, and the packed index array.
func (r RawChunk) Marshal() ([]byte, error) {
	if r.Voxels == nil {
		return nil, fmt.Errorf("chunk: marshal of empty snapshot")
	}
	var buf bytes.Buffer
	buf.WriteByte(rawVersion)

	s := r.Voxels
	if s.uniform != nil {
		buf.WriteByte(tagUniform)
		writeUvarint(&buf, uint64(s.size))
		if err := writeBlock(&buf, *s.uniform); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	p := s.paletted
	buf.WriteByte(tagPaletted)
	writeUvarint(&buf, uint64(p.size))
	writeUvarint(&buf, uint64(p.indexBits))
	writeUvarint(&buf, uint64(len(p.palette.entries)))
	for _, e := range p.palette.entries {
		if err := writeBlock(&buf, e.value); err != nil {
			return nil, err
		}
		writeUvarint(&buf, uint64(e.refs))
	}
	raw := p.data.Bytes()
	writeUvarint(&buf, uint64(len(raw)))
	buf.Write(raw)
	return buf.Bytes(), nil
}

// UnmarshalRaw decodes a snapshot produced by Marshal. Any structural
// problem is reported as an error so callers can treat the chunk as corrupt
// and regenerate it.
func UnmarshalRaw(data []byte) (RawChunk, error) {
	rd := bytes.NewReader(data)

	version, err := rd.ReadByte()
	if err != nil {
		return RawChunk{}, fmt.Errorf("chunk: snapshot truncated: %w", err)
	}
	if version != rawVersion {
		return RawChunk{}, fmt.Errorf("chunk: unsupported snapshot version %d", version)
	}
	tag, err := rd.ReadByte()
	if err != nil {
		return RawChunk{}, fmt.Errorf("chunk: snapshot truncated: %w", err)
	}

	switch tag {
	case tagUniform:
		size, err := readUvarint(rd)
		if err != nil {
			return RawChunk{}, err
		}
		if size == 0 {
			return RawChunk{}, fmt.Errorf("chunk: snapshot has zero volume")
		}
		v, err := readBlock(rd)
		if err != nil {
			return RawChunk{}, err
		}
		return RawChunk{Voxels: &Storage{size: int(size), uniform: &v}}, nil

	case tagPaletted:
		size, err := readUvarint(rd)
		if err != nil {
			return RawChunk{}, err
		}
		indexBits, err := readUvarint(rd)
		if err != nil {
			return RawChunk{}, err
		}
		if size == 0 || indexBits == 0 || indexBits > 32 {
			return RawChunk{}, fmt.Errorf("chunk: snapshot has bad geometry (size %d, index bits %d)", size, indexBits)
		}
		entryCount, err := readUvarint(rd)
		if err != nil {
			return RawChunk{}, err
		}
		if entryCount > 1<<indexBits {
			return RawChunk{}, fmt.Errorf("chunk: snapshot palette of %d entries exceeds capacity %d", entryCount, 1<<indexBits)
		}
		pal := palette{entries: make([]paletteEntry, 0, entryCount)}
		refSum := uint64(0)
		for i := uint64(0); i < entryCount; i++ {
			v, err := readBlock(rd)
			if err != nil {
				return RawChunk{}, err
			}
			refs, err := readUvarint(rd)
			if err != nil {
				return RawChunk{}, err
			}
			refSum += refs
			pal.entries = append(pal.entries, paletteEntry{value: v, refs: int(refs)})
		}
		if refSum != size {
			return RawChunk{}, fmt.Errorf("chunk: snapshot ref-counts sum to %d, want %d", refSum, size)
		}
		rawLen, err := readUvarint(rd)
		if err != nil {
			return RawChunk{}, err
		}
		raw := make([]byte, rawLen)
		if _, err := readFull(rd, raw); err != nil {
			return RawChunk{}, err
		}
		data, err := BitBufferFromBytes(int(size)*int(indexBits), raw)
		if err != nil {
			return RawChunk{}, err
		}
		// Decode every slot once: each index must land on a palette entry,
		// and the occupancy seen in the data must match the stored
		// ref-counts. Anything less lets a corrupt snapshot through only to
		// panic on a later Get.
		counts := make([]int, len(pal.entries))
		for i := 0; i < int(size); i++ {
			pi := int(data.Get(i*int(indexBits), int(indexBits)))
			if pi >= len(pal.entries) {
				return RawChunk{}, fmt.Errorf("chunk: slot %d references palette entry %d of %d", i, pi, len(pal.entries))
			}
			counts[pi]++
		}
		for i, e := range pal.entries {
			if counts[i] != e.refs {
				return RawChunk{}, fmt.Errorf("chunk: palette entry %d claims %d refs, slots hold %d", i, e.refs, counts[i])
			}
		}
		return RawChunk{Voxels: &Storage{
			size: int(size),
			paletted: &paletted{
				size:      int(size),
				data:      data,
				palette:   pal,
				capacity:  1 << indexBits,
				indexBits: int(indexBits),
			},
		}}, nil

	default:
		return RawChunk{}, fmt.Errorf("chunk: unknown snapshot tag %d", tag)
	}
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func readUvarint(rd *bytes.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(rd)
	if err != nil {
		return 0, fmt.Errorf("chunk: snapshot truncated: %w", err)
	}
	return v, nil
}

// Block values travel as length-prefixed JSON; the surrounding framing is
// binary but individual values keep a self-describing encoding.
func writeBlock(buf *bytes.Buffer, v block.Data) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("chunk: encode block %s: %w", v.Identifier(), err)
	}
	writeUvarint(buf, uint64(len(b)))
	buf.Write(b)
	return nil
}

func readBlock(rd *bytes.Reader) (block.Data, error) {
	n, err := readUvarint(rd)
	if err != nil {
		return block.Data{}, err
	}
	raw := make([]byte, n)
	if _, err := readFull(rd, raw); err != nil {
		return block.Data{}, err
	}
	var v block.Data
	if err := json.Unmarshal(raw, &v); err != nil {
		return block.Data{}, fmt.Errorf("chunk: decode block: %w", err)
	}
	return v, nil
}

func readFull(rd *bytes.Reader, p []byte) (int, error) {
	n, err := rd.Read(p)
	if err != nil || n != len(p) {
		return n, fmt.Errorf("chunk: snapshot truncated: read %d of %d bytes", n, len(p))
	}
	return n, nil
}
