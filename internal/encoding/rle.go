// Package encoding holds the run-length codec used to ship per-slot palette
// indices over the wire. Chunks are dominated by long runs of one index, so
// (index, run) pairs compress them well before any transport compression.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes a sequence of palette indices into base64(varint pairs).
// The pairs are (index, run_len) repeated.
func EncodeRLE(indices []uint32) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(indices) {
		v := indices[i]
		run := 1
		for j := i + 1; j < len(indices) && indices[j] == v && run < 1<<31; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. maxLen bounds the decoded length so a bad
// peer cannot make us allocate without limit; pass 0 for no bound.
func DecodeRLE(b64 string, maxLen int) ([]uint32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint32
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFFFFFF {
			return nil, fmt.Errorf("palette index too large: %d", v)
		}
		if maxLen > 0 && len(out)+int(run) > maxLen {
			return nil, fmt.Errorf("decoded length exceeds %d", maxLen)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, uint32(v))
		}
	}
	return out, nil
}
