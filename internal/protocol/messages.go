package protocol

import "github.com/Fayzenx/Vinox/internal/world/block"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// Chunk-grid coordinate the client wants streamed around.
	Center [3]int `json:"center,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	WorldParams     WorldParams `json:"world_params"`
	BlockTable      DigestRef   `json:"block_table"`
}

type WorldParams struct {
	ChunkEdge        int   `json:"chunk_edge"`
	Seed             int64 `json:"seed"`
	ViewHorizontal   int   `json:"view_horizontal"`
	ViewVertical     int   `json:"view_vertical"`
	BoundaryR        int   `json:"boundary_r,omitempty"`
	TrimEveryWrites  int   `json:"trim_every_writes,omitempty"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// CHUNK (server -> client): one chunk's voxels. A uniform chunk ships a
// single-entry palette and omits the index data entirely.
type ChunkMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Pos             [3]int       `json:"pos"` // chunk-grid coordinate
	Palette         []block.Data `json:"palette"`
	Encoding        string       `json:"encoding,omitempty"` // "RLE" when Data is set
	Data            string       `json:"data,omitempty"`     // RLE-encoded per-slot palette indices
}

// SET_BLOCK (client -> server): point mutation at a world voxel coordinate.
type SetBlockMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Pos             [3]int     `json:"pos"`
	Block           block.Data `json:"block"`
}

// BLOCK_UPDATE (server -> client): a mutation another client made.
type BlockUpdateMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Pos             [3]int     `json:"pos"`
	Block           block.Data `json:"block"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
