// Package ws serves the chunk-sync protocol over websockets. The server is
// the single writer of the chunk store: every mutation from every
// connection funnels through one mutex, which is the serialization the
// storage core requires.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Fayzenx/Vinox/internal/encoding"
	"github.com/Fayzenx/Vinox/internal/persistence/mutlog"
	"github.com/Fayzenx/Vinox/internal/protocol"
	"github.com/Fayzenx/Vinox/internal/world"
	"github.com/Fayzenx/Vinox/internal/world/block"
)

type Params struct {
	ViewHorizontal int
	ViewVertical   int
	Seed           int64
}

type Server struct {
	store  *world.ChunkStore
	table  *block.Table
	params Params
	log    *log.Logger

	upgrader websocket.Upgrader

	// audit, when set, records every accepted mutation.
	audit *mutlog.Logger

	// mu serializes all chunk store access across connections.
	mu sync.Mutex

	clientsMu sync.Mutex
	clients   map[chan []byte]struct{}
}

func NewServer(store *world.ChunkStore, table *block.Table, params Params, logger *log.Logger) *Server {
	return &Server{
		store:  store,
		table:  table,
		params: params,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[chan []byte]struct{}{},
	}
}

// RecordMutations routes every accepted SET_BLOCK into the audit log.
// Call before serving.
func (s *Server) RecordMutations(l *mutlog.Logger) { s.audit = l }

// Sync runs fn while holding the store mutex, for callers outside the
// websocket path (snapshot flush, preload) that must not overlap a writer.
func (s *Server) Sync(fn func(store *world.ChunkStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out, clientName, ok := s.handshake(conn)
		if !ok {
			return
		}

		s.clientsMu.Lock()
		s.clients[out] = struct{}{}
		s.clientsMu.Unlock()
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, out)
			s.clientsMu.Unlock()
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.ProtocolVersion != protocol.Version {
				continue
			}
			if base.Type != protocol.TypeSetBlock {
				continue
			}
			var set protocol.SetBlockMsg
			if err := json.Unmarshal(msg, &set); err != nil {
				s.send(out, errorMsg(protocol.ErrProtoBadRequest, "bad SET_BLOCK"))
				continue
			}
			s.handleSetBlock(out, clientName, set)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (chan []byte, string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return nil, "", false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"),
			time.Now().Add(time.Second))
		return nil, "", false
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		WorldParams: protocol.WorldParams{
			ChunkEdge:      s.store.Edge(),
			Seed:           s.params.Seed,
			ViewHorizontal: s.params.ViewHorizontal,
			ViewVertical:   s.params.ViewVertical,
		},
		BlockTable: protocol.DigestRef{Digest: s.table.Digest, Count: len(s.table.Defs)},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil, "", false
	}

	// Stream the chunks around the requested center, nearest first.
	center := world.Vec3i{X: hello.Center[0], Y: hello.Center[1], Z: hello.Center[2]}
	for _, pos := range world.ChunkPositions(center, s.params.ViewHorizontal, s.params.ViewVertical) {
		msg, err := s.chunkMsg(world.ChunkKey{X: pos.X, Y: pos.Y, Z: pos.Z})
		if err != nil {
			s.log.Printf("encode chunk %v: %v", pos, err)
			return nil, "", false
		}
		if err := writeJSON(conn, msg); err != nil {
			return nil, "", false
		}
	}

	return make(chan []byte, 64), hello.ClientName, true
}

func (s *Server) chunkMsg(key world.ChunkKey) (protocol.ChunkMsg, error) {
	s.mu.Lock()
	ch := s.store.Ensure(key)
	values, indices := ch.Export()
	s.mu.Unlock()

	msg := protocol.ChunkMsg{
		Type:            protocol.TypeChunk,
		ProtocolVersion: protocol.Version,
		Pos:             [3]int{key.X, key.Y, key.Z},
		Palette:         values,
	}
	if indices != nil {
		msg.Encoding = "RLE"
		msg.Data = encoding.EncodeRLE(indices)
	}
	return msg, nil
}

func (s *Server) handleSetBlock(out chan []byte, clientName string, set protocol.SetBlockMsg) {
	if s.table.Visibility(set.Block.Identifier()) == block.VisibilityUnknown {
		s.send(out, errorMsg(protocol.ErrUnknownBlock, set.Block.Identifier()))
		return
	}
	pos := world.Vec3i{X: set.Pos[0], Y: set.Pos[1], Z: set.Pos[2]}
	if pos.Y < 0 {
		s.send(out, errorMsg(protocol.ErrOutOfBounds, "below world floor"))
		return
	}

	s.mu.Lock()
	prev := s.store.GetBlock(pos)
	s.store.SetBlock(pos, set.Block)
	s.mu.Unlock()

	if s.audit != nil {
		err := s.audit.Append(mutlog.Entry{
			Client: clientName,
			Pos:    set.Pos,
			Block:  set.Block,
			Prev:   prev.Identifier(),
		})
		if err != nil {
			s.log.Printf("audit log: %v", err)
		}
	}

	update := protocol.BlockUpdateMsg{
		Type:            protocol.TypeBlockUpdate,
		ProtocolVersion: protocol.Version,
		Pos:             set.Pos,
		Block:           set.Block,
	}
	b, err := json.Marshal(update)
	if err != nil {
		return
	}
	s.broadcast(b)
}

func (s *Server) broadcast(b []byte) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for out := range s.clients {
		select {
		case out <- b:
		default:
			// Slow consumer: drop the update rather than stall everyone.
		}
	}
}

func (s *Server) send(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

// errorMsg builds an ERROR frame. Codes outside the protocol's closed set
// collapse to E_INTERNAL so clients can switch on the documented values.
func errorMsg(code, message string) protocol.ErrorMsg {
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
	}
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
