package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Mutation layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrOutOfBounds  = "E_OUT_OF_BOUNDS"
	ErrUnknownBlock = "E_UNKNOWN_BLOCK"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrOutOfBounds:     {},
	ErrUnknownBlock:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
