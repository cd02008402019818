package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{
		ErrProtoBadRequest,
		ErrBadRequest,
		ErrOutOfBounds,
		ErrUnknownBlock,
		ErrInternal,
		"", // absence of an error is always valid
	} {
		if !IsKnownCode(code) {
			t.Fatalf("%q must be a known code", code)
		}
	}
	for _, code := range []string{"E_NOPE", "bad_request", "E_OUT_OF_BOUNDS "} {
		if IsKnownCode(code) {
			t.Fatalf("%q must not be a known code", code)
		}
	}
}
