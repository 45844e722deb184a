package hostfuncs

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Capability is the pure logic of one guest-visible host function.
// The payload is the guest's argument, already copied out of linear
// memory; everything else a capability needs travels on ctx via
// WithInvocation. Capabilities are fire-and-forget: nothing flows back
// to the guest, and failures degrade to silence instead of traps.
type Capability func(ctx context.Context, payload []byte)

// TextFunc is a capability body that wants its payload as text.
type TextFunc func(ctx context.Context, text string)

// NewTextCapability wraps a TextFunc into a Capability, decoding the
// payload as UTF-8 with invalid sequences replaced. Guests hand over
// arbitrary bytes; decoding is lossy, never fatal.
//
// Usage:
//
//	writeCapability := hostfuncs.NewTextCapability(hostfuncs.PerformWrite)
func NewTextCapability(fn TextFunc) Capability {
	return func(ctx context.Context, payload []byte) {
		fn(ctx, decodeLossy(payload))
	}
}

// decodeLossy converts guest bytes to a string, replacing invalid UTF-8
// sequences with U+FFFD.
func decodeLossy(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}
	return strings.ToValidUTF8(string(payload), "�")
}
