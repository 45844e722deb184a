package hostfuncs

import (
	"context"
	"log/slog"
)

// Invocation is the host-side state of one skill call. Capabilities
// reach it through the context the runtime threads into every host
// function, so request-scoped state never leaks between calls.
// A fresh Invocation is created per call and discarded afterwards.
type Invocation struct {
	// ID correlates log lines for one call.
	ID string

	// Skill is the name the call was dispatched under, for diagnostics.
	Skill string

	// Input is the caller-supplied payload, served to the guest through
	// the input capabilities. Nil means no input.
	Input []byte

	// Sink collects capability output until the host drains it.
	Sink *OutputSink

	// Logger receives capability-level diagnostics at debug level.
	// Nil disables them; the guest never observes either way.
	Logger *slog.Logger
}

// InputLen returns the byte length of the invocation input.
func (inv *Invocation) InputLen() uint32 {
	return uint32(len(inv.Input))
}

// CopyInput copies up to capacity input bytes into guest memory at ptr
// and returns the number of bytes copied. A bad destination range copies
// nothing and returns 0.
func (inv *Invocation) CopyInput(mem GuestMemory, ptr, capacity uint32) uint32 {
	if len(inv.Input) == 0 || capacity == 0 {
		return 0
	}
	n := uint32(len(inv.Input))
	if n > capacity {
		n = capacity
	}
	if !mem.Write(ptr, inv.Input[:n]) {
		return 0
	}
	return n
}

// log emits a capability-level diagnostic for this invocation.
func (inv *Invocation) log(ctx context.Context, msg string, args ...any) {
	if inv.Logger == nil {
		return
	}
	inv.Logger.DebugContext(ctx, msg, args...)
}

type invocationKey struct{}

type capabilityNameKey struct{}

// WithInvocation attaches per-call state to a context. The runtime
// binder carries the returned context through instantiation and the
// entry-point call so every capability sees the same Invocation.
func WithInvocation(ctx context.Context, inv *Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext extracts the per-call state attached by
// WithInvocation. Capabilities treat absence as "drop the call".
func InvocationFromContext(ctx context.Context) (*Invocation, bool) {
	inv, ok := ctx.Value(invocationKey{}).(*Invocation)
	return inv, ok
}

// withCapabilityName records which capability is being dispatched, for
// middleware diagnostics.
func withCapabilityName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, capabilityNameKey{}, name)
}

// CapabilityNameFrom returns the name of the capability being invoked,
// or "" outside a registry dispatch.
func CapabilityNameFrom(ctx context.Context) string {
	name, _ := ctx.Value(capabilityNameKey{}).(string)
	return name
}
