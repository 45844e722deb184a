package hostfuncs

import (
	"context"
)

// Middleware is a function that wraps a Capability to add cross-cutting
// behavior. Middleware executes in FIFO order (first registered wraps
// first, onion model).
type Middleware func(next Capability) Capability

// RegistryOption is a functional option for configuring a CapabilityRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that catches panics from
// capability logic so a misbehaving capability cannot crash the host.
// The recovered call degrades to the same silent no-op as any other
// capability failure; the panic is reported on the invocation's logger.
func PanicRecoveryMiddleware() Middleware {
	return func(next Capability) Capability {
		return func(ctx context.Context, payload []byte) {
			defer func() {
				if r := recover(); r != nil {
					inv, ok := InvocationFromContext(ctx)
					if !ok || inv.Logger == nil {
						return
					}
					inv.Logger.ErrorContext(ctx, "capability panicked",
						"capability", CapabilityNameFrom(ctx),
						"panic", r,
					)
				}
			}()
			next(ctx, payload)
		}
	}
}

// LoggingMiddleware returns a middleware that records capability
// dispatches on the invocation's logger at debug level. Invocations
// without a logger are dispatched silently.
func LoggingMiddleware() Middleware {
	return func(next Capability) Capability {
		return func(ctx context.Context, payload []byte) {
			inv, ok := InvocationFromContext(ctx)
			if ok {
				inv.log(ctx, "capability invoked",
					"capability", CapabilityNameFrom(ctx),
					"payload_bytes", len(payload),
				)
			}
			next(ctx, payload)
		}
	}
}
