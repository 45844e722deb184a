// Package hostfuncs provides pure Go implementations of capability logic.
// These implementations have NO WASM runtime dependencies (no wazero/wasmtime).
// They can be bound by any WASM skill host, not just the bundled engine.
package hostfuncs
