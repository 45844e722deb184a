// Package wazero provides adapters for binding capability logic to the wazero runtime.
//
// This package bridges the pure Go capability implementations with the wazero
// WebAssembly runtime. It handles:
//
//   - Exporting registry capabilities under the "host" import namespace
//   - Copying (ptr, len) argument ranges out of guest linear memory
//   - Serving invocation input through input_len/read_input
//   - Registering extra exports with the wazero host module builder
//
// Capability exports are fire-and-forget: the guest passes a pointer and
// length, the adapter copies the range and dispatches it, and nothing is
// returned. A bad range degrades to a no-op so guests cannot trap the
// host through capability misuse.
//
// # Basic Usage
//
//	// Create a capability registry with desired bundles
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.AllBundles()),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// Create wazero runtime
//	runtime := wazero.NewRuntime(ctx)
//
//	// Bind the capabilities into the runtime
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry)
//
// # Custom Handlers
//
// For exports that don't fit the fire-and-forget pattern, use
// WithCustomHandler:
//
//	wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithCustomHandler(wazero.CustomHandler{
//	        Name:        "clock_ms",
//	        Handler:     clockHandler,
//	        ParamTypes:  []api.ValueType{},
//	        ResultTypes: []api.ValueType{api.ValueTypeI64},
//	    }),
//	)
package wazero
