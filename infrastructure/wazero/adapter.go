// Package wazero provides adapters for binding capability logic to the wazero runtime.
package wazero

import (
	"context"
	"fmt"

	"github.com/skillhost-dev/skillhost/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// DefaultModuleName is the import namespace guests link against unless
// overridden with WithModuleName.
const DefaultModuleName = "host"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the import namespace guests resolve capabilities
	// from (default: "host").
	ModuleName string

	// CustomHandlers allows adding additional wazero-specific exports
	// that don't fit the fire-and-forget capability pattern.
	CustomHandlers []CustomHandler
}

// CustomHandler represents a custom wazero export with its own signature.
type CustomHandler struct {
	// Name is the exported function name.
	Name string

	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the guest-visible import namespace (default: "host").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithCustomHandler adds a custom wazero export.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName: DefaultModuleName,
	}
}

// reservedNames are exports the adapter always binds itself; registry
// capabilities cannot claim them because their signatures differ.
var reservedNames = []string{"input_len", "read_input"}

// RegisterWithRuntime binds a CapabilityRegistry into a wazero runtime.
// It instantiates a host module under the configured namespace (default:
// "host") exporting every registry capability plus the input pair.
//
// Each capability export has signature (i32, i32) -> (): the guest
// passes a pointer and length into its own linear memory, the adapter
// copies that range out and dispatches it through the registry. An
// unreadable range is a silent no-op; nothing flows back to the guest.
//
// The input pair is bound separately because it returns values:
// input_len() -> i32 reports the invocation input size, and
// read_input(ptr, len) -> i32 copies input into guest memory, returning
// the number of bytes copied.
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.AllBundles()),
//	)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.CapabilityRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, reserved := range reservedNames {
		if registry.Has(reserved) {
			return fmt.Errorf("capability name %q is reserved for invocation plumbing", reserved)
		}
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	// Register all capabilities from the registry
	for _, name := range registry.Names() {
		funcName := name // capture for closure
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleCapabilityCall(ctx, mod, stack, registry, funcName)
			}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil).
			Export(funcName)
	}

	// Register the invocation plumbing
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(inputLen), nil, []api.ValueType{api.ValueTypeI32}).
		Export("input_len")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(readInput), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("read_input")

	// Register any custom handlers
	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	// Instantiate the host module
	_, err := builder.Instantiate(ctx)
	return err
}

// handleCapabilityCall bridges one guest capability call: it copies the
// argument range out of guest memory and dispatches it through the
// registry. Failures never reach the guest.
func handleCapabilityCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.CapabilityRegistry, name string) {
	ptr := uint32(stack[0])    //nolint:gosec // G115: WASM32 pointers are always 32-bit
	length := uint32(stack[1]) //nolint:gosec // G115: WASM32 lengths are always 32-bit

	payload, ok := hostfuncs.ReadGuestBytes(mod.Memory(), ptr, length)
	if !ok {
		if inv, found := hostfuncs.InvocationFromContext(ctx); found && inv.Logger != nil {
			inv.Logger.DebugContext(ctx, "wazero: capability argument out of bounds",
				"capability", name, "ptr", ptr, "len", length)
		}
		return
	}

	registry.Invoke(ctx, name, payload)
}

// inputLen implements the input_len() -> i32 export.
func inputLen(ctx context.Context, _ api.Module, stack []uint64) {
	inv, ok := hostfuncs.InvocationFromContext(ctx)
	if !ok {
		stack[0] = 0
		return
	}
	stack[0] = uint64(inv.InputLen())
}

// readInput implements the read_input(ptr, len) -> i32 export.
func readInput(ctx context.Context, mod api.Module, stack []uint64) {
	inv, ok := hostfuncs.InvocationFromContext(ctx)
	if !ok {
		stack[0] = 0
		return
	}
	ptr := uint32(stack[0])      //nolint:gosec // G115: WASM32 pointers are always 32-bit
	capacity := uint32(stack[1]) //nolint:gosec // G115: WASM32 lengths are always 32-bit
	stack[0] = uint64(inv.CopyInput(mod.Memory(), ptr, capacity))
}
