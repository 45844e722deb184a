package wazero

import (
	"context"
	"strings"
	"testing"

	"github.com/skillhost-dev/skillhost/hostfuncs"
	"github.com/skillhost-dev/skillhost/wat"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()

	if cfg.ModuleName != "host" {
		t.Errorf("ModuleName = %q, want %q", cfg.ModuleName, "host")
	}
	if len(cfg.CustomHandlers) != 0 {
		t.Errorf("CustomHandlers = %d entries, want 0", len(cfg.CustomHandlers))
	}
}

func TestWithModuleName(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithModuleName("custom_host")(&cfg)

	if cfg.ModuleName != "custom_host" {
		t.Errorf("ModuleName = %q, want %q", cfg.ModuleName, "custom_host")
	}
}

func TestWithCustomHandler(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithCustomHandler(CustomHandler{
		Name:        "clock_ms",
		Handler:     func(ctx context.Context, mod api.Module, stack []uint64) {},
		ParamTypes:  []api.ValueType{},
		ResultTypes: []api.ValueType{api.ValueTypeI64},
	})(&cfg)

	if len(cfg.CustomHandlers) != 1 {
		t.Fatalf("CustomHandlers = %d entries, want 1", len(cfg.CustomHandlers))
	}
	if cfg.CustomHandlers[0].Name != "clock_ms" {
		t.Errorf("CustomHandlers[0].Name = %q, want %q", cfg.CustomHandlers[0].Name, "clock_ms")
	}
}

func TestRegisterWithRuntime_ReservedName(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithCapability("input_len", func(ctx context.Context, payload []byte) {}),
	)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	err = RegisterWithRuntime(ctx, r, registry)
	if err == nil {
		t.Fatal("RegisterWithRuntime() succeeded, want reserved-name error")
	}
	if !strings.Contains(err.Error(), "reserved") {
		t.Errorf("error = %q, want mention of reserved name", err)
	}
}

// instantiateGuest compiles WAT source, binds the registry, and
// instantiates the guest anonymously.
func instantiateGuest(t *testing.T, ctx context.Context, r wazero.Runtime, registry *hostfuncs.CapabilityRegistry, source string) api.Module {
	t.Helper()

	if err := RegisterWithRuntime(ctx, r, registry); err != nil {
		t.Fatalf("RegisterWithRuntime() error: %v", err)
	}
	binary, err := wat.Compile(source)
	if err != nil {
		t.Fatalf("wat.Compile() error: %v", err)
	}
	compiled, err := r.CompileModule(ctx, binary)
	if err != nil {
		t.Fatalf("CompileModule() error: %v", err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		t.Fatalf("InstantiateModule() error: %v", err)
	}
	return mod
}

func TestRegisterWithRuntime_WriteCapability(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.AllBundles()))
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	mod := instantiateGuest(t, ctx, r, registry, `(module
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) "Hello Wasm!")
  (func (export "run")
    i32.const 0
    i32.const 11
    call $write))`)

	inv := &hostfuncs.Invocation{Sink: hostfuncs.NewOutputSink(0)}
	callCtx := hostfuncs.WithInvocation(ctx, inv)

	if _, err := mod.ExportedFunction("run").Call(callCtx); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if got := inv.Sink.String(); got != "Hello Wasm!" {
		t.Errorf("sink = %q, want %q", got, "Hello Wasm!")
	}
}

func TestRegisterWithRuntime_OutOfBoundsIsSilent(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.AllBundles()))
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	// One 64KiB page of memory; the write argument points far past it.
	mod := instantiateGuest(t, ctx, r, registry, `(module
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (func (export "run")
    i32.const 1000000
    i32.const 50
    call $write))`)

	inv := &hostfuncs.Invocation{Sink: hostfuncs.NewOutputSink(0)}
	callCtx := hostfuncs.WithInvocation(ctx, inv)

	if _, err := mod.ExportedFunction("run").Call(callCtx); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if got := inv.Sink.String(); got != "" {
		t.Errorf("sink = %q, want empty", got)
	}
}

func TestRegisterWithRuntime_InputPlumbing(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.AllBundles()))
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	// Echo: copy the invocation input into memory, then write it back.
	mod := instantiateGuest(t, ctx, r, registry, `(module
  (import "host" "write" (func $write (param i32 i32)))
  (import "host" "input_len" (func $input_len (result i32)))
  (import "host" "read_input" (func $read_input (param i32 i32) (result i32)))
  (memory (export "memory") 1)
  (func (export "run") (local $n i32)
    call $input_len
    local.set $n
    i32.const 0
    local.get $n
    call $read_input
    drop
    i32.const 0
    local.get $n
    call $write))`)

	inv := &hostfuncs.Invocation{Input: []byte("ping"), Sink: hostfuncs.NewOutputSink(0)}
	callCtx := hostfuncs.WithInvocation(ctx, inv)

	if _, err := mod.ExportedFunction("run").Call(callCtx); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if got := inv.Sink.String(); got != "ping" {
		t.Errorf("sink = %q, want %q", got, "ping")
	}
}

func TestRegisterWithRuntime_NoInvocationOnContext(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.AllBundles()))
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	mod := instantiateGuest(t, ctx, r, registry, `(module
  (import "host" "input_len" (func $input_len (result i32)))
  (memory 1)
  (func (export "run")
    call $input_len
    drop))`)

	// Without per-call state the plumbing answers zero instead of failing.
	if _, err := mod.ExportedFunction("run").Call(ctx); err != nil {
		t.Fatalf("run() error: %v", err)
	}
}
