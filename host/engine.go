package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/skillhost-dev/skillhost/domain/entities"
	"github.com/skillhost-dev/skillhost/domain/ports"
	"github.com/skillhost-dev/skillhost/hostfuncs"
	infrawazero "github.com/skillhost-dev/skillhost/infrastructure/wazero"
)

// Engine executes sandboxed WASM skills. It owns the runtime, the bound
// capability set, and the compiled-skill registry. An Engine is safe for
// concurrent use; construct it once and share it.
type Engine struct {
	config   engineConfig
	logger   *slog.Logger
	runtime  wazero.Runtime
	registry *hostfuncs.CapabilityRegistry
	catalog  ports.CapabilityCatalog

	mu     sync.RWMutex
	skills map[string]*compiledSkill
}

// NewEngine creates an engine with the given options. The registry starts
// empty; call LoadSkills before invoking anything.
func NewEngine(ctx context.Context, opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SkillsDir == "" {
		dir, err := defaultSkillsDir()
		if err != nil {
			return nil, err
		}
		cfg.SkillsDir = dir
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("engine config validation failed: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	rtConfig := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.closeOnContextDone {
		rtConfig = rtConfig.WithCloseOnContextDone(true)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	registryOpts := append([]hostfuncs.RegistryOption{
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware()),
		hostfuncs.WithBundle(hostfuncs.AllBundles()),
	}, cfg.registryOptions...)
	registry, err := hostfuncs.NewRegistry(registryOpts...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to create capability registry: %w", err)
	}

	if err := infrawazero.RegisterWithRuntime(ctx, rt, registry); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to bind capabilities: %w", err)
	}

	cat, err := buildCapabilityCatalog(registry)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to build capability catalog: %w", err)
	}

	return &Engine{
		config:   cfg,
		logger:   logger,
		runtime:  rt,
		registry: registry,
		catalog:  cat,
		skills:   make(map[string]*compiledSkill),
	}, nil
}

// defaultSkillsDir resolves the per-user skills directory, ~/.skillhost/skills.
func defaultSkillsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".skillhost", "skills"), nil
}

// Close releases the runtime and all compiled skill code. The engine must
// not be used afterwards.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Capabilities returns descriptors for every import the engine exposes to
// guests, sorted by name.
func (e *Engine) Capabilities() []entities.CapabilityDescriptor {
	return e.catalog.List()
}

// CapabilitySchema returns the JSON schema documenting a capability's
// payload, when one is registered for that name.
func (e *Engine) CapabilitySchema(name string) (string, bool) {
	return e.catalog.Schema(name)
}
