package host

import (
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/skillhost-dev/skillhost/hostfuncs"
)

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = validator.New()

// engineConfig holds the resolved configuration for an Engine. The tagged
// fields are checked by the validator inside NewEngine; the unexported
// fields are plumbing it does not inspect.
type engineConfig struct {
	SkillsDir        string        `validate:"required"`
	MaxOutputBytes   int           `validate:"min=0"`
	MemoryLimitPages uint32        `validate:"max=65536"`
	WatchDebounce    time.Duration `validate:"min=0"`

	logger             *slog.Logger
	stdout             io.Writer
	stderr             io.Writer
	stdin              io.Reader
	closeOnContextDone bool
	registryOptions    []hostfuncs.RegistryOption
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		WatchDebounce: 500 * time.Millisecond,
	}
}

// Option defines a functional option for configuring the Engine.
type Option func(*engineConfig)

// WithSkillsDir sets the directory scanned for skill modules.
// Default is ~/.skillhost/skills, created on demand.
func WithSkillsDir(dir string) Option {
	return func(c *engineConfig) {
		c.SkillsDir = dir
	}
}

// WithLogger sets the logger used by the engine and its capabilities.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithMaxOutputBytes caps the per-invocation output accumulator. Output
// beyond the cap is dropped without failing the guest; the truncation is
// logged. Zero (the default) means unbounded.
func WithMaxOutputBytes(n int) Option {
	return func(c *engineConfig) {
		c.MaxOutputBytes = n
	}
}

// WithMemoryLimitPages caps guest linear memory, in 64 KiB pages.
// Zero (the default) leaves the runtime's 4 GiB ceiling in place.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *engineConfig) {
		c.MemoryLimitPages = pages
	}
}

// WithCloseOnContextDone makes in-flight guest code observe context
// cancellation and deadlines. Off by default: a guest that loops forever
// hangs its calling goroutine.
func WithCloseOnContextDone(enabled bool) Option {
	return func(c *engineConfig) {
		c.closeOnContextDone = enabled
	}
}

// WithGuestStdout redirects guest WASI stdout. Default is the host's stdout.
func WithGuestStdout(w io.Writer) Option {
	return func(c *engineConfig) {
		c.stdout = w
	}
}

// WithGuestStderr redirects guest WASI stderr. Default is the host's stderr.
func WithGuestStderr(w io.Writer) Option {
	return func(c *engineConfig) {
		c.stderr = w
	}
}

// WithGuestStdin sets guest WASI stdin. Default reads EOF immediately.
func WithGuestStdin(r io.Reader) Option {
	return func(c *engineConfig) {
		c.stdin = r
	}
}

// WithCapabilityOptions appends capability-registry options, letting
// embedders register custom capabilities and middleware alongside the
// built-in set.
func WithCapabilityOptions(opts ...hostfuncs.RegistryOption) Option {
	return func(c *engineConfig) {
		c.registryOptions = append(c.registryOptions, opts...)
	}
}

// WithWatchDebounce sets the quiet period WatchSkills waits after the last
// filesystem event before reloading. Default is 500ms.
func WithWatchDebounce(d time.Duration) Option {
	return func(c *engineConfig) {
		c.WatchDebounce = d
	}
}
