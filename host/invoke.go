package host

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"

	"github.com/skillhost-dev/skillhost/domain/errors"
	"github.com/skillhost-dev/skillhost/hostfuncs"
)

// CallSkill invokes a loaded skill by name and returns the text its
// capability calls accumulated. A nil input means absent; input_len
// reports 0 in-guest. Each call runs in a fresh anonymous instance, so
// nothing carries over between calls.
func (e *Engine) CallSkill(ctx context.Context, name string, input []byte) (string, error) {
	skill, ok := e.lookupSkill(name)
	if !ok {
		return "", &errors.NotFoundError{Skill: name}
	}

	id := uuid.NewString()
	inv := &hostfuncs.Invocation{
		ID:     id,
		Skill:  name,
		Input:  input,
		Sink:   hostfuncs.NewOutputSink(e.config.MaxOutputBytes),
		Logger: e.logger.With("skill", name, "invocation", id),
	}
	ctx = hostfuncs.WithInvocation(ctx, inv)

	mod, err := e.runtime.InstantiateModule(ctx, skill.module, e.moduleConfig())
	if err != nil {
		return "", &errors.InstantiationError{Skill: name, Err: err}
	}
	defer func() { _ = mod.Close(ctx) }()

	entry, entryName := mod.ExportedFunction("run"), "run"
	if entry == nil {
		entry, entryName = mod.ExportedFunction("_start"), "_start"
	}
	if entry == nil {
		e.logger.DebugContext(ctx, "skill exports no entry point", "skill", name)
		return "", nil
	}
	if def := entry.Definition(); len(def.ParamTypes()) > 0 || len(def.ResultTypes()) > 0 {
		return "", &errors.TrapError{
			Skill: name,
			Err:   fmt.Errorf("entry point %q signature is not () -> ()", entryName),
		}
	}

	if _, err := entry.Call(ctx); err != nil {
		// proc_exit(0) is normal completion, not a trap.
		if exitErr, ok := err.(*sys.ExitError); !ok || exitErr.ExitCode() != 0 {
			return "", &errors.TrapError{Skill: name, Err: err}
		}
	}

	if inv.Sink.Truncated {
		e.logger.WarnContext(ctx, "skill output truncated",
			"skill", name, "limit_bytes", e.config.MaxOutputBytes)
	}
	e.logger.DebugContext(ctx, "skill invocation complete",
		"skill", name, "entry", entryName, "output_bytes", inv.Sink.Len())
	return inv.Sink.String(), nil
}

// moduleConfig builds the per-invocation wazero module config: anonymous,
// so concurrent instances of one compiled module never collide; start
// functions disabled, because entry-point policy lives in CallSkill and
// _start must not auto-run; stdio per engine options.
func (e *Engine) moduleConfig() wazero.ModuleConfig {
	stdout := io.Writer(os.Stdout)
	if e.config.stdout != nil {
		stdout = e.config.stdout
	}
	stderr := io.Writer(os.Stderr)
	if e.config.stderr != nil {
		stderr = e.config.stderr
	}
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions().
		WithStdout(stdout).
		WithStderr(stderr)
	if e.config.stdin != nil {
		cfg = cfg.WithStdin(e.config.stdin)
	}
	return cfg
}
