package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"

	"github.com/skillhost-dev/skillhost/domain/entities"
	"github.com/skillhost-dev/skillhost/domain/errors"
	"github.com/skillhost-dev/skillhost/wat"
)

// compiledSkill pairs a runtime-compiled module with its captured metadata.
type compiledSkill struct {
	module wazero.CompiledModule
	info   entities.SkillInfo
}

// LoadSkills scans the skills directory and rebuilds the registry in one
// pass. The new mapping replaces the old one atomically, and only when
// every recognized file compiled: one bad file aborts the pass and leaves
// the previous mapping untouched.
func (e *Engine) LoadSkills(ctx context.Context) error {
	dir := e.config.SkillsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create skills directory %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read skills directory %s: %w", dir, err)
	}

	next := make(map[string]*compiledSkill)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, format, ok := classifySkillFile(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		skill, err := e.compileSkill(ctx, name, path, format)
		if err != nil {
			return err
		}
		if prev, collides := next[name]; collides {
			// os.ReadDir sorts by filename, so the textual form wins a
			// binary/textual stem collision deterministically.
			e.logger.WarnContext(ctx, "skill name collision, later file wins",
				"skill", name, "loaded", path, "shadowed", prev.info.Path)
		}
		next[name] = skill
	}

	e.mu.Lock()
	e.skills = next
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "skills loaded", "dir", dir, "count", len(next))
	return nil
}

// compileSkill turns one source file into a runtime-bound compiled module.
// Textual sources are translated to the binary form first; both forms
// converge on the runtime's compile path.
func (e *Engine) compileSkill(ctx context.Context, name, path string, format entities.SkillFormat) (*compiledSkill, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.CompileError{Skill: name, Path: path, Err: err}
	}

	binary := source
	if format == entities.FormatText {
		binary, err = wat.Compile(string(source))
		if err != nil {
			return nil, &errors.CompileError{Skill: name, Path: path, Err: err}
		}
	}

	module, err := e.runtime.CompileModule(ctx, binary)
	if err != nil {
		return nil, &errors.CompileError{Skill: name, Path: path, Err: err}
	}

	return &compiledSkill{
		module: module,
		info:   skillInfo(name, path, format, int64(len(source)), module),
	}, nil
}

// skillInfo captures registry metadata from a compiled module's export
// definitions.
func skillInfo(name, path string, format entities.SkillFormat, size int64, module wazero.CompiledModule) entities.SkillInfo {
	exported := module.ExportedFunctions()
	exports := make([]string, 0, len(exported))
	for export := range exported {
		exports = append(exports, export)
	}
	sort.Strings(exports)

	entryPoint := ""
	if _, ok := exported["run"]; ok {
		entryPoint = "run"
	} else if _, ok := exported["_start"]; ok {
		entryPoint = "_start"
	}

	return entities.SkillInfo{
		Name:       name,
		Path:       path,
		Format:     format,
		Size:       size,
		Exports:    exports,
		EntryPoint: entryPoint,
	}
}

// classifySkillFile maps a directory entry name to a skill name and source
// format. Files with other extensions are ignored.
func classifySkillFile(filename string) (string, entities.SkillFormat, bool) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	if stem == "" {
		return "", 0, false
	}
	switch ext {
	case ".wasm":
		return stem, entities.FormatBinary, true
	case ".wat":
		return stem, entities.FormatText, true
	}
	return "", 0, false
}

func (e *Engine) lookupSkill(name string) (*compiledSkill, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	skill, ok := e.skills[name]
	return skill, ok
}

// Skills returns a snapshot of the registry's metadata, sorted by name.
func (e *Engine) Skills() []entities.SkillInfo {
	e.mu.RLock()
	infos := make([]entities.SkillInfo, 0, len(e.skills))
	for _, skill := range e.skills {
		infos = append(infos, skill.info)
	}
	e.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// DescribeSkill returns the metadata for one loaded skill.
func (e *Engine) DescribeSkill(name string) (entities.SkillInfo, error) {
	skill, ok := e.lookupSkill(name)
	if !ok {
		return entities.SkillInfo{}, &errors.NotFoundError{Skill: name}
	}
	return skill.info, nil
}
