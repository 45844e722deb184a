package host

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillhost-dev/skillhost/domain/entities"
	"github.com/skillhost-dev/skillhost/domain/errors"
)

func TestLoadSkillsCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "skills")
	engine, err := NewEngine(context.Background(), WithSkillsDir(dir))
	require.NoError(t, err)
	defer func() { _ = engine.Close(context.Background()) }()

	require.NoError(t, engine.LoadSkills(context.Background()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Empty(t, engine.Skills())
}

func TestLoadSkillsEmptyDirectory(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.LoadSkills(context.Background()))

	assert.Empty(t, engine.Skills())
}

func TestLoadSkillsIgnoresUnrecognizedFiles(t *testing.T) {
	engine, dir := newTestEngine(t)
	writeSkill(t, dir, "notes.txt", "not a module")
	writeSkill(t, dir, "README.md", "# skills")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	require.NoError(t, engine.LoadSkills(context.Background()))
	assert.Empty(t, engine.Skills())
}

func TestLoadSkillsBothForms(t *testing.T) {
	engine, dir := newTestEngine(t)
	writeSkill(t, dir, "textual.wat", helloWAT)
	writeSkillBytes(t, dir, "binary.wasm", compileWAT(t, helloWAT))

	require.NoError(t, engine.LoadSkills(context.Background()))

	skills := engine.Skills()
	require.Len(t, skills, 2)
	assert.Equal(t, "binary", skills[0].Name)
	assert.Equal(t, entities.FormatBinary, skills[0].Format)
	assert.Equal(t, "textual", skills[1].Name)
	assert.Equal(t, entities.FormatText, skills[1].Format)

	// The two source forms of one module behave identically.
	fromBinary, err := engine.CallSkill(context.Background(), "binary", nil)
	require.NoError(t, err)
	fromText, err := engine.CallSkill(context.Background(), "textual", nil)
	require.NoError(t, err)
	assert.Equal(t, fromBinary, fromText)
	assert.Equal(t, "Hello Wasm!", fromText)
}

func TestLoadSkillsFailFastKeepsPreviousRegistry(t *testing.T) {
	engine, dir := newTestEngine(t)
	writeSkill(t, dir, "hello.wat", helloWAT)
	require.NoError(t, engine.LoadSkills(context.Background()))

	writeSkill(t, dir, "broken.wat", "(module")
	err := engine.LoadSkills(context.Background())

	var compileErr *errors.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "broken", compileErr.Skill)
	assert.Equal(t, filepath.Join(dir, "broken.wat"), compileErr.Path)

	// The failed pass must not disturb the previous mapping.
	result, err := engine.CallSkill(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello Wasm!", result)
}

func TestLoadSkillsRejectsMalformedBinary(t *testing.T) {
	engine, dir := newTestEngine(t)
	writeSkillBytes(t, dir, "junk.wasm", []byte("not wasm at all"))

	err := engine.LoadSkills(context.Background())
	var compileErr *errors.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "junk", compileErr.Skill)
}

func TestLoadSkillsDeterministic(t *testing.T) {
	engine, dir := newTestEngine(t)
	writeSkill(t, dir, "alpha.wat", helloWAT)
	writeSkill(t, dir, "beta.wat", writerWAT("beta output"))

	require.NoError(t, engine.LoadSkills(context.Background()))
	first := engine.Skills()

	require.NoError(t, engine.LoadSkills(context.Background()))
	second := engine.Skills()

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}

	result, err := engine.CallSkill(context.Background(), "beta", nil)
	require.NoError(t, err)
	assert.Equal(t, "beta output", result)
}

func TestLoadSkillsStemCollision(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	engine, dir := newTestEngine(t, WithLogger(logger))
	writeSkillBytes(t, dir, "x.wasm", compileWAT(t, writerWAT("from binary")))
	writeSkill(t, dir, "x.wat", writerWAT("from wat"))

	require.NoError(t, engine.LoadSkills(context.Background()))

	skills := engine.Skills()
	require.Len(t, skills, 1)
	assert.Equal(t, "x", skills[0].Name)
	assert.Equal(t, entities.FormatText, skills[0].Format)

	// Sorted filename order makes the textual form win deterministically.
	result, err := engine.CallSkill(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "from wat", result)

	assert.Contains(t, logBuf.String(), "collision")
	assert.Contains(t, logBuf.String(), "x.wasm")
	assert.Contains(t, logBuf.String(), "x.wat")
}

func TestLoadSkillsMemoryLimitEnforced(t *testing.T) {
	engine, dir := newTestEngine(t, WithMemoryLimitPages(1))
	writeSkill(t, dir, "big.wat", twoPageWAT)

	err := engine.LoadSkills(context.Background())
	var compileErr *errors.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "big", compileErr.Skill)
}

func TestDescribeSkill(t *testing.T) {
	engine, dir := newTestEngine(t)
	writeSkill(t, dir, "hello.wat", helloWAT)
	require.NoError(t, engine.LoadSkills(context.Background()))

	info, err := engine.DescribeSkill("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", info.Name)
	assert.Equal(t, filepath.Join(dir, "hello.wat"), info.Path)
	assert.Equal(t, entities.FormatText, info.Format)
	assert.Equal(t, int64(len(helloWAT)), info.Size)
	assert.Equal(t, []string{"run"}, info.Exports)
	assert.Equal(t, "run", info.EntryPoint)
	assert.True(t, info.Invocable())
}

func TestDescribeSkillNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)
	require.NoError(t, engine.LoadSkills(context.Background()))

	_, err := engine.DescribeSkill("ghost")
	var notFound *errors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Skill)
}

func TestDescribeSkillWithoutEntryPoint(t *testing.T) {
	engine, dir := newTestEngine(t)
	writeSkill(t, dir, "lib.wat", noEntryWAT)
	require.NoError(t, engine.LoadSkills(context.Background()))

	info, err := engine.DescribeSkill("lib")
	require.NoError(t, err)
	assert.Equal(t, []string{"helper"}, info.Exports)
	assert.Empty(t, info.EntryPoint)
	assert.False(t, info.Invocable())
}

func TestClassifySkillFile(t *testing.T) {
	tests := []struct {
		filename   string
		wantName   string
		wantFormat entities.SkillFormat
		wantOK     bool
	}{
		{"hello.wasm", "hello", entities.FormatBinary, true},
		{"hello.wat", "hello", entities.FormatText, true},
		{"archive.tar", "", 0, false},
		{"noext", "", 0, false},
		{".wasm", "", 0, false},
		{"a.b.wat", "a.b", entities.FormatText, true},
	}

	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			name, format, ok := classifySkillFile(tc.filename)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantName, name)
				assert.Equal(t, tc.wantFormat, format)
			}
		})
	}
}
