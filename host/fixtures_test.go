package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillhost-dev/skillhost/wat"
)

// Guest fixtures are WAT literals compiled through the in-repo translator.

const helloWAT = `(module
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) "Hello Wasm!")
  (func (export "run")
    i32.const 0
    i32.const 11
    call $write))
`

const echoWAT = `(module
  (import "host" "input_len" (func $input_len (result i32)))
  (import "host" "read_input" (func $read_input (param i32 i32) (result i32)))
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (func (export "run") (local $n i32)
    i32.const 0
    call $input_len
    call $read_input
    local.set $n
    i32.const 0
    local.get $n
    call $write))
`

const trapWAT = `(module
  (func (export "run")
    unreachable))
`

const trapAfterWriteWAT = `(module
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) "partial")
  (func (export "run")
    i32.const 0
    i32.const 7
    call $write
    unreachable))
`

const noEntryWAT = `(module
  (memory (export "memory") 1)
  (func (export "helper")
    nop))
`

const badSignatureWAT = `(module
  (func (export "run") (param $x i32)
    nop))
`

const startOnlyWAT = `(module
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) "started")
  (func (export "_start")
    i32.const 0
    i32.const 7
    call $write))
`

const bothEntriesWAT = `(module
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) "from runfrom start")
  (func (export "run")
    i32.const 0
    i32.const 8
    call $write)
  (func (export "_start")
    i32.const 8
    i32.const 10
    call $write))
`

const outOfBoundsWAT = `(module
  (import "host" "write" (func $write (param i32 i32)))
  (import "host" "readdir" (func $readdir (param i32 i32)))
  (memory (export "memory") 1)
  (func (export "run")
    i32.const 1000000
    i32.const 50
    call $write
    i32.const 2000000
    i32.const 10
    call $readdir))
`

const exitZeroWAT = `(module
  (import "wasi_snapshot_preview1" "proc_exit" (func $exit (param i32)))
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) "done")
  (func (export "run")
    i32.const 0
    i32.const 4
    call $write
    i32.const 0
    call $exit
    unreachable))
`

const exitThreeWAT = `(module
  (import "wasi_snapshot_preview1" "proc_exit" (func $exit (param i32)))
  (func (export "run")
    i32.const 3
    call $exit
    unreachable))
`

const spinWAT = `(module
  (func (export "run")
    loop
      br 0
    end))
`

const stdoutWAT = `(module
  (import "wasi_snapshot_preview1" "fd_write" (func $fd_write (param i32 i32 i32 i32) (result i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) "\08\00\00\00\03\00\00\00")
  (data (i32.const 8) "hi\n")
  (func (export "run")
    i32.const 1
    i32.const 0
    i32.const 1
    i32.const 16
    call $fd_write
    drop))
`

const badImportWAT = `(module
  (import "host" "no_such_capability" (func $missing (param i32 i32)))
  (func (export "run")
    i32.const 0
    i32.const 0
    call $missing))
`

const twoPageWAT = `(module
  (memory (export "memory") 2)
  (func (export "run")
    nop))
`

// writerWAT builds a guest that writes the given text once.
func writerWAT(text string) string {
	return fmt.Sprintf(`(module
  (import "host" "write" (func $write (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) %q)
  (func (export "run")
    i32.const 0
    i32.const %d
    call $write))
`, text, len(text))
}

// callerWAT builds a guest that invokes one capability with the given text
// as its payload.
func callerWAT(capability, text string) string {
	return fmt.Sprintf(`(module
  (import "host" %q (func $cap (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) %q)
  (func (export "run")
    i32.const 0
    i32.const %d
    call $cap))
`, capability, text, len(text))
}

// listerWAT builds a guest that lists the given host directory.
func listerWAT(path string) string {
	return fmt.Sprintf(`(module
  (import "host" "readdir" (func $readdir (param i32 i32)))
  (memory (export "memory") 1)
  (data (i32.const 0) %q)
  (func (export "run")
    i32.const 0
    i32.const %d
    call $readdir))
`, path, len(path))
}

// newTestEngine builds an engine rooted in a fresh temp skills directory.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	engine, err := NewEngine(context.Background(), append([]Option{WithSkillsDir(dir)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close(context.Background()) })
	return engine, dir
}

func writeSkill(t *testing.T, dir, filename, source string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(source), 0o644))
}

func writeSkillBytes(t *testing.T, dir, filename string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0o644))
}

// compileWAT returns the binary form of a textual fixture.
func compileWAT(t *testing.T, source string) []byte {
	t.Helper()
	binary, err := wat.Compile(source)
	require.NoError(t, err)
	return binary
}
