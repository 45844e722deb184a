// Package wat translates WebAssembly Text source into binary modules.
//
// The engine's runtime accepts only binary modules, so textual skills
// are translated here first; both forms then share one compile path.
// The package implements the subset of the text format that skill
// modules use:
//
//   - module fields: (import "m" "n" (func ...)), (func ...), (memory ...),
//     (export ...), (data (i32.const n) "..."), with inline exports on
//     functions and memories
//   - value types i32, i64, f32, f64 for params, results, and locals
//   - flat and folded plain instructions; block, loop, if/else/end, br,
//     and br_if in flat form with named or numeric labels
//   - i32 arithmetic, comparison, and memory instructions, i32/i64
//     constants, call, drop, select, local access, memory.size/grow
//
// Tables, globals, element segments, typed blocks, and floating-point
// constants are outside the subset and fail with a positioned
// diagnostic rather than silently miscompiling.
//
// # Basic Usage
//
//	binary, err := wat.Compile(`(module (func (export "run")))`)
//	if err != nil {
//		var serr *wat.SyntaxError
//		if errors.As(err, &serr) {
//			log.Fatalf("parse failed at %d:%d: %s", serr.Line, serr.Col, serr.Msg)
//		}
//	}
package wat
