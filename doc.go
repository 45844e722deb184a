// Package skillhost embeds a sandboxed WASM skill runner in Go programs.
//
// Skills are WebAssembly modules, binary (.wasm) or textual (.wat), kept
// in a directory on the host. The engine compiles them once, instantiates a
// fresh isolated instance per call, and hands each guest a narrow capability
// ABI in the "host" import namespace. Whatever a skill emits through the
// write capability becomes the invocation result.
//
// The entry point for embedders is the host package:
//
//	engine, err := host.NewEngine(ctx, host.WithSkillsDir("./skills"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close(ctx)
//
//	if err := engine.LoadSkills(ctx); err != nil {
//		log.Fatal(err)
//	}
//	result, err := engine.CallSkill(ctx, "greet", []byte("world"))
//
// Subpackages:
//
//   - host: the engine facade (loading, invocation, watching, catalog)
//   - hostfuncs: capability implementations and the registry embedders
//     extend with their own host functions
//   - wat: the textual-form translator used for .wat skills
//   - domain/entities, domain/errors: shared types and error taxonomy
//
// See examples/hostdemo for a complete embedding.
package skillhost
