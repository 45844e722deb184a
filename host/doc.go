// Package host provides the engine that executes sandboxed WASM skills.
//
// An Engine compiles skill modules (.wasm binary or .wat textual form)
// from a directory into an in-memory registry and invokes them on demand.
// Each invocation runs in a fresh, isolated instance; guests talk back to
// the host only through the capability imports in the "host" namespace,
// and everything they emit through those imports is returned as the call
// result.
//
// # Basic Usage
//
//	engine, err := host.NewEngine(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close(ctx)
//
//	if err := engine.LoadSkills(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := engine.CallSkill(ctx, "greet", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result)
package host
