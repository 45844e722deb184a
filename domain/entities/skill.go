package entities

// SkillFormat identifies the source form a skill was compiled from.
type SkillFormat int

const (
	FormatBinary SkillFormat = iota // .wasm, binary module
	FormatText                      // .wat, textual module
)

// String returns the conventional file extension for the format.
func (f SkillFormat) String() string {
	switch f {
	case FormatBinary:
		return "wasm"
	case FormatText:
		return "wat"
	default:
		return "unknown"
	}
}

// SkillInfo describes one compiled skill held by the registry.
type SkillInfo struct {
	// Name is the registry key, derived from the source file's stem.
	Name string `json:"name"`

	// Path is the source file the skill was compiled from.
	Path string `json:"path"`

	// Format records which source form the file carried.
	Format SkillFormat `json:"format"`

	// Size is the source file size in bytes.
	Size int64 `json:"size"`

	// Exports lists the module's exported function names, sorted.
	Exports []string `json:"exports,omitempty"`

	// EntryPoint is the export the invocation host will call ("run",
	// falling back to "_start"), or empty when the module has neither.
	EntryPoint string `json:"entry_point,omitempty"`
}

// Invocable reports whether calling the skill will execute guest code.
// A skill without an entry point is still valid; calling it yields an
// empty result.
func (s SkillInfo) Invocable() bool {
	return s.EntryPoint != ""
}
