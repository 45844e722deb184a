package wat

import "fmt"

// SyntaxError reports a translation failure with its source position.
// Line and Col are 1-based.
type SyntaxError struct {
	Msg  string
	Line int
	Col  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Compile translates WebAssembly Text source into a binary module.
// The result is a complete module image (magic, version, sections)
// ready for a runtime's compile step; full type checking is left to
// the runtime's validator.
func Compile(source string) ([]byte, error) {
	toks, err := lex(source)
	if err != nil {
		return nil, err
	}

	mod, err := parse(toks)
	if err != nil {
		return nil, err
	}

	return mod.encode()
}
