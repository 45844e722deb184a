package hostfuncs

import (
	"context"
)

// PerformWrite appends text to the calling invocation's output sink.
// This is the body of the guest-visible "write" capability: whatever the
// skill emits here is what CallSkill ultimately returns. Without an
// invocation on the context the text is dropped.
func PerformWrite(ctx context.Context, text string) {
	inv, ok := InvocationFromContext(ctx)
	if !ok {
		return
	}
	inv.Sink.WriteString(text)
}
