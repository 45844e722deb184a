package hostfuncs

import (
	"context"
	"encoding/json"
	"os"
)

// PerformReaddir lists the immediate entries of the named host directory
// and appends them to the calling invocation's sink as a JSON array of
// entry names. This is the body of the guest-visible "readdir"
// capability. The listing is non-recursive and sorted by filename.
//
// Failures leave the sink untouched: a skill probing an unreadable or
// nonexistent path simply reads nothing back. The host logs the cause at
// debug level.
func PerformReaddir(ctx context.Context, path string) {
	inv, ok := InvocationFromContext(ctx)
	if !ok {
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		inv.log(ctx, "readdir capability failed", "path", path, "error", err)
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	data, err := json.Marshal(names)
	if err != nil {
		inv.log(ctx, "readdir capability failed", "path", path, "error", err)
		return
	}
	_, _ = inv.Sink.Write(data)
}
