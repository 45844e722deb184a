package hostfuncs

// GuestMemory is the window onto a guest module's linear memory that
// capability plumbing may touch. wazero's api.Memory satisfies it.
// Both operations are bounds-checked through the ok result and never
// trap; a false result is the caller's silent no-op path.
type GuestMemory interface {
	// Read returns a view of memory at [offset, offset+byteCount).
	// The view aliases guest memory and is only valid for the duration
	// of the current host call.
	Read(offset, byteCount uint32) ([]byte, bool)

	// Write copies v into memory at offset.
	Write(offset uint32, v []byte) bool
}

// ReadGuestBytes copies [ptr, ptr+length) out of guest memory.
// The returned slice is an independent copy, safe to retain after the
// host call returns. An out-of-range request returns (nil, false).
func ReadGuestBytes(mem GuestMemory, ptr, length uint32) ([]byte, bool) {
	view, ok := mem.Read(ptr, length)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, true
}
