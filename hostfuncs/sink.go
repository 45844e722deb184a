package hostfuncs

import (
	"bytes"
)

// DefaultMaxOutputSize is a reasonable cap for output collected from a
// single invocation (10MB). Sinks are unbounded unless a limit is chosen;
// callers that want a bound without picking a number can pass this to
// NewOutputSink. It keeps a looping skill from growing host memory
// without bound.
const DefaultMaxOutputSize = 10 * 1024 * 1024

// OutputSink accumulates everything a skill emits through its
// capabilities during one invocation. Capabilities append in call order;
// the host drains the sink exactly once after the entry point returns.
// It implements io.Writer. A sink belongs to a single invocation and is
// never shared, so it carries no lock.
type OutputSink struct {
	buffer    bytes.Buffer
	limit     int
	Truncated bool
}

// NewOutputSink creates an OutputSink that keeps at most limit bytes.
// A non-positive limit means unbounded.
func NewOutputSink(limit int) *OutputSink {
	return &OutputSink{
		limit: limit,
	}
}

// Write implements io.Writer.
// It appends data up to the limit and then silently discards the rest.
// The Truncated field is set to true if any data was discarded.
func (s *OutputSink) Write(p []byte) (n int, err error) {
	if s.limit <= 0 {
		return s.buffer.Write(p)
	}

	if s.buffer.Len() >= s.limit {
		s.Truncated = true
		return len(p), nil // Pretend we wrote it all to satisfy io.Writer contract
	}

	remaining := s.limit - s.buffer.Len()
	if len(p) > remaining {
		s.Truncated = true
		n, err = s.buffer.Write(p[:remaining])
		if err != nil {
			return n, err
		}
		return len(p), nil // Return len(p) to avoid short write error
	}

	return s.buffer.Write(p)
}

// WriteString appends text, honoring the same limit as Write.
func (s *OutputSink) WriteString(text string) {
	_, _ = s.Write([]byte(text))
}

// String returns the accumulated output as a string.
func (s *OutputSink) String() string {
	return s.buffer.String()
}

// Bytes returns the accumulated output as a byte slice.
func (s *OutputSink) Bytes() []byte {
	return s.buffer.Bytes()
}

// Len returns the current length of the accumulated output.
func (s *OutputSink) Len() int {
	return s.buffer.Len()
}

// Reset discards the accumulated output and clears the Truncated flag.
func (s *OutputSink) Reset() {
	s.buffer.Reset()
	s.Truncated = false
}
