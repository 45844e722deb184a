package hostfuncs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadGuestBytes(t *testing.T) {
	mem := &fakeMemory{data: []byte("0123456789")}

	t.Run("copies the range", func(t *testing.T) {
		got, ok := ReadGuestBytes(mem, 2, 4)
		require.True(t, ok)
		assert.Equal(t, "2345", string(got))
	})

	t.Run("copy is independent of guest memory", func(t *testing.T) {
		got, ok := ReadGuestBytes(mem, 0, 3)
		require.True(t, ok)
		mem.data[0] = 'X'
		assert.Equal(t, "012", string(got))
		mem.data[0] = '0'
	})

	t.Run("out of range", func(t *testing.T) {
		_, ok := ReadGuestBytes(mem, 8, 4)
		assert.False(t, ok)
	})

	t.Run("zero length", func(t *testing.T) {
		got, ok := ReadGuestBytes(mem, 5, 0)
		require.True(t, ok)
		assert.Empty(t, got)
	})
}
