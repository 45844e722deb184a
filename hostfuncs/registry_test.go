package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Empty(t, reg.Names())
}

func TestNewRegistry_WithCapability(t *testing.T) {
	noop := func(ctx context.Context, payload []byte) {}

	reg, err := NewRegistry(
		WithCapability("beep", noop),
	)
	require.NoError(t, err)

	assert.True(t, reg.Has("beep"))
	assert.False(t, reg.Has("nonexistent"))
	assert.Equal(t, []string{"beep"}, reg.Names())
}

func TestNewRegistry_DuplicateCapability(t *testing.T) {
	noop := func(ctx context.Context, payload []byte) {}

	_, err := NewRegistry(
		WithCapability("test", noop),
		WithCapability("test", noop), // duplicate
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate capability name")
}

func TestNewRegistry_EmptyName(t *testing.T) {
	noop := func(ctx context.Context, payload []byte) {}

	_, err := NewRegistry(
		WithCapability("", noop),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestCapabilityRegistry_Invoke(t *testing.T) {
	var got []byte
	record := func(ctx context.Context, payload []byte) {
		got = append([]byte(nil), payload...)
	}

	reg, err := NewRegistry(
		WithCapability("record", record),
	)
	require.NoError(t, err)

	t.Run("found capability", func(t *testing.T) {
		got = nil
		reg.Invoke(context.Background(), "record", []byte("hello"))
		assert.Equal(t, "hello", string(got))
	})

	t.Run("unknown capability is a no-op", func(t *testing.T) {
		got = nil
		reg.Invoke(context.Background(), "unknown", []byte("hello"))
		assert.Nil(t, got)
	})
}

func TestCapabilityRegistry_Names_Sorted(t *testing.T) {
	noop := func(ctx context.Context, payload []byte) {}

	reg, err := NewRegistry(
		WithCapability("zebra", noop),
		WithCapability("alpha", noop),
		WithCapability("middle", noop),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "middle", "zebra"}, reg.Names())
}

func TestCapabilityRegistry_Invoke_SetsCapabilityName(t *testing.T) {
	var capturedName string
	capability := func(ctx context.Context, payload []byte) {
		capturedName = CapabilityNameFrom(ctx)
	}

	reg, err := NewRegistry(
		WithCapability("test_func", capability),
	)
	require.NoError(t, err)

	reg.Invoke(context.Background(), "test_func", nil)
	assert.Equal(t, "test_func", capturedName)
}

func TestWithTextCapability_DecodesLossily(t *testing.T) {
	var capturedText string
	reg, err := NewRegistry(
		WithTextCapability("echo", func(ctx context.Context, text string) {
			capturedText = text
		}),
	)
	require.NoError(t, err)

	reg.Invoke(context.Background(), "echo", []byte{'h', 'i', 0xFF})
	assert.Equal(t, "hi�", capturedText)
}

func TestWithMiddleware(t *testing.T) {
	var callOrder []string

	middleware1 := func(next Capability) Capability {
		return func(ctx context.Context, payload []byte) {
			callOrder = append(callOrder, "mw1-before")
			next(ctx, payload)
			callOrder = append(callOrder, "mw1-after")
		}
	}

	middleware2 := func(next Capability) Capability {
		return func(ctx context.Context, payload []byte) {
			callOrder = append(callOrder, "mw2-before")
			next(ctx, payload)
			callOrder = append(callOrder, "mw2-after")
		}
	}

	capability := func(ctx context.Context, payload []byte) {
		callOrder = append(callOrder, "capability")
	}

	reg, err := NewRegistry(
		WithMiddleware(middleware1, middleware2),
		WithCapability("test", capability),
	)
	require.NoError(t, err)

	reg.Invoke(context.Background(), "test", nil)

	// FIFO order: mw1 wraps mw2 wraps the capability
	expected := []string{"mw1-before", "mw2-before", "capability", "mw2-after", "mw1-after"}
	assert.Equal(t, expected, callOrder)
}
