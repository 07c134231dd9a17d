package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	ctx := t.Context()

	n, err := c.AcquireMemory(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	_, err = c.AcquireMemory(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// 20 more does not fit; the wait ends with the context.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.AcquireMemory(short, 20)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	_, err = c.AcquireMemory(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_MemoryClamped(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	n, err := c.AcquireMemory(t.Context(), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)

	c.ReleaseMemory(n)
	assert.Zero(t, c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	n, err := c.AcquireMemory(t.Context(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	// The first burst is free; the next 500 bytes take about half a second.
	start := time.Now()
	require.NoError(t, c.AcquireIO(t.Context(), 1500))
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 5000))
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	n, err := c.AcquireMemory(t.Context(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	require.NoError(t, c.AcquireIO(t.Context(), 1<<20))
}
