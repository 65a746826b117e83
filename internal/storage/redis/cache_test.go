package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/scenyx-live/internal/storage"
)

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewCache(ctx, Options{Address: addr, OpTimeout: 2 * time.Second, MaxConnectTime: 5 * time.Second})
	require.NoError(t, err)
	defer c.Close()

	key := "test:" + uuid.NewString()
	require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, key))
	ok, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	channel := "test:" + uuid.NewString()
	received := make(chan string, 1)
	sub, err := c.Subscribe(ctx, channel, func(_ string, payload []byte) { received <- string(payload) })
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, c.Publish(ctx, channel, []byte("hi")))
	select {
	case msg := <-received:
		assert.Equal(t, "hi", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
