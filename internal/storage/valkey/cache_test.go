package valkey

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

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		t.Skip("VALKEY_ADDR not set")
	}
	c, err := NewCache(context.Background(), Options{
		Address:        addr,
		OpTimeout:      2 * time.Second,
		MaxConnectTime: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestValkeyCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	require.NoError(t, c.Set(ctx, key, []byte("value"), time.Minute))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	ok, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, key))
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestValkeyCacheExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	require.NoError(t, c.Set(ctx, key, []byte("v"), 100*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, key)
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestValkeyCachePubSub(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	channel := "test:" + uuid.NewString()

	received := make(chan string, 1)
	sub, err := c.Subscribe(ctx, channel, func(_ string, payload []byte) {
		received <- string(payload)
	})
	require.NoError(t, err)
	defer sub.Close()

	assert.Eventually(t, func() bool {
		require.NoError(t, c.Publish(ctx, channel, []byte("hello")))
		select {
		case msg := <-received:
			return msg == "hello"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
