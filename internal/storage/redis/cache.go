// Package redis implements storage.Cache with go-redis, for deployments that run
// a Redis server instead of Valkey.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/storage"
)

type Options struct {
	Address        string
	Password       string
	DB             int
	OpTimeout      time.Duration
	MaxConnectTime time.Duration
}

type Cache struct {
	client    *goredis.Client
	opTimeout time.Duration
}

// NewCache creates the client and waits, with exponential backoff, for PING to succeed.
func NewCache(ctx context.Context, opts Options) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.MaxConnectTime
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}

	ping := func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "NewCache",
				"address":  opts.Address,
				"error":    err.Error(),
			}).Warn("Redis ping failed, retrying")
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", storage.ErrCacheUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewCache",
		"address":  opts.Address,
	}).Info("Connected to Redis")

	return &Cache{client: client, opTimeout: opts.OpTimeout}, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	// go-redis treats a zero expiration as "keep forever".
	return wrap(c.client.Set(ctx, key, value, ttl).Err())
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, wrap(err)
	}
	return data, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return wrap(c.client.Del(ctx, key).Err())
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, wrap(err)
	}
	return n > 0, nil
}

func (c *Cache) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return wrap(c.client.Publish(ctx, channel, payload).Err())
}

func (c *Cache) Subscribe(ctx context.Context, channel string, handler storage.MessageHandler) (storage.Subscription, error) {
	ps := c.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, wrap(err)
	}

	sub := &subscription{ps: ps, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				ps.Close()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				handler(msg.Channel, []byte(msg.Payload))
			}
		}
	}()
	return sub, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", storage.ErrCacheUnavailable, err)
}

type subscription struct {
	ps   *goredis.PubSub
	done chan struct{}
}

func (s *subscription) Close() error {
	err := s.ps.Close()
	<-s.done
	return err
}
