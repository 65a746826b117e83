// Package valkey implements storage.Cache on a Valkey server.
package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/valkey-io/valkey-go"

	"github.com/Vasu1712/scenyx-live/internal/storage"
)

// Options configures the connection.
type Options struct {
	Address   string
	Password  string
	DB        int
	OpTimeout time.Duration
	// MaxConnectTime bounds the retries of the initial connection.
	MaxConnectTime time.Duration
}

type Cache struct {
	client    valkey.Client
	opTimeout time.Duration
}

// NewCache connects to Valkey, retrying with exponential backoff until the server
// answers PING or MaxConnectTime elapses.
func NewCache(ctx context.Context, opts Options) (*Cache, error) {
	var client valkey.Client

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.MaxConnectTime
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}

	connect := func() error {
		c, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{opts.Address},
			Password:    opts.Password,
			SelectDB:    opts.DB,
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "NewCache",
				"address":  opts.Address,
				"error":    err.Error(),
			}).Warn("Valkey connection failed, retrying")
			return err
		}
		if err := c.Do(ctx, c.B().Ping().Build()).Error(); err != nil {
			c.Close()
			return err
		}
		client = c
		return nil
	}

	if err := backoff.Retry(connect, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrCacheUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewCache",
		"address":  opts.Address,
	}).Info("Connected to Valkey")

	return &Cache{client: client, opTimeout: opts.OpTimeout}, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	set := c.client.B().Set().Key(key).Value(valkey.BinaryString(value))
	var err error
	if ttl > 0 {
		err = c.client.Do(ctx, set.PxMilliseconds(ttl.Milliseconds()).Build()).Error()
	} else {
		err = c.client.Do(ctx, set.Build()).Error()
	}
	return wrap(err)
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, storage.ErrNotFound
		}
		return nil, wrap(err)
	}
	return data, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return wrap(c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error())
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := c.client.Do(ctx, c.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, wrap(err)
	}
	return n > 0, nil
}

func (c *Cache) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cmd := c.client.B().Publish().Channel(channel).Message(valkey.BinaryString(payload)).Build()
	return wrap(c.client.Do(ctx, cmd).Error())
}

// Subscribe starts a receiver goroutine for channel. The subscription ends when
// Close is called or ctx is cancelled.
func (c *Cache) Subscribe(ctx context.Context, channel string, handler storage.MessageHandler) (storage.Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := c.client.Receive(subCtx, c.client.B().Subscribe().Channel(channel).Build(), func(msg valkey.PubSubMessage) {
			handler(msg.Channel, []byte(msg.Message))
		})
		if err != nil && subCtx.Err() == nil {
			logrus.WithFields(logrus.Fields{
				"function": "Subscribe",
				"channel":  channel,
				"error":    err.Error(),
			}).Error("Valkey subscription ended")
		}
	}()

	return &subscription{cancel: cancel, done: done}, nil
}

func (c *Cache) Close() error {
	c.client.Close()
	return nil
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
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}
