package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/storage"
)

const subscriberBuffer = 64

// Cache is an in-process storage.Cache. Expired entries are treated as absent on
// read and removed by a periodic sweep.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time

	subMu  sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

type entry struct {
	value    []byte
	expireAt time.Time // zero => no TTL
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithSweepInterval sets how often expired entries are reaped. Zero disables the sweep.
func WithSweepInterval(d time.Duration) CacheOption {
	return func(c *Cache) { c.sweepInterval = d }
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:       make(map[string]entry),
		now:           time.Now,
		subs:          make(map[string]map[*subscriber]struct{}),
		sweepInterval: time.Minute,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sweepInterval > 0 {
		c.wg.Add(1)
		go c.janitor()
	}
	return c
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := c.check(ctx); err != nil {
		return false, err
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && !e.expired(c.now()), nil
}

// Publish hands payload to every current subscriber of channel. A subscriber whose
// buffer is full misses the message.
func (c *Cache) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	msg := append([]byte(nil), payload...)

	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for sub := range c.subs[channel] {
		select {
		case sub.ch <- msg:
		default:
			logrus.WithFields(logrus.Fields{
				"function": "Publish",
				"channel":  channel,
			}).Warn("Subscriber buffer full, message dropped")
		}
	}
	return nil
}

// Subscribe registers handler for channel. Messages are delivered on a dedicated
// goroutine in publish order until the subscription or ctx is closed.
func (c *Cache) Subscribe(ctx context.Context, channel string, handler storage.MessageHandler) (storage.Subscription, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	sub := &subscriber{
		cache:   c,
		channel: channel,
		ch:      make(chan []byte, subscriberBuffer),
		done:    make(chan struct{}),
	}

	c.subMu.Lock()
	if c.closed {
		c.subMu.Unlock()
		return nil, storage.ErrCacheUnavailable
	}
	if c.subs[channel] == nil {
		c.subs[channel] = make(map[*subscriber]struct{})
	}
	c.subs[channel][sub] = struct{}{}
	c.subMu.Unlock()

	go sub.run(ctx, handler)
	return sub, nil
}

// Close stops the sweep and ends every subscription.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)

		c.subMu.Lock()
		c.closed = true
		subs := c.subs
		c.subs = make(map[string]map[*subscriber]struct{})
		c.subMu.Unlock()

		for _, set := range subs {
			for sub := range set {
				sub.closeOnce.Do(func() { close(sub.done) })
			}
		}
	})
	c.wg.Wait()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

func (c *Cache) janitor() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				logrus.WithFields(logrus.Fields{
					"function": "janitor",
					"removed":  n,
				}).Debug("Swept expired cache entries")
			}
		}
	}
}

func (c *Cache) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.stop:
		return storage.ErrCacheUnavailable
	default:
		return nil
	}
}

func (c *Cache) unsubscribe(sub *subscriber) {
	c.subMu.Lock()
	if set, ok := c.subs[sub.channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(c.subs, sub.channel)
		}
	}
	c.subMu.Unlock()
}

type subscriber struct {
	cache     *Cache
	channel   string
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) run(ctx context.Context, handler storage.MessageHandler) {
	defer s.cache.unsubscribe(s)
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case msg := <-s.ch:
			handler(s.channel, msg)
		}
	}
}

func (s *subscriber) Close() error {
	s.cache.unsubscribe(s)
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
