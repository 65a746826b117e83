// Package storage defines the ephemeral cache and preset store contracts shared by
// the hub and its backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

var (
	// ErrNotFound is returned for absent or expired keys and unknown presets.
	ErrNotFound = errors.New("not found")

	// ErrCacheUnavailable wraps transport failures of a cache backend.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// MessageHandler receives messages published on a subscribed channel.
type MessageHandler func(channel string, payload []byte)

// Subscription is an active channel subscription.
type Subscription interface {
	Close() error
}

// Cache is an ephemeral key-value store with per-key TTL and fire-and-forget pub/sub.
//
// A key read after its TTL has elapsed is absent, whether or not it has been reaped.
// A ttl of zero stores the value without expiry. Publish delivers at most once to
// the subscribers present at the time of the call and keeps no backlog.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler MessageHandler) (Subscription, error)
	Close() error
}

// PresetStore is the durable preset catalogue.
type PresetStore interface {
	Get(ctx context.Context, id string) (*models.Preset, error)
	List(ctx context.Context, limit int) ([]models.Preset, error)
	Save(ctx context.Context, preset *models.Preset) error
	IncrementUsage(ctx context.Context, id string) error
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// GetJSON loads key into v. It returns ErrNotFound for absent keys.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// PublishJSON marshals v and publishes it on channel.
func PublishJSON(ctx context.Context, c Cache, channel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", channel, err)
	}
	return c.Publish(ctx, channel, data)
}
