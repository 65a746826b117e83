package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Auth.JWTSecret == "" && len(c.Auth.StaticKeys) == 0 {
		return errors.New("auth.jwtSecret or auth.staticKeys must be configured")
	}
	if c.Auth.TokenQueryParam == "" {
		return errors.New("auth.tokenQueryParam must not be empty")
	}

	switch strings.ToLower(c.Cache.Driver) {
	case "memory":
	case "valkey", "redis":
		if c.Cache.Address == "" {
			return fmt.Errorf("cache.address must be set for the %s driver", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("invalid cache driver: %s. Must be 'memory', 'valkey' or 'redis'", c.Cache.Driver)
	}

	switch strings.ToLower(c.Database.Driver) {
	case "memory":
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must be set for the %s driver", c.Database.Driver)
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	h := c.Hub
	for name, d := range map[string]int64{
		"hub.featureTTL":     int64(h.FeatureTTL),
		"hub.presetTTL":      int64(h.PresetTTL),
		"hub.roomStateTTL":   int64(h.RoomStateTTL),
		"hub.chatHistoryTTL": int64(h.ChatHistoryTTL),
		"hub.idleTimeout":    int64(h.IdleTimeout),
		"hub.writeTimeout":   int64(h.WriteTimeout),
		"hub.pingInterval":   int64(h.PingInterval),
		"hub.chatRefill":     int64(h.ChatRefill),
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if h.PingInterval >= h.IdleTimeout {
		return errors.New("ping interval should be less than idle timeout")
	}
	if h.SendBuffer < 1 {
		return errors.New("hub.sendBuffer must be positive")
	}
	if h.MaxMessageSize < 1024 {
		return errors.New("hub.maxMessageSize must be at least 1024 bytes")
	}
	if h.MaxBins < 1 || h.ChatHistory < 1 {
		return errors.New("hub.maxBins and hub.chatHistory must be positive")
	}
	if h.ChatHistory > models.MaxChatHistory {
		return fmt.Errorf("hub.chatHistory must not exceed %d", models.MaxChatHistory)
	}
	if h.ChatBurst < 0 {
		return errors.New("hub.chatBurst must not be negative")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}
