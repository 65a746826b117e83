package config

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowedOrigins", []string{"http://127.0.0.1:5173", "http://localhost:5173"})
	v.SetDefault("server.shutdownTimeout", 10*time.Second)

	// Auth
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenQueryParam", "token")
	v.SetDefault("auth.revocationPrefix", "jwt:revoked")
	v.SetDefault("auth.staticKeys", []string{})

	// Cache
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.sweepInterval", time.Minute)
	v.SetDefault("cache.opTimeout", 2*time.Second)
	v.SetDefault("cache.connectTimeout", 30*time.Second)

	// Database
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")

	// Hub
	v.SetDefault("hub.featureTTL", 5*time.Second)
	v.SetDefault("hub.presetTTL", time.Hour)
	v.SetDefault("hub.roomStateTTL", 24*time.Hour)
	v.SetDefault("hub.chatHistoryTTL", 24*time.Hour)
	v.SetDefault("hub.idleTimeout", 60*time.Second)
	v.SetDefault("hub.writeTimeout", 10*time.Second)
	v.SetDefault("hub.pingInterval", 54*time.Second)
	v.SetDefault("hub.sendBuffer", 256)
	v.SetDefault("hub.maxMessageSize", 64*1024)
	v.SetDefault("hub.maxBins", 2048)
	v.SetDefault("hub.chatHistory", 100)
	v.SetDefault("hub.chatBurst", 0)
	v.SetDefault("hub.chatRefill", time.Second)
	v.SetDefault("hub.relayEnabled", false)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port":           {"SCENYX_PORT", "PORT"},
		"server.allowedOrigins": {"SCENYX_ALLOWED_ORIGINS"},
		"auth.jwtSecret":        {"SCENYX_JWT_SECRET", "JWT_SECRET"},
		"auth.staticKeys":       {"SCENYX_STATIC_KEYS"},
		"cache.driver":          {"SCENYX_CACHE_DRIVER"},
		"cache.address":         {"SCENYX_CACHE_ADDRESS", "REDIS_ADDR"},
		"cache.password":        {"SCENYX_CACHE_PASSWORD"},
		"database.driver":       {"SCENYX_DB_DRIVER"},
		"database.dsn":          {"SCENYX_DB_DSN", "DATABASE_URL"},
		"hub.relayEnabled":      {"SCENYX_RELAY_ENABLED"},
		"log.level":             {"SCENYX_LOG_LEVEL", "LOG_LEVEL"},
		"log.format":            {"SCENYX_LOG_FORMAT", "LOG_FORMAT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}
