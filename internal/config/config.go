// Package config loads the hub configuration from an optional .env file and
// SCENYX_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Hub      HubConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret        string
	TokenQueryParam  string
	RevocationPrefix string
	// StaticKeys are "userId:username:bcryptHash" entries for headless streamers.
	StaticKeys []string
}

type CacheConfig struct {
	Driver         string // memory | valkey | redis
	Address        string
	Password       string
	DB             int
	SweepInterval  time.Duration
	OpTimeout      time.Duration
	ConnectTimeout time.Duration
}

type DatabaseConfig struct {
	Driver string // memory | postgres | sqlite
	DSN    string
}

type HubConfig struct {
	FeatureTTL     time.Duration
	PresetTTL      time.Duration
	RoomStateTTL   time.Duration
	ChatHistoryTTL time.Duration
	IdleTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	SendBuffer     int
	MaxMessageSize int64
	MaxBins        int
	ChatHistory    int
	ChatBurst      int
	ChatRefill     time.Duration
	RelayEnabled   bool
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads envFiles (missing files are ignored), applies defaults and
// environment overrides, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		// godotenv never overrides variables already present in the environment.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvPrefix("SCENYX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("config env binding error: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
