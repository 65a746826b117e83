package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/api/rooms"
	"github.com/Vasu1712/scenyx-live/internal/auth"
	"github.com/Vasu1712/scenyx-live/internal/config"
	"github.com/Vasu1712/scenyx-live/internal/logging"
	"github.com/Vasu1712/scenyx-live/internal/metrics"
	"github.com/Vasu1712/scenyx-live/internal/middleware"
	"github.com/Vasu1712/scenyx-live/internal/storage"
	"github.com/Vasu1712/scenyx-live/internal/storage/memory"
	"github.com/Vasu1712/scenyx-live/internal/storage/postgres"
	"github.com/Vasu1712/scenyx-live/internal/storage/redis"
	"github.com/Vasu1712/scenyx-live/internal/storage/valkey"
	"github.com/Vasu1712/scenyx-live/internal/ws"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to cache")
	}
	defer cache.Close()

	presets, closeDB, err := openPresets(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open preset store")
	}
	defer closeDB()

	verifier, err := buildVerifier(cfg.Auth, cache)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure authentication")
	}

	hub := ws.NewHub(cache, presets, ws.Options{
		FeatureTTL:     cfg.Hub.FeatureTTL,
		PresetTTL:      cfg.Hub.PresetTTL,
		RoomStateTTL:   cfg.Hub.RoomStateTTL,
		ChatHistoryTTL: cfg.Hub.ChatHistoryTTL,
		ChatHistory:    cfg.Hub.ChatHistory,
		MaxBins:        cfg.Hub.MaxBins,
		ChatBurst:      cfg.Hub.ChatBurst,
		ChatRefill:     cfg.Hub.ChatRefill,
		SendBuffer:     cfg.Hub.SendBuffer,
		IdleTimeout:    cfg.Hub.IdleTimeout,
		WriteTimeout:   cfg.Hub.WriteTimeout,
		PingInterval:   cfg.Hub.PingInterval,
		MaxMessageSize: cfg.Hub.MaxMessageSize,
		OpTimeout:      cfg.Cache.OpTimeout,
		RelayEnabled:   cfg.Hub.RelayEnabled,
	})
	go hub.Run(ctx)

	origins := middleware.NewOriginPolicy(cfg.Server.AllowedOrigins)

	router := mux.NewRouter()
	router.Handle("/ws", ws.NewHandler(hub, verifier, cfg.Auth.TokenQueryParam, origins.CheckRequest))
	rooms.RegisterRoutes(router, &rooms.Handler{Rooms: hub, Presets: presets})
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler()).Methods(http.MethodGet)
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: middleware.CORS(origins)(router),
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"cache":       cfg.Cache.Driver,
			"database":    cfg.Database.Driver,
			"instance_id": hub.InstanceID(),
		}).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Hub shutdown incomplete")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown incomplete")
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig) (storage.Cache, error) {
	switch strings.ToLower(cfg.Driver) {
	case "valkey":
		return valkey.NewCache(ctx, valkey.Options{
			Address:        cfg.Address,
			Password:       cfg.Password,
			DB:             cfg.DB,
			OpTimeout:      cfg.OpTimeout,
			MaxConnectTime: cfg.ConnectTimeout,
		})
	case "redis":
		return redis.NewCache(ctx, redis.Options{
			Address:        cfg.Address,
			Password:       cfg.Password,
			DB:             cfg.DB,
			OpTimeout:      cfg.OpTimeout,
			MaxConnectTime: cfg.ConnectTimeout,
		})
	default:
		return memory.NewCache(memory.WithSweepInterval(cfg.SweepInterval)), nil
	}
}

func openPresets(ctx context.Context, cfg config.DatabaseConfig) (storage.PresetStore, func(), error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "memory" || driver == "" {
		return memory.NewPresetStore(), func() {}, nil
	}

	db, err := postgres.Open(driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if err := postgres.Migrate(db); err != nil {
		closeDB()
		return nil, nil, err
	}
	store := postgres.NewPresetStore(db)
	if err := store.EnsureDefault(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	return store, closeDB, nil
}

func buildVerifier(cfg config.AuthConfig, cache storage.Cache) (auth.Verifier, error) {
	var chain auth.Chain
	if cfg.JWTSecret != "" {
		chain = append(chain, auth.NewJWTVerifier(cfg.JWTSecret, cache, cfg.RevocationPrefix))
	}
	if len(cfg.StaticKeys) > 0 {
		static, err := auth.NewStaticKeyVerifier(cfg.StaticKeys)
		if err != nil {
			return nil, err
		}
		chain = append(chain, static)
	}
	return chain, nil
}
