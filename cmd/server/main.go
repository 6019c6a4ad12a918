package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"pillar-backend/internal/auth"
	"pillar-backend/internal/config"
	httpdelivery "pillar-backend/internal/delivery/http"
	"pillar-backend/internal/delivery/websocket"
	"pillar-backend/internal/domain"
	"pillar-backend/internal/infrastructure/cache"
	"pillar-backend/internal/infrastructure/db"
	"pillar-backend/internal/infrastructure/fcm"
	"pillar-backend/internal/infrastructure/telegram"
	"pillar-backend/internal/logging"
	"pillar-backend/internal/metrics"
	"pillar-backend/internal/repository"
	"pillar-backend/internal/usecase"
)

const sweepInterval = 10 * time.Minute

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", true)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if cfg.UsesDevSecret() {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Session store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open session store")
	}
	defer closeStore()

	// 2. Notification channels
	pushClient, err := fcm.NewClient(ctx, fcm.Config{
		CredentialsPath: cfg.Notify.FirebaseCredentialsPath,
		CredentialsJSON: cfg.Notify.FirebaseCredentialsJSON,
	})
	if err != nil {
		log.Error().Err(err).Msg("FCM unavailable, push notifications disabled")
		pushClient = nil
	}
	chatClient, err := telegram.NewClient(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
	if err != nil {
		log.Error().Err(err).Msg("telegram unavailable, chat notifications disabled")
		chatClient = nil
	}

	// 3. Usecases
	m := metrics.New()
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	devices := repository.NewDeviceRepository()

	var push usecase.PushSender
	if pushClient != nil {
		push = pushClient
	}
	var chat usecase.ChatSender
	if chatClient != nil {
		chat = chatClient
	}
	notifier := usecase.NewSignalNotifier(push, chat, devices, cfg.Notify.Cooldown, m)

	sessions := usecase.NewSessionService(store, cfg.Defaults.Levels, cfg.Defaults.Price, m)
	hub := websocket.NewHub(tokens, sessions)
	sessions.OnEnd(devices, hub)
	go sweep(ctx, func() {
		if _, err := sessions.PurgeExpired(ctx); err != nil {
			log.Warn().Err(err).Msg("purge expired sessions failed")
		}
	})
	analysis := usecase.NewAnalysisService(store, usecase.NewEngine(), hub, notifier, m)

	// 4. Delivery
	router := httpdelivery.NewRouter(httpdelivery.Deps{
		Sessions:    sessions,
		Analyzer:    analysis,
		Devices:     devices,
		Tokens:      tokens,
		Stream:      hub,
		Metrics:     m.Handler(),
		StoreKind:   cfg.Store.Driver,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore builds the configured PivotStore. Every driver expires idle
// sessions; the sweeper in main reports them to the session service.
func openStore(ctx context.Context, cfg config.Config) (domain.PivotStore, func(), error) {
	ttl := cfg.Store.SessionTTL

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPostgresPivotStore(pool, ttl), pool.Close, nil

	case config.DriverRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Store.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisPivotStore(client, ttl), func() { client.Close() }, nil

	default:
		return repository.NewInMemoryPivotStore(ttl), func() {}, nil
	}
}

func sweep(ctx context.Context, fn func()) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
