package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/vestapay/platform/internal/app"
	"github.com/vestapay/platform/internal/app/httpapi"
	"github.com/vestapay/platform/internal/app/services/profiles"
	"github.com/vestapay/platform/internal/app/storage/postgres"
	"github.com/vestapay/platform/internal/config"
	"github.com/vestapay/platform/internal/platform/migrations"
	"github.com/vestapay/platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/server.yaml", "path to the server configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("server").WithError(err).Error("configuration error")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging).WithField("component", "server")
	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Apply(ctx, db.DB); err != nil {
			return err
		}

		store := postgres.New(db)
		stores = app.Stores{
			Profiles:     store,
			Wallets:      store,
			Products:     store,
			Investments:  store,
			Payments:     store,
			Referrals:    store,
			Gamification: store,
			Settings:     store,
			Security:     store,
		}
	} else {
		log.Warn("DATABASE_DSN not set, running on in-memory stores")
	}

	var cache *redis.Client
	if cfg.Redis.Address != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer cache.Close()
		if err := cache.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, settings cache disabled")
			cache = nil
		}
	}

	application, err := app.New(stores, app.Options{
		Auth: profiles.Config{
			TokenSecret:    cfg.Auth.TokenSecret,
			TokenTTL:       cfg.Auth.TokenTTL,
			ReferralReward: cfg.Platform.ReferralReward,
		},
		WithdrawalAlertThreshold: cfg.Platform.WithdrawalAlertThreshold,
		SpinPrizeCeiling:         cfg.Platform.SpinPrizeCeiling,
		MaturationSchedule:       cfg.Platform.MaturationSchedule,
		ChallengeExpirySchedule:  cfg.Platform.ChallengeExpirySchedule,
		SettingsCache:            cache,
	}, log)
	if err != nil {
		return err
	}

	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := application.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("error stopping background services")
		}
	}()

	handler := httpapi.NewHandler(application, httpapi.Config{
		RateLimitPerSecond: cfg.Server.RateLimitPerSecond,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.Server.Address).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
