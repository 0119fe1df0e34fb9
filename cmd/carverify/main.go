package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"carverify/internal/config"
	"carverify/internal/domain"
	httpinfra "carverify/internal/infra/http"
	"carverify/internal/infra/nevdis"
	"carverify/internal/infra/ppsr"
	"carverify/internal/infra/ppsr/b2g"
	"carverify/internal/infra/pricing"
	"carverify/internal/infra/ratelimit"
	"carverify/internal/infra/telemetry"
	"carverify/internal/usecase"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdown, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	var (
		b2gClient *b2g.Client
		ppsrAdmin usecase.PPSRAdmin
	)
	if cfg.B2GConfigured() {
		b2gClient, err = b2g.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}
		ppsrAdmin = b2gClient
	} else if cfg.Production() {
		logger.Warn("ppsr b2g is not configured; report generation will fail")
	}

	ppsrClient := ppsr.NewFromConfig(cfg, b2gClient, logger)
	nevdisClient := nevdis.NewFromConfig(cfg, logger)
	pricingClient := pricing.NewFromConfig(cfg, logger)
	logger.Info("providers selected",
		"env", cfg.AppEnv,
		"ppsr", ppsrClient.ProviderName(),
		"nevdis", nevdisClient.ProviderName(),
		"pricing", strings.Join(pricingClient.Providers(), ","),
	)

	reports, err := usecase.NewReportService(ppsrClient, nevdisClient, pricingClient, logger)
	if err != nil {
		return err
	}

	var limiter domain.RateLimiter
	if cfg.RateLimitRequests > 0 {
		limiter, err = ratelimit.New(cfg)
		if err != nil {
			return err
		}
		if rl, ok := limiter.(*ratelimit.RedisLimiter); ok {
			defer rl.Close()
			if err := rl.Ping(ctx); err != nil {
				logger.Warn("redis rate limiter unreachable", "addr", cfg.RedisAddr, "error", err)
			}
		}
	}

	srv := httpinfra.NewServer(cfg, httpinfra.ServerDeps{
		Reports:     reports,
		PPSRAdmin:   ppsrAdmin,
		RateLimiter: limiter,
		Logger:      logger,
	})
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", telemetry.ServiceName)
}
