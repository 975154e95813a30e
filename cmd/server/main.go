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
	"github.com/ogurasousui/referral-platform/internal/adapters/auth"
	"github.com/ogurasousui/referral-platform/internal/adapters/grpc/handler"
	"github.com/ogurasousui/referral-platform/internal/adapters/httpapi"
	"github.com/ogurasousui/referral-platform/internal/adapters/messaging/rabbitmq"
	"github.com/ogurasousui/referral-platform/internal/adapters/repository/postgres"
	"github.com/ogurasousui/referral-platform/internal/core/access"
	"github.com/ogurasousui/referral-platform/internal/core/deck"
	"github.com/ogurasousui/referral-platform/internal/core/response"
	"github.com/ogurasousui/referral-platform/internal/core/subscription"
	"github.com/ogurasousui/referral-platform/internal/core/user"
	"github.com/ogurasousui/referral-platform/internal/platform/config"
	pg "github.com/ogurasousui/referral-platform/internal/platform/db/postgres"
	"github.com/ogurasousui/referral-platform/internal/platform/logging"
	"github.com/ogurasousui/referral-platform/internal/platform/metrics"
	"github.com/ogurasousui/referral-platform/internal/platform/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env は任意
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}

	logger := logging.Init(cfg.Logging, os.Stdout)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	dbPool, err := pg.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool, pg.WithTxLogger(logger))

	userSvc := user.NewService(postgres.NewUserRepository(dbPool), nil, txManager)
	subscriptionSvc := subscription.NewService(postgres.NewSubscriptionRepository(dbPool), nil, txManager)
	deckSvc := deck.NewService(postgres.NewDeckRepository(dbPool), nil, txManager)
	responseSvc := response.NewService(postgres.NewResponseRepository(dbPool), nil, txManager)

	policy := httpapi.DefaultPolicy().
		Merge(handler.DefaultPolicy()).
		Merge(policyFromConfig(cfg.Access))
	gate := access.NewEvaluator(policy,
		access.WithConjunction(cfg.Access.Conjunction),
		access.WithRecorder(m),
		access.WithLogger(logger),
	)

	tokens := auth.NewTokens(cfg.Auth)
	resolver := auth.NewResolver(tokens, userSvc, logger)

	httpServer := &http.Server{
		Addr: cfg.HTTP.ListenAddr,
		Handler: httpapi.NewRouter(httpapi.Dependencies{
			Users:          userSvc,
			Subscriptions:  subscriptionSvc,
			Decks:          deckSvc,
			Responses:      responseSvc,
			Resolver:       resolver,
			Tokens:         tokens,
			Gate:           gate,
			Metrics:        m,
			Gatherer:       prometheus.DefaultGatherer,
			Logger:         logger,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	grpcServer := server.New(cfg.Server.ListenAddr, server.Services{
		Subscriptions: subscriptionSvc,
		Decks:         deckSvc,
	}, resolver, gate, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("gRPC server listening")
		return grpcServer.Run(gctx)
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTP.ListenAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		runExpirySweep(gctx, subscriptionSvc, cfg.Subscription.ExpirySweepInterval, m, logger)
		return nil
	})

	if cfg.RabbitMQ.Enabled() {
		consumer := rabbitmq.NewConsumer(cfg.RabbitMQ, subscriptionSvc, m, logger)
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	} else {
		logger.Info().Msg("rabbitmq url is empty; billing consumer disabled")
	}

	return g.Wait()
}

// runExpirySweep は interval ごとに終了日を過ぎたサブスクリプションを canceled にします。
func runExpirySweep(ctx context.Context, svc subscription.UseCase, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.ExpireOverdue(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error().Err(err).Msg("expiry sweep failed")
				}
				continue
			}
			m.AddExpired(n)
			if n > 0 {
				logger.Info().Int64("expired", n).Msg("expired overdue subscriptions")
			}
		}
	}
}

// policyFromConfig は設定ファイルの要件定義を Policy に変換します。
func policyFromConfig(cfg config.AccessConfig) *access.Policy {
	p := access.NewPolicy()
	for group, statuses := range cfg.Groups {
		p.RequireGroup(group, statuses...)
	}
	for op, statuses := range cfg.Operations {
		p.RequireOperation(op, statuses...)
	}
	return p
}
