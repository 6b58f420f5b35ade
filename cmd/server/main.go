package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/config"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/gateway"
	"github.com/tableside/api/internal/handler"
	"github.com/tableside/api/internal/logging"
	"github.com/tableside/api/internal/notify"
	"github.com/tableside/api/internal/router"
	"github.com/tableside/api/internal/ws"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logging.Setup(cfg.Env, cfg.LogLevel)
	if cfg.IsProduction() && cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
		log.Fatal().Msg("STRIPE_WEBHOOK_SECRET is required when card payments are enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("create database pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	queries := database.New(pool)

	var menus catalog.Provider = catalog.NewDBProvider(queries)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		menus = catalog.NewCachedProvider(menus, rdb, cfg.CatalogCacheTTL)
		log.Info().Dur("ttl", cfg.CatalogCacheTTL).Msg("menu cache enabled")
	}

	// a nil Publisher keeps notices on the websocket hub only
	var pub notify.Publisher
	if cfg.AMQPURL != "" {
		p, err := notify.DialAMQP(cfg.AMQPURL, notify.DefaultExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to broker")
		}
		defer p.Close()
		pub = p
	}

	var (
		gw     gateway.Gateway     = gateway.Disabled{}
		events handler.EventParser = gateway.Disabled{}
	)
	if cfg.StripeSecretKey != "" {
		stripe := gateway.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		gw, events = stripe, stripe
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, card payments disabled")
	}

	hub := ws.NewHub()
	notifier := notify.NewDispatcher(hub, pub)
	services := router.NewServices(cfg, pool, menus, gw, notifier)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, queries, services, events, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
