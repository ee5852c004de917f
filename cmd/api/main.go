package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/finledger/internal/auth"
	"github.com/geocoder89/finledger/internal/config"
	httpx "github.com/geocoder89/finledger/internal/http"
	"github.com/geocoder89/finledger/internal/http/handlers"
	"github.com/geocoder89/finledger/internal/http/middlewares"
	"github.com/geocoder89/finledger/internal/observability"
	"github.com/geocoder89/finledger/internal/redisclient"
	"github.com/geocoder89/finledger/internal/repo"
	"github.com/geocoder89/finledger/internal/security"
	"github.com/geocoder89/finledger/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.OTelServiceName,
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	stores, err := repo.Open(startCtx, cfg, prom)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer stores.Close()

	checks := map[string]handlers.Pinger{"db": stores.Ping}

	var limiter middlewares.Limiter
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.Open(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		limiter = middlewares.NewBreakerLimiter(
			middlewares.NewRedisLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow),
			middlewares.BreakerConfig{},
		)
	} else {
		limiter = middlewares.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewManager(auth.Config{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	})
	ids := service.UUIDGenerator{}

	authService := service.NewAuthService(stores.Users, hasher, tokens, log)
	users := service.NewUserAccountManager(stores.Users, hasher, ids, log)
	ledger := service.NewTransactionLedger(stores.Transactions, stores.Users, ids, log)
	balances := service.NewBalanceAggregator(stores.Transactions, stores.Users, log)

	var tracingService string
	if cfg.OTelEndpoint != "" {
		tracingService = cfg.OTelServiceName
	}

	router := httpx.NewRouter(httpx.Deps{
		Log:                log,
		Env:                cfg.Env,
		Users:              users,
		Auth:               authService,
		Issuer:             authService,
		Ledger:             ledger,
		Balances:           balances,
		Tokens:             tokens,
		Checks:             checks,
		Prom:               prom,
		Gatherer:           reg,
		Limiter:            limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TracingService:     tracingService,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("server shutting down")

	shutdownCtx, cancelShutdown := config.WithTimeout(10 * time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
