package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/hero-points/internal/config"
	"github.com/nimasrn/hero-points/internal/handlers"
	"github.com/nimasrn/hero-points/internal/repository"
	"github.com/nimasrn/hero-points/internal/services"
	"github.com/nimasrn/hero-points/migrations"
	xhttp "github.com/nimasrn/hero-points/pkg/http"
	"github.com/nimasrn/hero-points/pkg/logger"
	"github.com/nimasrn/hero-points/pkg/pg"
	"github.com/nimasrn/hero-points/pkg/prom"
	"github.com/nimasrn/hero-points/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	if err := config.LoadFromArgs(); err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "app", cfg.AppName, "env", cfg.AppEnv, "version", version, "commit", commit, "date", date)

	if cfg.MigrateOnStart {
		if err := pg.Migrate(cfg.PostgresWrite(), migrations.FS, "."); err != nil {
			logger.Error("failed running migrations", "error", err)
			return
		}
	}

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.AppDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	defer db.Close()

	redisCfg := cfg.Redis()
	redisAdap, err := redis.NewRedisAdapter("default", redisCfg.KeyPrefix, redisCfg.Options())
	if err != nil {
		// the cache and idempotency keys are optional, the store is not
		logger.Warn("redis unavailable, running without cache and idempotency", "error", err)
		redisAdap = nil
	}

	if cfg.AppDebugMetricsAddr != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed registering metrics", "error", err)
		} else {
			go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
		}
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	scanRepo := repository.NewScanRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	totalRepo := repository.NewTotalRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	// services
	leaderboardService := services.NewLeaderboardService(leaderboardRepo, redisAdap, cfg.LeaderboardCacheTTL)
	registry := services.NewUIDRegistry(userRepo, db, cfg.UIDGenerationAttempts)
	ledgerService := services.NewLedgerService(db, userRepo, transactionRepo, totalRepo, registry, leaderboardService)
	userService := services.NewUserService(db, userRepo, transactionRepo, totalRepo, registry, leaderboardService)
	scanService := services.NewScanService(scanRepo, registry, ledgerService)
	authService := services.NewAdminAuthService(services.AuthConfig{
		Username:     cfg.AdminUser,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       cfg.AdminSessionKey,
		SessionTTL:   cfg.AdminSessionTTL,
	}, redisAdap)

	var idem handlers.IdempotencyService
	var cachePinger services.Pinger
	if redisAdap != nil {
		idemCfg := services.DefaultIdempotencyConfig()
		idemCfg.LockTTL = cfg.IdempotencyLockTTL
		idemCfg.ProcessedTTL = cfg.IdempotencyTTL
		idem = services.NewIdempotencyService(redisAdap, idemCfg)
		cachePinger = redisAdap
	}
	healthService := services.NewHealthService(db, cachePinger)

	// handlers
	gatewayHandler := handlers.NewGatewayHandler(scanService, userService, idem, cfg.AppBaseUrl)
	publicHandler := handlers.NewPublicHandler(userService, leaderboardService)
	adminHandler := handlers.NewAdminHandler(authService, userService, ledgerService, idem, cfg.AppEnv == "production")
	healthHandler := handlers.NewHealthHandler(healthService)

	s := xhttp.CreateServer(cfg.HTTPServer())
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.CORSMiddleware(cfg.FrontendUrl))
	s.Use(xhttp.RequestLoggerMiddleware)

	g := s.Router.Group("/api")
	handlers.RegisterGatewayRoutes(g, gatewayHandler)
	handlers.RegisterPublicRoutes(g, publicHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)
	handlers.RegisterAdminRoutes(g.Group("/admin"), adminHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		errc <- s.ListenAndServe(cfg.HttpListenAddr)
	}()

	select {
	case sig := <-c:
		logger.Info("shutdown signal received", "signal", sig.String())
		s.Shutdown()
	case err := <-errc:
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}
}
