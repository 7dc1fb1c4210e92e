package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snipbin/cfg"
	"snipbin/metrics"
	"snipbin/pkg/secrets"
	"snipbin/svc/api"
	"snipbin/svc/auth"
	"snipbin/svc/db"
	"snipbin/svc/lim"
	"snipbin/svc/svc"
	"snipbin/svc/util"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-health" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		dbPath := os.Getenv("DATABASE_PATH")
		if dbPath == "" {
			dbPath = "snipbin.db"
		}

		sqlDB, err := db.NewSQLite(dbPath)
		if err != nil {
			os.Exit(1)
		}
		defer sqlDB.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 1*time.Second)
		defer pingCancel()
		if err := sqlDB.DB().PingContext(pingCtx); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	c, err := cfg.Load()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Msg("starting snipbin API")
	metrics.Init()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jwtSecret := c.JWTSecret.Value()
	if c.JWTFromVault {
		adapter, err := secrets.NewAdapter(ctx)
		if err != nil {
			util.Fatal().Err(err).Msg("failed to initialize secrets provider")
			os.Exit(1)
		}
		jwtSecret, err = adapter.GetSecret(ctx, "JWT_SECRET")
		if err != nil {
			util.Fatal().Err(err).Msg("CRITICAL: failed to load JWT secret from provider")
			os.Exit(1)
		}
	}
	if len(jwtSecret) < 32 {
		util.Fatal().Int("length", len(jwtSecret)).Msg("CRITICAL: JWT secret too short, must be >= 32 bytes")
		os.Exit(1)
	}

	sqlDB, err := db.NewSQLiteWithConfig(c.DatabasePath, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBQueryTimeout)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to initialize database")
		os.Exit(1)
	}
	defer sqlDB.Close()
	util.Info().Str("path", c.DatabasePath).Msg("database initialized")

	hasher, err := auth.NewHasher(c.BcryptCost)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to initialize hasher")
		os.Exit(1)
	}
	if err := hasher.Start(c.HasherWorkers); err != nil {
		util.Fatal().Err(err).Msg("failed to start hasher")
		os.Exit(1)
	}
	defer hasher.Stop()
	util.Info().Int("workers", c.HasherWorkers).Msg("hasher initialized")

	secretBytes := []byte(jwtSecret)
	tokens, err := auth.NewTokens(secretBytes, c.TokenTTL)
	if err != nil {
		util.Wipe(secretBytes)
		util.Fatal().Err(err).Msg("failed to initialize token issuer")
		os.Exit(1)
	}
	util.Wipe(secretBytes)
	util.Info().Dur("ttl", c.TokenTTL).Msg("token issuer initialized")

	accountSvc := svc.NewAccount(sqlDB, hasher, tokens)
	snippetSvc := svc.NewSnippet(sqlDB, c)

	limiter := lim.New(c.RateLimit.RPM, c.RateLimit.Burst, c.RateLimit.ConservativeLimit, c.TrustedProxies)
	defer limiter.Stop()
	util.Info().
		Int("rpm", c.RateLimit.RPM).
		Int("burst", c.RateLimit.Burst).
		Strs("trusted_proxies", c.TrustedProxies).
		Msg("rate limiter initialized")

	server := api.NewServer(c, accountSvc, snippetSvc, limiter, sqlDB)

	quitWAL := make(chan struct{})
	go db.StartWALMaintenance(sqlDB.DB(), quitWAL)
	util.Info().Msg("WAL maintenance worker started")

	util.Info().Str("port", c.Port).Str("environment", c.Environment).Msg("server starting")
	go func() {
		if err := server.Start(); err != nil {
			util.Fatal().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	util.Info().Msg("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("server shutdown error")
	}
	close(quitWAL)
	cancel()
	util.Info().Msg("Shutdown complete")
}
