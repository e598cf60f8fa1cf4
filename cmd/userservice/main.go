package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/bbp-platform/user-service/internal/auth/http"
	"github.com/bbp-platform/user-service/internal/auth/service"
	"github.com/bbp-platform/user-service/internal/common/clock"
	"github.com/bbp-platform/user-service/internal/common/config"
	commoncrypto "github.com/bbp-platform/user-service/internal/common/crypto"
	commonhttp "github.com/bbp-platform/user-service/internal/common/http"
	"github.com/bbp-platform/user-service/internal/common/logger"
	srv "github.com/bbp-platform/user-service/internal/common/server"
	"github.com/bbp-platform/user-service/internal/storage/migrations"
	"github.com/bbp-platform/user-service/internal/storage/pool"
	userrepo "github.com/bbp-platform/user-service/internal/user/repository"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_DIR"), "user-service", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	if *migrate {
		if err := migrations.Run(ctx, cfg.DatabaseURL); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		log.Info("migrations applied")
		return
	}

	dbPool, err := pool.Open(ctx, cfg.DatabaseURL, pool.Config{
		MinConns:       cfg.PoolMinConns,
		MaxConns:       cfg.PoolMaxConns,
		AcquireTimeout: cfg.PoolAcquireTimeout,
	}, log)
	if err != nil {
		log.Fatalf("failed to open connection pool: %v", err)
	}

	repo := userrepo.NewPgRepository(dbPool)
	hasher := &commoncrypto.BcryptHasher{}
	idGenerator := commoncrypto.NewUUIDGenerator()
	clk := clock.NewRealClock()
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifetime, clk)
	authService := service.NewAuthService(repo, hasher, idGenerator, tokens, clk, log)

	handler := authhttp.NewHandler(authService, cfg.RequestTimeout, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	var finalHandler http.Handler = mux
	finalHandler = commonhttp.CORSMiddleware(cfg.CORSAllowedOrigins)(finalHandler)
	finalHandler = commonhttp.RecoveryMiddleware(log)(finalHandler)

	server := srv.NewServer(srv.DefaultServerConfig(cfg.HTTPPort), finalHandler)

	hooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			dbPool.Close()
			return nil
		},
	}

	srv.StartWithGracefulShutdown(server, log, "user", hooks)
}
