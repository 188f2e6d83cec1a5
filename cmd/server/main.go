package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"driveid/internal/jwtauth"
	"driveid/internal/platform/config"
	"driveid/internal/platform/httpserver"
	"driveid/internal/platform/logger"
	platformredis "driveid/internal/platform/redis"
	"driveid/internal/verify/cache"
	"driveid/internal/verify/document"
	"driveid/internal/verify/handler"
	"driveid/internal/verify/match"
	"driveid/internal/verify/metrics"
	"driveid/internal/verify/providers"
	"driveid/internal/verify/referee"
	"driveid/internal/verify/service"
	"driveid/internal/verify/store"
	"driveid/internal/verify/workflow"
)

const sourceTimeout = 5 * time.Second

// main wires the verification pipeline and keeps the server lifecycle small.
// Business logic lives in the internal/verify packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	m := metrics.New()

	norm := match.NewNormalizer(match.PhonePlan{
		CountryCode: cfg.PhoneCountryCode,
		TrunkPrefix: cfg.PhoneTrunkPrefix,
	})
	engine := match.NewEngine(norm)
	thresholds := match.DefaultThresholds()

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var cacheStore cache.Store
	if rdb != nil {
		defer rdb.Close()
		cacheStore = cache.NewRedisStore(rdb.Client)
		log.Info("verification cache backed by redis")
	} else {
		cacheStore = cache.NewInMemoryStore()
		log.Info("verification cache backed by memory")
	}
	verifyCache := cache.New(cacheStore, cfg.CacheEnabled)

	var (
		runStore  service.Store
		directory interface {
			service.Directory
			referee.Directory
		}
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		if _, err := db.Exec(store.Schema); err != nil {
			log.Error("schema apply failed", "error", err)
			os.Exit(1)
		}
		runStore = store.NewPostgresStore(db)
		directory = store.NewPostgresDirectory(db)
		log.Info("audit store backed by postgres")
	} else {
		runStore = store.NewMemoryStore()
		memDir := store.NewMemoryDirectory()
		directory = memDir
		log.Info("audit store backed by memory")
	}

	clientOpts := []providers.Option{
		providers.WithLogger(log),
		providers.WithMetrics(m),
		providers.WithCache(verifyCache),
	}
	nin := providers.NewClient(
		providers.NINSource(endpoints(cfg.NIN), sourceTimeout, cfg.RetryAttempts, cfg.NIN.CacheTTL),
		norm, engine, thresholds, clientOpts...)
	bvn := providers.NewClient(
		providers.BVNSource(endpoints(cfg.BVN), sourceTimeout, cfg.RetryAttempts, cfg.BVN.CacheTTL),
		norm, engine, thresholds, clientOpts...)
	license := providers.NewClient(
		providers.LicenseSource(endpoints(cfg.License), sourceTimeout, cfg.RetryAttempts, cfg.License.CacheTTL),
		norm, engine, thresholds, clientOpts...)

	docEngine := document.NewEngine(engine)
	refScorer := referee.NewScorer(norm, directory)

	orchestrator := workflow.NewOrchestrator(docEngine, nin, bvn, license, refScorer,
		workflow.WithLogger(log),
		workflow.WithMetrics(m),
		workflow.WithRunTimeout(cfg.RunTimeout),
	)

	svc := service.New(orchestrator, runStore, norm,
		service.WithLogger(log),
		service.WithDirectory(directory),
	)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "driveid", "driveid-api")
	validator := jwtauth.NewMiddlewareAdapter(jwtService)

	h := handler.New(svc, log)
	router := handler.NewRouter(h, validator, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting driveid", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// endpoints converts a source config into the ordered endpoint list: primary
// first, then the fallback when one is configured.
func endpoints(src config.SourceConfig) []providers.Endpoint {
	eps := []providers.Endpoint{{Name: "primary", URL: src.PrimaryURL, APIKey: src.PrimaryKey}}
	if src.FallbackURL != "" {
		eps = append(eps, providers.Endpoint{Name: "fallback", URL: src.FallbackURL, APIKey: src.FallbackKey})
	}
	return eps
}
