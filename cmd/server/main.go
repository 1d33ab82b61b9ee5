package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpAdapter "github.com/iho/bookkeeper/internal/adapter/http"
	"github.com/iho/bookkeeper/internal/adapter/http/handler"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/bookkeeper/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bookkeeper/internal/adapter/repository/redis"
	"github.com/iho/bookkeeper/internal/infrastructure/config"
	"github.com/iho/bookkeeper/internal/infrastructure/demo"
	"github.com/iho/bookkeeper/internal/infrastructure/logger"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres"
	"github.com/iho/bookkeeper/internal/infrastructure/redis"
	"github.com/iho/bookkeeper/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	var (
		repos         repositories
		cache         usecase.Cache
		idempotency   usecase.IdempotencyStore
		healthHandler *handler.HealthHandler
	)

	if cfg.DemoMode {
		log.Info().Msg("running in demo mode with in-memory storage")

		store := memory.NewStore()
		repos = repositories{
			txManager:    memory.NewTxManager(store),
			bookRepo:     memory.NewBookRepository(store),
			ledgerRepo:   memory.NewLedgerRepository(store),
			accountRepo:  memory.NewAccountRepository(store),
			entryRepo:    memory.NewEntryRepository(store),
			revisionRepo: memory.NewRevisionRepository(store),
			memberRepo:   memory.NewMemberRepository(store),
			idGen:        postgresRepo.NewULIDGenerator(),
		}
		cache = memory.NewCache()
		idempotency = memory.NewIdempotencyStore()
		healthHandler = handler.NewHealthHandler(nil, nil)
	} else {
		dbPool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer dbPool.Close()
		log.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(log, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		repos = repositories{
			txManager:    postgresRepo.NewTxManager(dbPool),
			bookRepo:     postgresRepo.NewBookRepository(dbPool),
			ledgerRepo:   postgresRepo.NewLedgerRepository(dbPool),
			accountRepo:  postgresRepo.NewAccountRepository(dbPool),
			entryRepo:    postgresRepo.NewEntryRepository(dbPool),
			revisionRepo: postgresRepo.NewRevisionRepository(dbPool),
			memberRepo:   postgresRepo.NewMemberRepository(dbPool),
			idGen:        postgresRepo.NewULIDGenerator(),
			retrier:      postgresRepo.NewRetrier(log),
		}
		cache = redisRepo.NewCache(redisClient)
		idempotency = redisRepo.NewIdempotencyStore(redisClient)
		healthHandler = handler.NewHealthHandler(dbPool, redisClient)
	}

	bookUC := usecase.NewBookUseCase(
		repos.txManager, repos.bookRepo, repos.ledgerRepo, repos.accountRepo, repos.memberRepo, repos.idGen,
	)
	accountUC := usecase.NewAccountUseCase(
		repos.txManager, repos.bookRepo, repos.ledgerRepo, repos.accountRepo,
		repos.entryRepo, repos.memberRepo, repos.idGen,
	)
	entryUC := usecase.NewEntryUseCase(
		repos.txManager, repos.bookRepo, repos.ledgerRepo, repos.accountRepo,
		repos.entryRepo, repos.revisionRepo, repos.memberRepo, repos.idGen, cache,
	)
	if repos.retrier != nil {
		entryUC = entryUC.WithRetrier(repos.retrier)
	}
	reportUC := usecase.NewReportUseCase(
		repos.ledgerRepo, repos.accountRepo, repos.entryRepo, cache, cfg.ReportCacheTTL,
	)
	rebuildUC := usecase.NewRebuildUseCase(
		repos.txManager, repos.ledgerRepo, repos.accountRepo, repos.entryRepo, cache,
	)

	if cfg.DemoMode {
		seeded, err := demo.Seed(ctx, bookUC, accountUC, entryUC)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
		log.Info().
			Str("book_id", seeded.BookID).
			Str("ledger_id", seeded.LedgerID).
			Str("actor_id", seeded.Actor.ID).
			Msg("seeded demo book")
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BookHandler:      handler.NewBookHandler(bookUC),
		AccountHandler:   handler.NewAccountHandler(accountUC),
		EntryHandler:     handler.NewEntryHandler(entryUC, bookUC),
		ReportHandler:    handler.NewReportHandler(reportUC, rebuildUC),
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotency,
		RateLimiter:      middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:           log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// repositories groups the persistence ports so both storage backends wire the
// use cases identically.
type repositories struct {
	txManager    usecase.TransactionManager
	bookRepo     usecase.BookRepository
	ledgerRepo   usecase.LedgerRepository
	accountRepo  usecase.AccountRepository
	entryRepo    usecase.EntryRepository
	revisionRepo usecase.RevisionRepository
	memberRepo   usecase.MemberRepository
	idGen        usecase.IDGenerator
	retrier      usecase.Retrier // postgres only
}
