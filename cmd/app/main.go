package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"go.uber.org/zap"

	"reviewgate/internal/app/config"
	httpapi "reviewgate/internal/app/http"
	"reviewgate/internal/app/http/handler"
	"reviewgate/internal/domain/dispatch"
	"reviewgate/internal/domain/engine"
	"reviewgate/internal/domain/pullreq"
	"reviewgate/internal/domain/repo"
	"reviewgate/internal/domain/review"
	"reviewgate/internal/domain/rules"
	"reviewgate/internal/domain/stats"
	"reviewgate/internal/infrastructure/async"
	"reviewgate/internal/infrastructure/db/pg"
	"reviewgate/internal/infrastructure/github"
	"reviewgate/internal/infrastructure/logging"
	"reviewgate/internal/infrastructure/webhook"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.NewLogger(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open error", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("db ping error", zap.Error(err))
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("goose dialect error", zap.Error(err))
	}
	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatal("goose up error", zap.Error(err))
	}

	snapshot := rules.DefaultSnapshot()
	if cfg.RulesPath != "" {
		snapshot, err = rules.LoadSnapshot(cfg.RulesPath)
		if err != nil {
			log.Fatal("rules load error", zap.String("path", cfg.RulesPath), zap.Error(err))
		}
		log.Info("rules loaded", zap.String("path", cfg.RulesPath))
	}

	uow := pg.NewTxManager(db)

	eventBus := async.NewAsyncEventBus(ctx, cfg.WorkerPoolSize, log)
	defer eventBus.Close()

	pool := async.NewWorkerPool(ctx, cfg.WorkerPoolSize, cfg.TaskTimeout, log)
	defer pool.Shutdown()

	repoStore := pg.NewRepoStore(db)
	prRepo := pg.NewPullRequestRepository(db)
	reviewRepo := pg.NewReviewRepository(db)
	statsRepo := pg.NewStatsRepository(db)
	deliveries := pg.NewDeliveryStore(db)

	repoSvc := repo.NewService(repoStore)
	prSvc := pullreq.NewService(prRepo, eventBus)
	reviewSvc := review.NewService(uow, reviewRepo, eventBus)
	statsSvc := stats.NewService(statsRepo)

	var generator engine.Generator = engine.NewHeuristicGenerator(cfg.NeedsChangesThreshold)
	if cfg.Engine == "llm" {
		generator = engine.NewLLMGenerator(
			os.Getenv("ANTHROPIC_API_KEY"), cfg.AnthropicModel, cfg.NeedsChangesThreshold)
		log.Info("llm review engine enabled", zap.String("model", cfg.AnthropicModel))
	}

	gh := github.NewClient(cfg.GithubAPIURL, cfg.GithubToken, log)

	coordinator := dispatch.NewCoordinator(
		uow,
		prSvc,
		reviewSvc,
		reviewRepo,
		repoSvc,
		snapshot,
		generator,
		gh,
		gh,
		gh,
		eventBus,
		log,
		dispatch.Config{
			DiffTimeout:    cfg.DiffTimeout,
			PublishTimeout: cfg.PublishTimeout,
			RetryAttempts:  cfg.RetryAttempts,
		},
	)

	verifier := webhook.NewVerifier(cfg.WebhookSecret)

	h := handler.New(
		coordinator, reviewSvc, prSvc, repoSvc, statsSvc, deliveries, verifier, pool, log)
	router := httpapi.NewRouter(h, cfg.Instructors, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
