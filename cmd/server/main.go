package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "polltree/docs"
	"polltree/internal/config"
	"polltree/internal/domain/followup"
	"polltree/internal/domain/question"
	"polltree/internal/domain/user"
	api "polltree/internal/http"
	"polltree/internal/metrics"
	"polltree/internal/platform/database"
	jwtpkg "polltree/internal/platform/jwt"
	"polltree/internal/platform/kafka"
	"polltree/internal/repository/gormrepo"
	"polltree/internal/worker"
)

// @title           Polls API
// @version         1.0
// @description     Questions, choices and the follow-up threads that branch from them.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	api.SetLogger(logger)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("db connect error", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.AutoMigrate {
		if err := gormrepo.AutoMigrate(db); err != nil {
			logger.Error("migration failed", "err", err)
			os.Exit(1)
		}
		logger.Info("schema migrated")
	}

	userSvc := user.NewService(gormrepo.NewUserRepo(db))
	questionSvc := question.NewService(gormrepo.NewQuestionRepo(db))
	followUpSvc := followup.NewService(gormrepo.NewFollowUpRepo(db))
	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	var publisher worker.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer w.Close()
		publisher = w
		logger.Info("publishing tree events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	events := make(chan worker.Event, 256)
	eventWorker := worker.NewEventWorker(events, publisher, logger)

	router := api.NewRouter(api.Deps{
		Users:          userSvc,
		Questions:      questionSvc,
		FollowUps:      followUpSvc,
		JWT:            jwtMgr,
		Events:         events,
		DB:             db,
		VotesPerMinute: cfg.VotesPerMin,
		VoteBurst:      cfg.VoteBurst,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		eventWorker.Run(workerCtx)
		close(workerDone)
	}()

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownAfter)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	cancelWorker()
	<-workerDone
	logger.Info("server stopped")
}
