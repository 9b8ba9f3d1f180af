package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
	"ai-interviewer/interfaces"
	"ai-interviewer/usecase"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func openStore() (*gorm.DB, *infrastructure.Store, error) {
	db, err := infrastructure.OpenDatabase(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, infrastructure.NewStore(db), nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// eventPublisher connects to RabbitMQ when configured. Without a URL events
// are dropped.
func eventPublisher() (domain.EventPublisher, func(), error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("rabbitmq url not set, interview events disabled")
		return domain.NopPublisher{}, func() {}, nil
	}
	rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQ, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := rmq.Close(); err != nil {
			logger.Warn("close rabbitmq", zap.Error(err))
		}
	}
	return infrastructure.NewLoggingPublisher(rmq, logger), closeFn, nil
}

func serve(ctx context.Context) error {
	db, store, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB(db)

	model, closeModel, err := infrastructure.NewLanguageModel(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeModel() }()

	events, closeEvents, err := eventPublisher()
	if err != nil {
		return err
	}
	defer closeEvents()

	validator := usecase.NewValidator()
	extractor := infrastructure.NewDocumentExtractor(logger)
	accounts := usecase.NewAccounts(store, validator, logger)

	if cfg.Admin.Password != "" {
		if _, err := accounts.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return err
		}
	}

	evaluator := usecase.NewEvaluator(store, model, validator, logger)
	supplier := usecase.NewSupplier(store, model, validator, logger)
	services := interfaces.Services{
		Accounts: accounts,
		Resumes:  usecase.NewResumeIntake(store, extractor, model, validator, events, cfg.Upload.MaxBytes, logger),
		Engine:   usecase.NewEngine(store, evaluator, supplier, events, logger),
		Reports:  usecase.NewReportCompiler(store, model, validator, events, logger),
		Admin:    usecase.NewAdmin(store, extractor, cfg.Upload.MaxBytes, logger),
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxBytes
	router.Use(gin.Recovery(), interfaces.RequestID(), interfaces.Logging(logger))
	interfaces.NewHTTPHandler(router, services, cfg.Upload.MaxBytes, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("llm_provider", cfg.LLM.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
