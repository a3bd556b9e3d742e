// @title invoicevault API
// @version 1.0
// @description Parses food and instamart tax-invoice documents, checks their arithmetic and loads the orders.
// @BasePath /api/v1
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"invoicevault/internal/app"
	"invoicevault/internal/config"
	"invoicevault/internal/handler"
	"invoicevault/internal/logger"
	"invoicevault/internal/repository/postgres"
	"invoicevault/internal/router"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	closer, err := logger.Setup(cfg.Log.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Initialize engine and collaborators
	engine := app.NewEngine(&cfg.Engine)
	resolver, err := app.NewResolver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize document resolver: %w", err)
	}
	sender, err := app.NewReportSender(&cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to initialize report sender: %w", err)
	}
	ingestSvc := app.NewIngestService(cfg, engine, resolver, postgres.NewOrderStore(db), sender)

	// Initialize handlers
	maxUpload := cfg.Server.MaxUploadSize << 20
	r := router.Setup(router.Handlers{
		Health: handler.NewHealthHandler(postgres.Pinger{DB: db}),
		Parse:  handler.NewParseHandler(engine.Extractor, engine.Validator, maxUpload),
		Ingest: handler.NewIngestHandler(ingestSvc, maxUpload),
		Orders: handler.NewOrderHandler(postgres.NewOrderReader(db)),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Str("env", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
