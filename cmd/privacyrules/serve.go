package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"privacy_rules/internal/api"
	"privacy_rules/internal/config"
	"privacy_rules/internal/editor"
	"privacy_rules/internal/repository"
	"privacy_rules/internal/repository/memory"
	"privacy_rules/internal/repository/sqlite"
	"privacy_rules/internal/repository/yamlfile"
	"privacy_rules/internal/service"
	"privacy_rules/pkg/crypto"
	"privacy_rules/pkg/metrics"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rules editor HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := setupLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("storage", cfg.Storage.Driver))

	signer := crypto.NewSigner(cfg.Storage.SigningKey, logger)
	repo, closeRepo, err := openRepository(cfg.Storage, signer, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	metricsCollector := metrics.NewMetricsCollector(logger)
	metricsCollector.Registry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auditService := service.NewAuditService(cfg.Audit.Workers, cfg.Audit.QueueSize, logger, service.NewLogSink(logger))

	backend := editor.RepositoryBackend{Repo: repo}
	session := editor.NewSession(backend, backend, editor.SessionOptions{
		LoadTimeout: cfg.Editor.LoadTimeout,
		Metrics:     metricsCollector,
		Audit:       auditService,
		Logger:      logger,
	})

	if ctx == nil {
		ctx = context.Background()
	}
	if err := session.Start(ctx); err != nil {
		// Edits are refused until POST /api/v1/rules/reload succeeds.
		logger.Error("Initial load failed", slog.String("error", err.Error()))
	}

	apiHandler := api.NewAPIHandler(session, signer, logger, cfg.HTTP.RequestTimeout)
	metricsServer := metricsCollector.StartMetricsServer(cfg.Metrics.Addr)
	httpServer := startHTTPServer(cfg.HTTP.Addr, apiHandler, logger)
	waitForShutdown(logger, httpServer, metricsServer, metricsCollector, auditService)
	logger.Info("Application shutdown complete")
	return nil
}

func setupLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler), nil
}

func openRepository(cfg config.StorageConfig, signer *crypto.Signer, logger *slog.Logger) (repository.RuleRepository, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case config.DriverYAML:
		if cfg.SigningKey == "" {
			signer = nil
			logger.Warn("No signing key configured, rules file is not signed")
		}
		return yamlfile.NewRuleRepository(cfg.Path, signer, logger), noop, nil
	case config.DriverSQLite:
		repo, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Error("Closing database failed", slog.String("error", err.Error()))
			}
		}, nil
	case config.DriverMemory:
		return memory.NewRuleRepository(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func startHTTPServer(addr string, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, appName)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	metricsCollector *metrics.MetricsCollector,
	auditService *service.AuditService,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := auditService.Shutdown(ctx); err != nil {
		logger.Error("Audit service shutdown failed", slog.String("error", err.Error()))
	}
	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
	}
}
