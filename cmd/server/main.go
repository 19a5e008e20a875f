package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/review-sentiment/backend/api/handlers"
	"github.com/review-sentiment/backend/internal/analyzer"
	"github.com/review-sentiment/backend/internal/broker"
	"github.com/review-sentiment/backend/internal/config"
	"github.com/review-sentiment/backend/internal/db"
	"github.com/review-sentiment/backend/internal/logging"
	"github.com/review-sentiment/backend/internal/metrics"
	"github.com/review-sentiment/backend/internal/repository"
	"github.com/review-sentiment/backend/internal/ws"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	jobRepo := repository.NewJobRepository(database)
	reg := metrics.NewRegistry()

	b := broker.New(analyzer.NewLexiconAnalyzer(), broker.Options{
		HeartbeatPeriod:   cfg.HeartbeatPeriod,
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		Dialect:           cfg.Dialect(),
		Recorder:          jobRepo,
		Registerer:        reg,
		Logger:            logger,
	})
	wsHandler := ws.NewHandler(b, cfg.MaxMessageBytes, logger)
	if origins := cfg.Origins(); len(origins) > 0 {
		wsHandler.SetCheckOrigin(ws.AllowOrigins(origins))
	}

	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Analysis:  handlers.NewAnalysisHandler(b, cfg.MaxMessageBytes),
		Sessions:  handlers.NewSessionHandler(b),
		Jobs:      handlers.NewJobHandler(jobRepo),
		WebSocket: handlers.NewWebSocketHandler(wsHandler),
		Limiter:   handlers.NewIPRateLimiter(nil, cfg.IngressRate, cfg.IngressBurst),
		Metrics:   metrics.Handler(reg),
		StaticDir: cfg.StaticDir,
		Logger:    logger,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: readHeaderTimeout}
	wsSrv := &http.Server{Addr: cfg.WSAddr, Handler: wsHandler, ReadHeaderTimeout: readHeaderTimeout}

	if err := b.Start(); err != nil {
		return fmt.Errorf("failed to start broker: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listen(httpSrv, "http", logger) })
	g.Go(func() error { return listen(wsSrv, "websocket", logger) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := b.Stop(shutdownCtx); err != nil {
			logger.Warn("Broker did not stop cleanly", "error", err)
		}
		if err := b.WaitJobs(shutdownCtx); err != nil {
			logger.Warn("Analysis jobs still running at shutdown", "error", err)
		}
		return errors.Join(httpSrv.Shutdown(shutdownCtx), wsSrv.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

func listen(srv *http.Server, name string, logger *slog.Logger) error {
	logger.Info("Starting server", "server", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}
