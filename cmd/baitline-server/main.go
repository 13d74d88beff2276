package main

// #region imports
import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"baitline/internal/api"
	"baitline/internal/classify"
	"baitline/internal/config"
	"baitline/internal/engage"
	"baitline/internal/logging"
	"baitline/internal/orchestrator"
	"baitline/internal/report"
	"baitline/internal/session"
)

// #endregion

// #region main
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store := orchestrator.OpenStore(cfg.DBPath)
	defer store.Close()

	var classifier classify.Adapter = classify.Disabled{}
	var responder engage.Responder = engage.Disabled{}
	if cfg.Collab.APIKey != "" {
		classifier = classify.NewOpenAIAdapter(cfg.Collab.APIKey, cfg.Collab.BaseURL,
			cfg.Collab.ClassifyModel, cfg.Collab.ClassifyTimeout.Std())
		responder = engage.NewOpenAIResponder(cfg.Collab.APIKey, cfg.Collab.BaseURL,
			cfg.Collab.EngageModel, cfg.Collab.EngageTimeout.Std())
		slog.Info("Collaborators enabled", "classify_model", cfg.Collab.ClassifyModel, "engage_model", cfg.Collab.EngageModel)
	} else {
		slog.Info("No API key configured, collaborators disabled")
	}

	var reporter report.Reporter = report.Nop{}
	if cfg.ReportURL != "" {
		reporter = report.NewWebhook(cfg.ReportURL, cfg.Collab.ReportTimeout.Std())
	}

	orch := orchestrator.New(cfg.CombinerConfig(), cfg.PolicyConfig(),
		classifier, responder, store, reporter)

	if sqlStore, ok := store.(*session.SQLiteStore); ok {
		tr, err := logging.NewTranscript(sqlStore.DB())
		if err != nil {
			slog.Warn("Turn log disabled", "error", err)
		} else {
			orch.SetTurnLog(tr)
		}
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	api.NewHandler(orch, store).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
}

// #endregion main
