package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskflow/tasks/adapters/db"
	"taskflow/tasks/adapters/memory"
	"taskflow/tasks/adapters/mongo"
	"taskflow/tasks/adapters/records"
	"taskflow/tasks/adapters/rest/handlers"
	"taskflow/tasks/config"
	"taskflow/tasks/core"
)

func main() {
	// config
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "taskflow server configuration file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg := config.MustLoad(configPath)

	// logger
	log := mustMakeLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	log.Info("starting taskflow server", "backend", cfg.Backend)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStorage()

	// service
	tasksService := core.NewService(storage)

	// rest
	mux := http.NewServeMux()
	handlers.Register(mux, log, tasksService, cfg.HTTP.Timeout)

	server := http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.Timeout,
	}

	go func() {
		<-ctx.Done()
		log.Debug("shutting down taskflow server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down server", "error", err)
		}
	}()

	log.Info("taskflow REST server is running", "address", cfg.HTTP.Address)

	// blocking
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %v", err)
	}

	return nil
}

// openStorage builds the configured backend and returns its cleanup.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (core.DB, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		storage, err := db.New(log, cfg.DBAddress)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to db: %v", err)
		}
		closeFn := func() {
			if err := storage.Close(); err != nil {
				log.Error("failed to close db connection", "error", err)
			}
		}
		if err := storage.Migrate(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to migrate db: %v", err)
		}
		return storage, closeFn, nil

	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		storage, err := mongo.New(connectCtx, log, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %v", err)
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := storage.Close(closeCtx); err != nil {
				log.Error("failed to close mongo connection", "error", err)
			}
		}
		if err := storage.Migrate(connectCtx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to create mongo indexes: %v", err)
		}
		return storage, closeFn, nil

	case config.BackendRecords:
		storage := records.New(log, cfg.Records.BaseURL, cfg.Records.ProjectID, cfg.Records.PublicKey, cfg.Records.Timeout)
		return storage, func() {}, nil

	default:
		storage := memory.New(log, memory.WithLatency(cfg.Mock.MinLatency, cfg.Mock.MaxLatency))
		if cfg.Mock.Seed {
			ds, err := memory.LoadDataset(cfg.Mock.SeedFile)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to load mock dataset: %v", err)
			}
			storage.Load(ds)
		}
		return storage, func() {}, nil
	}
}

func mustMakeLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
