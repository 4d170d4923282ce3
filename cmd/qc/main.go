package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	_ "time/tzdata"

	"qc-line/internal/config"
	"qc-line/internal/inspection"
	"qc-line/internal/lib/serial"
	"qc-line/internal/production"
	"qc-line/internal/service/dashboard"
	genexcel "qc-line/internal/service/generate-excel"
	"qc-line/internal/service/workflow"
	"qc-line/internal/storage/memory"
	"qc-line/internal/storage/mysql"
	"qc-line/internal/storage/postgres"
	"qc-line/internal/storage/sqlite"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// recordStore is what every storage backend offers to the services.
type recordStore interface {
	production.ScanStore
	inspection.ChecklistStore
	dashboard.Storage
	io.Closer
}

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env)

	loc, err := cfg.Location()
	if err != nil {
		log.Error("failed to load time zone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	table, err := production.ParseTargetTable(cfg.Production.Targets)
	if err != nil {
		log.Error("invalid production targets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	closing, err := production.ParseClosing(cfg.Production.BucketClosing)
	if err != nil {
		log.Error("invalid bucket closing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := openStore(*cfg)
	if err != nil {
		log.Error("failed to open storage", slog.String("driver", cfg.Storage.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	normalizer := serial.Normalizer{Length: cfg.Serial.Length, Numeric: cfg.Serial.Numeric}

	if len(cfg.Users) == 0 {
		log.Warn("no users configured, every API request will be rejected")
	}

	svc := services{
		recorder:  production.NewRecorder(log, store, normalizer, loc),
		writer:    inspection.NewWriter(log, store, normalizer, itemDefinitions(cfg.Checklist.Items), cfg.Checklist.PhotoItem),
		workflow:  workflow.NewService(store),
		dashboard: dashboard.NewService(store, table, closing, loc),
		excel:     genexcel.NewGenerateService(store),
	}

	log.Info("server started",
		slog.String("address", cfg.Address),
		slog.String("driver", cfg.Storage.Driver),
		slog.String("time_zone", loc.String()),
	)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, loc, svc),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Error("failed start server", slog.String("error", err.Error()))
	}

	log.Error("server stopped")
}

func openStore(cfg config.Config) (recordStore, error) {
	switch cfg.Storage.Driver {
	case "mysql":
		return mysql.New(cfg)
	case "postgres":
		return postgres.New(context.Background(), cfg.Storage.DSN)
	case "sqlite":
		return sqlite.New(cfg.Storage.Path)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func itemDefinitions(items []config.Item) []inspection.ItemDefinition {
	defs := make([]inspection.ItemDefinition, 0, len(items))
	for _, it := range items {
		defs = append(defs, inspection.ItemDefinition{
			Key:                it.Key,
			RequireObservation: it.RequireObservation,
			Options:            it.Options,
		})
	}
	return defs
}

type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	if h.coreHandler.Enabled(ctx, r.Level) {
		err = h.coreHandler.Handle(ctx, r)
		if err != nil {
			return err
		}
	}

	// errors also go to the file
	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	var coreHandler slog.Handler
	switch env {
	case envDev:
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case envLocal, envProd:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	errorFile, err := os.OpenFile("errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		slog.Warn("cannot open error log file", "error", err)
		return slog.New(coreHandler)
	}

	errorHandler := slog.NewTextHandler(errorFile, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	})
}
