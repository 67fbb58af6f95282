package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/sheetsnap/internal/archive"
	"github.com/JonMunkholm/sheetsnap/internal/config"
	"github.com/JonMunkholm/sheetsnap/internal/core"
	"github.com/JonMunkholm/sheetsnap/internal/fetch"
	"github.com/JonMunkholm/sheetsnap/internal/logging"
	"github.com/JonMunkholm/sheetsnap/internal/snapshot"
	"github.com/JonMunkholm/sheetsnap/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration; this is the only fatal failure mode
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	sheets, err := cfg.Source.SheetDescriptors()
	if err != nil {
		slog.Error("failed to parse sheet configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"spreadsheet", cfg.Source.SpreadsheetID,
		"sheets", len(sheets),
		"refresh_interval", cfg.Refresh.Interval,
		"archive_enabled", cfg.Database.URL != "",
	)

	fetcher := &fetch.CSVExportFetcher{
		BaseURL:       cfg.Source.BaseURL,
		SpreadsheetID: cfg.Source.SpreadsheetID,
		Transport: &fetch.HTTPTransport{
			Client: &http.Client{Timeout: cfg.Source.FetchTimeout},
		},
	}

	builder := snapshot.NewBuilder(snapshot.Config{
		SourceSheetID:     cfg.Source.SpreadsheetID,
		Sheets:            sheets,
		DefaultPrimaryKey: cfg.Source.PrimaryKey,
		Static: snapshot.StaticConfig{
			MapEnabled:          cfg.Static.MapEnabled,
			SharePreviewEnabled: cfg.Static.SharePreviewEnabled,
			DefaultLocationID:   cfg.Static.DefaultLocationID,
		},
	}, fetcher)

	ctx := context.Background()

	// Optional snapshot archive
	var store *archive.Store
	if cfg.Database.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		store = archive.New(pool)
		if err := store.Init(ctx); err != nil {
			slog.Error("failed to initialize snapshot archive", "error", err)
			os.Exit(1)
		}
		slog.Info("snapshot archive enabled")
	}

	service := core.NewService(builder, store)
	if store != nil {
		service.SetArchiveRetention(cfg.Database.Retention)
	}

	// Serve the last archived snapshot until the first fetch completes
	if store != nil {
		if run, err := store.Latest(ctx); err != nil {
			slog.Warn("could not read archived snapshot", "error", err)
		} else if run != nil {
			service.Seed(run.Document, run.ContentDigest, run.GeneratedAt)
			slog.Info("seeded snapshot from archive",
				"generated_at", run.GeneratedAt,
				"digest", run.ContentDigest,
			)
		}
	}

	// Background refresh scheduler
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRefreshScheduler(jobCtx, cfg.Refresh.Interval)

	server := web.NewServer(service, &cfg.Server)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		slog.Error("server stopped", "error", err)
	}
}
