// Command snapshot runs one acquisition and writes the snapshot document
// to the configured output path ("-" for stdout). Only a configuration
// failure or an invalid artifact exits non-zero; individual sheet failures
// surface as empty results inside a complete document.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/JonMunkholm/sheetsnap/internal/archive"
	"github.com/JonMunkholm/sheetsnap/internal/config"
	"github.com/JonMunkholm/sheetsnap/internal/fetch"
	"github.com/JonMunkholm/sheetsnap/internal/logging"
	"github.com/JonMunkholm/sheetsnap/internal/snapshot"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

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
	doc := builder.Build(ctx)

	var data []byte
	if cfg.Output.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		slog.Error("failed to serialize snapshot", "error", err)
		os.Exit(1)
	}

	// Never publish an artifact that fails its own schema
	if err := snapshot.Validate(data); err != nil {
		slog.Error("snapshot failed schema validation", "error", err)
		os.Exit(1)
	}

	digest, err := doc.ContentDigest()
	if err != nil {
		slog.Error("failed to digest snapshot", "error", err)
		os.Exit(1)
	}

	if cfg.Database.URL != "" {
		if err := archiveRun(ctx, cfg, doc, data, digest); err != nil {
			slog.Warn("snapshot archive write failed", "error", err)
		}
	}

	if cfg.Output.Path == "-" {
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			slog.Error("failed to write snapshot to stdout", "error", err)
			os.Exit(1)
		}
	} else {
		if err := os.WriteFile(cfg.Output.Path, data, 0644); err != nil {
			slog.Error("failed to write snapshot file", "path", cfg.Output.Path, "error", err)
			os.Exit(1)
		}
	}

	slog.Info("snapshot written",
		"path", cfg.Output.Path,
		"digest", digest,
		"quarter", doc.Meta.ReportingQuarter,
		"sheets", doc.Sheets.Len(),
		"bytes", len(data),
	)
}

func archiveRun(ctx context.Context, cfg *config.Config, doc *snapshot.Document, data []byte, digest string) error {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := archive.New(pool)
	if err := store.Init(ctx); err != nil {
		return err
	}

	generatedAt, err := time.Parse(time.RFC3339, doc.Meta.GeneratedAt)
	if err != nil {
		generatedAt = time.Now().UTC()
	}
	err = store.Record(ctx, archive.Run{
		ID:               uuid.New(),
		GeneratedAt:      generatedAt,
		ReportingQuarter: doc.Meta.ReportingQuarter,
		ContentDigest:    digest,
		Document:         data,
	})
	if err != nil {
		return err
	}

	if cfg.Database.Retention > 0 {
		if pruned, err := store.Prune(ctx, cfg.Database.Retention); err != nil {
			slog.Warn("archive prune failed", "error", err)
		} else if pruned > 0 {
			slog.Info("pruned archived snapshot runs", "runs_pruned", pruned)
		}
	}
	return nil
}
