package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"channel_etl/internal/catalog"
	"channel_etl/internal/classify"
	"channel_etl/internal/config"
	"channel_etl/internal/film"
	"channel_etl/internal/importer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	jsonPath := flag.String("json", cfg.JSONPath, "path to the channel export JSON")
	mediaDir := flag.String("media", cfg.MediaDir, "directory holding the export media files")
	dbPath := flag.String("db", cfg.DatabasePath, "path to the catalog database")
	outDir := flag.String("out", "./public", "public assets root for copied media")
	noTMDB := flag.Bool("no-tmdb", false, "disable external metadata lookups")
	flag.Parse()

	log := newLogger(cfg.LogLevel)

	if *jsonPath == "" {
		log.Error("no export path given, set -json or IMPORT_JSON_PATH")
		os.Exit(1)
	}
	if _, err := os.Stat(*jsonPath); err != nil {
		log.Error("export file not found", "path", *jsonPath, "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := catalog.NewSQLite(*dbPath)
	if err != nil {
		log.Error("open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	rules, err := classify.Load(cfg.RulesPath)
	if err != nil {
		log.Error("load classification rules", "error", err)
		os.Exit(1)
	}

	aliases, err := film.LoadAliases(cfg.AliasesPath)
	if err != nil {
		log.Error("load film aliases", "error", err)
		os.Exit(1)
	}

	var lookup film.Lookup
	if cfg.TMDBAPIKey != "" && !*noTMDB {
		lookup = film.NewTMDBClient(nil, cfg.TMDBAPIKey)
	}
	resolver := film.NewResolver(film.NewAliasIndex(aliases), lookup, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	im := importer.New(store, resolver, rules, *mediaDir, *outDir, log)
	if _, err := im.Run(ctx, *jsonPath); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
