package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"channel_etl/internal/classify"
	"channel_etl/internal/config"
	"channel_etl/internal/film"
	"channel_etl/internal/notify"
	"channel_etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	jsonPath := flag.String("json", cfg.JSONPath, "path to the channel export JSON")
	outDir := flag.String("out", cfg.OutDir, "output directory for NDJSON streams")
	since := flag.String("since", cfg.Since, "keep only messages at or after this date")
	limit := flag.Int("limit", cfg.Limit, "process at most this many messages (0 = all)")
	noTMDB := flag.Bool("no-tmdb", false, "disable external metadata lookups")
	aliasesPath := flag.String("aliases", cfg.AliasesPath, "path to a film aliases JSON (empty = embedded)")
	rulesPath := flag.String("rules", cfg.RulesPath, "path to a classification rules YAML (empty = embedded)")
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

	sinceTime, err := config.ParseSince(*since)
	if err != nil {
		log.Error("parse since", "error", err)
		os.Exit(1)
	}

	rules, err := classify.Load(*rulesPath)
	if err != nil {
		log.Error("load classification rules", "error", err)
		os.Exit(1)
	}

	aliases, err := film.LoadAliases(*aliasesPath)
	if err != nil {
		log.Error("load film aliases", "error", err)
		os.Exit(1)
	}
	idx := film.NewAliasIndex(aliases)
	log.Info("film aliases loaded", "count", idx.Len())

	var lookup film.Lookup
	if cfg.TMDBAPIKey != "" && !*noTMDB {
		lookup = film.NewTMDBClient(nil, cfg.TMDBAPIKey)
	} else {
		log.Info("external metadata lookups disabled")
	}
	resolver := film.NewResolver(idx, lookup, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(resolver, rules, log)
	stats, err := p.Run(ctx, pipeline.Options{
		JSONPath: *jsonPath,
		OutDir:   *outDir,
		Since:    sinceTime,
		Limit:    *limit,
	})
	if err != nil {
		log.Error("etl failed", "error", err)
		os.Exit(1)
	}

	if cfg.BotToken != "" && cfg.ReportChatID != 0 {
		notifier, err := notify.New(cfg.BotToken, cfg.ReportChatID)
		if err != nil {
			log.Warn("create notifier", "error", err)
		} else if err := notifier.SendReport(stats); err != nil {
			log.Warn("send run report", "error", err)
		}
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
