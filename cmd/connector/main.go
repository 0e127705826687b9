package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"pulsefeed/internal/config"
	"pulsefeed/internal/fetch"
	"pulsefeed/internal/logger"
	mdb "pulsefeed/internal/mongo"
	"pulsefeed/internal/pipeline"
)

func init() {
	// Best effort: a missing .env is fine.
	_ = godotenv.Load()
}

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	mc, err := mdb.NewClient(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer mc.Close(ctx)

	// The store must be reachable before any fetch begins.
	if err := mc.Ping(ctx); err != nil {
		return fmt.Errorf("mongo unreachable: %w", err)
	}
	if err := mc.EnsureRecordIndexes(ctx, cfg.Collection); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	slog.Info("starting run",
		"source", cfg.Source,
		"target", cfg.MongoDB+"."+cfg.Collection,
		"connector", cfg.ConnectorName)

	fc := fetch.NewClient(cfg)
	sum, runErr := pipeline.Run(ctx, cfg, fc, mc.Records(cfg.Collection))

	slog.Info("run finished",
		"pages", sum.Pages,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"upserted", sum.Upserted,
		"modified", sum.Modified,
		"inserted", sum.Inserted,
		"failed", sum.Failed)

	return runErr
}
