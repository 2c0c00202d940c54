package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/clubpulse/lead-conversion-backend/internal/config"
	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		filePath string
		format   string
		envFile  string
		strict   bool
	)

	flagSet := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "", "batch file to import (JSON or YAML)")
	flagSet.StringVar(&format, "format", "", "batch format: json or yaml (default: from file extension)")
	flagSet.StringVar(&envFile, "env-file", "", "load environment variables from this file before reading config")
	flagSet.BoolVar(&strict, "strict", false, "exit non-zero when any row is rejected")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if filePath == "" {
		return fmt.Errorf("--file is required")
	}
	if format == "" {
		var err error
		if format, err = services.FormatFromPath(filePath); err != nil {
			return err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	// Logs go to stderr so stdout carries only the JSON result
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	batch, err := services.DecodeBatch(f, format)
	f.Close()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	entities := services.NewEntityService(store, logger)
	result, err := services.NewIngestionService(entities, logger).Import(ctx, batch)
	if err != nil {
		return fmt.Errorf("import interrupted: %w", err)
	}

	// Without a snapshot file the memory driver would drop everything on exit
	if mem, ok := store.(*database.MemoryStore); ok {
		if cfg.Database.SnapshotPath == "" {
			logger.Warn("SNAPSHOT_PATH not set, imported records are not persisted")
		} else if err := mem.SaveSnapshot(ctx, cfg.Database.SnapshotPath); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if strict && len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d rows rejected", len(result.Errors), batch.Size())
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ingest loads clubs, plans, staff, leads and subscriptions from a
batch file into the configured store. Rows are imported in that order, so
later rows may reference ids assigned in earlier ones. Rejected rows are
listed in the JSON result and do not stop the import.

Usage:
  ingest --file rows.yaml [flags]

Flags:
`)
	flagSet.PrintDefaults()
}
