package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonmartinstorm/slsnusern/internal/config"
	"github.com/jonmartinstorm/slsnusern/internal/dbwriter"
	"github.com/jonmartinstorm/slsnusern/internal/fetcher"
	"github.com/jonmartinstorm/slsnusern/internal/jsonlwriter"
	"github.com/jonmartinstorm/slsnusern/internal/logger"
	"github.com/jonmartinstorm/slsnusern/internal/ratelimit"
	"github.com/jonmartinstorm/slsnusern/internal/runner"

	"github.com/jonmartinstorm/slsnusern/internal/bqwriter"
	_ "github.com/lib/pq"
)

func main() {
	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go func() {
		<-ctx.Done()
		slog.Info("Avbrudd mottatt – rydder opp...")
	}()

	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("Ugyldig konfigurasjon", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Debug)

	limiter := ratelimit.New(fetcher.DefaultBaseURL, cfg.Token, nil)
	client, err := fetcher.New(cfg, limiter)
	if err != nil {
		slog.Error("Klarte ikke å sette opp GitHub-klient", "error", err)
		os.Exit(1)
	}

	writer, err := newWriter(ctx, cfg)
	if err != nil {
		slog.Error("Klarte ikke å sette opp lagring", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			slog.Warn("Klarte ikke å lukke lagringen", "error", cerr)
		}
	}()

	if err := runner.RunApp(ctx, cfg, client, writer); err != nil {
		slog.Error("Applikasjonen feilet", "error", err)
		os.Exit(1)
	}
}

func newWriter(ctx context.Context, cfg config.Config) (runner.RecordWriter, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		pw, err := dbwriter.New(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pw.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pw, nil
	case config.StorageBigQuery:
		return bqwriter.New(ctx, &cfg)
	default:
		return jsonlwriter.New(cfg.OutputPath)
	}
}
