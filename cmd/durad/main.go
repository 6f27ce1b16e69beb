// durad - a durable, single-node message-queue / key-value service.
//
// Usage:
//
//	durad [flags]
//
// Flags:
//
//	-config string   Path to a JSON config file (default "durad.json")
//	-version         Show version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/duraq/duraq/internal/admission"
	"github.com/duraq/duraq/internal/config"
	"github.com/duraq/duraq/internal/kvstore"
	"github.com/duraq/duraq/internal/metrics"
	"github.com/duraq/duraq/internal/queue"
	"github.com/duraq/duraq/internal/transport"
	"github.com/duraq/duraq/internal/version"
)

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	configPath := flag.String("config", "durad.json", "Path to a JSON config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("durad v%s (built %s)\n", version.Version, version.BuildTime)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "durad: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	walPath := filepath.Join(cfg.DataDir, "wal.bin")
	metaPath := filepath.Join(cfg.DataDir, "wal.meta")

	var q *queue.Queue
	var kv *kvstore.Store

	switch cfg.Mode {
	case config.ModeQueue:
		q, err = queue.Open(walPath, metaPath)
	case config.ModeKV:
		kv, err = kvstore.Open(walPath, metaPath, cfg.Degree)
	default:
		err = fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if err != nil {
		logger.Error("failed to open core", "error", err)
		os.Exit(1)
	}
	if q != nil {
		defer q.Close()
	}
	if kv != nil {
		defer kv.Close()
	}

	gate := admission.New(cfg.RateLimit)
	reg := metrics.New()

	srv := transport.New(cfg.Addr, cfg.Mode, q, kv, gate, reg, logger)
	admin := transport.NewAdminServer(cfg.AdminAddr, reg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	go func() {
		if err := admin.Start(ctx); err != nil {
			logger.Error("admin server error", "error", err)
		}
	}()

	logger.Info("durad starting", "version", version.Version, "mode", cfg.Mode, "data_dir", cfg.DataDir)
	if err := srv.Start(ctx); err != nil {
		logger.Error("transport server error", "error", err)
		os.Exit(1)
	}

	logger.Info("durad shutdown complete")
}
